// Package bitpanda reads the Bitpanda transaction history export. The file starts
// with a block of account metadata; the real header sits on a fixed line and
// trailing optional columns are often missing from data rows.
package bitpanda

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/folioport/internal/activity"
	"github.com/MrJamesThe3rd/folioport/internal/importer/dialect"
	"github.com/MrJamesThe3rd/folioport/internal/security"
)

const (
	colTransactionID  = "Transaction ID"
	colTimestamp      = "Timestamp"
	colType           = "Transaction Type"
	colDirection      = "In/Out"
	colAmountFiat     = "Amount Fiat"
	colFiat           = "Fiat"
	colAmountAsset    = "Amount Asset"
	colAsset          = "Asset"
	colMarketPrice    = "Asset market price"
	colMarketCurrency = "Asset market price currency"
	colAssetClass     = "Asset class"
	colProductID      = "Product ID"
	colFee            = "Fee"
	colFeeAsset       = "Fee asset"
	colSpread         = "Spread"
	colSpreadCurrency = "Spread Currency"
	colTaxFiat        = "Tax Fiat"
)

var columns = []string{
	colTransactionID, colTimestamp, colType, colDirection, colAmountFiat, colFiat,
	colAmountAsset, colAsset, colMarketPrice, colMarketCurrency, colAssetClass,
	colProductID, colFee, colFeeAsset, colSpread, colSpreadCurrency, colTaxFiat,
}

const (
	placeholder = "-"
	headerLine  = 7
)

var zone = dialect.MustLoadLocation("Europe/Vienna")

// renames maps Bitpanda tickers to the ones the price feed knows.
var renames = map[string]string{
	"MIOTA": "IOTA",
	"BCHA":  "XEC",
}

// metalNames are the display names metal securities are looked up by.
var metalNames = map[string]string{
	"XAU": "Gold",
	"XAG": "Silver",
	"XPT": "Platinum",
	"XPD": "Palladium",
}

var rules = []dialect.Rule[Row]{
	{Match: typeIs("reward"), Kind: activity.KindInterest},
	{Match: func(r Row) bool { return isTransfer(r) && r.Direction == "incoming" }, Kind: activity.KindBuy},
	{Match: isTransfer, Kind: activity.KindSell},
	{Match: typeIs("buy"), Kind: activity.KindBuy},
	{Match: typeIs("sell"), Kind: activity.KindSell},
}

func typeIs(t string) func(Row) bool {
	return func(r Row) bool {
		return r.Type == t
	}
}

func isTransfer(r Row) bool {
	return strings.HasPrefix(r.Type, "transfer")
}

type assetClass int

const (
	classSecurity assetClass = iota
	classCrypto
	classMetal
)

func parseAssetClass(s string) assetClass {
	s = strings.ToLower(s)

	switch {
	case strings.Contains(s, "crypto"):
		return classCrypto
	case strings.Contains(s, "metal"):
		return classMetal
	default:
		return classSecurity
	}
}

// Row is a normalized Bitpanda record. Type and Direction are lower-cased and
// amounts are absolute values.
type Row struct {
	Line           int
	ID             string
	Date           time.Time
	Type           string
	Direction      string
	AmountFiat     decimal.Decimal
	Fiat           string
	AmountAsset    decimal.Decimal
	Asset          string
	MarketPrice    decimal.Decimal
	MarketCurrency string
	Class          assetClass
	Fee            decimal.Decimal
	FeeAsset       string
}

type Dialect struct{}

func New() *Dialect {
	return &Dialect{}
}

func (d *Dialect) Layout() dialect.Layout {
	return dialect.Layout{
		Delimiter:   ',',
		Mode:        dialect.FixedHeader,
		Columns:     columns,
		HeaderLine:  headerLine,
		Placeholder: placeholder,
	}
}

// Ignore drops pure fiat movements (deposits, withdrawals).
func (d *Dialect) Ignore(rec dialect.Record) bool {
	class := rec.Get(colAssetClass)
	return dialect.IsBlank(class, placeholder) || strings.EqualFold(class, "fiat")
}

func (d *Dialect) Normalize(rec dialect.Record) (Row, error) {
	date, err := dialect.ParseInstant(rec.Get(colTimestamp), zone)
	if err != nil {
		return Row{}, err
	}

	row := Row{
		Line:           rec.Line,
		ID:             cell(rec, colTransactionID),
		Date:           date,
		Type:           strings.ToLower(rec.Get(colType)),
		Direction:      strings.ToLower(cell(rec, colDirection)),
		Fiat:           activity.NormalizeCurrency(cell(rec, colFiat)),
		Asset:          strings.ToUpper(cell(rec, colAsset)),
		MarketCurrency: activity.NormalizeCurrency(cell(rec, colMarketCurrency)),
		Class:          parseAssetClass(rec.Get(colAssetClass)),
		FeeAsset:       strings.ToUpper(cell(rec, colFeeAsset)),
	}

	numbers := []struct {
		col string
		dst *decimal.Decimal
	}{
		{colAmountFiat, &row.AmountFiat},
		{colAmountAsset, &row.AmountAsset},
		{colMarketPrice, &row.MarketPrice},
		{colFee, &row.Fee},
	}

	for _, n := range numbers {
		v, err := dialect.ParseDecimal(rec.Get(n.col), placeholder)
		if err != nil {
			return Row{}, fmt.Errorf("column %s: %w", n.col, err)
		}

		*n.dst = v
	}

	return row, nil
}

func cell(rec dialect.Record, col string) string {
	v := rec.Get(col)
	if dialect.IsBlank(v, placeholder) {
		return ""
	}

	return v
}

func (d *Dialect) Classify(row Row) (activity.Kind, bool) {
	return dialect.Classify(rules, row)
}

// Lookup only asks for metals. A miss or a failed lookup falls back to the asset id.
func (d *Dialect) Lookup(row Row, _ activity.Kind) (dialect.Lookup, bool) {
	if row.Class != classMetal {
		return dialect.Lookup{}, false
	}

	name, ok := metalNames[row.Asset]
	if !ok {
		name = row.Asset
	}

	return dialect.Lookup{
		Query: security.Query{Name: name, Currency: row.Fiat},
	}, true
}

func (d *Dialect) Assemble(row Row, kind activity.Kind, sec *security.Security, s dialect.Settings) []activity.Activity {
	pos := position(row, sec)
	date := activity.NewTimestamp(row.Date)

	if kind == activity.KindInterest {
		return []activity.Activity{
			{
				AccountID:  s.AccountID,
				Comment:    row.ID,
				Quantity:   1,
				Type:       activity.KindInterest,
				UnitPrice:  row.AmountFiat.InexactFloat64(),
				Currency:   row.Fiat,
				DataSource: activity.DataSourceManual,
				Date:       date,
				Symbol:     s.RewardAssetID,
			},
			{
				AccountID:  s.AccountID,
				Comment:    row.ID,
				Quantity:   pos.quantity.InexactFloat64(),
				Type:       activity.KindBuy,
				UnitPrice:  pos.unitPrice.InexactFloat64(),
				Currency:   row.quoteCurrency(),
				DataSource: pos.source,
				Date:       date,
				Symbol:     pos.symbol,
			},
		}
	}

	return []activity.Activity{{
		AccountID:  s.AccountID,
		Comment:    row.ID,
		Fee:        fee(row).InexactFloat64(),
		Quantity:   pos.quantity.InexactFloat64(),
		Type:       kind,
		UnitPrice:  pos.unitPrice.InexactFloat64(),
		Currency:   pos.currency,
		DataSource: pos.source,
		Date:       date,
		Symbol:     pos.symbol,
	}}
}

// quoteCurrency is the currency the market price is quoted in.
func (r Row) quoteCurrency() string {
	if r.MarketCurrency != "" {
		return r.MarketCurrency
	}

	return r.Fiat
}

type holding struct {
	symbol    string
	source    activity.DataSource
	quantity  decimal.Decimal
	unitPrice decimal.Decimal
	currency  string
}

func position(row Row, sec *security.Security) holding {
	h := holding{
		symbol:    row.Asset,
		source:    activity.DataSourceYahoo,
		quantity:  row.AmountAsset,
		unitPrice: row.MarketPrice,
		currency:  row.quoteCurrency(),
	}

	switch row.Class {
	case classCrypto:
		ticker := row.Asset
		if renamed, ok := renames[ticker]; ok {
			ticker = renamed
		}

		h.symbol = ticker + row.quoteCurrency()
	case classMetal:
		h.quantity = GramsToTroyOunces(row.AmountAsset)
		h.unitPrice = PerGramToPerTroyOunce(row.MarketPrice)
		h.source = activity.DataSourceManual

		if sec != nil {
			h.symbol = sec.Symbol

			if sec.DataSource != "" {
				h.source = sec.DataSource
			}

			if sec.Currency != "" {
				h.currency = sec.Currency
			}
		}
	}

	return h
}

// fee converts the row's fee into the activity currency. Fees paid in an
// unrelated asset (platform tokens) cannot be priced and are dropped.
func fee(row Row) decimal.Decimal {
	switch row.FeeAsset {
	case "", row.Fiat:
		return row.Fee
	case row.Asset:
		return row.Fee.Mul(row.MarketPrice)
	default:
		return decimal.Zero
	}
}

var gramsPerTroyOunce = decimal.RequireFromString("31.1034768")

func GramsToTroyOunces(grams decimal.Decimal) decimal.Decimal {
	return grams.Div(gramsPerTroyOunce)
}

func PerGramToPerTroyOunce(price decimal.Decimal) decimal.Decimal {
	return price.Mul(gramsPerTroyOunce)
}
