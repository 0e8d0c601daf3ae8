// Package broker reads the generic broker transaction export: one header line,
// comma separated, one row per trade, dividend or currency exchange.
package broker

import (
	"fmt"
	"strings"
	"time"

	"github.com/MrJamesThe3rd/folioport/internal/activity"
	"github.com/MrJamesThe3rd/folioport/internal/importer/dialect"
	"github.com/MrJamesThe3rd/folioport/internal/security"
)

const (
	colDate     = "date"
	colType     = "type"
	colISIN     = "isin"
	colTicker   = "ticker"
	colName     = "name"
	colShares   = "shares"
	colPrice    = "price"
	colAmount   = "amount"
	colFee      = "fee"
	colCurrency = "currency"
)

const placeholder = "-"

// tradeHour is the local time of day date-only rows are anchored to.
const tradeHour = 12

var (
	zone        = dialect.MustLoadLocation("Europe/Zurich")
	dateLayouts = []string{"2006-01-02", "02.01.2006", "02/01/2006"}
	ignoreList  = []string{"fx", "currency exchange"}
)

// rules are evaluated in order. The fx rule is unreachable while "fx" is on the
// ignore list; it stays so that trimming the list yields fx activities.
var rules = []dialect.Rule[Row]{
	{Match: typeContains("buy"), Kind: activity.KindBuy},
	{Match: typeContains("sell"), Kind: activity.KindSell},
	{Match: typeContains("dividend"), Kind: activity.KindDividend},
	{Match: typeContains("fx"), Kind: activity.KindFX},
}

func typeContains(s string) func(Row) bool {
	return func(r Row) bool {
		return strings.Contains(strings.ToLower(r.Type), s)
	}
}

// Row is a normalized broker record. Amounts are absolute values.
type Row struct {
	Line     int
	Date     time.Time
	Type     string
	ISIN     string
	Ticker   string
	Name     string
	Shares   float64
	Price    float64
	Amount   float64
	Fee      float64
	Currency string
}

type Dialect struct{}

func New() *Dialect {
	return &Dialect{}
}

func (d *Dialect) Layout() dialect.Layout {
	return dialect.Layout{
		Delimiter:   ',',
		Mode:        dialect.HeaderFromFile,
		HeaderLine:  1,
		Placeholder: placeholder,
	}
}

func (d *Dialect) Ignore(rec dialect.Record) bool {
	return dialect.ContainsAny(rec.Get(colType), ignoreList...)
}

func (d *Dialect) Normalize(rec dialect.Record) (Row, error) {
	date, err := parseDate(rec.Get(colDate))
	if err != nil {
		return Row{}, err
	}

	row := Row{
		Line:     rec.Line,
		Date:     date,
		Type:     rec.Get(colType),
		ISIN:     cell(rec, colISIN),
		Ticker:   cell(rec, colTicker),
		Name:     cell(rec, colName),
		Currency: activity.NormalizeCurrency(cell(rec, colCurrency)),
	}

	numbers := []struct {
		col string
		dst *float64
	}{
		{colShares, &row.Shares},
		{colPrice, &row.Price},
		{colAmount, &row.Amount},
		{colFee, &row.Fee},
	}

	for _, n := range numbers {
		v, err := dialect.ParseNumber(rec.Get(n.col), placeholder)
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

func parseDate(s string) (time.Time, error) {
	if t, err := dialect.ParseDay(s, dateLayouts, zone, tradeHour); err == nil {
		return t, nil
	}

	return dialect.ParseInstant(s, zone)
}

func (d *Dialect) Classify(row Row) (activity.Kind, bool) {
	return dialect.Classify(rules, row)
}

// Lookup resolves every classified row; rows without a known security are skipped.
func (d *Dialect) Lookup(row Row, _ activity.Kind) (dialect.Lookup, bool) {
	return dialect.Lookup{
		Query: security.Query{
			ISIN:     row.ISIN,
			Ticker:   row.Ticker,
			Name:     row.Name,
			Currency: row.Currency,
		},
		Required: true,
	}, true
}

func (d *Dialect) Assemble(row Row, kind activity.Kind, sec *security.Security, s dialect.Settings) []activity.Activity {
	a := activity.Activity{
		AccountID:  s.AccountID,
		Fee:        row.Fee,
		Quantity:   row.Shares,
		Type:       kind,
		UnitPrice:  row.Price,
		Currency:   row.Currency,
		DataSource: activity.DataSourceManual,
		Date:       activity.NewTimestamp(row.Date),
		Symbol:     row.Ticker,
	}

	if sec != nil {
		a.Symbol = sec.Symbol

		if sec.DataSource != "" {
			a.DataSource = sec.DataSource
		}

		if sec.Currency != "" {
			a.Currency = sec.Currency
		}
	}

	if kind == activity.KindDividend {
		a.Quantity = 1
		a.UnitPrice = row.Amount

		if a.UnitPrice == 0 {
			a.UnitPrice = row.Price * row.Shares
		}
	}

	return []activity.Activity{a}
}
