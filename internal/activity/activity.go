package activity

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/currency"
)

// Kind is the canonical activity type understood by the portfolio tracker.
type Kind string

const (
	KindBuy      Kind = "buy"
	KindSell     Kind = "sell"
	KindDividend Kind = "dividend"
	KindInterest Kind = "interest"
	KindFX       Kind = "fx"
)

// Valid reports whether k is one of the canonical kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindBuy, KindSell, KindDividend, KindInterest, KindFX:
		return true
	}

	return false
}

// DataSource tags where an activity's symbol came from.
type DataSource string

const (
	DataSourceYahoo  DataSource = "YAHOO"
	DataSourceManual DataSource = "MANUAL"
)

// Version is the envelope schema version.
const Version = "v0"

// TimestampLayout always renders a numeric UTC offset, never "Z".
const TimestampLayout = "2006-01-02T15:04:05-07:00"

var ErrInvalidActivity = errors.New("invalid activity")

// Timestamp is a second-precision instant that keeps its zone offset when encoded.
type Timestamp struct {
	time.Time
}

func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.Truncate(time.Second)}
}

func (t Timestamp) String() string {
	return t.Format(TimestampLayout)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Format(TimestampLayout))
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}

	parsed, err := time.Parse(TimestampLayout, s)
	if err != nil {
		return fmt.Errorf("parsing timestamp %q: %w", s, err)
	}

	t.Time = parsed

	return nil
}

// Activity is a single normalized ledger entry.
type Activity struct {
	AccountID  string     `json:"accountId"`
	Comment    string     `json:"comment"`
	Fee        float64    `json:"fee"`
	Quantity   float64    `json:"quantity"`
	Type       Kind       `json:"type"`
	UnitPrice  float64    `json:"unitPrice"`
	Currency   string     `json:"currency"`
	DataSource DataSource `json:"dataSource"`
	Date       Timestamp  `json:"date"`
	Symbol     string     `json:"symbol"`
}

// Validate checks the invariants every emitted activity must hold.
func (a Activity) Validate() error {
	if !a.Type.Valid() {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidActivity, a.Type)
	}

	if a.Quantity < 0 || a.UnitPrice < 0 || a.Fee < 0 {
		return fmt.Errorf("%w: negative amount (quantity=%v unitPrice=%v fee=%v)",
			ErrInvalidActivity, a.Quantity, a.UnitPrice, a.Fee)
	}

	return nil
}

// Meta describes one conversion run.
type Meta struct {
	Date    Timestamp `json:"date"`
	Version string    `json:"version"`
}

// Envelope is the output of a conversion: run metadata plus activities in input order.
type Envelope struct {
	Meta       Meta       `json:"meta"`
	Activities []Activity `json:"activities"`
}

func NewEnvelope(createdAt time.Time, activities []Activity) *Envelope {
	if activities == nil {
		activities = []Activity{}
	}

	return &Envelope{
		Meta: Meta{
			Date:    NewTimestamp(createdAt),
			Version: Version,
		},
		Activities: activities,
	}
}

// NormalizeCurrency upper-cases and trims a currency code. Codes unknown to ISO 4217
// (crypto tickers, mostly) are returned upper-cased as they are.
func NormalizeCurrency(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return ""
	}

	if unit, err := currency.ParseISO(code); err == nil {
		return unit.String()
	}

	return code
}
