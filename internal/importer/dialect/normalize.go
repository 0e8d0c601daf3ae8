package dialect

import (
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // provider zones must not depend on the host's zoneinfo

	"github.com/shopspring/decimal"
)

// IsBlank reports whether a cell is empty or holds only the placeholder marker.
func IsBlank(s, placeholder string) bool {
	s = strings.TrimSpace(s)
	return s == "" || (placeholder != "" && s == placeholder)
}

// ParseDecimal strips everything but digits, '.' and '-' (currency symbols,
// thousands separators, units) and returns the absolute value. Blank cells and
// cells with no digits read as zero.
func ParseDecimal(s, placeholder string) (decimal.Decimal, error) {
	if IsBlank(s, placeholder) {
		return decimal.Zero, nil
	}

	clean := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			return r
		}

		return -1
	}, s)

	if strings.Trim(clean, ".-") == "" {
		return decimal.Zero, nil
	}

	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing number %q: %w", s, err)
	}

	return d.Abs(), nil
}

// ParseNumber is ParseDecimal as a float64.
func ParseNumber(s, placeholder string) (float64, error) {
	d, err := ParseDecimal(s, placeholder)
	if err != nil {
		return 0, err
	}

	return d.InexactFloat64(), nil
}

var ErrNoDate = errors.New("no date")

// ParseDay parses a date-only cell and anchors it to hour:00 local time in loc,
// so all-day transactions compare deterministically.
func ParseDay(s string, layouts []string, loc *time.Location, hour int) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrNoDate
	}

	for _, layout := range layouts {
		d, err := time.ParseInLocation(layout, s, loc)
		if err != nil {
			continue
		}

		return time.Date(d.Year(), d.Month(), d.Day(), hour, 0, 0, 0, loc), nil
	}

	return time.Time{}, fmt.Errorf("parsing date %q: unsupported format", s)
}

// instantLayouts are tried in order; the last one carries no offset and is read in loc.
var instantLayouts = []string{time.RFC3339Nano, "2006-01-02 15:04:05Z07:00", "2006-01-02 15:04:05"}

// ParseInstant parses a timestamp cell, moves it into loc and drops sub-second precision.
func ParseInstant(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrNoDate
	}

	for _, layout := range instantLayouts {
		t, err := time.ParseInLocation(layout, s, loc)
		if err != nil {
			continue
		}

		return t.In(loc).Truncate(time.Second), nil
	}

	return time.Time{}, fmt.Errorf("parsing timestamp %q: unsupported format", s)
}

// MustLoadLocation loads an IANA zone from the embedded database.
func MustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(fmt.Sprintf("loading time zone %s: %v", name, err))
	}

	return loc
}
