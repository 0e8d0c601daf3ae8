package importer

import (
	"errors"
	"fmt"

	"github.com/MrJamesThe3rd/folioport/internal/security"
)

type Provider string

const (
	ProviderBroker   Provider = "broker"
	ProviderBitpanda Provider = "bitpanda"
)

var (
	ErrUnknownProvider = errors.New("unknown provider")
	ErrNoRecords       = errors.New("no records found")
)

// ParseError is returned when an export cannot be tokenized or holds no data rows.
type ParseError struct {
	Provider Provider
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing %s export: %v", e.Provider, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ResolutionError is returned when the security lookup for a row fails. The whole
// run is aborted and no partial result is returned.
type ResolutionError struct {
	Provider Provider
	Line     int
	Query    security.Query
	Err      error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolving security on line %d (%s): %v", e.Line, e.Query, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

type SkipReason string

const (
	SkipIgnored      SkipReason = "ignored"
	SkipUnclassified SkipReason = "unclassified"
	SkipUnresolved   SkipReason = "unresolved"
	SkipInvalid      SkipReason = "invalid"
)

// Skip describes a row that produced no activities.
type Skip struct {
	Line   int        `json:"line"`
	Reason SkipReason `json:"reason"`
	Detail string     `json:"detail,omitempty"`
}
