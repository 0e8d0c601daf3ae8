package security

import (
	"context"
	"errors"
	"strings"

	"github.com/MrJamesThe3rd/folioport/internal/activity"
)

// ErrNotFound is returned by a Resolver when no security matches the query.
// It is an expected outcome, not a lookup failure.
var ErrNotFound = errors.New("security not found")

// Security is a tradable instrument as known to the downstream tracker.
type Security struct {
	Symbol     string
	Currency   string
	Name       string
	DataSource activity.DataSource
}

// Query identifies the instrument a row refers to. Any field may be empty.
type Query struct {
	ISIN     string
	Ticker   string
	Name     string
	Currency string
}

// Terms returns the non-empty identifiers, most specific first.
func (q Query) Terms() []string {
	var terms []string

	for _, t := range []string{q.ISIN, q.Ticker, q.Name} {
		if t = strings.TrimSpace(t); t != "" {
			terms = append(terms, t)
		}
	}

	return terms
}

// Key is a stable cache key for the query.
func (q Query) Key() string {
	return strings.ToUpper(strings.Join([]string{q.ISIN, q.Ticker, q.Name, q.Currency}, "|"))
}

func (q Query) String() string {
	var parts []string

	if q.ISIN != "" {
		parts = append(parts, "isin="+q.ISIN)
	}

	if q.Ticker != "" {
		parts = append(parts, "ticker="+q.Ticker)
	}

	if q.Name != "" {
		parts = append(parts, "name="+q.Name)
	}

	if q.Currency != "" {
		parts = append(parts, "currency="+q.Currency)
	}

	return strings.Join(parts, " ")
}

//go:generate mockgen -source=security.go -destination=resolver_mock.go -package=security
type Resolver interface {
	// Resolve returns ErrNotFound when nothing matches; any other error is a lookup failure.
	Resolve(ctx context.Context, q Query) (*Security, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(ctx context.Context, q Query) (*Security, error)

func (f ResolverFunc) Resolve(ctx context.Context, q Query) (*Security, error) {
	return f(ctx, q)
}

// NotFound is a Resolver that never finds anything. It ends a resolver chain
// when no lookup service is configured.
var NotFound Resolver = ResolverFunc(func(context.Context, Query) (*Security, error) {
	return nil, ErrNotFound
})
