package security

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/folioport/internal/activity"
)

var (
	ErrMappingNotFound = errors.New("mapping not found")
	ErrInvalidMapping  = errors.New("identifier and symbol are required")
)

// Mapping pins a provider identifier (ISIN, ticker or display name) to a symbol.
type Mapping struct {
	ID         uuid.UUID
	Identifier string
	Symbol     string
	Currency   string
	DataSource activity.DataSource
	CreatedAt  time.Time
}

func (m Mapping) Security() *Security {
	return &Security{
		Symbol:     m.Symbol,
		Currency:   m.Currency,
		Name:       m.Identifier,
		DataSource: m.DataSource,
	}
}

//go:generate mockgen -source=mapping.go -destination=mapping_mock.go -package=security
type MappingRepository interface {
	// FindMapping matches identifiers case-insensitively and returns ErrMappingNotFound on a miss.
	FindMapping(ctx context.Context, identifier string) (*Mapping, error)
	CreateMapping(ctx context.Context, m *Mapping) error
	ListMappings(ctx context.Context) ([]*Mapping, error)
}

type MappingService struct {
	repo MappingRepository
}

func NewMappingService(repo MappingRepository) *MappingService {
	return &MappingService{repo: repo}
}

// Learn remembers that identifier should resolve to symbol.
func (s *MappingService) Learn(ctx context.Context, identifier, symbol, currency string, source activity.DataSource) (*Mapping, error) {
	identifier = strings.TrimSpace(identifier)
	symbol = strings.TrimSpace(symbol)

	if identifier == "" || symbol == "" {
		return nil, ErrInvalidMapping
	}

	if source == "" {
		source = activity.DataSourceManual
	}

	m := &Mapping{
		Identifier: identifier,
		Symbol:     symbol,
		Currency:   activity.NormalizeCurrency(currency),
		DataSource: source,
	}

	if err := s.repo.CreateMapping(ctx, m); err != nil {
		return nil, fmt.Errorf("create mapping: %w", err)
	}

	return m, nil
}

func (s *MappingService) List(ctx context.Context) ([]*Mapping, error) {
	return s.repo.ListMappings(ctx)
}

// Suggest returns the mapping for the most specific identifier of q that has one.
func (s *MappingService) Suggest(ctx context.Context, q Query) (*Mapping, error) {
	for _, term := range q.Terms() {
		m, err := s.repo.FindMapping(ctx, term)
		if err == nil {
			return m, nil
		}

		if !errors.Is(err, ErrMappingNotFound) {
			return nil, fmt.Errorf("find mapping for %q: %w", term, err)
		}
	}

	return nil, ErrMappingNotFound
}

// MappingResolver answers from learned mappings and delegates everything else.
type MappingResolver struct {
	svc  *MappingService
	next Resolver
}

func NewMappingResolver(svc *MappingService, next Resolver) *MappingResolver {
	return &MappingResolver{svc: svc, next: next}
}

func (r *MappingResolver) Resolve(ctx context.Context, q Query) (*Security, error) {
	m, err := r.svc.Suggest(ctx, q)
	if err == nil {
		return m.Security(), nil
	}

	if !errors.Is(err, ErrMappingNotFound) {
		return nil, err
	}

	return r.next.Resolve(ctx, q)
}
