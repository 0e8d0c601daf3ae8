package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/MrJamesThe3rd/folioport/internal/activity"
	"github.com/MrJamesThe3rd/folioport/internal/security"
)

// Schema creates the table the store reads from. It is safe to run repeatedly.
const Schema = `
	CREATE TABLE IF NOT EXISTS symbol_mappings (
		id          UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		identifier  TEXT NOT NULL,
		symbol      TEXT NOT NULL,
		currency    TEXT NOT NULL DEFAULT '',
		data_source TEXT NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS symbol_mappings_identifier_idx ON symbol_mappings (UPPER(identifier));
`

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("migrating symbol_mappings: %w", err)
	}

	return nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanMapping(s scanner) (*security.Mapping, error) {
	var m security.Mapping

	var source string

	if err := s.Scan(&m.ID, &m.Identifier, &m.Symbol, &m.Currency, &source, &m.CreatedAt); err != nil {
		return nil, err
	}

	m.DataSource = activity.DataSource(source)

	return &m, nil
}

func (s *Store) FindMapping(ctx context.Context, identifier string) (*security.Mapping, error) {
	query := `
		SELECT id, identifier, symbol, currency, data_source, created_at
		FROM symbol_mappings
		WHERE UPPER(identifier) = UPPER($1)
		ORDER BY created_at DESC
		LIMIT 1
	`

	m, err := scanMapping(s.db.QueryRowContext(ctx, query, identifier))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, security.ErrMappingNotFound
		}

		return nil, fmt.Errorf("finding mapping: %w", err)
	}

	return m, nil
}

func (s *Store) CreateMapping(ctx context.Context, m *security.Mapping) error {
	query := `
		INSERT INTO symbol_mappings (identifier, symbol, currency, data_source, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING id, created_at
	`

	err := s.db.QueryRowContext(ctx, query,
		m.Identifier,
		m.Symbol,
		m.Currency,
		m.DataSource,
	).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating mapping: %w", err)
	}

	return nil
}

func (s *Store) ListMappings(ctx context.Context) ([]*security.Mapping, error) {
	query := `
		SELECT id, identifier, symbol, currency, data_source, created_at
		FROM symbol_mappings
		ORDER BY identifier ASC, created_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing mappings: %w", err)
	}
	defer rows.Close()

	var mappings []*security.Mapping

	for rows.Next() {
		m, err := scanMapping(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning mapping: %w", err)
		}

		mappings = append(mappings, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating mappings: %w", err)
	}

	return mappings, nil
}
