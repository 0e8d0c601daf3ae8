package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/MrJamesThe3rd/folioport/internal/activity"
	"github.com/MrJamesThe3rd/folioport/internal/importer/dialect"
	"github.com/MrJamesThe3rd/folioport/internal/security"
)

// converter is the provider-agnostic face of a pipeline.
type converter interface {
	convert(ctx context.Context, text string, r *run) ([]activity.Activity, error)
}

// run carries the per-conversion collaborators and hooks.
type run struct {
	provider Provider
	resolver security.Resolver
	settings dialect.Settings
	logger   *slog.Logger
	progress func(done, total int)
	onSkip   func(Skip)
	skipped  int
}

func (r *run) skip(s Skip) {
	r.skipped++

	switch s.Reason {
	case SkipUnresolved, SkipInvalid:
		r.logger.Warn("skipping row", "line", s.Line, "reason", s.Reason, "detail", s.Detail)
	default:
		r.logger.Debug("skipping row", "line", s.Line, "reason", s.Reason, "detail", s.Detail)
	}

	if r.onSkip != nil {
		r.onSkip(s)
	}
}

type pipeline[R any] struct {
	dialect dialect.Dialect[R]
}

func newPipeline[R any](d dialect.Dialect[R]) *pipeline[R] {
	return &pipeline[R]{dialect: d}
}

func (p *pipeline[R]) convert(ctx context.Context, text string, r *run) ([]activity.Activity, error) {
	records, err := tokenize(text, p.dialect.Layout())
	if err != nil {
		return nil, &ParseError{Provider: r.provider, Err: err}
	}

	if len(records) == 0 {
		return nil, &ParseError{Provider: r.provider, Err: ErrNoRecords}
	}

	activities := make([]activity.Activity, 0, len(records))

	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("converting line %d: %w", rec.Line, err)
		}

		acts, err := p.process(ctx, rec, r)
		if err != nil {
			return nil, err
		}

		activities = append(activities, acts...)

		if r.progress != nil {
			r.progress(i+1, len(records))
		}
	}

	return activities, nil
}

func (p *pipeline[R]) process(ctx context.Context, rec dialect.Record, r *run) ([]activity.Activity, error) {
	if p.dialect.Ignore(rec) {
		r.skip(Skip{Line: rec.Line, Reason: SkipIgnored})
		return nil, nil
	}

	row, err := p.dialect.Normalize(rec)
	if err != nil {
		r.skip(Skip{Line: rec.Line, Reason: SkipInvalid, Detail: err.Error()})
		return nil, nil
	}

	kind, ok := p.dialect.Classify(row)
	if !ok {
		r.skip(Skip{Line: rec.Line, Reason: SkipUnclassified})
		return nil, nil
	}

	var sec *security.Security

	if lookup, ok := p.dialect.Lookup(row, kind); ok {
		sec, err = r.resolver.Resolve(ctx, lookup.Query)

		switch {
		case err == nil:
		case errors.Is(err, security.ErrNotFound) && lookup.Required:
			r.skip(Skip{Line: rec.Line, Reason: SkipUnresolved, Detail: lookup.Query.String()})
			return nil, nil
		case lookup.Required:
			return nil, &ResolutionError{Provider: r.provider, Line: rec.Line, Query: lookup.Query, Err: err}
		case errors.Is(err, security.ErrNotFound):
			sec = nil
		default:
			r.logger.Warn("security lookup failed, using provider identifier",
				"line", rec.Line, "query", lookup.Query.String(), "error", err)

			sec = nil
		}
	}

	acts := p.dialect.Assemble(row, kind, sec, r.settings)
	for _, a := range acts {
		if err := a.Validate(); err != nil {
			r.skip(Skip{Line: rec.Line, Reason: SkipInvalid, Detail: err.Error()})
			return nil, nil
		}
	}

	return acts, nil
}

// tokenize pads short rows, feeds the data lines to encoding/csv and zips every
// non-blank row with the resolved columns.
func tokenize(text string, layout dialect.Layout) ([]dialect.Record, error) {
	columns := layout.Headers(text)
	if len(columns) == 0 {
		return nil, nil
	}

	lines := dialect.SplitLines(text)

	start := layout.DataStart()
	if start >= len(lines) {
		return nil, nil
	}

	var b strings.Builder

	for _, line := range lines[start:] {
		b.WriteString(dialect.PadRow(line, layout.Delimiter, len(columns), layout.Placeholder))
		b.WriteByte('\n')
	}

	reader := csv.NewReader(strings.NewReader(b.String()))
	reader.Comma = layout.Delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var records []dialect.Record

	for {
		cells, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				perr.StartLine += start
				perr.Line += start
			}

			return nil, fmt.Errorf("reading csv: %w", err)
		}

		line, _ := reader.FieldPos(0)

		rec := dialect.NewRecord(start+line, columns, cells)
		if rec.Blank(layout.Placeholder) {
			continue
		}

		records = append(records, rec)
	}

	return records, nil
}
