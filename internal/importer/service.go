package importer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/folioport/internal/activity"
	"github.com/MrJamesThe3rd/folioport/internal/encoding"
	"github.com/MrJamesThe3rd/folioport/internal/importer/bitpanda"
	"github.com/MrJamesThe3rd/folioport/internal/importer/broker"
	"github.com/MrJamesThe3rd/folioport/internal/importer/dialect"
	"github.com/MrJamesThe3rd/folioport/internal/security"
)

type Service struct {
	converters map[Provider]converter
	resolver   security.Resolver
	settings   dialect.Settings
	logger     *slog.Logger
	now        func() time.Time
}

type Option func(*Service)

// WithClock overrides the time source used for the envelope's creation date.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func NewService(resolver security.Resolver, settings dialect.Settings, opts ...Option) *Service {
	s := &Service{
		converters: map[Provider]converter{
			ProviderBroker:   newPipeline(broker.New()),
			ProviderBitpanda: newPipeline(bitpanda.New()),
		},
		resolver: resolver,
		settings: settings,
		logger:   slog.Default(),
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Providers returns the registered provider names in sorted order.
func (s *Service) Providers() []Provider {
	providers := make([]Provider, 0, len(s.converters))
	for p := range s.converters {
		providers = append(providers, p)
	}

	slices.Sort(providers)

	return providers
}

type convertOptions struct {
	progress func(done, total int)
	onSkip   func(Skip)
}

type ConvertOption func(*convertOptions)

// WithProgress is called after every data row with the number of rows done so far.
func WithProgress(fn func(done, total int)) ConvertOption {
	return func(o *convertOptions) {
		o.progress = fn
	}
}

// WithSkipHandler is called for every row that produced no activities.
func WithSkipHandler(fn func(Skip)) ConvertOption {
	return func(o *convertOptions) {
		o.onSkip = fn
	}
}

// Convert reads one provider export and returns its activities in input order.
// It fails with *ParseError or *ResolutionError; row-level problems are reported
// as skips and never fail the run.
func (s *Service) Convert(ctx context.Context, provider Provider, r io.Reader, opts ...ConvertOption) (*activity.Envelope, error) {
	conv, ok := s.converters[provider]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, provider)
	}

	var o convertOptions
	for _, opt := range opts {
		opt(&o)
	}

	logger := s.logger.With("provider", provider, "run", uuid.NewString())

	text, charset, err := encoding.Decode(r)
	if err != nil {
		return nil, &ParseError{Provider: provider, Err: err}
	}

	logger.Debug("decoded export", "charset", charset, "bytes", len(text))

	run := &run{
		provider: provider,
		resolver: s.resolver,
		settings: s.settings,
		logger:   logger,
		progress: o.progress,
		onSkip:   o.onSkip,
	}

	activities, err := conv.convert(ctx, text, run)
	if err != nil {
		return nil, err
	}

	logger.Info("conversion complete", "activities", len(activities), "skipped", run.skipped)

	return activity.NewEnvelope(s.now(), activities), nil
}
