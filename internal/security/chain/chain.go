// Package chain assembles the resolver stack the binaries share:
// static mappings, learned mappings, an in-memory cache and the Yahoo client.
package chain

import (
	"fmt"

	"github.com/MrJamesThe3rd/folioport/internal/config"
	"github.com/MrJamesThe3rd/folioport/internal/security"
	"github.com/MrJamesThe3rd/folioport/internal/security/yahoo"
)

// New builds the resolver chain. mappings may be nil when no store is configured.
// An empty RESOLVER_BASE_URL disables the lookup service; only mappings resolve then.
func New(cfg *config.Config, mappings *security.MappingService) (security.Resolver, error) {
	resolver := security.NotFound

	if cfg.Resolver.BaseURL != "" {
		resolver = security.NewCachedResolver(
			yahoo.New(cfg.Resolver.BaseURL, cfg.Resolver.Timeout,
				yahoo.WithRateLimit(cfg.Resolver.Interval, cfg.Resolver.Burst),
			),
			cfg.Resolver.CacheTTL,
		)
	}

	if mappings != nil {
		resolver = security.NewMappingResolver(mappings, resolver)
	}

	if cfg.Resolver.MappingsFile != "" {
		static, err := security.LoadMappings(cfg.Resolver.MappingsFile)
		if err != nil {
			return nil, fmt.Errorf("loading symbol mappings: %w", err)
		}

		resolver = security.NewStaticResolver(static, resolver)
	}

	return resolver, nil
}
