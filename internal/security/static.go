package security

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/MrJamesThe3rd/folioport/internal/activity"
)

// mappingFile is the on-disk format of SYMBOL_MAPPINGS_FILE.
type mappingFile struct {
	Mappings []struct {
		Identifier string `yaml:"identifier"`
		Symbol     string `yaml:"symbol"`
		Currency   string `yaml:"currency,omitempty"`
		DataSource string `yaml:"data_source,omitempty"`
	} `yaml:"mappings"`
}

// LoadMappings reads identifier to symbol mappings from a YAML file.
func LoadMappings(path string) ([]Mapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading mappings file: %w", err)
	}

	return ParseMappings(data)
}

func ParseMappings(data []byte) ([]Mapping, error) {
	var f mappingFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing mappings: %w", err)
	}

	mappings := make([]Mapping, 0, len(f.Mappings))

	for i, m := range f.Mappings {
		if strings.TrimSpace(m.Identifier) == "" || strings.TrimSpace(m.Symbol) == "" {
			return nil, fmt.Errorf("mapping %d: identifier and symbol are required", i+1)
		}

		source := activity.DataSource(strings.ToUpper(m.DataSource))
		if source == "" {
			source = activity.DataSourceYahoo
		}

		mappings = append(mappings, Mapping{
			Identifier: strings.TrimSpace(m.Identifier),
			Symbol:     strings.TrimSpace(m.Symbol),
			Currency:   activity.NormalizeCurrency(m.Currency),
			DataSource: source,
		})
	}

	return mappings, nil
}

// StaticResolver serves a fixed set of mappings and delegates misses.
type StaticResolver struct {
	byIdentifier map[string]Mapping
	next         Resolver
}

func NewStaticResolver(mappings []Mapping, next Resolver) *StaticResolver {
	byIdentifier := make(map[string]Mapping, len(mappings))
	for _, m := range mappings {
		byIdentifier[strings.ToUpper(m.Identifier)] = m
	}

	return &StaticResolver{byIdentifier: byIdentifier, next: next}
}

func (r *StaticResolver) Resolve(ctx context.Context, q Query) (*Security, error) {
	for _, term := range q.Terms() {
		if m, ok := r.byIdentifier[strings.ToUpper(term)]; ok {
			return m.Security(), nil
		}
	}

	return r.next.Resolve(ctx, q)
}
