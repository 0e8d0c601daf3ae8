package chain_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/folioport/internal/activity"
	"github.com/MrJamesThe3rd/folioport/internal/config"
	"github.com/MrJamesThe3rd/folioport/internal/security"
	"github.com/MrJamesThe3rd/folioport/internal/security/chain"
)

func testConfig(baseURL string) *config.Config {
	var cfg config.Config

	cfg.Resolver.BaseURL = baseURL
	cfg.Resolver.Timeout = time.Second
	cfg.Resolver.Interval = time.Millisecond
	cfg.Resolver.Burst = 10
	cfg.Resolver.CacheTTL = time.Minute

	return &cfg
}

func TestNew_StaticBeforeNetwork(t *testing.T) {
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "mappings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mappings:\n  - identifier: XAU\n    symbol: GC=F\n    currency: USD\n"), 0o600))

	cfg := testConfig(srv.URL)
	cfg.Resolver.MappingsFile = path

	resolver, err := chain.New(cfg, nil)
	require.NoError(t, err)

	sec, err := resolver.Resolve(context.Background(), security.Query{Name: "xau"})
	require.NoError(t, err)
	assert.Equal(t, "GC=F", sec.Symbol)
	assert.Zero(t, calls.Load())

	_, err = resolver.Resolve(context.Background(), security.Query{Name: "Unknown"})
	assert.ErrorIs(t, err, security.ErrNotFound)

	_, err = resolver.Resolve(context.Background(), security.Query{Name: "Unknown"})
	assert.ErrorIs(t, err, security.ErrNotFound)
	assert.Equal(t, int32(1), calls.Load(), "misses are cached")
}

func TestNew_LearnedMappings(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s", r.URL)
	}))
	defer srv.Close()

	ctrl := gomock.NewController(t)
	repo := security.NewMockMappingRepository(ctrl)
	repo.EXPECT().FindMapping(gomock.Any(), "CH1").
		Return(&security.Mapping{Identifier: "CH1", Symbol: "ABC.SW", Currency: "CHF", DataSource: activity.DataSourceYahoo}, nil)

	resolver, err := chain.New(testConfig(srv.URL), security.NewMappingService(repo))
	require.NoError(t, err)

	sec, err := resolver.Resolve(context.Background(), security.Query{ISIN: "CH1"})
	require.NoError(t, err)
	assert.Equal(t, "ABC.SW", sec.Symbol)
}

func TestNew_MissingMappingsFile(t *testing.T) {
	cfg := testConfig("http://localhost")
	cfg.Resolver.MappingsFile = filepath.Join(t.TempDir(), "missing.yaml")

	_, err := chain.New(cfg, nil)
	assert.Error(t, err)
}

func TestNew_Offline(t *testing.T) {
	resolver, err := chain.New(testConfig(""), nil)
	require.NoError(t, err)

	_, err = resolver.Resolve(context.Background(), security.Query{ISIN: "CH1"})
	assert.ErrorIs(t, err, security.ErrNotFound)
}
