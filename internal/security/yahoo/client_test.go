package yahoo_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/folioport/internal/activity"
	"github.com/MrJamesThe3rd/folioport/internal/security"
	"github.com/MrJamesThe3rd/folioport/internal/security/yahoo"
)

func newServer(t *testing.T, searches map[string]string, charts map[string]string) *httptest.Server {
	t.Helper()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))

		switch {
		case r.URL.Path == "/v1/finance/search":
			body, ok := searches[r.URL.Query().Get("q")]
			if !ok {
				body = `{"quotes":[]}`
			}

			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(body))
		case strings.HasPrefix(r.URL.Path, "/v8/finance/chart/"):
			symbol := strings.TrimPrefix(r.URL.Path, "/v8/finance/chart/")

			cur, ok := charts[symbol]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}

			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"chart":{"result":[{"meta":{"currency":"` + cur + `","symbol":"` + symbol + `"}}],"error":null}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(ts.Close)

	return ts
}

func newClient(url string) *yahoo.Client {
	return yahoo.New(url, 5*time.Second, yahoo.WithRateLimit(time.Millisecond, 10))
}

func TestClient_ResolveByISIN(t *testing.T) {
	ts := newServer(t,
		map[string]string{
			"CH0012032048": `{"quotes":[{"symbol":"RHHBY","shortname":"Roche ADR","quoteType":"EQUITY"},{"symbol":"ROG.SW","longname":"Roche Holding AG","quoteType":"EQUITY"}]}`,
		},
		map[string]string{"RHHBY": "USD", "ROG.SW": "CHF"},
	)

	sec, err := newClient(ts.URL).Resolve(context.Background(), security.Query{ISIN: "CH0012032048", Currency: "CHF"})
	require.NoError(t, err)

	assert.Equal(t, "ROG.SW", sec.Symbol)
	assert.Equal(t, "CHF", sec.Currency)
	assert.Equal(t, "Roche Holding AG", sec.Name)
	assert.Equal(t, activity.DataSourceYahoo, sec.DataSource)
}

func TestClient_FallsBackToFirstHit(t *testing.T) {
	ts := newServer(t,
		map[string]string{"AAPL": `{"quotes":[{"symbol":"AAPL","shortname":"Apple Inc."}]}`},
		map[string]string{"AAPL": "USD"},
	)

	sec, err := newClient(ts.URL).Resolve(context.Background(), security.Query{Ticker: "AAPL", Currency: "EUR"})
	require.NoError(t, err)
	assert.Equal(t, "AAPL", sec.Symbol)
	assert.Equal(t, "USD", sec.Currency)
}

func TestClient_TriesNextTerm(t *testing.T) {
	ts := newServer(t,
		map[string]string{"Gold": `{"quotes":[{"symbol":"GC=F","shortname":"Gold"}]}`},
		map[string]string{"GC=F": "USD"},
	)

	sec, err := newClient(ts.URL).Resolve(context.Background(), security.Query{Ticker: "XAU", Name: "Gold"})
	require.NoError(t, err)
	assert.Equal(t, "GC=F", sec.Symbol)
}

func TestClient_NotFound(t *testing.T) {
	ts := newServer(t,
		map[string]string{"DELISTED": `{"quotes":[{"symbol":"DEAD"}]}`},
		map[string]string{},
	)

	_, err := newClient(ts.URL).Resolve(context.Background(), security.Query{ISIN: "XX000", Ticker: "DELISTED"})
	assert.ErrorIs(t, err, security.ErrNotFound)
}

func TestClient_ServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
	}))
	defer ts.Close()

	_, err := newClient(ts.URL).Resolve(context.Background(), security.Query{ISIN: "CH1"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, security.ErrNotFound)
	assert.Contains(t, err.Error(), "429")
}

func TestClient_CanceledContext(t *testing.T) {
	ts := newServer(t, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newClient(ts.URL).Resolve(ctx, security.Query{ISIN: "CH1"})
	assert.Error(t, err)
}
