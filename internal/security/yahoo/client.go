// Package yahoo resolves instruments through the Yahoo Finance search and chart endpoints.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/MrJamesThe3rd/folioport/internal/activity"
	"github.com/MrJamesThe3rd/folioport/internal/security"
)

const (
	DefaultBaseURL = "https://query1.finance.yahoo.com"

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/108.0.0.0 Safari/537.36"

	// maxCandidates bounds how many search hits are checked against the currency hint.
	maxCandidates = 3
)

type searchResponse struct {
	Quotes []quote `json:"quotes"`
}

type quote struct {
	Symbol    string `json:"symbol"`
	Exchange  string `json:"exchange"`
	ShortName string `json:"shortname"`
	LongName  string `json:"longname"`
	QuoteType string `json:"quoteType"`
}

func (q quote) name() string {
	if q.LongName != "" {
		return q.LongName
	}

	return q.ShortName
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency string `json:"currency"`
				Symbol   string `json:"symbol"`
			} `json:"meta"`
		} `json:"result"`
	} `json:"chart"`
}

// Client implements security.Resolver. Requests are paced by a token bucket and
// never retried.
type Client struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// WithRateLimit allows one request every interval with the given burst.
func WithRateLimit(interval time.Duration, burst int) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Every(interval), burst) }
}

func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Every(250*time.Millisecond), 1),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Resolve searches for the query's identifiers in order (ISIN, ticker, name) and
// returns the first hit whose trading currency matches the hint, or the first hit
// at all when none does.
func (c *Client) Resolve(ctx context.Context, q security.Query) (*security.Security, error) {
	for _, term := range q.Terms() {
		quotes, err := c.search(ctx, term)
		if err != nil {
			return nil, err
		}

		if len(quotes) == 0 {
			continue
		}

		sec, err := c.pick(ctx, quotes, q.Currency)
		if err != nil {
			return nil, err
		}

		if sec != nil {
			return sec, nil
		}
	}

	return nil, security.ErrNotFound
}

func (c *Client) pick(ctx context.Context, quotes []quote, hint string) (*security.Security, error) {
	var first *security.Security

	for _, qt := range quotes[:min(len(quotes), maxCandidates)] {
		cur, err := c.currency(ctx, qt.Symbol)
		if err != nil {
			return nil, err
		}

		if cur == "" {
			continue
		}

		sec := &security.Security{
			Symbol:     qt.Symbol,
			Currency:   cur,
			Name:       qt.name(),
			DataSource: activity.DataSourceYahoo,
		}

		if hint == "" || strings.EqualFold(cur, hint) {
			return sec, nil
		}

		if first == nil {
			first = sec
		}
	}

	return first, nil
}

func (c *Client) search(ctx context.Context, term string) ([]quote, error) {
	params := url.Values{}
	params.Set("q", term)
	params.Set("quotesCount", "6")
	params.Set("newsCount", "0")

	var resp searchResponse
	if _, err := c.get(ctx, "/v1/finance/search?"+params.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("search %q: %w", term, err)
	}

	quotes := resp.Quotes[:0]

	for _, qt := range resp.Quotes {
		if qt.Symbol != "" {
			quotes = append(quotes, qt)
		}
	}

	return quotes, nil
}

// currency returns the trading currency of symbol, or "" when Yahoo has no chart for it.
func (c *Client) currency(ctx context.Context, symbol string) (string, error) {
	path := "/v8/finance/chart/" + url.PathEscape(symbol) + "?range=1d&interval=1d"

	var resp chartResponse

	found, err := c.get(ctx, path, &resp)
	if err != nil {
		return "", fmt.Errorf("chart %q: %w", symbol, err)
	}

	if !found || len(resp.Chart.Result) == 0 {
		return "", nil
	}

	return resp.Chart.Result[0].Meta.Currency, nil
}

// get decodes a JSON response into dst. A 404 is reported as found == false.
func (c *Client) get(ctx context.Context, path string, dst any) (bool, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return false, fmt.Errorf("waiting for rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return false, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return false, fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return false, fmt.Errorf("decoding response: %w", err)
	}

	return true, nil
}
