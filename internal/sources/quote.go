package sources

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/caldera-energy/pricefeed/internal/errs"
	"github.com/caldera-energy/pricefeed/internal/guard"
	"github.com/caldera-energy/pricefeed/internal/model"
)

// QuoteClient fetches OHLCV series: GET with ticker, start, end,
// returning tabular {date, open, high, low, close, volume}. The
// canonical price for this provider shape is the close.
type QuoteClient struct {
	baseURL string
	http    *http.Client
	cache   *guard.Cache
	limiter *guard.RateLimiter
	breaker *guard.CircuitBreaker
}

// NewQuoteClient constructs an adapter with its own exclusive guard
// stack. Unlike EIA/FRED, quote-style providers in scope for this spec
// carry no credential requirement.
func NewQuoteClient(baseURL string, cacheTTL time.Duration) *QuoteClient {
	return &QuoteClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
		cache:   guard.NewCache(cacheTTL),
		limiter: guard.NewRateLimiter(2, 5),
		breaker: guard.NewCircuitBreaker(guard.DefaultCircuitBreakerConfig("quote")),
	}
}

// Name identifies this adapter.
func (c *QuoteClient) Name() string { return "quote" }

type quoteBar struct {
	Date   string   `json:"date"`
	Open   float64  `json:"open"`
	High   float64  `json:"high"`
	Low    float64  `json:"low"`
	Close  float64  `json:"close"`
	Volume *float64 `json:"volume,omitempty"`
}

// FetchSeries retrieves ticker over [start, end]. The Observation.Value
// is the close price; callers needing full OHLCV should use
// FetchBars instead.
func (c *QuoteClient) FetchSeries(ctx context.Context, ticker string, start, end time.Time) ([]model.Observation, error) {
	bars, err := c.FetchBars(ctx, ticker, start, end)
	if err != nil {
		return nil, err
	}
	obs := make([]model.Observation, 0, len(bars))
	for _, b := range bars {
		date, err := time.Parse("2006-01-02", b.Date)
		if err != nil {
			continue
		}
		obs = append(obs, model.Observation{Date: date, Value: b.Close})
	}
	sortObservations(obs)
	return obs, nil
}

type bar = quoteBar

// FetchBars retrieves the full OHLCV rows for ticker over [start, end].
func (c *QuoteClient) FetchBars(ctx context.Context, ticker string, start, end time.Time) ([]bar, error) {
	end, err := validateWindow(c.Name(), start, end)
	if err != nil {
		return nil, err
	}

	key := guard.Key("quote", ticker, start, end)
	if cached, ok := c.cache.Get(key); ok {
		var bars []bar
		if err := json.Unmarshal(cached, &bars); err == nil {
			return bars, nil
		}
	}

	q := url.Values{}
	q.Set("ticker", ticker)
	q.Set("start", start.Format("2006-01-02"))
	q.Set("end", end.Format("2006-01-02"))
	reqURL := c.baseURL + "?" + q.Encode()

	resp, err := withRetry(ctx, c.Name(), c.limiter, c.breaker, func(ctx context.Context) (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", eiaUserAgent)
		return c.http.Do(req)
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.New(errs.Transient, c.Name(), "read response body", err)
	}

	var raw []quoteBar
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, errs.New(errs.Parse, c.Name(), "unexpected quote response shape", err)
	}

	bars := make([]bar, 0, len(raw))
	for _, row := range raw {
		if _, err := time.Parse("2006-01-02", row.Date); err != nil {
			continue
		}
		bars = append(bars, row)
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Date < bars[j].Date })

	if encoded, err := json.Marshal(bars); err == nil {
		c.cache.Set(key, encoded)
	}
	return bars, nil
}
