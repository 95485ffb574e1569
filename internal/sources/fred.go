package sources

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/caldera-energy/pricefeed/internal/errs"
	"github.com/caldera-energy/pricefeed/internal/guard"
	"github.com/caldera-energy/pricefeed/internal/model"
)

const fredMissingSentinel = "."

// FREDClient fetches FRED-style series: GET series/observations with
// api_key, file_type=json, series_id, observation_start,
// observation_end, returning {observations:[{date, value}...]} where
// value "." means missing.
type FREDClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
	cache   *guard.Cache
	limiter *guard.RateLimiter
	breaker *guard.CircuitBreaker
}

// NewFREDClient constructs an adapter with its own exclusive guard
// stack. apiKey must be non-empty; pass config.FREDAPIKey()'s result.
func NewFREDClient(baseURL, apiKey string, cacheTTL time.Duration) (*FREDClient, error) {
	if apiKey == "" {
		return nil, errs.New(errs.Config, "fred", "api key is required", nil)
	}
	return &FREDClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 15 * time.Second},
		cache:   guard.NewCache(cacheTTL),
		limiter: guard.NewRateLimiter(2, 5),
		breaker: guard.NewCircuitBreaker(guard.DefaultCircuitBreakerConfig("fred")),
	}, nil
}

// Name identifies this adapter.
func (c *FREDClient) Name() string { return "fred" }

type fredResponse struct {
	Observations []struct {
		Date  string `json:"date"`
		Value string `json:"value"`
	} `json:"observations"`
}

// FetchSeries retrieves seriesID over [start, end]. Observations whose
// value is the "." sentinel are dropped rather than surfaced as NaN.
func (c *FREDClient) FetchSeries(ctx context.Context, seriesID string, start, end time.Time) ([]model.Observation, error) {
	end, err := validateWindow(c.Name(), start, end)
	if err != nil {
		return nil, err
	}

	key := guard.Key("fred", seriesID, start, end)
	if cached, ok := c.cache.Get(key); ok {
		var obs []model.Observation
		if err := json.Unmarshal(cached, &obs); err == nil {
			return obs, nil
		}
	}

	q := url.Values{}
	q.Set("api_key", c.apiKey)
	q.Set("file_type", "json")
	q.Set("series_id", seriesID)
	q.Set("observation_start", start.Format("2006-01-02"))
	q.Set("observation_end", end.Format("2006-01-02"))
	reqURL := c.baseURL + "/series/observations?" + q.Encode()

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

	var parsed fredResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, errs.New(errs.Parse, c.Name(), "unexpected FRED response shape", err)
	}

	obs := make([]model.Observation, 0, len(parsed.Observations))
	for _, row := range parsed.Observations {
		if row.Value == fredMissingSentinel {
			continue
		}
		date, err := time.Parse("2006-01-02", row.Date)
		if err != nil {
			continue
		}
		value, err := strconv.ParseFloat(row.Value, 64)
		if err != nil {
			continue
		}
		obs = append(obs, model.Observation{Date: date, Value: value})
	}

	sortObservations(obs)

	if encoded, err := json.Marshal(obs); err == nil {
		c.cache.Set(key, encoded)
	}
	return obs, nil
}
