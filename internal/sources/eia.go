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

const eiaUserAgent = "pricefeed/1 (+https://github.com/caldera-energy/pricefeed)"

// EIAClient fetches EIA-style daily series: GET with api_key, start,
// end, and a series path, returning {response:{data:[{period,
// value}...]}}.
type EIAClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
	cache   *guard.Cache
	limiter *guard.RateLimiter
	breaker *guard.CircuitBreaker
}

// NewEIAClient constructs an adapter with its own exclusive guard
// stack. apiKey must be non-empty; pass config.EIAAPIKey()'s result.
func NewEIAClient(baseURL, apiKey string, cacheTTL time.Duration) (*EIAClient, error) {
	if apiKey == "" {
		return nil, errs.New(errs.Config, "eia", "api key is required", nil)
	}
	return &EIAClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 15 * time.Second},
		cache:   guard.NewCache(cacheTTL),
		limiter: guard.NewRateLimiter(2, 5),
		breaker: guard.NewCircuitBreaker(guard.DefaultCircuitBreakerConfig("eia")),
	}, nil
}

// Name identifies this adapter.
func (c *EIAClient) Name() string { return "eia" }

type eiaResponse struct {
	Response struct {
		Data []struct {
			Period string `json:"period"`
			Value  string `json:"value"`
		} `json:"data"`
	} `json:"response"`
}

// FetchSeries retrieves seriesID over [start, end].
func (c *EIAClient) FetchSeries(ctx context.Context, seriesID string, start, end time.Time) ([]model.Observation, error) {
	end, err := validateWindow(c.Name(), start, end)
	if err != nil {
		return nil, err
	}

	key := guard.Key("eia", seriesID, start, end)
	if cached, ok := c.cache.Get(key); ok {
		var obs []model.Observation
		if err := json.Unmarshal(cached, &obs); err == nil {
			return obs, nil
		}
	}

	q := url.Values{}
	q.Set("api_key", c.apiKey)
	q.Set("start", start.Format("2006-01-02"))
	q.Set("end", end.Format("2006-01-02"))
	reqURL := c.baseURL + "/" + seriesID + "?" + q.Encode()

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

	var parsed eiaResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, errs.New(errs.Parse, c.Name(), "unexpected EIA response shape", err)
	}

	obs := make([]model.Observation, 0, len(parsed.Response.Data))
	for _, row := range parsed.Response.Data {
		date, err := time.Parse("2006-01-02", row.Period)
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
