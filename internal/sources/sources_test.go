package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEIAClientRequiresAPIKey(t *testing.T) {
	_, err := NewEIAClient("http://example.invalid", "", time.Minute)
	assert.Error(t, err)
}

func TestEIAClientFetchSeries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"response":{"data":[{"period":"2026-01-01","value":"71.5"},{"period":"2026-01-02","value":"72.0"}]}}`))
	}))
	defer server.Close()

	client, err := NewEIAClient(server.URL, "test-key", time.Minute)
	require.NoError(t, err)

	obs, err := client.FetchSeries(context.Background(), "PET.RWTC.D", time.Now().AddDate(0, 0, -7), time.Now())
	require.NoError(t, err)
	require.Len(t, obs, 2)
	assert.Equal(t, 71.5, obs[0].Value)
}

func TestFREDClientDropsSentinelValues(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"observations":[{"date":"2026-01-01","value":"71.5"},{"date":"2026-01-02","value":"."}]}`))
	}))
	defer server.Close()

	client, err := NewFREDClient(server.URL, "test-key", time.Minute)
	require.NoError(t, err)

	obs, err := client.FetchSeries(context.Background(), "DCOILWTICO", time.Now().AddDate(0, 0, -7), time.Now())
	require.NoError(t, err)
	require.Len(t, obs, 1)
	assert.Equal(t, 71.5, obs[0].Value)
}

func TestQuoteClientUsesClosePrice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"date":"2026-01-01","open":70,"high":72,"low":69,"close":71.5,"volume":1000}]`))
	}))
	defer server.Close()

	client := NewQuoteClient(server.URL, time.Minute)
	obs, err := client.FetchSeries(context.Background(), "CL=F", time.Now().AddDate(0, 0, -7), time.Now())
	require.NoError(t, err)
	require.Len(t, obs, 1)
	assert.Equal(t, 71.5, obs[0].Value)
}

func TestEIAClientRetriesTransientThenSucceeds(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"response":{"data":[{"period":"2026-01-01","value":"71.5"}]}}`))
	}))
	defer server.Close()

	client, err := NewEIAClient(server.URL, "test-key", time.Minute)
	require.NoError(t, err)

	obs, err := client.FetchSeries(context.Background(), "PET.RWTC.D", time.Now().AddDate(0, 0, -7), time.Now())
	require.NoError(t, err)
	require.Len(t, obs, 1)
	assert.Equal(t, 2, attempts)
}

func TestEIAClientNonRetryableStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client, err := NewEIAClient(server.URL, "test-key", time.Minute)
	require.NoError(t, err)

	_, err = client.FetchSeries(context.Background(), "PET.RWTC.D", time.Now().AddDate(0, 0, -7), time.Now())
	assert.Error(t, err)
}
