package prices

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchPrices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/simple/price", r.URL.Path)
		assert.Contains(t, r.URL.Query().Get("ids"), "bitcoin")
		w.Write([]byte(`{"bitcoin":{"usd":99000.5},"ethereum":{"usd":2700}}`))
	}))
	defer server.Close()

	c := NewCoinGeckoClient(600, 1)
	c.baseURL = server.URL

	got, err := c.FetchPrices(context.Background(), []string{"BTC", "ETH"})
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"BTC": 99000.5, "ETH": 2700}, got)
}

func TestFetchPricesAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	c := NewCoinGeckoClient(600, 1)
	c.baseURL = server.URL

	_, err := c.FetchPrices(context.Background(), []string{"BTC"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestFetchPricesNoSupportedSymbols(t *testing.T) {
	c := NewCoinGeckoClient(600, 1)
	c.baseURL = "http://unreachable.invalid"

	got, err := c.FetchPrices(context.Background(), []string{"NOTACOIN"})
	require.NoError(t, err)
	assert.Empty(t, got)
}
