package prices

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const coingeckoAPIBase = "https://api.coingecko.com/api/v3"

// CoinGeckoClient fetches spot prices from the CoinGecko free tier. The
// free tier is strictly rate limited, so every request goes through a
// shared limiter and batches as many symbols as possible into one call.
type CoinGeckoClient struct {
	baseURL    string
	client     *http.Client
	limiter    *rate.Limiter
	maxRetries int
}

// NewCoinGeckoClient creates a client with the given requests-per-minute
// budget and retry count.
func NewCoinGeckoClient(callsPerMin, maxRetries int) *CoinGeckoClient {
	if callsPerMin <= 0 {
		callsPerMin = 24
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &CoinGeckoClient{
		baseURL:    coingeckoAPIBase,
		client:     &http.Client{Timeout: 10 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(float64(callsPerMin)/60), 1),
		maxRetries: maxRetries,
	}
}

// FetchPrices fetches USD spot prices for the given symbols in a single
// API call. Unsupported symbols are ignored; symbols missing from the
// response are absent from the result map.
func (c *CoinGeckoClient) FetchPrices(ctx context.Context, symbols []string) (map[string]float64, error) {
	ids := make([]string, 0, len(symbols))
	for _, sym := range symbols {
		if id, ok := symbolToID[strings.ToUpper(sym)]; ok {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return map[string]float64{}, nil
	}

	endpoint := fmt.Sprintf("%s/simple/price?ids=%s&vs_currencies=usd",
		c.baseURL, url.QueryEscape(strings.Join(ids, ",")))

	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}

		result, err := c.fetchOnce(ctx, endpoint)
		if err == nil {
			return result, nil
		}
		lastErr = err
		log.Printf("⚠️  CoinGecko fetch failed (attempt %d/%d): %v", attempt, c.maxRetries, err)

		if attempt < c.maxRetries {
			// Linear backoff, abandoned if the caller's deadline expires
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(3*attempt) * time.Second):
			}
		}
	}
	return nil, lastErr
}

func (c *CoinGeckoClient) fetchOnce(ctx context.Context, endpoint string) (map[string]float64, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "cryptobrief/1.0")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API error %d: %s", resp.StatusCode, string(body))
	}

	// Response shape: {"bitcoin": {"usd": 95432.1}, ...}
	var raw map[string]map[string]float64
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	result := make(map[string]float64, len(raw))
	for id, currencies := range raw {
		sym, ok := idToSymbol[id]
		if !ok {
			continue
		}
		if usd, ok := currencies["usd"]; ok && usd > 0 {
			result[sym] = usd
		}
	}
	return result, nil
}
