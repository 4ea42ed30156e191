// Package kalshi fetches public market data from the Kalshi exchange API.
// No authentication is required for the endpoints used here. The client
// rate-limits itself with a token bucket and caches responses for a short
// TTL so repeated cycles do not hammer the exchange.
package kalshi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rustyeddy/predictsim/config"
	"github.com/rustyeddy/predictsim/market"
)

// DefaultBaseURL is Kalshi's public trade API.
const DefaultBaseURL = "https://api.elections.kalshi.com/trade-api/v2"

// pageSize is the markets-per-request limit; Kalshi caps pages at 200.
const pageSize = 200

// Client implements market.DataSource against the Kalshi REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rateLimiter
	cache      *ttlCache
}

func NewClient(cfg config.DataConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	rate := cfg.RateLimit
	if rate <= 0 {
		rate = 20
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: newRateLimiter(rate, rate),
		cache:   newTTLCache(cfg.CacheTTL.Duration()),
	}
}

// apiMarket is the subset of Kalshi's market object the simulator uses.
type apiMarket struct {
	Ticker       string `json:"ticker"`
	SeriesTicker string `json:"series_ticker"`
	Title        string `json:"title"`
	LastPrice    int    `json:"last_price"`
	Volume       int    `json:"volume"`
	OpenInterest int    `json:"open_interest"`
	Status       string `json:"status"`
}

type marketsResponse struct {
	Markets []apiMarket `json:"markets"`
	Cursor  string      `json:"cursor"`
}

// Order book bids arrive as [price_cents, quantity] pairs per side.
type orderbookResponse struct {
	Orderbook struct {
		Yes [][2]int `json:"yes"`
		No  [][2]int `json:"no"`
	} `json:"orderbook"`
}

type marketResponse struct {
	Market apiMarket `json:"market"`
}

// FetchOpenMarkets pages through /markets until maxMarkets are collected or
// the cursor runs out. Markets below minVolume are filtered client-side.
func (c *Client) FetchOpenMarkets(ctx context.Context, maxMarkets int, status string, minVolume int) ([]market.Market, error) {
	if status == "" {
		status = "open"
	}

	var out []market.Market
	cursor := ""
	for {
		params := url.Values{}
		params.Set("limit", strconv.Itoa(pageSize))
		params.Set("status", status)
		if cursor != "" {
			params.Set("cursor", cursor)
		}

		var page marketsResponse
		if err := c.getJSON(ctx, "/markets", params, &page); err != nil {
			return nil, fmt.Errorf("fetch markets: %w", err)
		}

		for _, am := range page.Markets {
			if am.Volume < minVolume {
				continue
			}
			out = append(out, market.Market{
				Ticker:       am.Ticker,
				SeriesTicker: am.SeriesTicker,
				Title:        am.Title,
				LastPrice:    am.LastPrice,
				Volume:       am.Volume,
				OpenInterest: am.OpenInterest,
			})
		}

		if maxMarkets > 0 && len(out) >= maxMarkets {
			out = out[:maxMarkets]
			break
		}
		cursor = page.Cursor
		if cursor == "" {
			break
		}
	}
	return out, nil
}

// FetchOrderBook returns the bid ladders for one market, best price first.
func (c *Client) FetchOrderBook(ctx context.Context, ticker string) (market.OrderBook, error) {
	var resp orderbookResponse
	endpoint := "/markets/" + url.PathEscape(ticker) + "/orderbook"
	if err := c.getJSON(ctx, endpoint, nil, &resp); err != nil {
		return market.OrderBook{}, fmt.Errorf("fetch orderbook %s: %w", ticker, err)
	}
	return market.OrderBook{
		Yes: toLevels(resp.Orderbook.Yes),
		No:  toLevels(resp.Orderbook.No),
	}, nil
}

// GetMarket returns one market by ticker.
func (c *Client) GetMarket(ctx context.Context, ticker string) (market.Market, error) {
	var resp marketResponse
	endpoint := "/markets/" + url.PathEscape(ticker)
	if err := c.getJSON(ctx, endpoint, nil, &resp); err != nil {
		return market.Market{}, fmt.Errorf("fetch market %s: %w", ticker, err)
	}
	am := resp.Market
	return market.Market{
		Ticker:       am.Ticker,
		SeriesTicker: am.SeriesTicker,
		Title:        am.Title,
		LastPrice:    am.LastPrice,
		Volume:       am.Volume,
		OpenInterest: am.OpenInterest,
	}, nil
}

// ClearCache drops all cached responses.
func (c *Client) ClearCache() { c.cache.clear() }

// toLevels converts raw [price, quantity] pairs to a Level ladder, keeping
// the feed's order.
func toLevels(pairs [][2]int) []market.Level {
	if len(pairs) == 0 {
		return nil
	}
	levels := make([]market.Level, 0, len(pairs))
	for _, p := range pairs {
		levels = append(levels, market.Level{Price: p[0], Quantity: p[1]})
	}
	return levels
}

// getJSON runs a cached, rate-limited GET and decodes the JSON body into v.
func (c *Client) getJSON(ctx context.Context, endpoint string, params url.Values, v any) error {
	apiURL := c.baseURL + endpoint
	if len(params) > 0 {
		apiURL += "?" + params.Encode()
	}

	if data, ok := c.cache.get(apiURL); ok {
		return json.Unmarshal(data, v)
	}

	if err := c.limiter.wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	c.cache.put(apiURL, body)
	return nil
}
