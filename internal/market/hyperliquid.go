// Package market fetches candle and price data from the Hyperliquid public
// info API and derives the technical indicators the decision providers
// consume.
package market

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Moshiii/Alpha-Arena-Lite/internal/domain"
	"github.com/Moshiii/Alpha-Arena-Lite/internal/util"
)

// DefaultBaseURL is the Hyperliquid mainnet info endpoint.
const DefaultBaseURL = "https://api.hyperliquid.xyz"

// intervalDurations maps supported candle intervals to their length.
var intervalDurations = map[string]time.Duration{
	"1m":  time.Minute,
	"3m":  3 * time.Minute,
	"5m":  5 * time.Minute,
	"15m": 15 * time.Minute,
	"30m": 30 * time.Minute,
	"1h":  time.Hour,
	"4h":  4 * time.Hour,
	"1d":  24 * time.Hour,
}

// Client is a Hyperliquid info API client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *util.RateLimiter
	log        *slog.Logger
}

// NewClient creates a Client for the given base URL, rate limited to
// requestsPerMinute POSTs. An empty baseURL selects DefaultBaseURL.
func NewClient(baseURL string, requestsPerMinute int) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    util.NewRateLimiter(requestsPerMinute),
		log:        slog.Default().With("component", "hyperliquid"),
	}
}

// AllMids returns the current mid price for every listed coin. Internal
// index keys (prefixed with "@") are skipped.
func (c *Client) AllMids(ctx context.Context) (map[string]float64, error) {
	body, err := c.post(ctx, map[string]any{"type": "allMids"})
	if err != nil {
		return nil, err
	}

	var raw map[string]string
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decoding allMids response: %w", err)
	}

	mids := make(map[string]float64, len(raw))
	for coin, s := range raw {
		if strings.HasPrefix(coin, "@") {
			continue
		}
		price, err := strconv.ParseFloat(s, 64)
		if err != nil {
			c.log.Warn("skipping unparsable mid price", "coin", coin, "value", s)
			continue
		}
		mids[coin] = price
	}
	return mids, nil
}

// LastPrice returns the current mid price for a single coin.
func (c *Client) LastPrice(ctx context.Context, symbol string) (float64, error) {
	mids, err := c.AllMids(ctx)
	if err != nil {
		return 0, err
	}
	price, ok := mids[symbol]
	if !ok {
		return 0, fmt.Errorf("no mid price for %s", symbol)
	}
	return price, nil
}

// rawCandle matches the wire format of the candleSnapshot response.
type rawCandle struct {
	OpenTime  int64  `json:"t"`
	CloseTime int64  `json:"T"`
	Symbol    string `json:"s"`
	Interval  string `json:"i"`
	Open      string `json:"o"`
	Close     string `json:"c"`
	High      string `json:"h"`
	Low       string `json:"l"`
	Volume    string `json:"v"`
	Trades    int64  `json:"n"`
}

// Candles fetches the most recent count candles for the symbol at the given
// interval, oldest first.
func (c *Client) Candles(ctx context.Context, symbol, interval string, count int) ([]domain.Bar, error) {
	dur, ok := intervalDurations[interval]
	if !ok {
		return nil, fmt.Errorf("unsupported candle interval %q", interval)
	}
	if count <= 0 {
		return nil, fmt.Errorf("candle count must be positive, got %d", count)
	}

	end := time.Now()
	start := end.Add(-time.Duration(count) * dur)

	body, err := c.post(ctx, map[string]any{
		"type": "candleSnapshot",
		"req": map[string]any{
			"coin":      symbol,
			"interval":  interval,
			"startTime": start.UnixMilli(),
			"endTime":   end.UnixMilli(),
		},
	})
	if err != nil {
		return nil, err
	}

	var raw []rawCandle
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decoding candleSnapshot response: %w", err)
	}

	bars := make([]domain.Bar, 0, len(raw))
	for _, r := range raw {
		b, err := r.toBar()
		if err != nil {
			return nil, fmt.Errorf("candle for %s at %d: %w", symbol, r.OpenTime, err)
		}
		bars = append(bars, b)
	}
	sort.Slice(bars, func(i, j int) bool {
		return bars[i].Timestamp.Before(bars[j].Timestamp)
	})
	if len(bars) > count {
		bars = bars[len(bars)-count:]
	}
	return bars, nil
}

func (r rawCandle) toBar() (domain.Bar, error) {
	var b domain.Bar
	var err error
	if b.Open, err = strconv.ParseFloat(r.Open, 64); err != nil {
		return b, fmt.Errorf("parsing open %q: %w", r.Open, err)
	}
	if b.High, err = strconv.ParseFloat(r.High, 64); err != nil {
		return b, fmt.Errorf("parsing high %q: %w", r.High, err)
	}
	if b.Low, err = strconv.ParseFloat(r.Low, 64); err != nil {
		return b, fmt.Errorf("parsing low %q: %w", r.Low, err)
	}
	if b.Close, err = strconv.ParseFloat(r.Close, 64); err != nil {
		return b, fmt.Errorf("parsing close %q: %w", r.Close, err)
	}
	if b.Volume, err = strconv.ParseFloat(r.Volume, 64); err != nil {
		return b, fmt.Errorf("parsing volume %q: %w", r.Volume, err)
	}
	b.Symbol = r.Symbol
	b.Interval = r.Interval
	b.Timestamp = time.UnixMilli(r.OpenTime).UTC()
	b.TradeCount = r.Trades
	return b, nil
}

// post sends a JSON payload to the info endpoint and returns the response
// body. Transient failures are retried with backoff.
func (c *Client) post(ctx context.Context, payload any) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	var body []byte
	err = util.Retry(ctx, 3, time.Second, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/info", bytes.NewReader(data))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return fmt.Errorf("info request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
		}

		body, err = io.ReadAll(resp.Body)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("posting to %s/info: %w", c.baseURL, err)
	}
	return body, nil
}
