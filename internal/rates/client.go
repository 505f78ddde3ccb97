package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	platformhttp "forex-breakout-bot/internal/platform/http"
	"forex-breakout-bot/models"
)

const defaultBaseURL = "http://api.exchangeratesapi.io/v1/"

// RatesResponse is the API's rate payload for a single date.
type RatesResponse struct {
	Success   bool               `json:"success"`
	Timestamp int64              `json:"timestamp"`
	Base      string             `json:"base"`
	Date      string             `json:"date"`
	Rates     map[string]float64 `json:"rates"`
}

// TimeseriesResponse is the API's payload for a date range.
type TimeseriesResponse struct {
	Success   bool                          `json:"success"`
	Base      string                        `json:"base"`
	StartDate string                        `json:"start_date"`
	EndDate   string                        `json:"end_date"`
	Rates     map[string]map[string]float64 `json:"rates"`
}

// ConvertResponse is the API's currency-conversion payload.
type ConvertResponse struct {
	Success bool `json:"success"`
	Query   struct {
		From   string  `json:"from"`
		To     string  `json:"to"`
		Amount float64 `json:"amount"`
	} `json:"query"`
	Result float64 `json:"result"`
}

// CandleWriter stores fetched candles.
type CandleWriter interface {
	InsertCandle(ctx context.Context, pairSymbol, timeframe string, c models.Candle) error
}

// Client talks to the exchangeratesapi.io REST API with rate limiting
// and retries.
type Client struct {
	apiKey  string
	baseURL string
	http    *platformhttp.Client
	logger  zerolog.Logger
}

// NewClient creates an API client. timeout bounds each request.
func NewClient(apiKey string, timeout time.Duration) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: platformhttp.NewClient(platformhttp.ClientOptions{
			Timeout: timeout,
		}),
		logger: log.With().Str("component", "rates_client").Logger(),
	}
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values, out any) error {
	params.Set("access_key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}

	resp, err := c.http.DoRequest(ctx, req)
	if err != nil {
		return fmt.Errorf("requesting %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading %s response: %w", endpoint, err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decoding %s response: %w", endpoint, err)
	}
	return nil
}

// LatestRates fetches the latest rates for the base currency, optionally
// restricted to the given symbols.
func (c *Client) LatestRates(ctx context.Context, baseCurrency string, symbols []string) (*RatesResponse, error) {
	params := url.Values{}
	params.Set("base", baseCurrency)
	if len(symbols) > 0 {
		params.Set("symbols", strings.Join(symbols, ","))
	}

	var out RatesResponse
	if err := c.get(ctx, "latest", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// HistoricalRates fetches rates for one date, formatted YYYY-MM-DD.
func (c *Client) HistoricalRates(ctx context.Context, date, baseCurrency string, symbols []string) (*RatesResponse, error) {
	params := url.Values{}
	params.Set("base", baseCurrency)
	if len(symbols) > 0 {
		params.Set("symbols", strings.Join(symbols, ","))
	}

	var out RatesResponse
	if err := c.get(ctx, date, params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Timeseries fetches daily rates over [startDate, endDate].
func (c *Client) Timeseries(ctx context.Context, startDate, endDate, baseCurrency string, symbols []string) (*TimeseriesResponse, error) {
	params := url.Values{}
	params.Set("start_date", startDate)
	params.Set("end_date", endDate)
	params.Set("base", baseCurrency)
	if len(symbols) > 0 {
		params.Set("symbols", strings.Join(symbols, ","))
	}

	var out TimeseriesResponse
	if err := c.get(ctx, "timeseries", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Convert converts an amount between two currencies at the latest rate.
func (c *Client) Convert(ctx context.Context, from, to string, amount float64) (*ConvertResponse, error) {
	params := url.Values{}
	params.Set("from", from)
	params.Set("to", to)
	params.Set("amount", strconv.FormatFloat(amount, 'f', -1, 64))

	var out ConvertResponse
	if err := c.get(ctx, "convert", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FetchOHLC approximates OHLC candles from the timeseries endpoint. The
// API only exposes daily closing rates, so each candle uses that rate
// with a small synthetic high/low spread and no volume.
func (c *Client) FetchOHLC(ctx context.Context, pairSymbol, timeframe string, limit int) ([]models.Candle, error) {
	base, quote, err := splitSymbol(pairSymbol)
	if err != nil {
		return nil, err
	}

	end := time.Now()
	var start time.Time
	switch timeframe {
	case "1h":
		start = end.Add(-time.Duration(limit) * time.Hour)
	case "4h":
		start = end.Add(-time.Duration(limit) * 4 * time.Hour)
	case "1d":
		start = end.AddDate(0, 0, -limit)
	default:
		return nil, fmt.Errorf("rates: unsupported timeframe %q", timeframe)
	}

	series, err := c.Timeseries(ctx, start.Format("2006-01-02"), end.Format("2006-01-02"), base, []string{quote})
	if err != nil {
		return nil, err
	}

	dates := make([]string, 0, len(series.Rates))
	for date := range series.Rates {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	candles := make([]models.Candle, 0, len(dates))
	for _, date := range dates {
		rate, ok := series.Rates[date][quote]
		if !ok {
			continue
		}
		ts, err := time.Parse("2006-01-02", date)
		if err != nil {
			continue
		}
		candles = append(candles, models.Candle{
			Timestamp: ts,
			Open:      rate,
			High:      rate * 1.001,
			Low:       rate * 0.999,
			Close:     rate,
			Volume:    0,
		})
	}
	return candles, nil
}

// UpdateForexData fetches the latest rate for every pair and appends it
// to the stored 1h series as a flat candle. Pairs that fail are logged
// and skipped; the count of updated pairs is returned.
func (c *Client) UpdateForexData(ctx context.Context, store CandleWriter, pairSymbols []string) (int, error) {
	updated := 0
	for _, symbol := range pairSymbols {
		base, quote, err := splitSymbol(symbol)
		if err != nil {
			c.logger.Warn().Str("pair", symbol).Err(err).Msg("skipping malformed pair symbol")
			continue
		}

		latest, err := c.LatestRates(ctx, base, []string{quote})
		if err != nil {
			c.logger.Warn().Str("pair", symbol).Err(err).Msg("failed to fetch latest rate")
			continue
		}
		if !latest.Success {
			c.logger.Warn().Str("pair", symbol).Msg("rates API reported failure")
			continue
		}
		rate, ok := latest.Rates[quote]
		if !ok {
			c.logger.Warn().Str("pair", symbol).Msg("quote currency missing from response")
			continue
		}

		candle := models.Candle{
			Timestamp: time.Now().Truncate(time.Hour),
			Open:      rate,
			High:      rate,
			Low:       rate,
			Close:     rate,
			Volume:    0,
		}
		if err := store.InsertCandle(ctx, symbol, "1h", candle); err != nil {
			c.logger.Warn().Str("pair", symbol).Err(err).Msg("failed to store candle")
			continue
		}
		updated++
	}

	c.logger.Info().Int("updated", updated).Int("requested", len(pairSymbols)).Msg("forex data updated")
	return updated, nil
}

func splitSymbol(symbol string) (base, quote string, err error) {
	parts := strings.Split(symbol, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("rates: malformed pair symbol %q", symbol)
	}
	return parts[0], parts[1], nil
}
