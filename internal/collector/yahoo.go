package collector

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"FXSentinel/internal/httpclient"
	"FXSentinel/internal/model"
)

// DefaultYahooURL is the Yahoo Finance chart API base URL.
const DefaultYahooURL = "https://query1.finance.yahoo.com"

// YahooFetcher implements Fetcher using the Yahoo Finance public chart API.
// It needs no API key.
type YahooFetcher struct {
	BaseURL   string
	Client    *httpclient.Client
	SymbolMap map[string]string // maps internal symbol to Yahoo ticker

	logger zerolog.Logger
}

// NewYahooFetcher creates a new Yahoo Finance fetcher.
func NewYahooFetcher(baseURL string, client *httpclient.Client, logger zerolog.Logger) *YahooFetcher {
	if baseURL == "" {
		baseURL = DefaultYahooURL
	}
	return &YahooFetcher{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		Client:    client,
		SymbolMap: map[string]string{},
		logger:    logger.With().Str("component", "yahoo").Logger(),
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

// yahooSymbol maps a six letter pair such as EURUSD to EURUSD=X.
func (f *YahooFetcher) yahooSymbol(symbol string) string {
	if mapped, ok := f.SymbolMap[symbol]; ok {
		return mapped
	}
	s := strings.ToUpper(strings.ReplaceAll(symbol, "/", ""))
	if len(s) == 6 && !strings.Contains(s, "=") {
		return s + "=X"
	}
	return s
}

func yahooInterval(interval string) string {
	switch interval {
	case IntervalHourly:
		return "1h"
	case IntervalMinute:
		return "15m"
	default:
		return "1d"
	}
}

func (f *YahooFetcher) FetchSeries(ctx context.Context, symbol string, start, end time.Time, interval string) ([]model.PricePoint, error) {
	params := url.Values{}
	params.Set("interval", yahooInterval(interval))
	params.Set("period1", strconv.FormatInt(start.Unix(), 10))
	params.Set("period2", strconv.FormatInt(end.Unix(), 10))
	u := fmt.Sprintf("%s/v8/finance/chart/%s?%s", f.BaseURL, url.PathEscape(f.yahooSymbol(symbol)), params.Encode())

	f.logger.Debug().Str("url", u).Msg("fetching chart")

	body, err := f.Client.Get(ctx, u, http.Header{"User-Agent": {"Mozilla/5.0"}})
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch: %w", err)
	}
	return parseYahooChart(body)
}

func parseYahooChart(body []byte) ([]model.PricePoint, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("yahoo: invalid json response")
	}
	chart := gjson.GetBytes(body, "chart")
	if desc := chart.Get("error.description"); desc.Exists() {
		return nil, fmt.Errorf("yahoo api error: %s", desc.String())
	}

	result := chart.Get("result.0")
	timestamps := result.Get("timestamp").Array()
	closes := result.Get("indicators.quote.0.close").Array()
	if len(timestamps) == 0 {
		return nil, fmt.Errorf("yahoo: no data returned")
	}

	points := make([]model.PricePoint, 0, len(timestamps))
	for i, ts := range timestamps {
		if i >= len(closes) {
			break
		}
		c := closes[i]
		if c.Type == gjson.Null || c.Float() <= 0 {
			continue // skip null bars (holidays etc.)
		}
		points = append(points, model.PricePoint{
			Time:  time.Unix(ts.Int(), 0).UTC(),
			Close: c.Float(),
		})
	}

	sort.Slice(points, func(i, j int) bool { return points[i].Time.Before(points[j].Time) })
	return points, nil
}
