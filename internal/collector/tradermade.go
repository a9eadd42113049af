package collector

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"FXSentinel/internal/httpclient"
	"FXSentinel/internal/model"
)

// DefaultTraderMadeURL is the TraderMade REST base URL.
const DefaultTraderMadeURL = "https://marketdata.tradermade.com/api/v1"

// TraderMadeFetcher implements Fetcher using the TraderMade timeseries API.
type TraderMadeFetcher struct {
	BaseURL string
	APIKey  string
	Client  *httpclient.Client

	logger zerolog.Logger
}

// NewTraderMadeFetcher creates a new fetcher.
func NewTraderMadeFetcher(baseURL, apiKey string, client *httpclient.Client, logger zerolog.Logger) *TraderMadeFetcher {
	if baseURL == "" {
		baseURL = DefaultTraderMadeURL
	}
	return &TraderMadeFetcher{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Client:  client,
		logger:  logger.With().Str("component", "tradermade").Logger(),
	}
}

func (f *TraderMadeFetcher) Name() string { return "tradermade" }

// tmDateLayouts are the date formats seen in timeseries quotes.
var tmDateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02-15:04",
}

func tmRequestDate(t time.Time, interval string) string {
	if interval == IntervalDaily {
		return t.UTC().Format("2006-01-02")
	}
	return t.UTC().Format("2006-01-02-15:04")
}

func (f *TraderMadeFetcher) FetchSeries(ctx context.Context, symbol string, start, end time.Time, interval string) ([]model.PricePoint, error) {
	params := url.Values{}
	params.Set("currency", symbol)
	params.Set("start_date", tmRequestDate(start, interval))
	params.Set("end_date", tmRequestDate(end, interval))
	params.Set("interval", interval)
	params.Set("format", "records")
	if interval == IntervalMinute {
		params.Set("period", "15")
	}

	f.logger.Debug().
		Str("currency", symbol).
		Str("start_date", params.Get("start_date")).
		Str("end_date", params.Get("end_date")).
		Str("interval", interval).
		Msg("fetching timeseries")

	params.Set("api_key", f.APIKey)
	body, err := f.Client.Get(ctx, f.BaseURL+"/timeseries?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("tradermade fetch: %w", err)
	}

	points, err := parseTraderMade(body)
	if err != nil {
		return nil, err
	}
	f.logger.Debug().Int("count", len(points)).Msg("fetched timeseries")
	return points, nil
}

// parseTraderMade extracts chronological closes from a timeseries body.
func parseTraderMade(body []byte) ([]model.PricePoint, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("tradermade: invalid json response")
	}
	res := gjson.ParseBytes(body)

	quotes := res.Get("quotes")
	if !quotes.Exists() {
		if msg := res.Get("message"); msg.Exists() {
			return nil, fmt.Errorf("tradermade api error: %s", msg.String())
		}
		if e := res.Get("error"); e.Exists() {
			return nil, fmt.Errorf("tradermade api error: %s", e.String())
		}
		return nil, fmt.Errorf("tradermade: response has no quotes")
	}

	// quotes is normally an array; older responses key quotes by date.
	points := make([]model.PricePoint, 0, len(quotes.Array()))
	var parseErr error
	quotes.ForEach(func(key, q gjson.Result) bool {
		date := q.Get("date").String()
		if date == "" {
			date = key.String()
		}
		c := q.Get("close")
		if !c.Exists() || c.Type == gjson.Null || c.Float() <= 0 {
			return true
		}
		ts, err := parseTMDate(date)
		if err != nil {
			parseErr = err
			return false
		}
		points = append(points, model.PricePoint{Time: ts, Close: c.Float()})
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}

	sort.Slice(points, func(i, j int) bool { return points[i].Time.Before(points[j].Time) })
	return points, nil
}

func parseTMDate(s string) (time.Time, error) {
	for _, layout := range tmDateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("tradermade: unrecognised quote date %q", s)
}
