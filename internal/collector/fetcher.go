package collector

import (
	"context"
	"errors"
	"time"

	"FXSentinel/internal/model"
)

// Supported series intervals.
const (
	IntervalDaily  = "daily"
	IntervalHourly = "hourly"
	IntervalMinute = "minute"
)

// ErrUnavailable wraps every failure to obtain a price series.
var ErrUnavailable = errors.New("market data unavailable")

// Fetcher defines the interface for fetching closing prices.
type Fetcher interface {
	FetchSeries(ctx context.Context, symbol string, start, end time.Time, interval string) ([]model.PricePoint, error)
	Name() string
}

// ValidInterval reports whether interval is one of the supported values.
func ValidInterval(interval string) bool {
	switch interval {
	case IntervalDaily, IntervalHourly, IntervalMinute:
		return true
	}
	return false
}

// intervalStep is the nominal spacing between points.
func intervalStep(interval string) time.Duration {
	switch interval {
	case IntervalHourly:
		return time.Hour
	case IntervalMinute:
		return 15 * time.Minute
	default:
		return 24 * time.Hour
	}
}
