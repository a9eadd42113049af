package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"FXSentinel/internal/model"
)

// Collector fetches the trailing price window for one pair.
type Collector struct {
	Fetcher  Fetcher
	Symbol   string
	Interval string
	Window   time.Duration

	now    func() time.Time
	logger zerolog.Logger
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, symbol, interval string, window time.Duration, logger zerolog.Logger) *Collector {
	return &Collector{
		Fetcher:  fetcher,
		Symbol:   symbol,
		Interval: interval,
		Window:   window,
		now:      time.Now,
		logger:   logger.With().Str("component", "collector").Logger(),
	}
}

// Provider returns the name of the underlying fetcher.
func (c *Collector) Provider() string { return c.Fetcher.Name() }

// Collect fetches the closing prices for [now-Window, now].
func (c *Collector) Collect(ctx context.Context) (*model.PriceSeries, error) {
	end := c.now().UTC()
	start := end.Add(-c.Window)

	points, err := c.Fetcher.FetchSeries(ctx, c.Symbol, start, end, c.Interval)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrUnavailable, c.Fetcher.Name(), err)
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("%w: %s returned no prices for %s", ErrUnavailable, c.Fetcher.Name(), c.Symbol)
	}

	c.logger.Debug().
		Str("symbol", c.Symbol).
		Str("provider", c.Fetcher.Name()).
		Int("points", len(points)).
		Msg("collected series")

	return &model.PriceSeries{
		Symbol:    c.Symbol,
		Interval:  c.Interval,
		Points:    points,
		FetchedAt: end,
	}, nil
}
