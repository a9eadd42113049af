package analyzer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"FXSentinel/internal/calculator"
	"FXSentinel/internal/collector"
	"FXSentinel/internal/metrics"
	"FXSentinel/internal/model"
	"FXSentinel/internal/strategy"
)

// Failure reasons reported to metrics.
const (
	ReasonUnavailable          = "unavailable"
	ReasonInsufficientData     = "insufficient_data"
	ReasonIndicatorUnavailable = "indicator_unavailable"
	ReasonOther                = "other"
)

// Analyzer runs one fetch, indicator and fusion pass per call. Every call
// fetches fresh data.
type Analyzer struct {
	collector  *collector.Collector
	indicators calculator.Config
	metrics    *metrics.Metrics
	now        func() time.Time
	logger     zerolog.Logger
}

// New creates an Analyzer. m may be nil.
func New(col *collector.Collector, cfg calculator.Config, m *metrics.Metrics, logger zerolog.Logger) *Analyzer {
	return &Analyzer{
		collector:  col,
		indicators: cfg,
		metrics:    m,
		now:        time.Now,
		logger:     logger.With().Str("component", "analyzer").Logger(),
	}
}

// Analyze fetches the trailing window and produces a recommendation.
func (a *Analyzer) Analyze(ctx context.Context) (*model.Analysis, error) {
	series, err := a.collect(ctx)
	if err != nil {
		return nil, a.fail(err)
	}

	snap := calculator.LatestIndicators(series.Closes(), a.indicators)
	rec, err := strategy.Fuse(series, snap)
	if err != nil {
		return nil, a.fail(fmt.Errorf("analyze %s: %w", series.Symbol, err))
	}

	a.metrics.ObserveAnalysis(rec.Signal.String(), rec.Confidence)
	a.logger.Info().
		Str("symbol", series.Symbol).
		Str("signal", rec.Signal.String()).
		Float64("confidence", rec.Confidence).
		Float64("price", rec.CurrentPrice).
		Int("points", series.Len()).
		Msg("analysis complete")

	return &model.Analysis{
		Symbol:         series.Symbol,
		Provider:       a.collector.Provider(),
		Interval:       series.Interval,
		Points:         series.Len(),
		Indicators:     snap,
		Recommendation: *rec,
		CreatedAt:      a.now().UTC(),
	}, nil
}

// History returns the trailing window as chart data.
func (a *Analyzer) History(ctx context.Context) (*model.HistoricalData, error) {
	series, err := a.collect(ctx)
	if err != nil {
		reason := Reason(err)
		a.metrics.ObserveHistoryFailure(reason)
		a.logger.Error().Err(err).Str("reason", reason).Msg("history fetch failed")
		return nil, err
	}
	return model.NewHistoricalData(series), nil
}

func (a *Analyzer) collect(ctx context.Context) (*model.PriceSeries, error) {
	start := time.Now()
	series, err := a.collector.Collect(ctx)
	a.metrics.ObserveFetch(a.collector.Provider(), time.Since(start))
	return series, err
}

func (a *Analyzer) fail(err error) error {
	reason := Reason(err)
	a.metrics.ObserveFailure(reason)
	a.logger.Error().Err(err).Str("reason", reason).Msg("analysis failed")
	return err
}

// Reason classifies an analysis error.
func Reason(err error) string {
	switch {
	case errors.Is(err, collector.ErrUnavailable):
		return ReasonUnavailable
	case errors.Is(err, strategy.ErrInsufficientData):
		return ReasonInsufficientData
	case errors.Is(err, strategy.ErrIndicatorUnavailable):
		return ReasonIndicatorUnavailable
	default:
		return ReasonOther
	}
}
