package strategy

import (
	"errors"
	"fmt"
	"strings"

	"FXSentinel/internal/model"
)

var (
	// ErrInsufficientData is returned when fewer than two closes are supplied.
	ErrInsufficientData = errors.New("insufficient price data")
	// ErrIndicatorUnavailable is returned when an indicator has no value at the latest close.
	ErrIndicatorUnavailable = errors.New("indicator unavailable")
)

// Rule thresholds and confidence increments.
const (
	OversoldRSI   = 30.0
	OverboughtRSI = 70.0

	RSIConfidence  = 0.85
	MACDConfidence = 0.8
	MACDReinforce  = 0.1
	BandReinforce  = 0.05
	MaxConfidence  = 1.0
)

// verdict is the running state threaded through the rules.
type verdict struct {
	signal     model.Signal
	confidence float64
}

// applyRSI sets the baseline from an extreme RSI.
func (v *verdict) applyRSI(rsi float64) {
	switch {
	case rsi < OversoldRSI:
		v.signal, v.confidence = model.SignalBuy, RSIConfidence
	case rsi > OverboughtRSI:
		v.signal, v.confidence = model.SignalSell, RSIConfidence
	}
}

// applyMACD reinforces a matching signal or sets one if none exists.
// It never flips an established direction.
func (v *verdict) applyMACD(m model.MACD) {
	var dir model.Signal
	switch {
	case m.Line > m.Signal && m.Histogram > 0:
		dir = model.SignalBuy
	case m.Line < m.Signal && m.Histogram < 0:
		dir = model.SignalSell
	default:
		return
	}

	switch v.signal {
	case dir:
		v.confidence += MACDReinforce
	case model.SignalNone:
		v.signal, v.confidence = dir, MACDConfidence
	}
}

// applyBollinger only reinforces; a band breach alone never produces a signal.
func (v *verdict) applyBollinger(price float64, bb model.Bollinger) {
	switch {
	case price < bb.Lower:
		if v.signal == model.SignalBuy {
			v.confidence += BandReinforce
		}
	case price > bb.Upper:
		if v.signal == model.SignalSell {
			v.confidence += BandReinforce
		}
	}
}

// Fuse combines the last two closes of series and the latest indicator
// readings into a single recommendation. Rules run in the order
// RSI, MACD, Bollinger, and the order matters.
func Fuse(series *model.PriceSeries, ind model.IndicatorSnapshot) (*model.TradingRecommendation, error) {
	n := series.Len()
	if n < 2 {
		return nil, fmt.Errorf("%w: need at least 2 closes, got %d", ErrInsufficientData, n)
	}
	if !ind.Complete() {
		return nil, fmt.Errorf("%w: %s", ErrIndicatorUnavailable, strings.Join(ind.Missing(), ", "))
	}

	current := series.Points[n-1].Close
	previous := series.Points[n-2].Close
	if previous == 0 {
		return nil, fmt.Errorf("%w: previous close is zero", ErrInsufficientData)
	}
	priceChange := (current - previous) / previous * 100

	var v verdict
	v.applyRSI(*ind.RSI)
	v.applyMACD(*ind.MACD)
	v.applyBollinger(current, *ind.Bollinger)

	return &model.TradingRecommendation{
		Signal:       v.signal,
		Confidence:   min(v.confidence, MaxConfidence),
		TimeInterval: model.RecommendedHoldWindow,
		CurrentPrice: current,
		RSI:          *ind.RSI,
		MACD:         ind.MACD.Line,
		PriceChange:  priceChange,
	}, nil
}
