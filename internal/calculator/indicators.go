package calculator

import (
	"math"

	"github.com/markcheno/go-talib"

	"FXSentinel/internal/model"
)

// Config holds indicator periods.
type Config struct {
	RSIPeriod       int     `yaml:"rsi_period"`
	MACDFast        int     `yaml:"macd_fast"`
	MACDSlow        int     `yaml:"macd_slow"`
	MACDSignal      int     `yaml:"macd_signal"`
	BollingerPeriod int     `yaml:"bollinger_period"`
	BollingerStdDev float64 `yaml:"bollinger_stddev"`
}

// DefaultConfig returns RSI(14), MACD(12,26,9) and BB(20,2).
func DefaultConfig() Config {
	return Config{
		RSIPeriod:       14,
		MACDFast:        12,
		MACDSlow:        26,
		MACDSignal:      9,
		BollingerPeriod: 20,
		BollingerStdDev: 2,
	}
}

// RSIMinPoints is the number of closes talib needs before RSI has a value.
func (c Config) RSIMinPoints() int { return c.RSIPeriod + 1 }

// MACDMinPoints is the number of closes needed for a defined signal line.
func (c Config) MACDMinPoints() int { return c.MACDSlow + c.MACDSignal - 1 }

// BollingerMinPoints is the number of closes needed for the first band.
func (c Config) BollingerMinPoints() int { return c.BollingerPeriod }

// MinPoints is the shortest series for which every indicator is defined.
func (c Config) MinPoints() int {
	return max(c.RSIMinPoints(), c.MACDMinPoints(), c.BollingerMinPoints())
}

// LatestIndicators computes RSI, MACD and Bollinger Bands over closes and
// returns the value at the last close. Indicators whose lookback exceeds
// the series are left nil.
func LatestIndicators(closes []float64, cfg Config) model.IndicatorSnapshot {
	var snap model.IndicatorSnapshot
	n := len(closes)

	if cfg.RSIPeriod > 1 && n >= cfg.RSIMinPoints() {
		rsi := last(talib.Rsi(closes, cfg.RSIPeriod))
		if finite(rsi) {
			snap.RSI = &rsi
		}
	}

	if cfg.MACDFast > 0 && cfg.MACDSlow > cfg.MACDFast && cfg.MACDSignal > 0 && n >= cfg.MACDMinPoints() {
		line, signal, hist := talib.Macd(closes, cfg.MACDFast, cfg.MACDSlow, cfg.MACDSignal)
		m := model.MACD{Line: last(line), Signal: last(signal), Histogram: last(hist)}
		if finite(m.Line, m.Signal, m.Histogram) {
			snap.MACD = &m
		}
	}

	if cfg.BollingerPeriod > 1 && n >= cfg.BollingerMinPoints() {
		upper, middle, lower := talib.BBands(closes, cfg.BollingerPeriod, cfg.BollingerStdDev, cfg.BollingerStdDev, talib.SMA)
		bb := model.Bollinger{Lower: last(lower), Middle: last(middle), Upper: last(upper)}
		if finite(bb.Lower, bb.Middle, bb.Upper) {
			snap.Bollinger = &bb
		}
	}

	return snap
}

func last(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	return values[len(values)-1]
}

func finite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
