package calculator

import (
	"math"
	"testing"

	"github.com/peterldowns/testy/assert"
)

func wave(n int) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = 1.10 + 0.01*math.Sin(float64(i)/4) + 0.0002*float64(i)
	}
	return closes
}

func TestDefaultConfigMinPoints(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, cfg.RSIMinPoints(), 15)
	assert.Equal(t, cfg.MACDMinPoints(), 34)
	assert.Equal(t, cfg.BollingerMinPoints(), 20)
	assert.Equal(t, cfg.MinPoints(), 34)
}

func TestLatestIndicators_Defined(t *testing.T) {
	closes := wave(120)
	cfg := DefaultConfig()
	snap := LatestIndicators(closes, cfg)

	assert.True(t, snap.Complete())

	rsi := *snap.RSI
	assert.True(t, rsi >= 0 && rsi <= 100)

	m := *snap.MACD
	assert.True(t, math.Abs(m.Histogram-(m.Line-m.Signal)) < 1e-9)

	bb := *snap.Bollinger
	assert.True(t, bb.Lower <= bb.Middle)
	assert.True(t, bb.Middle <= bb.Upper)

	var sum float64
	for _, c := range closes[len(closes)-cfg.BollingerPeriod:] {
		sum += c
	}
	sma := sum / float64(cfg.BollingerPeriod)
	assert.True(t, math.Abs(bb.Middle-sma) < 1e-9)
}

func TestLatestIndicators_Trend(t *testing.T) {
	up := make([]float64, 60)
	down := make([]float64, 60)
	for i := range up {
		up[i] = 1.0 + 0.001*float64(i)
		down[i] = 1.2 - 0.001*float64(i)
	}

	snapUp := LatestIndicators(up, DefaultConfig())
	assert.True(t, *snapUp.RSI > 70)
	assert.True(t, snapUp.MACD.Line > 0)

	snapDown := LatestIndicators(down, DefaultConfig())
	assert.True(t, *snapDown.RSI < 30)
	assert.True(t, snapDown.MACD.Line < 0)
}

func TestLatestIndicators_ShortSeries(t *testing.T) {
	cfg := DefaultConfig()

	snap := LatestIndicators(wave(10), cfg)
	assert.False(t, snap.Complete())
	assert.Equal(t, snap.Missing(), []string{"rsi", "macd", "bollinger"})

	// Enough for RSI and bands, not for the MACD signal line.
	snap = LatestIndicators(wave(25), cfg)
	assert.NotNil(t, snap.RSI)
	assert.NotNil(t, snap.Bollinger)
	assert.Equal(t, snap.Missing(), []string{"macd"})

	snap = LatestIndicators(wave(cfg.MinPoints()), cfg)
	assert.True(t, snap.Complete())

	snap = LatestIndicators(nil, cfg)
	assert.Equal(t, len(snap.Missing()), 3)
}

func TestLatestIndicators_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MACDFast = 30
	snap := LatestIndicators(wave(120), cfg)
	assert.NotNil(t, snap.RSI)
	assert.Equal(t, snap.Missing(), []string{"macd"})
}
