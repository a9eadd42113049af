package model

import (
	"encoding/json"
	"testing"

	"github.com/peterldowns/testy/assert"
)

func TestRecommendationJSON(t *testing.T) {
	rec := TradingRecommendation{
		Signal:       SignalNone,
		TimeInterval: RecommendedHoldWindow,
		CurrentPrice: 1.1055,
		RSI:          50,
	}
	b, err := json.Marshal(rec)
	assert.NoError(t, err)
	assert.Equal(t, string(b),
		`{"signal":null,"confidence":0,"timeInterval":"5-15 minutes","currentPrice":1.1055,"rsi":50,"macd":0,"priceChange":0}`)

	rec.Signal = SignalBuy
	b, err = json.Marshal(rec)
	assert.NoError(t, err)

	var decoded TradingRecommendation
	assert.NoError(t, json.Unmarshal(b, &decoded))
	assert.Equal(t, decoded, rec)
}

func TestSignalUnmarshal(t *testing.T) {
	tests := []struct {
		in      string
		want    Signal
		wantErr bool
	}{
		{`null`, SignalNone, false},
		{`"BUY"`, SignalBuy, false},
		{`"SELL"`, SignalSell, false},
		{`"NONE"`, SignalNone, false},
		{`"HOLD"`, SignalNone, true},
		{`12`, SignalNone, true},
	}
	for _, tt := range tests {
		var s Signal
		err := json.Unmarshal([]byte(tt.in), &s)
		if tt.wantErr {
			assert.Error(t, err)
			continue
		}
		assert.NoError(t, err)
		assert.Equal(t, s, tt.want)
	}
}

func TestSignalString(t *testing.T) {
	assert.Equal(t, SignalNone.String(), "NONE")
	assert.Equal(t, SignalBuy.String(), "BUY")
	assert.Equal(t, SignalSell.String(), "SELL")
}

func TestSnapshotMissing(t *testing.T) {
	rsi := 42.0
	snap := IndicatorSnapshot{RSI: &rsi}
	assert.False(t, snap.Complete())
	assert.Equal(t, snap.Missing(), []string{"macd", "bollinger"})

	snap.MACD = &MACD{}
	snap.Bollinger = &Bollinger{}
	assert.True(t, snap.Complete())
	assert.Equal(t, len(snap.Missing()), 0)
}
