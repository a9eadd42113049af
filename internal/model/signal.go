package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// Signal is the direction of a trading recommendation.
type Signal string

const (
	SignalNone Signal = ""
	SignalBuy  Signal = "BUY"
	SignalSell Signal = "SELL"
)

// RecommendedHoldWindow is reported with every recommendation.
const RecommendedHoldWindow = "5-15 minutes"

// String returns "NONE" for the empty signal.
func (s Signal) String() string {
	if s == SignalNone {
		return "NONE"
	}
	return string(s)
}

// MarshalJSON encodes SignalNone as null.
func (s Signal) MarshalJSON() ([]byte, error) {
	if s == SignalNone {
		return []byte("null"), nil
	}
	return json.Marshal(string(s))
}

// UnmarshalJSON accepts null, "BUY" and "SELL".
func (s *Signal) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = SignalNone
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch Signal(raw) {
	case SignalBuy, SignalSell:
		*s = Signal(raw)
	case "", "NONE":
		*s = SignalNone
	default:
		return fmt.Errorf("unknown signal %q", raw)
	}
	return nil
}

// TradingRecommendation is the output of the fusion engine.
type TradingRecommendation struct {
	Signal       Signal  `json:"signal"`
	Confidence   float64 `json:"confidence"`
	TimeInterval string  `json:"timeInterval"`
	CurrentPrice float64 `json:"currentPrice"`
	RSI          float64 `json:"rsi"`
	MACD         float64 `json:"macd"`
	PriceChange  float64 `json:"priceChange"`
}

// Analysis is one full pass of fetch, indicators and fusion.
type Analysis struct {
	Symbol         string
	Provider       string
	Interval       string
	Points         int
	Indicators     IndicatorSnapshot
	Recommendation TradingRecommendation
	CreatedAt      time.Time
}
