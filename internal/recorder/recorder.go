package recorder

import (
	"time"

	"FXSentinel/internal/model"
)

// Record is one persisted analysis.
type Record struct {
	ID              string       `json:"id"`
	Timestamp       time.Time    `json:"timestamp"`
	Symbol          string       `json:"symbol"`
	Provider        string       `json:"provider"`
	Signal          model.Signal `json:"signal"`
	Confidence      float64      `json:"confidence"`
	CurrentPrice    float64      `json:"currentPrice"`
	PriceChange     float64      `json:"priceChange"`
	RSI             float64      `json:"rsi"`
	MACD            float64      `json:"macd"`
	MACDSignal      float64      `json:"macdSignal"`
	MACDHistogram   float64      `json:"macdHistogram"`
	BollingerLower  float64      `json:"bollingerLower"`
	BollingerMiddle float64      `json:"bollingerMiddle"`
	BollingerUpper  float64      `json:"bollingerUpper"`
}

// Recorder persists analysis history.
type Recorder interface {
	RecordAnalysis(a *model.Analysis) error
	// RecentAnalyses returns up to limit records, newest first.
	RecentAnalyses(limit int) ([]Record, error)
	Close() error
}
