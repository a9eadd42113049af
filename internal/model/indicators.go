package model

// MACD is the latest MACD reading.
type MACD struct {
	Line      float64 `json:"line"`
	Signal    float64 `json:"signal"`
	Histogram float64 `json:"histogram"`
}

// Bollinger is the latest Bollinger Band reading. Lower <= Middle <= Upper.
type Bollinger struct {
	Lower  float64 `json:"lower"`
	Middle float64 `json:"middle"`
	Upper  float64 `json:"upper"`
}

// IndicatorSnapshot holds the most recent value of each indicator.
// A nil field means the series was too short for that indicator.
type IndicatorSnapshot struct {
	RSI       *float64   `json:"rsi"`
	MACD      *MACD      `json:"macd"`
	Bollinger *Bollinger `json:"bollinger"`
}

// Complete reports whether every indicator is defined.
func (s IndicatorSnapshot) Complete() bool {
	return s.RSI != nil && s.MACD != nil && s.Bollinger != nil
}

// Missing lists the names of undefined indicators.
func (s IndicatorSnapshot) Missing() []string {
	var missing []string
	if s.RSI == nil {
		missing = append(missing, "rsi")
	}
	if s.MACD == nil {
		missing = append(missing, "macd")
	}
	if s.Bollinger == nil {
		missing = append(missing, "bollinger")
	}
	return missing
}
