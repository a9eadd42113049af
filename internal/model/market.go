package model

import "time"

// PricePoint is a single closing price observation.
type PricePoint struct {
	Time  time.Time
	Close float64
}

// PriceSeries holds the chronological closing-price history of one currency pair.
type PriceSeries struct {
	Symbol    string
	Interval  string
	Points    []PricePoint
	FetchedAt time.Time
}

// Len returns the number of points in the series.
func (s *PriceSeries) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Points)
}

// Closes returns the closing prices, oldest first.
func (s *PriceSeries) Closes() []float64 {
	if s == nil {
		return nil
	}
	closes := make([]float64, len(s.Points))
	for i, p := range s.Points {
		closes[i] = p.Close
	}
	return closes
}

// HistoricalData is the chart payload served to the dashboard.
type HistoricalData struct {
	Dates  []string  `json:"dates"`
	Prices []float64 `json:"prices"`
}

// ChartDateLayout is the layout of HistoricalData dates.
const ChartDateLayout = "2006-01-02 15:04:05"

// NewHistoricalData flattens a series into parallel date and price slices.
func NewHistoricalData(s *PriceSeries) *HistoricalData {
	data := &HistoricalData{
		Dates:  make([]string, 0, s.Len()),
		Prices: make([]float64, 0, s.Len()),
	}
	if s == nil {
		return data
	}
	for _, p := range s.Points {
		data.Dates = append(data.Dates, p.Time.UTC().Format(ChartDateLayout))
		data.Prices = append(data.Prices, p.Close)
	}
	return data
}
