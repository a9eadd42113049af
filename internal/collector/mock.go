package collector

import (
	"context"
	"math"
	"time"

	"FXSentinel/internal/model"
)

// maxMockPoints caps generated series.
const maxMockPoints = 2000

// MockFetcher returns controllable data for development and testing.
type MockFetcher struct {
	Price  float64
	Drift  float64 // per-point change added to the oscillation
	Points []model.PricePoint
	Err    error
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchSeries(_ context.Context, _ string, start, end time.Time, interval string) ([]model.PricePoint, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Points != nil {
		return m.Points, nil
	}
	return generateMockSeries(m.Price, m.Drift, start, end, intervalStep(interval)), nil
}

func generateMockSeries(basePrice, drift float64, start, end time.Time, step time.Duration) []model.PricePoint {
	if basePrice == 0 {
		basePrice = 1.08
	}
	count := int(end.Sub(start) / step)
	if count > maxMockPoints {
		count = maxMockPoints
		start = end.Add(-time.Duration(count) * step)
	}
	points := make([]model.PricePoint, 0, count)
	for i := 0; i < count; i++ {
		p := basePrice*(1+0.004*math.Sin(float64(i)/6)) + drift*float64(i)
		points = append(points, model.PricePoint{
			Time:  start.Add(time.Duration(i+1) * step),
			Close: p,
		})
	}
	return points
}
