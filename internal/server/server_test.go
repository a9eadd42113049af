package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/peterldowns/testy/assert"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"FXSentinel/internal/collector"
	"FXSentinel/internal/metrics"
	"FXSentinel/internal/model"
	"FXSentinel/internal/recorder"
	"FXSentinel/internal/strategy"
)

type fakeAnalyzer struct {
	analysis *model.Analysis
	history  *model.HistoricalData
	err      error
}

func (f *fakeAnalyzer) Analyze(context.Context) (*model.Analysis, error) {
	return f.analysis, f.err
}

func (f *fakeAnalyzer) History(context.Context) (*model.HistoricalData, error) {
	return f.history, f.err
}

type fakeRecorder struct {
	recorder.NoopRecorder
	limit int
	err   error
}

func (f *fakeRecorder) RecentAnalyses(limit int) ([]recorder.Record, error) {
	f.limit = limit
	if f.err != nil {
		return nil, f.err
	}
	return []recorder.Record{{ID: "a", Signal: model.SignalBuy}, {ID: "b"}}, nil
}

func sampleAnalysis(sig model.Signal) *model.Analysis {
	return &model.Analysis{
		Symbol: "EURUSD",
		Recommendation: model.TradingRecommendation{
			Signal:       sig,
			Confidence:   0.95,
			TimeInterval: model.RecommendedHoldWindow,
			CurrentPrice: 1.1055,
			RSI:          25,
			MACD:         0.0015,
			PriceChange:  0.5,
		},
	}
}

func newTestServer(an Analyzer, rec recorder.Recorder) (*Server, *metrics.Metrics) {
	m := metrics.New()
	return New(an, rec, NewHub(m, zerolog.Nop()), m, zerolog.Nop()), m
}

func do(s http.Handler, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestAnalysis(t *testing.T) {
	s, m := newTestServer(&fakeAnalyzer{analysis: sampleAnalysis(model.SignalBuy)}, nil)
	rec := do(s, http.MethodGet, "/api/analysis")

	assert.Equal(t, rec.Code, http.StatusOK)
	assert.Equal(t, rec.Header().Get("Content-Type"), "application/json")
	assert.Equal(t, rec.Header().Get("Access-Control-Allow-Origin"), "*")

	body := gjson.Parse(rec.Body.String())
	assert.Equal(t, body.Get("signal").String(), "BUY")
	assert.Equal(t, body.Get("confidence").Float(), 0.95)
	assert.Equal(t, body.Get("timeInterval").String(), "5-15 minutes")
	assert.Equal(t, body.Get("currentPrice").Float(), 1.1055)
	assert.Equal(t, body.Get("rsi").Float(), 25.0)
	assert.Equal(t, body.Get("macd").Float(), 0.0015)
	assert.Equal(t, body.Get("priceChange").Float(), 0.5)

	assert.Equal(t, testutil.CollectAndCount(m.HTTPDuration), 1)
}

func TestAnalysis_NoSignalIsNull(t *testing.T) {
	s, _ := newTestServer(&fakeAnalyzer{analysis: sampleAnalysis(model.SignalNone)}, nil)
	rec := do(s, http.MethodGet, "/api/analysis")
	assert.Equal(t, rec.Code, http.StatusOK)
	assert.Equal(t, gjson.Get(rec.Body.String(), "signal").Type, gjson.Null)
	assert.True(t, gjson.Get(rec.Body.String(), "signal").Exists())
}

func TestAnalysis_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"upstream", fmt.Errorf("%w: tradermade: boom", collector.ErrUnavailable), http.StatusBadGateway, "Failed to fetch market data"},
		{"insufficient", fmt.Errorf("x: %w", strategy.ErrInsufficientData), http.StatusUnprocessableEntity, "Failed to analyze market data"},
		{"indicator", fmt.Errorf("x: %w", strategy.ErrIndicatorUnavailable), http.StatusUnprocessableEntity, "Failed to analyze market data"},
		{"other", errors.New("surprise"), http.StatusInternalServerError, "Internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestServer(&fakeAnalyzer{err: tt.err}, nil)
			for _, path := range []string{"/api/analysis", "/api/historical-data"} {
				rec := do(s, http.MethodGet, path)
				assert.Equal(t, rec.Code, tt.status)
				assert.Equal(t, gjson.Get(rec.Body.String(), "error").String(), tt.msg)
			}
		})
	}
}

func TestHistoricalData(t *testing.T) {
	hist := &model.HistoricalData{
		Dates:  []string{"2025-03-01 00:00:00", "2025-03-01 01:00:00"},
		Prices: []float64{1.1, 1.2},
	}
	s, _ := newTestServer(&fakeAnalyzer{history: hist}, nil)
	rec := do(s, http.MethodGet, "/api/historical-data")
	assert.Equal(t, rec.Code, http.StatusOK)
	assert.Equal(t, strings.TrimSpace(rec.Body.String()),
		`{"dates":["2025-03-01 00:00:00","2025-03-01 01:00:00"],"prices":[1.1,1.2]}`)
}

func TestSignalHistory(t *testing.T) {
	tests := []struct {
		query  string
		status int
		limit  int
	}{
		{"", http.StatusOK, 50},
		{"?limit=5", http.StatusOK, 5},
		{"?limit=10000", http.StatusOK, 500},
		{"?limit=0", http.StatusBadRequest, 0},
		{"?limit=abc", http.StatusBadRequest, 0},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			fr := &fakeRecorder{}
			s, _ := newTestServer(&fakeAnalyzer{}, fr)
			rec := do(s, http.MethodGet, "/api/signals/history"+tt.query)
			assert.Equal(t, rec.Code, tt.status)
			assert.Equal(t, fr.limit, tt.limit)
			if tt.status == http.StatusOK {
				assert.Equal(t, gjson.Get(rec.Body.String(), "#").Int(), int64(2))
				assert.Equal(t, gjson.Get(rec.Body.String(), "0.signal").String(), "BUY")
			}
		})
	}
}

func TestSignalHistory_Empty(t *testing.T) {
	s, _ := newTestServer(&fakeAnalyzer{}, nil)
	rec := do(s, http.MethodGet, "/api/signals/history")
	assert.Equal(t, rec.Code, http.StatusOK)
	assert.Equal(t, strings.TrimSpace(rec.Body.String()), "[]")
}

func TestSignalHistory_RecorderError(t *testing.T) {
	s, _ := newTestServer(&fakeAnalyzer{}, &fakeRecorder{err: errors.New("disk")})
	rec := do(s, http.MethodGet, "/api/signals/history")
	assert.Equal(t, rec.Code, http.StatusInternalServerError)
}

func TestCORSAndMethods(t *testing.T) {
	s, _ := newTestServer(&fakeAnalyzer{analysis: sampleAnalysis(model.SignalBuy)}, nil)

	rec := do(s, http.MethodOptions, "/api/analysis")
	assert.Equal(t, rec.Code, http.StatusNoContent)
	assert.Equal(t, rec.Header().Get("Access-Control-Allow-Origin"), "*")
	assert.Equal(t, rec.Header().Get("Access-Control-Allow-Methods"), "GET, OPTIONS")

	rec = do(s, http.MethodPost, "/api/analysis")
	assert.Equal(t, rec.Code, http.StatusMethodNotAllowed)
}

func TestHealthzMetricsDashboard(t *testing.T) {
	s, _ := newTestServer(&fakeAnalyzer{}, nil)

	rec := do(s, http.MethodGet, "/healthz")
	assert.Equal(t, rec.Code, http.StatusOK)
	assert.Equal(t, rec.Body.String(), "ok")

	do(s, http.MethodGet, "/healthz")
	rec = do(s, http.MethodGet, "/metrics")
	assert.Equal(t, rec.Code, http.StatusOK)
	assert.True(t, strings.Contains(rec.Body.String(), `fxsentinel_http_request_duration_seconds_count{code="200",path="/healthz"} 2`))

	rec = do(s, http.MethodGet, "/")
	assert.Equal(t, rec.Code, http.StatusOK)
	assert.True(t, strings.Contains(rec.Body.String(), "/api/historical-data"))

	rec = do(s, http.MethodGet, "/nope")
	assert.Equal(t, rec.Code, http.StatusNotFound)
}

func TestWebSocket_LatestAndBroadcast(t *testing.T) {
	s, m := newTestServer(&fakeAnalyzer{}, nil)
	srv := httptest.NewServer(s)
	defer srv.Close()

	s.Hub.Broadcast(&sampleAnalysis(model.SignalBuy).Recommendation)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	assert.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, resp.StatusCode, http.StatusSwitchingProtocols)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	assert.NoError(t, err)
	assert.Equal(t, gjson.GetBytes(msg, "signal").String(), "BUY")
	assert.Equal(t, s.Hub.ClientCount(), 1)
	assert.Equal(t, testutil.ToFloat64(m.WSClients), 1.0)

	s.Hub.Broadcast(&sampleAnalysis(model.SignalSell).Recommendation)
	_, msg, err = conn.ReadMessage()
	assert.NoError(t, err)
	assert.Equal(t, gjson.GetBytes(msg, "signal").String(), "SELL")

	s.Hub.Close()
	_, _, err = conn.ReadMessage()
	assert.Error(t, err)
	assert.Equal(t, s.Hub.ClientCount(), 0)
}

func TestWebSocket_NoLatest(t *testing.T) {
	s, _ := newTestServer(&fakeAnalyzer{}, nil)
	srv := httptest.NewServer(s)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	assert.NoError(t, err)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err)
}

func TestListenAndServe_Shutdown(t *testing.T) {
	s, _ := newTestServer(&fakeAnalyzer{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
