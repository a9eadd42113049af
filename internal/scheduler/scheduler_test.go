package scheduler

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/peterldowns/testy/assert"
	"github.com/rs/zerolog"

	"FXSentinel/internal/model"
	"FXSentinel/internal/recorder"
)

type fakeAnalyzer struct {
	results []model.Signal
	errs    map[int]error
	calls   int
}

func (f *fakeAnalyzer) Analyze(_ context.Context) (*model.Analysis, error) {
	i := f.calls
	f.calls++
	if err := f.errs[i]; err != nil {
		return nil, err
	}
	sig := f.results[i]
	conf := 0.0
	if sig != model.SignalNone {
		conf = 0.85
	}
	return &model.Analysis{
		Symbol:   "EURUSD",
		Provider: "mock",
		Recommendation: model.TradingRecommendation{
			Signal:       sig,
			Confidence:   conf,
			TimeInterval: model.RecommendedHoldWindow,
			CurrentPrice: 1.1,
		},
		CreatedAt: time.Date(2025, 3, 1, 0, 0, i, 0, time.UTC),
	}, nil
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []string
}

func (f *fakeNotifier) SendWithRetry(_ context.Context, text string, _ int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, text)
	return nil
}

type fakeBroadcaster struct{ got []model.Signal }

func (f *fakeBroadcaster) Broadcast(rec *model.TradingRecommendation) {
	f.got = append(f.got, rec.Signal)
}

type fakeRecorder struct {
	recorder.NoopRecorder
	n int
}

func (f *fakeRecorder) RecordAnalysis(_ *model.Analysis) error {
	f.n++
	return nil
}

func newTestScheduler(an Analyzer, rec recorder.Recorder, bc Broadcaster, n Notifier) *Scheduler {
	return NewScheduler(context.Background(), an, rec, bc, n, zerolog.Nop())
}

func TestAnalysisTask_NotifiesOnDirectionChange(t *testing.T) {
	an := &fakeAnalyzer{results: []model.Signal{
		model.SignalNone,
		model.SignalNone,
		model.SignalBuy,
		model.SignalBuy,
		model.SignalSell,
		model.SignalNone,
	}}
	n := &fakeNotifier{}
	bc := &fakeBroadcaster{}
	rec := &fakeRecorder{}
	s := newTestScheduler(an, rec, bc, n)

	for range an.results {
		s.RunNow()
	}

	assert.Equal(t, len(n.sent), 3)
	assert.True(t, strings.Contains(n.sent[0], "EURUSD BUY"))
	assert.True(t, strings.Contains(n.sent[1], "EURUSD SELL"))
	assert.True(t, strings.Contains(n.sent[2], "Signal cleared"))
	assert.Equal(t, rec.n, 6)
	assert.Equal(t, bc.got, an.results)
}

func TestAnalysisTask_FirstRunSignalNotifies(t *testing.T) {
	an := &fakeAnalyzer{results: []model.Signal{model.SignalSell}}
	n := &fakeNotifier{}
	newTestScheduler(an, nil, nil, n).RunNow()
	assert.Equal(t, len(n.sent), 1)
}

func TestAnalysisTask_FailureKeepsPreviousSignal(t *testing.T) {
	an := &fakeAnalyzer{
		results: []model.Signal{model.SignalBuy, "", model.SignalBuy},
		errs:    map[int]error{1: errors.New("upstream down")},
	}
	n := &fakeNotifier{}
	rec := &fakeRecorder{}
	s := newTestScheduler(an, rec, nil, n)

	s.RunNow()
	s.RunNow()
	s.RunNow()

	assert.Equal(t, len(n.sent), 1)
	assert.Equal(t, rec.n, 2)
}

func TestAnalysisTask_NoNotifier(t *testing.T) {
	an := &fakeAnalyzer{results: []model.Signal{model.SignalBuy}}
	newTestScheduler(an, nil, nil, nil).RunNow()
	assert.Equal(t, an.calls, 1)
}

func TestHandleCommand(t *testing.T) {
	an := &fakeAnalyzer{
		results: []model.Signal{model.SignalBuy, ""},
		errs:    map[int]error{1: errors.New("upstream down")},
	}
	n := &fakeNotifier{}
	s := newTestScheduler(an, nil, nil, n)

	reply := s.HandleCommand(context.Background(), "/signal")
	assert.True(t, strings.Contains(reply, "EURUSD BUY"))
	assert.Equal(t, len(n.sent), 0)

	reply = s.HandleCommand(context.Background(), "/signal")
	assert.True(t, strings.Contains(reply, "upstream down"))

	reply = s.HandleCommand(context.Background(), "hello")
	assert.True(t, strings.Contains(reply, "/signal"))
}

func TestHandleCommand_DoesNotConsumeChange(t *testing.T) {
	an := &fakeAnalyzer{results: []model.Signal{
		model.SignalNone,
		model.SignalBuy,
		model.SignalBuy,
	}}
	n := &fakeNotifier{}
	rec := &fakeRecorder{}
	s := newTestScheduler(an, rec, nil, n)

	s.RunNow()
	reply := s.HandleCommand(context.Background(), "/signal")
	assert.True(t, strings.Contains(reply, "EURUSD BUY"))
	assert.Equal(t, len(n.sent), 0)

	s.RunNow()
	assert.Equal(t, len(n.sent), 1)
	assert.True(t, strings.Contains(n.sent[0], "EURUSD BUY"))
	assert.Equal(t, rec.n, 3)
}

func TestRegister(t *testing.T) {
	s := newTestScheduler(&fakeAnalyzer{}, nil, nil, nil)
	assert.NoError(t, s.Register("0 */5 * * * *"))
	assert.Error(t, s.Register("not a cron"))
	assert.Equal(t, len(s.Cron.Entries()), 1)
}
