package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"FXSentinel/internal/model"
	"FXSentinel/internal/notifier"
	"FXSentinel/internal/recorder"
)

// Analyzer produces a fresh analysis.
type Analyzer interface {
	Analyze(ctx context.Context) (*model.Analysis, error)
}

// Broadcaster pushes recommendations to live subscribers.
type Broadcaster interface {
	Broadcast(rec *model.TradingRecommendation)
}

// Notifier delivers alert messages.
type Notifier interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

const notifyRetries = 3

// Scheduler runs the analysis task on a cron schedule.
type Scheduler struct {
	Cron        *cron.Cron
	Analyzer    Analyzer
	Recorder    recorder.Recorder
	Broadcaster Broadcaster // optional
	Notifier    Notifier    // optional
	Ctx         context.Context

	mu     sync.Mutex
	ran    bool
	last   model.Signal
	logger zerolog.Logger
}

// NewScheduler creates a new Scheduler. Broadcaster and Notifier may be nil.
func NewScheduler(ctx context.Context, an Analyzer, rec recorder.Recorder, bc Broadcaster, n Notifier, logger zerolog.Logger) *Scheduler {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Scheduler{
		Cron:        cron.New(cron.WithSeconds()),
		Analyzer:    an,
		Recorder:    rec,
		Broadcaster: bc,
		Notifier:    n,
		Ctx:         ctx,
		logger:      logger.With().Str("component", "scheduler").Logger(),
	}
}

// Register adds the analysis task.
func (s *Scheduler) Register(analysisCron string) error {
	if _, err := s.Cron.AddFunc(analysisCron, s.analysisTask); err != nil {
		return fmt.Errorf("register analysis task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.logger.Info().Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for a running task to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.logger.Info().Msg("scheduler stopped")
}

// RunNow executes the analysis task immediately.
func (s *Scheduler) RunNow() {
	s.analysisTask()
}

func (s *Scheduler) analysisTask() {
	s.logger.Debug().Msg("running analysis task")
	a, changed, err := s.execute(s.Ctx, true)
	if err != nil {
		s.logger.Error().Err(err).Msg("analysis task failed")
		return
	}
	if changed {
		s.notify(FormatChange(a))
	}
}

// execute runs one analysis, records and broadcasts it. With track set it
// reports whether the signal differs from the previous tracked run and
// remembers the new one. Command runs are not tracked so a change they see
// is still alerted by the next scheduled run.
func (s *Scheduler) execute(ctx context.Context, track bool) (*model.Analysis, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, err := s.Analyzer.Analyze(ctx)
	if err != nil {
		return nil, false, err
	}

	if err := s.Recorder.RecordAnalysis(a); err != nil {
		s.logger.Error().Err(err).Msg("record analysis")
	}
	if s.Broadcaster != nil {
		rec := a.Recommendation
		s.Broadcaster.Broadcast(&rec)
	}

	if !track {
		return a, false, nil
	}
	sig := a.Recommendation.Signal
	var changed bool
	if s.ran {
		changed = sig != s.last
	} else {
		changed = sig != model.SignalNone
	}
	s.ran = true
	s.last = sig
	return a, changed, nil
}

// HandleCommand processes a bot command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	switch command {
	case "/signal":
		a, _, err := s.execute(ctx, false)
		if err != nil {
			s.logger.Error().Err(err).Msg("command analysis failed")
			return fmt.Sprintf("❌ Analysis failed: %v", err)
		}
		return notifier.FormatRecommendation(a)
	default:
		return notifier.HelpText
	}
}

// FormatChange formats a signal change alert.
func FormatChange(a *model.Analysis) string {
	if a.Recommendation.Signal == model.SignalNone {
		return "⚪ <b>Signal cleared</b>\n\n" + notifier.FormatRecommendation(a)
	}
	return notifier.FormatRecommendation(a)
}

func (s *Scheduler) notify(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, notifyRetries); err != nil {
		s.logger.Error().Err(err).Msg("send notification")
	}
}
