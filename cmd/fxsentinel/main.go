package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"FXSentinel/internal/analyzer"
	"FXSentinel/internal/collector"
	"FXSentinel/internal/config"
	"FXSentinel/internal/httpclient"
	"FXSentinel/internal/logging"
	"FXSentinel/internal/metrics"
	"FXSentinel/internal/notifier"
	"FXSentinel/internal/recorder"
	"FXSentinel/internal/scheduler"
	"FXSentinel/internal/server"
)

func main() {
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	flag.StringVar(&cfgPath, "config", cfgPath, "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		bootLogger := logging.New("info", "json")
		bootLogger.Fatal().Err(err).Str("path", cfgPath).Msg("load config")
	}
	logger := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("config validation")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err = run(ctx, cfg, logger)
	cancel()
	if err != nil {
		logger.Error().Err(err).Msg("FXSentinel exited")
		os.Exit(1)
	}
	logger.Info().Msg("FXSentinel stopped")
}

// run wires every component and blocks until ctx is cancelled or the HTTP
// server fails. Deferred cleanup always runs before it returns.
func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	logger.Info().Str("symbol", cfg.DataSource.Symbol).Str("interval", cfg.DataSource.Interval).Msg("FXSentinel starting")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := metrics.New()

	fetcher := newFetcher(cfg, logger)
	logger.Info().Str("provider", fetcher.Name()).Msg("data source selected")
	col := collector.NewCollector(fetcher, cfg.DataSource.Symbol, cfg.DataSource.Interval, cfg.Window(), logger)
	an := analyzer.New(col, cfg.Indicators, m, logger)

	rec := newRecorder(cfg, logger)
	defer rec.Close()

	hub := server.NewHub(m, logger)

	var tn *notifier.TelegramNotifier
	var alerts scheduler.Notifier
	if cfg.Telegram.BotToken != "" {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, logger)
		alerts = tn
	} else {
		logger.Warn().Msg("telegram not configured, notifications disabled")
	}

	sched := scheduler.NewScheduler(ctx, an, rec, hub, alerts, logger)
	if err := sched.Register(cfg.Schedule.AnalysisCron); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		logger.Info().Msg("telegram polling started")
	}

	if cfg.Schedule.RunOnStart {
		logger.Info().Msg("run_on_start enabled, executing analysis now")
		go sched.RunNow()
	}

	srv := server.New(an, rec, hub, m, logger)
	return srv.ListenAndServe(ctx, cfg.Server.Addr)
}

func newFetcher(cfg *config.Config, logger zerolog.Logger) collector.Fetcher {
	ds := cfg.DataSource
	client := httpclient.New(httpclient.Options{
		Timeout:        time.Duration(ds.TimeoutSec) * time.Second,
		RequestsPerSec: ds.RequestsPerSec,
		MaxRetryTime:   time.Duration(ds.RetrySec) * time.Second,
		Proxy:          cfg.Proxy,
	})
	switch ds.Provider {
	case config.ProviderYahoo:
		return collector.NewYahooFetcher(ds.BaseURL, client, logger)
	case config.ProviderMock:
		return &collector.MockFetcher{Price: ds.MockPrice}
	default:
		return collector.NewTraderMadeFetcher(ds.BaseURL, ds.APIKey, client, logger)
	}
}

func newRecorder(cfg *config.Config, logger zerolog.Logger) recorder.Recorder {
	if cfg.Database.SQLitePath == "" {
		return recorder.NewNoopRecorder()
	}
	sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
		return recorder.NewNoopRecorder()
	}
	return sr
}
