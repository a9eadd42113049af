package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"FXSentinel/internal/calculator"
	"FXSentinel/internal/collector"
)

// Data providers.
const (
	ProviderTraderMade = "tradermade"
	ProviderYahoo      = "yahoo"
	ProviderMock       = "mock"
)

// Config holds all application configuration.
type Config struct {
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	DataSource struct {
		Provider       string  `yaml:"provider"`
		BaseURL        string  `yaml:"base_url"`
		APIKey         string  `yaml:"api_key"`
		Symbol         string  `yaml:"symbol"`
		Interval       string  `yaml:"interval"`
		WindowDays     int     `yaml:"window_days"`
		TimeoutSec     int     `yaml:"timeout_sec"`
		RequestsPerSec int     `yaml:"requests_per_sec"`
		RetrySec       int     `yaml:"retry_sec"`
		MockPrice      float64 `yaml:"mock_price"`
	} `yaml:"data_source"`
	Indicators calculator.Config `yaml:"indicators"`
	Schedule   struct {
		AnalysisCron string `yaml:"analysis_cron"`
		RunOnStart   bool   `yaml:"run_on_start"`
	} `yaml:"schedule"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies .env and environment
// variable overrides and finally defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Existing environment variables win over .env entries.
	_ = godotenv.Load()

	applyEnv(cfg)
	applyDefaults(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("TRADERMADE_API_KEY"); v != "" {
		cfg.DataSource.APIKey = v
	}
	if v := os.Getenv("DATA_PROVIDER"); v != "" {
		cfg.DataSource.Provider = v
	}
	if v := os.Getenv("SYMBOL"); v != "" {
		cfg.DataSource.Symbol = v
	}
	if v := os.Getenv("DATA_INTERVAL"); v != "" {
		cfg.DataSource.Interval = v
	}
	if v, ok := envInt("WINDOW_DAYS"); ok {
		cfg.DataSource.WindowDays = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("ANALYSIS_CRON"); v != "" {
		cfg.Schedule.AnalysisCron = v
	}
	if v := os.Getenv("RUN_ON_START"); v != "" {
		cfg.Schedule.RunOnStart = v == "true" || v == "1"
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
}

func envInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":3000"
	}
	ds := &cfg.DataSource
	if ds.Provider == "" {
		ds.Provider = ProviderTraderMade
	}
	ds.BaseURL = providerBaseURL(ds.Provider, ds.BaseURL)
	if ds.Symbol == "" {
		ds.Symbol = "EURUSD"
	}
	if ds.Interval == "" {
		ds.Interval = collector.IntervalHourly
	}
	if ds.WindowDays == 0 {
		ds.WindowDays = 30
	}
	if ds.TimeoutSec == 0 {
		ds.TimeoutSec = 30
	}
	if ds.RequestsPerSec == 0 {
		ds.RequestsPerSec = 5
	}
	if ds.RetrySec == 0 {
		ds.RetrySec = 30
	}

	def := calculator.DefaultConfig()
	ind := &cfg.Indicators
	if ind.RSIPeriod == 0 {
		ind.RSIPeriod = def.RSIPeriod
	}
	if ind.MACDFast == 0 {
		ind.MACDFast = def.MACDFast
	}
	if ind.MACDSlow == 0 {
		ind.MACDSlow = def.MACDSlow
	}
	if ind.MACDSignal == 0 {
		ind.MACDSignal = def.MACDSignal
	}
	if ind.BollingerPeriod == 0 {
		ind.BollingerPeriod = def.BollingerPeriod
	}
	if ind.BollingerStdDev == 0 {
		ind.BollingerStdDev = def.BollingerStdDev
	}

	if cfg.Schedule.AnalysisCron == "" {
		cfg.Schedule.AnalysisCron = "0 */5 * * * *"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/fxsentinel.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
}

// providerBaseURL returns the base URL for provider. A URL that is another
// provider's default is replaced, so switching DATA_PROVIDER alone is enough.
func providerBaseURL(provider, baseURL string) string {
	defaults := map[string]string{
		ProviderTraderMade: collector.DefaultTraderMadeURL,
		ProviderYahoo:      collector.DefaultYahooURL,
	}
	own := defaults[provider]
	if baseURL == "" {
		return own
	}
	for p, u := range defaults {
		if p != provider && strings.TrimRight(baseURL, "/") == u {
			return own
		}
	}
	return baseURL
}

// maxWindowDays is the longest history TraderMade serves per interval.
var maxWindowDays = map[string]int{
	collector.IntervalMinute: 2,
	collector.IntervalHourly: 31,
	collector.IntervalDaily:  365,
}

// Window returns the trailing lookback window.
func (c *Config) Window() time.Duration {
	return time.Duration(c.DataSource.WindowDays) * 24 * time.Hour
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	var errs []error
	ds := c.DataSource
	switch ds.Provider {
	case ProviderTraderMade:
		if ds.APIKey == "" {
			errs = append(errs, errors.New("data_source.api_key (TRADERMADE_API_KEY) is required for tradermade"))
		}
	case ProviderYahoo, ProviderMock:
	default:
		errs = append(errs, fmt.Errorf("data_source.provider %q is not one of tradermade, yahoo, mock", ds.Provider))
	}
	if !collector.ValidInterval(ds.Interval) {
		errs = append(errs, fmt.Errorf("data_source.interval %q is not one of daily, hourly, minute", ds.Interval))
	}
	if ds.WindowDays < 1 {
		errs = append(errs, errors.New("data_source.window_days must be at least 1"))
	}
	if limit, ok := maxWindowDays[ds.Interval]; ok && ds.Provider == ProviderTraderMade && ds.WindowDays > limit {
		errs = append(errs, fmt.Errorf("data_source.window_days %d exceeds the %d day tradermade limit for %s data", ds.WindowDays, limit, ds.Interval))
	}

	ind := c.Indicators
	if ind.RSIPeriod < 2 || ind.MACDFast < 1 || ind.MACDSignal < 1 || ind.BollingerPeriod < 2 {
		errs = append(errs, errors.New("indicator periods must be positive (rsi and bollinger at least 2)"))
	}
	if ind.MACDFast >= ind.MACDSlow {
		errs = append(errs, errors.New("indicators.macd_fast must be less than indicators.macd_slow"))
	}
	if ind.BollingerStdDev <= 0 {
		errs = append(errs, errors.New("indicators.bollinger_stddev must be positive"))
	}

	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		errs = append(errs, errors.New("telegram.bot_token and telegram.chat_id must be set together"))
	}
	return errors.Join(errs...)
}
