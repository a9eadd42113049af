package recorder

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"FXSentinel/internal/model"
)

// SQLiteRecorder persists analysis history to a SQLite database.
type SQLiteRecorder struct {
	db     *sql.DB
	mu     sync.Mutex
	logger zerolog.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, logger zerolog.Logger) (*SQLiteRecorder, error) {
	if dbPath == "" {
		return nil, errors.New("sqlite path is empty")
	}
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets the API read history while the scheduler writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, logger: logger.With().Str("component", "recorder").Logger()}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	r.logger.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS analyses (
			id               TEXT PRIMARY KEY,
			timestamp        INTEGER NOT NULL,
			symbol           TEXT NOT NULL,
			provider         TEXT,
			signal           TEXT,
			confidence       REAL,
			current_price    REAL,
			price_change     REAL,
			rsi              REAL,
			macd_line        REAL,
			macd_signal      REAL,
			macd_histogram   REAL,
			bollinger_lower  REAL,
			bollinger_middle REAL,
			bollinger_upper  REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_analyses_ts ON analyses(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordAnalysis(a *model.Analysis) error {
	if a == nil {
		return errors.New("nil analysis")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	ts := a.CreatedAt
	if ts.IsZero() {
		ts = time.Now()
	}
	rec := a.Recommendation
	var macd model.MACD
	if a.Indicators.MACD != nil {
		macd = *a.Indicators.MACD
	}
	var bb model.Bollinger
	if a.Indicators.Bollinger != nil {
		bb = *a.Indicators.Bollinger
	}

	_, err := r.db.Exec(`INSERT INTO analyses
		(id, timestamp, symbol, provider, signal, confidence, current_price, price_change,
		 rsi, macd_line, macd_signal, macd_histogram,
		 bollinger_lower, bollinger_middle, bollinger_upper)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		uuid.NewString(), ts.UnixMilli(), a.Symbol, a.Provider,
		string(rec.Signal), rec.Confidence, rec.CurrentPrice, rec.PriceChange,
		rec.RSI, macd.Line, macd.Signal, macd.Histogram,
		bb.Lower, bb.Middle, bb.Upper,
	)
	if err != nil {
		return fmt.Errorf("insert analysis: %w", err)
	}
	return nil
}

func (r *SQLiteRecorder) RecentAnalyses(limit int) ([]Record, error) {
	if limit <= 0 {
		return []Record{}, nil
	}
	rows, err := r.db.Query(`SELECT
		id, timestamp, symbol, provider, signal, confidence, current_price, price_change,
		rsi, macd_line, macd_signal, macd_histogram,
		bollinger_lower, bollinger_middle, bollinger_upper
		FROM analyses ORDER BY timestamp DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query analyses: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		var (
			rec    Record
			ts     int64
			signal string
		)
		if err := rows.Scan(&rec.ID, &ts, &rec.Symbol, &rec.Provider, &signal,
			&rec.Confidence, &rec.CurrentPrice, &rec.PriceChange,
			&rec.RSI, &rec.MACD, &rec.MACDSignal, &rec.MACDHistogram,
			&rec.BollingerLower, &rec.BollingerMiddle, &rec.BollingerUpper); err != nil {
			return nil, fmt.Errorf("scan analysis: %w", err)
		}
		rec.Timestamp = time.UnixMilli(ts).UTC()
		rec.Signal = model.Signal(signal)
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	r.logger.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
