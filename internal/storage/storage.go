package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"forex-breakout-bot/models"
)

// ErrPairNotFound is returned when a currency pair symbol is unknown.
var ErrPairNotFound = errors.New("storage: currency pair not found")

// DB represents a database connection
type DB struct {
	*sql.DB
	logger zerolog.Logger
}

// ConnectionParams holds PostgreSQL connection parameters
type ConnectionParams struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// New creates a new database connection, creates the schema if needed
// and seeds the reference data.
func New(params ConnectionParams) (*DB, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		params.Host, params.Port, params.User, params.Password, params.DBName, params.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	if err := createTables(db); err != nil {
		return nil, err
	}

	if err := seedDefaults(db); err != nil {
		return nil, err
	}

	return &DB{
		DB:     db,
		logger: log.With().Str("component", "storage").Logger(),
	}, nil
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS currency_pairs (
		pair_id SERIAL PRIMARY KEY,
		symbol TEXT UNIQUE NOT NULL,
		name TEXT NOT NULL,
		pair_type TEXT NOT NULL,
		pip_value DOUBLE PRECISION NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS chart_patterns (
		pattern_id SERIAL PRIMARY KEY,
		name TEXT UNIQUE NOT NULL,
		pattern_type TEXT NOT NULL,
		description TEXT,
		reliability DOUBLE PRECISION
	)`,
	`CREATE TABLE IF NOT EXISTS historical_data (
		id SERIAL PRIMARY KEY,
		pair_id INTEGER NOT NULL REFERENCES currency_pairs (pair_id),
		timeframe TEXT NOT NULL,
		open_price DOUBLE PRECISION NOT NULL,
		high_price DOUBLE PRECISION NOT NULL,
		low_price DOUBLE PRECISION NOT NULL,
		close_price DOUBLE PRECISION NOT NULL,
		volume DOUBLE PRECISION NOT NULL DEFAULT 0,
		timestamp TIMESTAMP NOT NULL,
		UNIQUE (pair_id, timeframe, timestamp)
	)`,
	`CREATE TABLE IF NOT EXISTS breakouts (
		breakout_id SERIAL PRIMARY KEY,
		pair_id INTEGER NOT NULL REFERENCES currency_pairs (pair_id),
		direction TEXT NOT NULL,
		source TEXT NOT NULL,
		reference_kind TEXT NOT NULL,
		reference_value DOUBLE PRECISION NOT NULL,
		price DOUBLE PRECISION NOT NULL,
		percentage DOUBLE PRECISION NOT NULL,
		strength DOUBLE PRECISION NOT NULL,
		touches INTEGER NOT NULL DEFAULT 0,
		confirmed BOOLEAN NOT NULL,
		status TEXT NOT NULL DEFAULT 'active',
		notes TEXT,
		detected_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS pattern_detections (
		detection_id SERIAL PRIMARY KEY,
		pair_id INTEGER NOT NULL REFERENCES currency_pairs (pair_id),
		pattern_id INTEGER NOT NULL REFERENCES chart_patterns (pattern_id),
		timeframe TEXT NOT NULL,
		confidence DOUBLE PRECISION NOT NULL,
		price_at_detection DOUBLE PRECISION,
		target_price DOUBLE PRECISION,
		status TEXT NOT NULL DEFAULT 'active',
		notes TEXT,
		detected_at TIMESTAMP NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMP NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS account (
		id SERIAL PRIMARY KEY,
		balance DOUBLE PRECISION NOT NULL,
		previous_balance DOUBLE PRECISION NOT NULL,
		risk_percentage DOUBLE PRECISION NOT NULL,
		drawdown_percentage DOUBLE PRECISION NOT NULL,
		updated_at TIMESTAMP NOT NULL DEFAULT NOW()
	)`,
}

// createTables creates the necessary tables if they don't exist
func createTables(db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("creating tables: %w", err)
		}
	}
	return nil
}

// seedDefaults inserts the reference rows the analysis relies on:
// tradeable pairs, known chart patterns and the default account.
func seedDefaults(db *sql.DB) error {
	pairs := []struct {
		symbol, name, pairType string
		pipValue               float64
	}{
		{"EUR/USD", "Euro / US Dollar", "major", 0.0001},
		{"USD/JPY", "US Dollar / Japanese Yen", "major", 0.01},
		{"GBP/USD", "British Pound / US Dollar", "major", 0.0001},
		{"USD/CHF", "US Dollar / Swiss Franc", "major", 0.0001},
		{"AUD/USD", "Australian Dollar / US Dollar", "major", 0.0001},
		{"USD/CAD", "US Dollar / Canadian Dollar", "major", 0.0001},
		{"NZD/USD", "New Zealand Dollar / US Dollar", "major", 0.0001},
		{"EUR/GBP", "Euro / British Pound", "cross", 0.0001},
		{"EUR/JPY", "Euro / Japanese Yen", "cross", 0.01},
		{"GBP/JPY", "British Pound / Japanese Yen", "cross", 0.01},
		{"AUD/JPY", "Australian Dollar / Japanese Yen", "cross", 0.01},
		{"EUR/AUD", "Euro / Australian Dollar", "cross", 0.0001},
		{"USD/SGD", "US Dollar / Singapore Dollar", "exotic", 0.0001},
		{"USD/HKD", "US Dollar / Hong Kong Dollar", "exotic", 0.0001},
		{"USD/TRY", "US Dollar / Turkish Lira", "exotic", 0.0001},
		{"USD/MXN", "US Dollar / Mexican Peso", "exotic", 0.0001},
	}
	for _, p := range pairs {
		_, err := db.Exec(`
		INSERT INTO currency_pairs (symbol, name, pair_type, pip_value)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (symbol) DO NOTHING
		`, p.symbol, p.name, p.pairType, p.pipValue)
		if err != nil {
			return fmt.Errorf("seeding currency pairs: %w", err)
		}
	}

	patterns := []struct {
		name, patternType, description string
		reliability                    float64
	}{
		{"Head and Shoulders", "reversal", "Bearish reversal pattern", 0.75},
		{"Inverse Head and Shoulders", "reversal", "Bullish reversal pattern", 0.75},
		{"Double Top", "reversal", "Bearish reversal pattern", 0.8},
		{"Double Bottom", "reversal", "Bullish reversal pattern", 0.8},
		{"Triple Top", "reversal", "Bearish reversal pattern", 0.85},
		{"Triple Bottom", "reversal", "Bullish reversal pattern", 0.85},
		{"Ascending Triangle", "continuation", "Bullish continuation pattern", 0.7},
		{"Descending Triangle", "continuation", "Bearish continuation pattern", 0.7},
		{"Symmetrical Triangle", "bilateral", "Bilateral pattern", 0.65},
		{"Flag", "continuation", "Continuation pattern", 0.6},
		{"Pennant", "continuation", "Continuation pattern", 0.6},
		{"Wedge", "continuation", "Continuation pattern", 0.65},
		{"Cup and Handle", "continuation", "Bullish continuation pattern", 0.75},
		{"Rounding Bottom", "reversal", "Bullish reversal pattern", 0.7},
		{"Rounding Top", "reversal", "Bearish reversal pattern", 0.7},
	}
	for _, p := range patterns {
		_, err := db.Exec(`
		INSERT INTO chart_patterns (name, pattern_type, description, reliability)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (name) DO NOTHING
		`, p.name, p.patternType, p.description, p.reliability)
		if err != nil {
			return fmt.Errorf("seeding chart patterns: %w", err)
		}
	}

	_, err := db.Exec(`
		INSERT INTO account (balance, previous_balance, risk_percentage, drawdown_percentage)
		SELECT 5000, 5000, 0.2, 8
		WHERE NOT EXISTS (SELECT 1 FROM account)
	`)
	if err != nil {
		return fmt.Errorf("seeding account: %w", err)
	}

	return nil
}

// GetPairID looks up the internal id of a pair symbol.
func (db *DB) GetPairID(ctx context.Context, pairSymbol string) (int64, error) {
	var pairID int64
	err := db.QueryRowContext(ctx,
		`SELECT pair_id FROM currency_pairs WHERE symbol = $1`, pairSymbol,
	).Scan(&pairID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: %s", ErrPairNotFound, pairSymbol)
	}
	if err != nil {
		return 0, err
	}
	return pairID, nil
}

// GetSeries returns up to limit of the most recent candles for the pair
// and timeframe, oldest first. An unknown pair is an error; a pair with
// no stored data yields an empty slice.
func (db *DB) GetSeries(ctx context.Context, pairSymbol, timeframe string, limit int) ([]models.Candle, error) {
	pairID, err := db.GetPairID(ctx, pairSymbol)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT timestamp, open_price, high_price, low_price, close_price, volume
		FROM historical_data
		WHERE pair_id = $1 AND timeframe = $2
		ORDER BY timestamp DESC
		LIMIT $3
	`, pairID, timeframe, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var candles []models.Candle
	for rows.Next() {
		var c models.Candle
		if err := rows.Scan(&c.Timestamp, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			return nil, err
		}
		candles = append(candles, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Query runs newest first to apply the limit; callers expect
	// time-ascending order.
	for i, j := 0, len(candles)-1; i < j; i, j = i+1, j-1 {
		candles[i], candles[j] = candles[j], candles[i]
	}
	return candles, nil
}

// InsertCandle stores one candle; an existing candle at the same
// timestamp is left untouched.
func (db *DB) InsertCandle(ctx context.Context, pairSymbol, timeframe string, c models.Candle) error {
	pairID, err := db.GetPairID(ctx, pairSymbol)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO historical_data (pair_id, timeframe, open_price, high_price, low_price, close_price, volume, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (pair_id, timeframe, timestamp) DO NOTHING
	`, pairID, timeframe, c.Open, c.High, c.Low, c.Close, c.Volume, c.Timestamp)
	return err
}

// ListPairs returns all tradeable pairs.
func (db *DB) ListPairs(ctx context.Context) ([]models.CurrencyPair, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT pair_id, symbol, name, pair_type, pip_value
		FROM currency_pairs
		ORDER BY pair_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pairs []models.CurrencyPair
	for rows.Next() {
		var p models.CurrencyPair
		if err := rows.Scan(&p.ID, &p.Symbol, &p.Name, &p.PairType, &p.PipValue); err != nil {
			return nil, err
		}
		pairs = append(pairs, p)
	}
	return pairs, rows.Err()
}

// ListChartPatterns returns every known chart-pattern definition.
func (db *DB) ListChartPatterns(ctx context.Context) ([]models.ChartPattern, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT pattern_id, name, pattern_type, description, reliability
		FROM chart_patterns
		ORDER BY pattern_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var patterns []models.ChartPattern
	for rows.Next() {
		var p models.ChartPattern
		var description sql.NullString
		var reliability sql.NullFloat64
		if err := rows.Scan(&p.ID, &p.Name, &p.PatternType, &description, &reliability); err != nil {
			return nil, err
		}
		p.Description = description.String
		p.Reliability = reliability.Float64
		patterns = append(patterns, p)
	}
	return patterns, rows.Err()
}

// insertBreakoutSQL enumerates every breakout column except the
// optional notes. New breakouts always enter the active lifecycle state.
const insertBreakoutSQL = `
	INSERT INTO breakouts (pair_id, direction, source, reference_kind, reference_value, price, percentage, strength, touches, confirmed, status, detected_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	RETURNING breakout_id
`

// SaveBreakout persists a detected breakout and returns its id.
func (db *DB) SaveBreakout(ctx context.Context, b models.Breakout, pairSymbol string) (int64, error) {
	pairID, err := db.GetPairID(ctx, pairSymbol)
	if err != nil {
		return 0, err
	}

	var breakoutID int64
	err = db.QueryRowContext(ctx, insertBreakoutSQL,
		pairID, b.Direction, b.Source, b.ReferenceKind, b.ReferenceValue,
		b.Price, b.Percentage, b.Strength, b.Touches, b.Confirmed, models.StatusActive, b.Timestamp,
	).Scan(&breakoutID)
	if err != nil {
		return 0, err
	}

	db.logger.Info().
		Int64("breakout_id", breakoutID).
		Str("pair", pairSymbol).
		Str("direction", string(b.Direction)).
		Msg("breakout saved")

	return breakoutID, nil
}

// GetActivePatternDetections returns every detection still in the
// active state, joined with its pair and pattern reference data.
func (db *DB) GetActivePatternDetections(ctx context.Context) ([]models.PatternDetection, error) {
	return db.queryDetections(ctx, `
		SELECT pd.detection_id, cp.symbol, p.name, p.pattern_type, pd.timeframe,
		       pd.confidence, pd.price_at_detection, pd.target_price, pd.status, pd.detected_at
		FROM pattern_detections pd
		JOIN currency_pairs cp ON pd.pair_id = cp.pair_id
		JOIN chart_patterns p ON pd.pattern_id = p.pattern_id
		WHERE pd.status = 'active'
		ORDER BY pd.detection_id
	`)
}

// ListPatternDetections returns the most recent detections in any state.
func (db *DB) ListPatternDetections(ctx context.Context, limit int) ([]models.PatternDetection, error) {
	return db.queryDetections(ctx, `
		SELECT pd.detection_id, cp.symbol, p.name, p.pattern_type, pd.timeframe,
		       pd.confidence, pd.price_at_detection, pd.target_price, pd.status, pd.detected_at
		FROM pattern_detections pd
		JOIN currency_pairs cp ON pd.pair_id = cp.pair_id
		JOIN chart_patterns p ON pd.pattern_id = p.pattern_id
		ORDER BY pd.detected_at DESC
		LIMIT $1
	`, limit)
}

func (db *DB) queryDetections(ctx context.Context, query string, args ...any) ([]models.PatternDetection, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var detections []models.PatternDetection
	for rows.Next() {
		var d models.PatternDetection
		var priceAt, target sql.NullFloat64
		if err := rows.Scan(
			&d.ID, &d.PairSymbol, &d.PatternName, &d.PatternType, &d.Timeframe,
			&d.Confidence, &priceAt, &target, &d.Status, &d.DetectedAt,
		); err != nil {
			return nil, err
		}
		if priceAt.Valid {
			v := priceAt.Float64
			d.PriceAtDetection = &v
		}
		if target.Valid {
			v := target.Float64
			d.TargetPrice = &v
		}
		detections = append(detections, d)
	}
	return detections, rows.Err()
}

// UpdatePatternDetectionStatus moves a detection to a new status,
// optionally recording notes.
func (db *DB) UpdatePatternDetectionStatus(ctx context.Context, detectionID int64, status, notes string) error {
	var err error
	if notes != "" {
		_, err = db.ExecContext(ctx, `
		UPDATE pattern_detections
		SET status = $1, notes = $2, updated_at = NOW()
		WHERE detection_id = $3
		`, status, notes, detectionID)
	} else {
		_, err = db.ExecContext(ctx, `
		UPDATE pattern_detections
		SET status = $1, updated_at = NOW()
		WHERE detection_id = $2
		`, status, detectionID)
	}
	return err
}

// GetAccount returns the latest account row.
func (db *DB) GetAccount(ctx context.Context) (*models.Account, error) {
	var a models.Account
	err := db.QueryRowContext(ctx, `
		SELECT balance, previous_balance, risk_percentage, drawdown_percentage, updated_at
		FROM account
		ORDER BY id DESC
		LIMIT 1
	`).Scan(&a.Balance, &a.PreviousBalance, &a.RiskPercentage, &a.DrawdownPercentage, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.New("storage: no account information found")
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}
