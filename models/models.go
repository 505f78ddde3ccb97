package models

import (
	"time"
)

// Candle represents a single OHLC price candle.
type Candle struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// SwingKind tells whether a swing point is a local high or low.
type SwingKind string

const (
	SwingHigh SwingKind = "high"
	SwingLow  SwingKind = "low"
)

// SwingPoint is a local price extremum over a symmetric window.
type SwingPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Price     float64   `json:"price"`
	Kind      SwingKind `json:"kind"`
}

// LineKind tells whether a trend line or level acts as support or resistance.
type LineKind string

const (
	LineSupport    LineKind = "support"
	LineResistance LineKind = "resistance"
)

// TrendPoint is one swing point included in a fitted trend line.
// Offset is elapsed seconds since the first candle of the series.
type TrendPoint struct {
	Price  float64 `json:"price"`
	Offset float64 `json:"offset"`
}

// TrendLine is a linear fit through swing points acting as dynamic
// support or resistance. Values holds the line's price at every candle
// timestamp of the series it was fitted on.
type TrendLine struct {
	Slope        float64      `json:"slope"`
	Intercept    float64      `json:"intercept"`
	Points       []TrendPoint `json:"points"`
	NumPoints    int          `json:"num_points"`
	Strength     float64      `json:"strength"`
	Kind         LineKind     `json:"kind"`
	Values       []float64    `json:"values,omitempty"`
	CurrentValue float64      `json:"current_value"`
}

// TrendLineSet groups fitted lines by their role.
type TrendLineSet struct {
	Resistance []TrendLine `json:"resistance"`
	Support    []TrendLine `json:"support"`
}

// HorizontalLevel is a horizontal support or resistance price level.
type HorizontalLevel struct {
	Price    float64  `json:"level"`
	Strength float64  `json:"strength"`
	Touches  int      `json:"touches"`
	Kind     LineKind `json:"kind"`
}

// LevelSet groups horizontal levels by their role.
type LevelSet struct {
	Support    []HorizontalLevel `json:"support"`
	Resistance []HorizontalLevel `json:"resistance"`
}

// Direction of a breakout move.
type Direction string

const (
	Bullish Direction = "bullish"
	Bearish Direction = "bearish"
)

// Breakout reference sources.
const (
	SourceTrendLine  = "trend_line"
	SourceHorizontal = "horizontal"
)

// Breakout is a confirmed close beyond a trend line or horizontal level.
type Breakout struct {
	Timestamp      time.Time `json:"timestamp"`
	Direction      Direction `json:"direction"`
	Source         string    `json:"source"`
	ReferenceKind  LineKind  `json:"reference_kind"`
	ReferenceValue float64   `json:"reference_value"`
	Price          float64   `json:"price"`
	Percentage     float64   `json:"percentage"`
	Strength       float64   `json:"strength"`
	Touches        int       `json:"touches,omitempty"`
	Confirmed      bool      `json:"confirmed"`
}

// IndicatorSnapshot holds all indicator values for one candle. Values
// inside the warm-up window of their formula are NaN.
type IndicatorSnapshot struct {
	SMA20      float64
	SMA50      float64
	SMA200     float64
	RSI        float64
	MACD       float64
	MACDSignal float64
	MACDHist   float64
	BBUpper    float64
	BBMiddle   float64
	BBLower    float64
	ATR        float64
}

// Pattern detection statuses.
const (
	StatusActive      = "active"
	StatusConfirmed   = "confirmed"
	StatusInvalidated = "invalidated"
	StatusCompleted   = "completed"
)

// Pattern types.
const (
	PatternContinuation = "continuation"
	PatternReversal     = "reversal"
	PatternBilateral    = "bilateral"
)

// ChartPattern is a known chart-pattern definition.
type ChartPattern struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	PatternType string  `json:"type"`
	Description string  `json:"description"`
	Reliability float64 `json:"reliability"`
}

// PatternDetection is a chart-pattern hit produced by the external
// image classifier and stored by the persistence layer. The signal
// engine only reads it and updates its status.
type PatternDetection struct {
	ID               int64     `json:"detection_id"`
	PairSymbol       string    `json:"pair_symbol"`
	PatternName      string    `json:"pattern_name"`
	PatternType      string    `json:"pattern_type"`
	Timeframe        string    `json:"timeframe"`
	Confidence       float64   `json:"confidence"`
	PriceAtDetection *float64  `json:"price_at_detection,omitempty"`
	TargetPrice      *float64  `json:"target_price,omitempty"`
	Status           string    `json:"status"`
	DetectedAt       time.Time `json:"detected_at"`
}

// ConfirmationResult is the outcome of running a pattern detection
// through the confirmation rules.
type ConfirmationResult struct {
	Confirmed  bool     `json:"confirmed"`
	Confidence float64  `json:"confidence"`
	Reasons    []string `json:"reasons"`
}

// ConfirmedSignal pairs a detection with the confirmation that passed it.
type ConfirmedSignal struct {
	Detection    PatternDetection   `json:"detection"`
	Confirmation ConfirmationResult `json:"confirmation"`
}

// TimeframeState classifies one timeframe's market condition.
type TimeframeState struct {
	Trend      string `json:"trend"`      // bullish, bearish, neutral
	Momentum   string `json:"momentum"`   // bullish, bearish, neutral
	Volatility string `json:"volatility"` // high, low, normal
}

// MultiTimeframeResult reports per-timeframe classification and whether
// at least two timeframes agree on a non-neutral trend.
type MultiTimeframeResult struct {
	Timeframes map[string]TimeframeState `json:"timeframes"`
	Aligned    bool                      `json:"aligned"`
}

// AnalysisResult is the full breakout analysis for one pair/timeframe.
type AnalysisResult struct {
	PairSymbol       string       `json:"pair_symbol"`
	Timeframe        string       `json:"timeframe"`
	AnalysisTime     time.Time    `json:"analysis_time"`
	TrendLines       TrendLineSet `json:"trend_lines"`
	Levels           LevelSet     `json:"support_resistance_levels"`
	Breakouts        []Breakout   `json:"breakouts"`
	LatestPrice      float64      `json:"latest_price"`
	LatestTimestamp  time.Time    `json:"latest_timestamp"`
	InsufficientData bool         `json:"insufficient_data,omitempty"`
}

// CurrencyPair describes a tradeable pair.
type CurrencyPair struct {
	ID       int64   `json:"pair_id"`
	Symbol   string  `json:"symbol"`
	Name     string  `json:"name"`
	PairType string  `json:"pair_type"`
	PipValue float64 `json:"pip_value"`
}

// Account holds the trading account state used for risk calculations.
type Account struct {
	Balance            float64   `json:"balance"`
	PreviousBalance    float64   `json:"previous_balance"`
	RiskPercentage     float64   `json:"risk_percentage"`
	DrawdownPercentage float64   `json:"drawdown_percentage"`
	UpdatedAt          time.Time `json:"updated_at"`
}
