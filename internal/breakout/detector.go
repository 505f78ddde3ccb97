package breakout

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"forex-breakout-bot/internal/config"
	"forex-breakout-bot/models"
)

// ErrNotConfigured is returned when the detector is missing a required
// collaborator.
var ErrNotConfigured = errors.New("breakout: market data access not configured")

// BreakoutParams tunes breakout confirmation.
type BreakoutParams struct {
	Lookback            int     // candles inspected for a breakout
	ConfirmationCandles int     // closes required on the breakout side
	MinPercentage       float64 // minimum relative move for a valid breakout
}

// Detector runs the full breakout analysis for a pair: swing points,
// trend lines, horizontal levels and confirmed breakouts off both.
// All analysis methods are pure functions of the fetched series; the
// detector itself holds no mutable state and is safe for concurrent use.
type Detector struct {
	data   models.MarketData
	store  models.BreakoutStore
	cfg    *config.Config
	logger zerolog.Logger
}

// New creates a detector. data is required; store may be nil when the
// caller does not persist breakouts.
func New(data models.MarketData, store models.BreakoutStore, cfg *config.Config) *Detector {
	return &Detector{
		data:   data,
		store:  store,
		cfg:    cfg,
		logger: log.With().Str("component", "breakout_detector").Logger(),
	}
}

// AnalyzePair fetches the pair's series and runs the complete breakout
// analysis. An unknown pair propagates the data-access error unmodified.
// An empty series is not an error: the result carries the
// insufficient-data marker so callers can degrade gracefully.
func (d *Detector) AnalyzePair(ctx context.Context, pairSymbol, timeframe string) (*models.AnalysisResult, error) {
	if d.data == nil {
		return nil, ErrNotConfigured
	}

	candles, err := d.data.GetSeries(ctx, pairSymbol, timeframe, d.cfg.HistoryLimit)
	if err != nil {
		return nil, err
	}

	result := &models.AnalysisResult{
		PairSymbol:   pairSymbol,
		Timeframe:    timeframe,
		AnalysisTime: time.Now(),
	}

	if len(candles) == 0 {
		d.logger.Warn().Str("pair", pairSymbol).Str("timeframe", timeframe).Msg("no historical data")
		result.InsufficientData = true
		return result, nil
	}

	highs, lows := SwingPoints(candles, d.cfg.SwingWindow)
	lines := FitTrendLines(candles, highs, lows, FitParams{
		MinPoints:   d.cfg.TrendMinPoints,
		MaxDistance: d.cfg.TrendMaxDistance,
	})
	levels := FindLevels(candles, LevelParams{
		Window:    d.cfg.LevelWindow,
		Threshold: d.cfg.LevelThreshold,
	})

	params := BreakoutParams{
		Lookback:            d.cfg.BreakoutLookback,
		ConfirmationCandles: d.cfg.ConfirmationCandles,
		MinPercentage:       d.cfg.MinBreakoutPct,
	}
	breakouts := append(
		DetectTrendLineBreakouts(candles, lines, params),
		DetectLevelBreakouts(candles, levels, params)...,
	)
	sortBreakouts(breakouts)

	result.TrendLines = lines
	result.Levels = levels
	result.Breakouts = breakouts
	result.LatestPrice = candles[len(candles)-1].Close
	result.LatestTimestamp = candles[len(candles)-1].Timestamp

	d.logger.Debug().
		Str("pair", pairSymbol).
		Int("trend_lines", len(lines.Resistance)+len(lines.Support)).
		Int("levels", len(levels.Support)+len(levels.Resistance)).
		Int("breakouts", len(breakouts)).
		Msg("analysis complete")

	return result, nil
}

// SaveBreakout hands a detected breakout to the persistence collaborator,
// which assigns its identity.
func (d *Detector) SaveBreakout(ctx context.Context, b models.Breakout, pairSymbol string) (int64, error) {
	if d.store == nil {
		return 0, errors.New("breakout: store not configured")
	}
	id, err := d.store.SaveBreakout(ctx, b, pairSymbol)
	if err != nil {
		return 0, fmt.Errorf("saving breakout: %w", err)
	}
	return id, nil
}

// DetectTrendLineBreakouts scans the most recent candles against every
// fitted trend line: bullish closes above a resistance line, bearish
// closes below a support line.
func DetectTrendLineBreakouts(candles []models.Candle, lines models.TrendLineSet, p BreakoutParams) []models.Breakout {
	if len(candles) == 0 || (len(lines.Resistance) == 0 && len(lines.Support) == 0) {
		return nil
	}

	recent := lastN(candles, p.Lookback)
	var breakouts []models.Breakout

	for _, line := range lines.Resistance {
		refs := lastNFloats(line.Values, p.Lookback)
		if b, ok := confirmBreakout(recent, refs, p, models.Bullish); ok {
			b.Source = models.SourceTrendLine
			b.ReferenceKind = models.LineResistance
			b.Strength = line.Strength
			breakouts = append(breakouts, b)
		}
	}
	for _, line := range lines.Support {
		refs := lastNFloats(line.Values, p.Lookback)
		if b, ok := confirmBreakout(recent, refs, p, models.Bearish); ok {
			b.Source = models.SourceTrendLine
			b.ReferenceKind = models.LineSupport
			b.Strength = line.Strength
			breakouts = append(breakouts, b)
		}
	}

	sortBreakouts(breakouts)
	return breakouts
}

// DetectLevelBreakouts is the horizontal-level counterpart of
// DetectTrendLineBreakouts: the reference is a constant price.
func DetectLevelBreakouts(candles []models.Candle, levels models.LevelSet, p BreakoutParams) []models.Breakout {
	if len(candles) == 0 || (len(levels.Support) == 0 && len(levels.Resistance) == 0) {
		return nil
	}

	recent := lastN(candles, p.Lookback)
	var breakouts []models.Breakout

	for _, level := range levels.Resistance {
		refs := constantRefs(level.Price, len(recent))
		if b, ok := confirmBreakout(recent, refs, p, models.Bullish); ok {
			b.Source = models.SourceHorizontal
			b.ReferenceKind = models.LineResistance
			b.Strength = level.Strength
			b.Touches = level.Touches
			breakouts = append(breakouts, b)
		}
	}
	for _, level := range levels.Support {
		refs := constantRefs(level.Price, len(recent))
		if b, ok := confirmBreakout(recent, refs, p, models.Bearish); ok {
			b.Source = models.SourceHorizontal
			b.ReferenceKind = models.LineSupport
			b.Strength = level.Strength
			b.Touches = level.Touches
			breakouts = append(breakouts, b)
		}
	}

	sortBreakouts(breakouts)
	return breakouts
}

// confirmBreakout looks for the latest candle that closed on the wrong
// side of the reference, then requires every following close through the
// end of the window to sit on the breakout side, with at least
// ConfirmationCandles closes in that run. Confirmation is a precondition
// for emission, so emitted breakouts always carry Confirmed = true.
func confirmBreakout(recent []models.Candle, refs []float64, p BreakoutParams, dir models.Direction) (models.Breakout, bool) {
	n := len(recent)
	if n == 0 || len(refs) != n {
		return models.Breakout{}, false
	}

	violated := -1
	for i := 0; i < n-p.ConfirmationCandles; i++ {
		if dir == models.Bullish && recent[i].Close < refs[i] {
			violated = i
		}
		if dir == models.Bearish && recent[i].Close > refs[i] {
			violated = i
		}
	}
	if violated < 0 {
		return models.Breakout{}, false
	}

	run := n - (violated + 1)
	if run < p.ConfirmationCandles {
		return models.Breakout{}, false
	}
	for j := violated + 1; j < n; j++ {
		if dir == models.Bullish && recent[j].Close <= refs[j] {
			return models.Breakout{}, false
		}
		if dir == models.Bearish && recent[j].Close >= refs[j] {
			return models.Breakout{}, false
		}
	}

	price := recent[violated+1].Close
	ref := refs[violated+1]
	if ref == 0 {
		return models.Breakout{}, false // relative move undefined
	}

	var pct float64
	if dir == models.Bullish {
		pct = (price - ref) / ref
	} else {
		pct = (ref - price) / ref
	}
	if pct < p.MinPercentage {
		return models.Breakout{}, false
	}

	return models.Breakout{
		Timestamp:      recent[violated+1].Timestamp,
		Direction:      dir,
		ReferenceValue: ref,
		Price:          price,
		Percentage:     pct,
		Confirmed:      true,
	}, true
}

// sortBreakouts orders breakouts newest first.
func sortBreakouts(breakouts []models.Breakout) {
	sort.SliceStable(breakouts, func(a, b int) bool {
		return breakouts[a].Timestamp.After(breakouts[b].Timestamp)
	})
}

func lastN(candles []models.Candle, n int) []models.Candle {
	if len(candles) <= n {
		return candles
	}
	return candles[len(candles)-n:]
}

func lastNFloats(values []float64, n int) []float64 {
	if len(values) <= n {
		return values
	}
	return values[len(values)-n:]
}

func constantRefs(value float64, n int) []float64 {
	refs := make([]float64, n)
	for i := range refs {
		refs[i] = value
	}
	return refs
}
