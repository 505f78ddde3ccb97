package signal

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"forex-breakout-bot/internal/config"
	"forex-breakout-bot/internal/indicators"
	"forex-breakout-bot/models"
)

// ErrNotConfigured is returned when the engine is missing a required
// collaborator.
var ErrNotConfigured = errors.New("signal: detection store not configured")

// Engine filters chart-pattern detections through indicator-based
// confirmation rules to cut down on noisy signals.
type Engine struct {
	data       models.MarketData
	detections models.DetectionStore
	cfg        *config.Config
	params     indicators.Params
	logger     zerolog.Logger
}

// New creates a signal engine. data is required; detections may be nil
// when the caller confirms single detections directly.
func New(data models.MarketData, detections models.DetectionStore, cfg *config.Config) *Engine {
	return &Engine{
		data:       data,
		detections: detections,
		cfg:        cfg,
		params: indicators.Params{
			SMAFast:    cfg.SMAFastPeriod,
			SMASlow:    cfg.SMASlowPeriod,
			SMALong:    cfg.SMALongPeriod,
			RSIPeriod:  cfg.RSIPeriod,
			MACDFast:   cfg.MACDFastPeriod,
			MACDSlow:   cfg.MACDSlowPeriod,
			MACDSignal: cfg.MACDSignalPeriod,
			BBPeriod:   cfg.BBPeriod,
			BBStdDev:   cfg.BBStdDev,
			ATRPeriod:  cfg.ATRPeriod,
		},
		logger: log.With().Str("component", "signal_filter").Logger(),
	}
}

// ConfirmPattern runs a detection through the confirmation rules and
// returns the adjusted confidence with the reasons for every adjustment.
// The rules read the latest indicator snapshot of the pair's 1h series;
// a rule whose indicator is still warming up simply does not fire.
func (e *Engine) ConfirmPattern(ctx context.Context, detection models.PatternDetection, threshold float64) (models.ConfirmationResult, error) {
	if e.data == nil {
		return models.ConfirmationResult{}, errors.New("signal: market data access not configured")
	}

	candles, err := e.data.GetSeries(ctx, detection.PairSymbol, "1h", e.cfg.ConfirmHistoryLimit)
	if err != nil {
		return models.ConfirmationResult{}, fmt.Errorf("fetching series for %s: %w", detection.PairSymbol, err)
	}
	if len(candles) == 0 {
		return models.ConfirmationResult{
			Confirmed:  false,
			Confidence: 0,
			Reasons:    []string{"Insufficient historical data"},
		}, nil
	}

	snapshots := indicators.Compute(candles, e.params)
	latest := snapshots[len(snapshots)-1]
	latestClose := candles[len(candles)-1].Close

	confidence := detection.Confidence
	var reasons []string

	switch detection.PatternType {
	case models.PatternContinuation:
		// A continuation pattern needs the prior trend to still hold.
		if latest.SMA20 > latest.SMA50 && latestClose > latest.SMA20 {
			confidence += 10
			reasons = append(reasons, "Uptrend confirmed by moving averages")
		} else if latest.SMA20 < latest.SMA50 && latestClose < latest.SMA20 {
			confidence += 10
			reasons = append(reasons, "Downtrend confirmed by moving averages")
		} else {
			confidence -= 10
			reasons = append(reasons, "Trend not confirmed by moving averages")
		}

	case models.PatternReversal:
		name := strings.ToLower(detection.PatternName)
		if strings.Contains(name, "top") {
			if latest.RSI > 70 {
				confidence += 10
				reasons = append(reasons, "Overbought conditions confirmed by RSI")
			}
			if latestClose > latest.BBUpper {
				confidence += 10
				reasons = append(reasons, "Price above upper Bollinger Band")
			}
			if latest.MACDHist < 0 && latest.MACD < 0 {
				confidence += 10
				reasons = append(reasons, "Bearish momentum confirmed by MACD")
			}
		} else if strings.Contains(name, "bottom") || strings.Contains(name, "inverse") {
			if latest.RSI < 30 {
				confidence += 10
				reasons = append(reasons, "Oversold conditions confirmed by RSI")
			}
			if latestClose < latest.BBLower {
				confidence += 10
				reasons = append(reasons, "Price below lower Bollinger Band")
			}
			if latest.MACDHist > 0 && latest.MACD > 0 {
				confidence += 10
				reasons = append(reasons, "Bullish momentum confirmed by MACD")
			}
		}
	}

	// Volume confirmation compares the last five candles against the
	// five before them. Short series make the earlier window NaN, which
	// fails the comparison and falls through to the penalty.
	recentVolume := meanVolume(candles, len(candles)-5, len(candles))
	previousVolume := meanVolume(candles, len(candles)-10, len(candles)-5)
	if recentVolume > previousVolume*1.2 {
		confidence += 10
		reasons = append(reasons, "Increasing volume confirms pattern")
	} else {
		confidence -= 5
		reasons = append(reasons, "Volume not confirming pattern")
	}

	// False breakout: price pierced the detection level in the expected
	// direction but closed back on the wrong side.
	if detection.PriceAtDetection != nil && detection.TargetPrice != nil {
		priceAt := *detection.PriceAtDetection
		target := *detection.TargetPrice
		high5, low5 := recentHighLow(candles, 5)

		if target > priceAt && high5 > priceAt && latestClose < priceAt {
			confidence -= 20
			reasons = append(reasons, "Possible false breakout detected")
		} else if target < priceAt && low5 < priceAt && latestClose > priceAt {
			confidence -= 20
			reasons = append(reasons, "Possible false breakout detected")
		}
	}

	result := models.ConfirmationResult{
		Confirmed:  confidence >= threshold,
		Confidence: confidence,
		Reasons:    reasons,
	}

	e.logger.Debug().
		Int64("detection_id", detection.ID).
		Str("pair", detection.PairSymbol).
		Float64("confidence", confidence).
		Bool("confirmed", result.Confirmed).
		Msg("pattern confirmation evaluated")

	return result, nil
}

// FilterSignals runs every active detection through ConfirmPattern and
// keeps the ones whose adjusted confidence clears minConfidence.
// Detections come back in store order, so output order is deterministic.
func (e *Engine) FilterSignals(ctx context.Context, minConfidence float64) ([]models.ConfirmedSignal, error) {
	if e.detections == nil {
		return nil, ErrNotConfigured
	}

	detections, err := e.detections.GetActivePatternDetections(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching active detections: %w", err)
	}

	var confirmed []models.ConfirmedSignal
	for _, detection := range detections {
		confirmation, err := e.ConfirmPattern(ctx, detection, minConfidence)
		if err != nil {
			return nil, err
		}
		if confirmation.Confirmed {
			confirmed = append(confirmed, models.ConfirmedSignal{
				Detection:    detection,
				Confirmation: confirmation,
			})
		}
	}

	e.logger.Info().
		Int("active", len(detections)).
		Int("confirmed", len(confirmed)).
		Msg("signals filtered")

	return confirmed, nil
}

// UpdateDetectionStatus moves a detection through its lifecycle.
func (e *Engine) UpdateDetectionStatus(ctx context.Context, detectionID int64, status, notes string) error {
	if e.detections == nil {
		return ErrNotConfigured
	}
	if err := e.detections.UpdatePatternDetectionStatus(ctx, detectionID, status, notes); err != nil {
		return fmt.Errorf("updating detection %d: %w", detectionID, err)
	}
	return nil
}

// meanVolume averages volumes over [from, to), clamping from at zero.
// An empty range yields NaN.
func meanVolume(candles []models.Candle, from, to int) float64 {
	if from < 0 {
		from = 0
	}
	if to > len(candles) {
		to = len(candles)
	}
	if from >= to {
		return math.NaN()
	}
	var sum float64
	for i := from; i < to; i++ {
		sum += candles[i].Volume
	}
	return sum / float64(to-from)
}

// recentHighLow returns the extreme high and low over the last n candles.
func recentHighLow(candles []models.Candle, n int) (high, low float64) {
	start := len(candles) - n
	if start < 0 {
		start = 0
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for i := start; i < len(candles); i++ {
		if candles[i].High > high {
			high = candles[i].High
		}
		if candles[i].Low < low {
			low = candles[i].Low
		}
	}
	return high, low
}
