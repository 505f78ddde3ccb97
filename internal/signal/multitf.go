package signal

import (
	"context"
	"fmt"
	"math"

	"forex-breakout-bot/internal/indicators"
	"forex-breakout-bot/models"
)

// timeframes checked for alignment, fastest first.
var confirmationTimeframes = []string{"1h", "4h", "1d"}

// MultiTimeframeConfirmation classifies trend, momentum and volatility
// on each confirmation timeframe and reports whether at least two
// timeframes agree on a non-neutral trend direction. Timeframes with no
// data are skipped; an unknown pair propagates the data-access error.
func (e *Engine) MultiTimeframeConfirmation(ctx context.Context, pairSymbol string) (models.MultiTimeframeResult, error) {
	result := models.MultiTimeframeResult{
		Timeframes: make(map[string]models.TimeframeState),
	}

	for _, tf := range confirmationTimeframes {
		candles, err := e.data.GetSeries(ctx, pairSymbol, tf, e.cfg.ConfirmHistoryLimit)
		if err != nil {
			return models.MultiTimeframeResult{}, fmt.Errorf("fetching %s series for %s: %w", tf, pairSymbol, err)
		}
		if len(candles) == 0 {
			continue
		}

		snapshots := indicators.Compute(candles, e.params)
		latest := snapshots[len(snapshots)-1]
		latestClose := candles[len(candles)-1].Close

		state := models.TimeframeState{
			Trend:      "neutral",
			Momentum:   "neutral",
			Volatility: "normal",
		}

		if latest.SMA20 > latest.SMA50 && latestClose > latest.SMA20 {
			state.Trend = "bullish"
		} else if latest.SMA20 < latest.SMA50 && latestClose < latest.SMA20 {
			state.Trend = "bearish"
		}

		if latest.MACD > 0 && latest.MACDHist > 0 {
			state.Momentum = "bullish"
		} else if latest.MACD < 0 && latest.MACDHist < 0 {
			state.Momentum = "bearish"
		}

		meanATR := meanDefined(snapshots)
		if latest.ATR > meanATR*1.5 {
			state.Volatility = "high"
		} else if latest.ATR < meanATR*0.5 {
			state.Volatility = "low"
		}

		result.Timeframes[tf] = state
	}

	if len(result.Timeframes) >= 2 {
		bullish, bearish := 0, 0
		for _, state := range result.Timeframes {
			switch state.Trend {
			case "bullish":
				bullish++
			case "bearish":
				bearish++
			}
		}
		result.Aligned = bullish >= 2 || bearish >= 2
	}

	e.logger.Debug().
		Str("pair", pairSymbol).
		Int("timeframes", len(result.Timeframes)).
		Bool("aligned", result.Aligned).
		Msg("multi-timeframe confirmation")

	return result, nil
}

// meanDefined averages the ATR across snapshots, ignoring warm-up NaNs.
func meanDefined(snapshots []models.IndicatorSnapshot) float64 {
	var sum float64
	var count int
	for _, s := range snapshots {
		if math.IsNaN(s.ATR) {
			continue
		}
		sum += s.ATR
		count++
	}
	if count == 0 {
		return math.NaN()
	}
	return sum / float64(count)
}
