package breakout

import (
	"forex-breakout-bot/models"
)

// SwingPoints finds local price extrema over a symmetric window. Index i
// is a swing high when high[i] equals the maximum high over
// [i-window, i+window], ties included, and a swing low for the mirrored
// minimum. Both slices come back time-ascending. An empty or undersized
// series yields empty slices.
func SwingPoints(candles []models.Candle, window int) (highs, lows []models.SwingPoint) {
	if window < 1 || len(candles) < 2*window+1 {
		return nil, nil
	}

	for i := window; i < len(candles)-window; i++ {
		isHigh, isLow := true, true
		for j := i - window; j <= i+window; j++ {
			if candles[j].High > candles[i].High {
				isHigh = false
			}
			if candles[j].Low < candles[i].Low {
				isLow = false
			}
			if !isHigh && !isLow {
				break
			}
		}
		if isHigh {
			highs = append(highs, models.SwingPoint{
				Timestamp: candles[i].Timestamp,
				Price:     candles[i].High,
				Kind:      models.SwingHigh,
			})
		}
		if isLow {
			lows = append(lows, models.SwingPoint{
				Timestamp: candles[i].Timestamp,
				Price:     candles[i].Low,
				Kind:      models.SwingLow,
			})
		}
	}

	return highs, lows
}
