package breakout

import (
	"testing"
	"time"

	"forex-breakout-bot/models"
)

func generateTestCandles(n int, generator func(int) models.Candle) []models.Candle {
	candles := make([]models.Candle, n)
	for i := 0; i < n; i++ {
		candles[i] = generator(i)
	}
	return candles
}

func hourlyCandles(highs, lows []float64) []models.Candle {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return generateTestCandles(len(highs), func(i int) models.Candle {
		return models.Candle{
			Timestamp: base.Add(time.Duration(i) * time.Hour),
			Open:      (highs[i] + lows[i]) / 2,
			High:      highs[i],
			Low:       lows[i],
			Close:     (highs[i] + lows[i]) / 2,
			Volume:    1000,
		}
	})
}

func TestSwingPoints(t *testing.T) {
	highs := []float64{1, 2, 5, 2, 1, 2, 6, 2, 1}
	lows := []float64{0, 1, 4, 1, 0, 1, 5, 1, 0}
	candles := hourlyCandles(highs, lows)

	swingHighs, swingLows := SwingPoints(candles, 1)

	if len(swingHighs) != 2 {
		t.Fatalf("SwingPoints() highs = %d, want 2", len(swingHighs))
	}
	if swingHighs[0].Price != 5 || swingHighs[1].Price != 6 {
		t.Errorf("swing high prices = %v, %v, want 5, 6", swingHighs[0].Price, swingHighs[1].Price)
	}
	if swingHighs[0].Kind != models.SwingHigh {
		t.Errorf("swing high kind = %v, want %v", swingHighs[0].Kind, models.SwingHigh)
	}

	if len(swingLows) != 1 {
		t.Fatalf("SwingPoints() lows = %d, want 1", len(swingLows))
	}
	if swingLows[0].Price != 0 {
		t.Errorf("swing low price = %v, want 0", swingLows[0].Price)
	}
	if !swingLows[0].Timestamp.Equal(candles[4].Timestamp) {
		t.Errorf("swing low timestamp = %v, want %v", swingLows[0].Timestamp, candles[4].Timestamp)
	}
}

func TestSwingPointsIncludesTies(t *testing.T) {
	// A plateau of equal highs: every interior candle ties the window
	// maximum, so each counts as a swing high.
	highs := []float64{2, 2, 2, 2, 2}
	lows := []float64{1, 1, 1, 1, 1}
	candles := hourlyCandles(highs, lows)

	swingHighs, swingLows := SwingPoints(candles, 1)

	if len(swingHighs) != 3 {
		t.Errorf("SwingPoints() highs = %d, want 3", len(swingHighs))
	}
	if len(swingLows) != 3 {
		t.Errorf("SwingPoints() lows = %d, want 3", len(swingLows))
	}
}

func TestSwingPointsShortSeries(t *testing.T) {
	tests := []struct {
		name    string
		candles []models.Candle
		window  int
	}{
		{
			name:    "empty series",
			candles: nil,
			window:  5,
		},
		{
			name:    "series shorter than window",
			candles: hourlyCandles([]float64{1, 2, 3}, []float64{0, 1, 2}),
			window:  5,
		},
		{
			name:    "zero window",
			candles: hourlyCandles([]float64{1, 2, 3}, []float64{0, 1, 2}),
			window:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			swingHighs, swingLows := SwingPoints(tt.candles, tt.window)
			if len(swingHighs) != 0 || len(swingLows) != 0 {
				t.Errorf("SwingPoints() = %d highs, %d lows, want none", len(swingHighs), len(swingLows))
			}
		})
	}
}
