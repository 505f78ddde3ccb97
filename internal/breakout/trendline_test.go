package breakout

import (
	"math"
	"testing"
	"time"

	"forex-breakout-bot/models"
)

func swingPointsAtHours(base time.Time, kind models.SwingKind, hours []int, priceAt func(hour int) float64) []models.SwingPoint {
	points := make([]models.SwingPoint, len(hours))
	for i, h := range hours {
		points[i] = models.SwingPoint{
			Timestamp: base.Add(time.Duration(h) * time.Hour),
			Price:     priceAt(h),
			Kind:      kind,
		}
	}
	return points
}

func TestFitTrendLinesCollinear(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	candles := generateTestCandles(10, func(i int) models.Candle {
		return models.Candle{
			Timestamp: base.Add(time.Duration(i) * time.Hour),
			Open:      1.2, High: 1.21, Low: 1.19, Close: 1.2,
		}
	})

	// Both sets of swing points sit exactly on a line rising 0.0001 per hour.
	resistancePrice := func(h int) float64 { return 1.2000 + 0.0001*float64(h) }
	supportPrice := func(h int) float64 { return 1.1900 + 0.0001*float64(h) }
	highs := swingPointsAtHours(base, models.SwingHigh, []int{0, 2, 4, 6, 8}, resistancePrice)
	lows := swingPointsAtHours(base, models.SwingLow, []int{0, 2, 4, 6, 8}, supportPrice)

	set := FitTrendLines(candles, highs, lows, FitParams{MinPoints: 3, MaxDistance: 0.0015})

	if len(set.Resistance) != 1 {
		t.Fatalf("resistance lines = %d, want 1", len(set.Resistance))
	}
	line := set.Resistance[0]

	if line.NumPoints != 5 {
		t.Errorf("NumPoints = %d, want 5", line.NumPoints)
	}
	wantSlope := 0.0001 / 3600
	if math.Abs(line.Slope-wantSlope) > 1e-12 {
		t.Errorf("Slope = %v, want %v", line.Slope, wantSlope)
	}
	if math.Abs(line.Intercept-1.2) > 1e-9 {
		t.Errorf("Intercept = %v, want 1.2", line.Intercept)
	}
	// 5 points spanning 8 hours.
	if math.Abs(line.Strength-40) > 1e-9 {
		t.Errorf("Strength = %v, want 40", line.Strength)
	}
	if line.Kind != models.LineResistance {
		t.Errorf("Kind = %v, want %v", line.Kind, models.LineResistance)
	}

	if len(line.Values) != len(candles) {
		t.Fatalf("Values length = %d, want %d", len(line.Values), len(candles))
	}
	// The line evaluated at hour 9 (latest candle).
	wantCurrent := 1.2000 + 0.0001*9
	if math.Abs(line.CurrentValue-wantCurrent) > 1e-9 {
		t.Errorf("CurrentValue = %v, want %v", line.CurrentValue, wantCurrent)
	}

	if len(set.Support) != 1 {
		t.Fatalf("support lines = %d, want 1", len(set.Support))
	}
	if set.Support[0].NumPoints != 5 {
		t.Errorf("support NumPoints = %d, want 5", set.Support[0].NumPoints)
	}
	if set.Support[0].Kind != models.LineSupport {
		t.Errorf("support Kind = %v, want %v", set.Support[0].Kind, models.LineSupport)
	}
}

func TestFitTrendLinesStrengthGrowsWithPoints(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	price := func(h int) float64 { return 1.2000 + 0.0001*float64(h) }
	lows := swingPointsAtHours(base, models.SwingLow, []int{0, 2, 4}, func(h int) float64 { return 1.19 })

	var prev float64
	for _, hours := range [][]int{{0, 2, 4}, {0, 2, 4, 6}, {0, 2, 4, 6, 8}} {
		candles := generateTestCandles(10, func(i int) models.Candle {
			return models.Candle{Timestamp: base.Add(time.Duration(i) * time.Hour), Close: 1.2}
		})
		highs := swingPointsAtHours(base, models.SwingHigh, hours, price)

		set := FitTrendLines(candles, highs, lows, FitParams{MinPoints: 3, MaxDistance: 0.0015})
		if len(set.Resistance) != 1 {
			t.Fatalf("resistance lines for %d points = %d, want 1", len(hours), len(set.Resistance))
		}
		strength := set.Resistance[0].Strength
		if strength <= prev {
			t.Errorf("strength with %d points = %v, want > %v", len(hours), strength, prev)
		}
		prev = strength
	}
}

func TestFitTrendLinesExcludesDistantPoint(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	candles := generateTestCandles(5, func(i int) models.Candle {
		return models.Candle{
			Timestamp: base.Add(time.Duration(i) * time.Hour),
			Open:      1.2, High: 1.25, Low: 1.19, Close: 1.2,
		}
	})

	highs := []models.SwingPoint{
		{Timestamp: base, Price: 1.2000, Kind: models.SwingHigh},
		{Timestamp: base.Add(1 * time.Hour), Price: 1.2001, Kind: models.SwingHigh},
		{Timestamp: base.Add(2 * time.Hour), Price: 1.2002, Kind: models.SwingHigh},
		// Far off the fitted line, outside the 0.0015 relative tolerance.
		{Timestamp: base.Add(3 * time.Hour), Price: 1.2500, Kind: models.SwingHigh},
	}
	lows := []models.SwingPoint{
		{Timestamp: base, Price: 1.1900, Kind: models.SwingLow},
		{Timestamp: base.Add(1 * time.Hour), Price: 1.1901, Kind: models.SwingLow},
		{Timestamp: base.Add(2 * time.Hour), Price: 1.1902, Kind: models.SwingLow},
	}

	set := FitTrendLines(candles, highs, lows, FitParams{MinPoints: 3, MaxDistance: 0.0015})

	if len(set.Resistance) != 1 {
		t.Fatalf("resistance lines = %d, want 1", len(set.Resistance))
	}
	if set.Resistance[0].NumPoints != 3 {
		t.Errorf("NumPoints = %d, want 3 (outlier excluded)", set.Resistance[0].NumPoints)
	}
}

func TestFitTrendLinesEmptyInputs(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	candles := generateTestCandles(5, func(i int) models.Candle {
		return models.Candle{Timestamp: base.Add(time.Duration(i) * time.Hour), Close: 1.2}
	})
	highs := swingPointsAtHours(base, models.SwingHigh, []int{0, 1, 2}, func(h int) float64 { return 1.2 })

	set := FitTrendLines(candles, highs, nil, FitParams{MinPoints: 3, MaxDistance: 0.0015})
	if len(set.Resistance) != 0 || len(set.Support) != 0 {
		t.Errorf("FitTrendLines with no lows = %d/%d lines, want none", len(set.Resistance), len(set.Support))
	}

	set = FitTrendLines(nil, highs, highs, FitParams{MinPoints: 3, MaxDistance: 0.0015})
	if len(set.Resistance) != 0 || len(set.Support) != 0 {
		t.Errorf("FitTrendLines with no candles = %d/%d lines, want none", len(set.Resistance), len(set.Support))
	}
}
