package indicators

import (
	"math"
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

func constantCandles(n int, price float64) []models.Candle {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return generateTestCandles(n, func(i int) models.Candle {
		return models.Candle{
			Timestamp: base.Add(time.Duration(i) * time.Hour),
			Open:      price, High: price, Low: price, Close: price,
			Volume: 1000,
		}
	})
}

func TestComputeConstantSeries(t *testing.T) {
	candles := constantCandles(250, 1.2)
	snapshots := Compute(candles, DefaultParams())

	if len(snapshots) != len(candles) {
		t.Fatalf("snapshots = %d, want %d", len(snapshots), len(candles))
	}
	last := snapshots[len(snapshots)-1]

	for name, got := range map[string]float64{
		"SMA20":  last.SMA20,
		"SMA50":  last.SMA50,
		"SMA200": last.SMA200,
	} {
		if math.Abs(got-1.2) > 1e-9 {
			t.Errorf("%s = %v, want 1.2", name, got)
		}
	}

	// No price changes: RSI saturates, MACD and ATR collapse to zero,
	// Bollinger bands coincide with the price.
	if last.RSI != 100 {
		t.Errorf("RSI = %v, want 100", last.RSI)
	}
	if math.Abs(last.MACD) > 1e-12 || math.Abs(last.MACDSignal) > 1e-12 || math.Abs(last.MACDHist) > 1e-12 {
		t.Errorf("MACD = %v/%v/%v, want zeros", last.MACD, last.MACDSignal, last.MACDHist)
	}
	if math.Abs(last.ATR) > 1e-12 {
		t.Errorf("ATR = %v, want 0", last.ATR)
	}
	if math.Abs(last.BBUpper-1.2) > 1e-9 || math.Abs(last.BBMiddle-1.2) > 1e-9 || math.Abs(last.BBLower-1.2) > 1e-9 {
		t.Errorf("BB = %v/%v/%v, want 1.2 each", last.BBUpper, last.BBMiddle, last.BBLower)
	}
}

func TestComputeWarmupIsNaN(t *testing.T) {
	candles := constantCandles(250, 1.2)
	snapshots := Compute(candles, DefaultParams())

	tests := []struct {
		name  string
		value float64
	}{
		{"SMA20 before period", snapshots[18].SMA20},
		{"SMA50 before period", snapshots[48].SMA50},
		{"SMA200 before period", snapshots[198].SMA200},
		{"RSI before period", snapshots[12].RSI},
		{"BBUpper before period", snapshots[18].BBUpper},
		{"ATR before period", snapshots[12].ATR},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !math.IsNaN(tt.value) {
				t.Errorf("value = %v, want NaN", tt.value)
			}
		})
	}

	// First defined positions.
	if math.IsNaN(snapshots[19].SMA20) {
		t.Error("SMA20 at index 19 should be defined")
	}
	// RSI's first delta counts as zero change, so the window fills one
	// position earlier than the delta count suggests.
	if math.IsNaN(snapshots[13].RSI) {
		t.Error("RSI at index 13 should be defined")
	}
	if math.IsNaN(snapshots[13].ATR) {
		t.Error("ATR at index 13 should be defined")
	}
}

func TestRSIExtremes(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	rising := generateTestCandles(30, func(i int) models.Candle {
		price := 1.0 + float64(i)*0.01
		return models.Candle{Timestamp: base.Add(time.Duration(i) * time.Hour), Open: price, High: price, Low: price, Close: price}
	})
	snapshots := Compute(rising, DefaultParams())
	if got := snapshots[len(snapshots)-1].RSI; got != 100 {
		t.Errorf("RSI of monotonically rising series = %v, want 100", got)
	}

	falling := generateTestCandles(30, func(i int) models.Candle {
		price := 2.0 - float64(i)*0.01
		return models.Candle{Timestamp: base.Add(time.Duration(i) * time.Hour), Open: price, High: price, Low: price, Close: price}
	})
	snapshots = Compute(falling, DefaultParams())
	if got := snapshots[len(snapshots)-1].RSI; math.Abs(got) > 1e-9 {
		t.Errorf("RSI of monotonically falling series = %v, want 0", got)
	}
}

func TestBollingerUsesSampleStdDev(t *testing.T) {
	// Alternating closes 1.0 and 1.2 over a 20 candle window: mean 1.1,
	// sample standard deviation sqrt(0.01 * 20/19).
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	candles := generateTestCandles(20, func(i int) models.Candle {
		price := 1.0
		if i%2 == 1 {
			price = 1.2
		}
		return models.Candle{Timestamp: base.Add(time.Duration(i) * time.Hour), Open: price, High: price, Low: price, Close: price}
	})

	params := DefaultParams()
	snapshots := Compute(candles, params)
	last := snapshots[len(snapshots)-1]

	wantStd := math.Sqrt(0.01 * 20 / 19)
	if math.Abs(last.BBMiddle-1.1) > 1e-9 {
		t.Errorf("BBMiddle = %v, want 1.1", last.BBMiddle)
	}
	if math.Abs(last.BBUpper-(1.1+2*wantStd)) > 1e-9 {
		t.Errorf("BBUpper = %v, want %v", last.BBUpper, 1.1+2*wantStd)
	}
	if math.Abs(last.BBLower-(1.1-2*wantStd)) > 1e-9 {
		t.Errorf("BBLower = %v, want %v", last.BBLower, 1.1-2*wantStd)
	}
}

func TestMACDOnTrendingSeries(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rising := generateTestCandles(100, func(i int) models.Candle {
		price := 1.0 + float64(i)*0.01
		return models.Candle{Timestamp: base.Add(time.Duration(i) * time.Hour), Open: price, High: price, Low: price, Close: price}
	})

	snapshots := Compute(rising, DefaultParams())
	last := snapshots[len(snapshots)-1]

	if last.MACD <= 0 {
		t.Errorf("MACD of rising series = %v, want > 0", last.MACD)
	}
	if last.MACDHist <= 0 {
		t.Errorf("MACDHist of rising series = %v, want > 0", last.MACDHist)
	}
}

func TestATRConstantRange(t *testing.T) {
	// Every candle spans exactly 0.02 and closes mid-range, so the true
	// range settles at the candle span.
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	candles := generateTestCandles(50, func(i int) models.Candle {
		return models.Candle{
			Timestamp: base.Add(time.Duration(i) * time.Hour),
			Open:      1.10, High: 1.11, Low: 1.09, Close: 1.10,
		}
	})

	snapshots := Compute(candles, DefaultParams())
	last := snapshots[len(snapshots)-1]

	if math.Abs(last.ATR-0.02) > 1e-9 {
		t.Errorf("ATR = %v, want 0.02", last.ATR)
	}
}

func TestComputeEmptySeries(t *testing.T) {
	if snapshots := Compute(nil, DefaultParams()); snapshots != nil {
		t.Errorf("Compute(nil) = %v, want nil", snapshots)
	}
	if _, ok := Latest(nil); ok {
		t.Error("Latest(nil) ok = true, want false")
	}
}
