package signal

import (
	"context"
	"testing"
	"time"

	"forex-breakout-bot/models"
)

func uptrendCandles(n int) []models.Candle {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return generateTestCandles(n, func(i int) models.Candle {
		price := 1.0 + float64(i)*0.01
		return models.Candle{
			Timestamp: base.Add(time.Duration(i) * time.Hour),
			Open:      price, High: price + 0.005, Low: price - 0.005, Close: price,
			Volume: 1000,
		}
	})
}

func downtrendCandlesPlain(n int) []models.Candle {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return generateTestCandles(n, func(i int) models.Candle {
		price := 3.0 - float64(i)*0.01
		return models.Candle{
			Timestamp: base.Add(time.Duration(i) * time.Hour),
			Open:      price, High: price + 0.005, Low: price - 0.005, Close: price,
			Volume: 1000,
		}
	})
}

func TestMultiTimeframeConfirmationAligned(t *testing.T) {
	data := &fakeMarketData{series: map[string][]models.Candle{
		"EUR/USD/1h": uptrendCandles(100),
		"EUR/USD/4h": uptrendCandles(100),
		// 1d has no data and must be skipped.
	}}
	engine := New(data, nil, signalTestConfig())

	result, err := engine.MultiTimeframeConfirmation(context.Background(), "EUR/USD")
	if err != nil {
		t.Fatalf("MultiTimeframeConfirmation() error = %v", err)
	}

	if len(result.Timeframes) != 2 {
		t.Fatalf("timeframes = %d, want 2", len(result.Timeframes))
	}
	if _, ok := result.Timeframes["1d"]; ok {
		t.Error("1d should be skipped when it has no data")
	}

	for _, tf := range []string{"1h", "4h"} {
		state, ok := result.Timeframes[tf]
		if !ok {
			t.Fatalf("missing timeframe %s", tf)
		}
		if state.Trend != "bullish" {
			t.Errorf("%s trend = %q, want bullish", tf, state.Trend)
		}
		if state.Momentum != "bullish" {
			t.Errorf("%s momentum = %q, want bullish", tf, state.Momentum)
		}
	}

	if !result.Aligned {
		t.Error("Aligned = false, want true")
	}
}

func TestMultiTimeframeConfirmationNeutralThirdTimeframe(t *testing.T) {
	// Two bullish timeframes align even when the third has data but
	// classifies as neutral.
	data := &fakeMarketData{series: map[string][]models.Candle{
		"EUR/USD/1h": uptrendCandles(100),
		"EUR/USD/4h": uptrendCandles(100),
		"EUR/USD/1d": flatCandles(100),
	}}
	engine := New(data, nil, signalTestConfig())

	result, err := engine.MultiTimeframeConfirmation(context.Background(), "EUR/USD")
	if err != nil {
		t.Fatalf("MultiTimeframeConfirmation() error = %v", err)
	}

	if len(result.Timeframes) != 3 {
		t.Fatalf("timeframes = %d, want 3", len(result.Timeframes))
	}
	if got := result.Timeframes["1d"].Trend; got != "neutral" {
		t.Errorf("1d trend = %q, want neutral", got)
	}
	if got := result.Timeframes["1d"].Momentum; got != "neutral" {
		t.Errorf("1d momentum = %q, want neutral", got)
	}
	if !result.Aligned {
		t.Error("Aligned = false, want true")
	}
}

func TestMultiTimeframeConfirmationConflicting(t *testing.T) {
	data := &fakeMarketData{series: map[string][]models.Candle{
		"EUR/USD/1h": uptrendCandles(100),
		"EUR/USD/4h": downtrendCandlesPlain(100),
	}}
	engine := New(data, nil, signalTestConfig())

	result, err := engine.MultiTimeframeConfirmation(context.Background(), "EUR/USD")
	if err != nil {
		t.Fatalf("MultiTimeframeConfirmation() error = %v", err)
	}

	if result.Timeframes["1h"].Trend != "bullish" {
		t.Errorf("1h trend = %q, want bullish", result.Timeframes["1h"].Trend)
	}
	if result.Timeframes["4h"].Trend != "bearish" {
		t.Errorf("4h trend = %q, want bearish", result.Timeframes["4h"].Trend)
	}
	if result.Aligned {
		t.Error("Aligned = true, want false")
	}
}

func TestMultiTimeframeConfirmationSingleTimeframe(t *testing.T) {
	// One timeframe alone can never align.
	data := &fakeMarketData{series: map[string][]models.Candle{
		"EUR/USD/1h": uptrendCandles(100),
	}}
	engine := New(data, nil, signalTestConfig())

	result, err := engine.MultiTimeframeConfirmation(context.Background(), "EUR/USD")
	if err != nil {
		t.Fatalf("MultiTimeframeConfirmation() error = %v", err)
	}
	if len(result.Timeframes) != 1 {
		t.Fatalf("timeframes = %d, want 1", len(result.Timeframes))
	}
	if result.Aligned {
		t.Error("Aligned = true, want false")
	}
}

func TestMultiTimeframeConfirmationVolatility(t *testing.T) {
	// A steady range keeps the latest ATR near its mean.
	data := &fakeMarketData{series: map[string][]models.Candle{
		"EUR/USD/1h": uptrendCandles(100),
		"EUR/USD/4h": uptrendCandles(100),
	}}
	engine := New(data, nil, signalTestConfig())

	result, err := engine.MultiTimeframeConfirmation(context.Background(), "EUR/USD")
	if err != nil {
		t.Fatalf("MultiTimeframeConfirmation() error = %v", err)
	}
	if got := result.Timeframes["1h"].Volatility; got != "normal" {
		t.Errorf("volatility = %q, want normal", got)
	}
}
