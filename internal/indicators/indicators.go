package indicators

import (
	"math"

	"forex-breakout-bot/models"
)

// Params holds indicator periods. Zero values are invalid; use
// DefaultParams or fill every field.
type Params struct {
	SMAFast    int
	SMASlow    int
	SMALong    int
	RSIPeriod  int
	MACDFast   int
	MACDSlow   int
	MACDSignal int
	BBPeriod   int
	BBStdDev   float64
	ATRPeriod  int
}

// DefaultParams returns the standard periods: SMA 20/50/200, RSI 14,
// MACD 12/26/9, Bollinger 20 with 2 standard deviations, ATR 14.
func DefaultParams() Params {
	return Params{
		SMAFast:    20,
		SMASlow:    50,
		SMALong:    200,
		RSIPeriod:  14,
		MACDFast:   12,
		MACDSlow:   26,
		MACDSignal: 9,
		BBPeriod:   20,
		BBStdDev:   2.0,
		ATRPeriod:  14,
	}
}

// Compute calculates every indicator over the candle series and returns
// one snapshot per candle. Positions inside an indicator's warm-up
// window carry NaN, so comparisons against them are always false and
// downstream rules skip them naturally.
func Compute(candles []models.Candle, p Params) []models.IndicatorSnapshot {
	n := len(candles)
	if n == 0 {
		return nil
	}

	closes := make([]float64, n)
	for i, c := range candles {
		closes[i] = c.Close
	}

	sma20 := sma(closes, p.SMAFast)
	sma50 := sma(closes, p.SMASlow)
	sma200 := sma(closes, p.SMALong)
	rsiVals := rsi(closes, p.RSIPeriod)
	macdLine, macdSignal, macdHist := macd(closes, p.MACDFast, p.MACDSlow, p.MACDSignal)
	bbUpper, bbMiddle, bbLower := bollinger(closes, p.BBPeriod, p.BBStdDev)
	atrVals := atr(candles, p.ATRPeriod)

	snapshots := make([]models.IndicatorSnapshot, n)
	for i := range snapshots {
		snapshots[i] = models.IndicatorSnapshot{
			SMA20:      sma20[i],
			SMA50:      sma50[i],
			SMA200:     sma200[i],
			RSI:        rsiVals[i],
			MACD:       macdLine[i],
			MACDSignal: macdSignal[i],
			MACDHist:   macdHist[i],
			BBUpper:    bbUpper[i],
			BBMiddle:   bbMiddle[i],
			BBLower:    bbLower[i],
			ATR:        atrVals[i],
		}
	}
	return snapshots
}

// Latest returns the last snapshot, or false for an empty series.
func Latest(snapshots []models.IndicatorSnapshot) (models.IndicatorSnapshot, bool) {
	if len(snapshots) == 0 {
		return models.IndicatorSnapshot{}, false
	}
	return snapshots[len(snapshots)-1], true
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// sma is a simple moving average; the first period-1 positions are NaN.
func sma(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	if period < 1 || len(values) < period {
		return out
	}
	var sum float64
	for i, v := range values {
		sum += v
		if i >= period {
			sum -= values[i-period]
		}
		if i >= period-1 {
			out[i] = sum / float64(period)
		}
	}
	return out
}

// rsi is the relative strength index using a rolling simple mean of
// gains and losses over the period. The first position has no prior
// close and counts as zero change, so the index is first defined at
// position period-1. When the average loss is zero the index saturates
// at 100.
func rsi(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	if period < 1 || len(values) < period {
		return out
	}

	gains := make([]float64, len(values))
	losses := make([]float64, len(values))
	for i := 1; i < len(values); i++ {
		delta := values[i] - values[i-1]
		if delta > 0 {
			gains[i] = delta
		} else {
			losses[i] = -delta
		}
	}

	for i := period - 1; i < len(values); i++ {
		var avgGain, avgLoss float64
		for j := i - period + 1; j <= i; j++ {
			avgGain += gains[j]
			avgLoss += losses[j]
		}
		avgGain /= float64(period)
		avgLoss /= float64(period)

		if avgLoss == 0 {
			out[i] = 100
			continue
		}
		rs := avgGain / avgLoss
		out[i] = 100 - 100/(1+rs)
	}
	return out
}

// ema is an exponential moving average seeded from the first value, with
// smoothing factor 2/(span+1). Every position is defined.
func ema(values []float64, span int) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	alpha := 2.0 / (float64(span) + 1.0)
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out
}

// macd returns the MACD line (fast EMA minus slow EMA), its signal EMA,
// and the histogram (line minus signal).
func macd(values []float64, fast, slow, signal int) (line, signalLine, hist []float64) {
	fastEMA := ema(values, fast)
	slowEMA := ema(values, slow)

	line = make([]float64, len(values))
	for i := range line {
		line[i] = fastEMA[i] - slowEMA[i]
	}
	signalLine = ema(line, signal)

	hist = make([]float64, len(values))
	for i := range hist {
		hist[i] = line[i] - signalLine[i]
	}
	return line, signalLine, hist
}

// bollinger returns the upper, middle and lower bands: an SMA plus and
// minus k sample standard deviations of the window.
func bollinger(values []float64, period int, k float64) (upper, middle, lower []float64) {
	n := len(values)
	upper, middle, lower = nanSlice(n), nanSlice(n), nanSlice(n)
	if period < 2 || n < period {
		return upper, middle, lower
	}

	for i := period - 1; i < n; i++ {
		window := values[i-period+1 : i+1]
		var mean float64
		for _, v := range window {
			mean += v
		}
		mean /= float64(period)

		var variance float64
		for _, v := range window {
			d := v - mean
			variance += d * d
		}
		std := math.Sqrt(variance / float64(period-1)) // sample std

		middle[i] = mean
		upper[i] = mean + k*std
		lower[i] = mean - k*std
	}
	return upper, middle, lower
}

// atr is the average true range: a rolling simple mean of the true
// range, where the first candle's true range is its high minus low.
func atr(candles []models.Candle, period int) []float64 {
	n := len(candles)
	out := nanSlice(n)
	if period < 1 || n < period {
		return out
	}

	tr := make([]float64, n)
	tr[0] = candles[0].High - candles[0].Low
	for i := 1; i < n; i++ {
		hl := candles[i].High - candles[i].Low
		hc := math.Abs(candles[i].High - candles[i-1].Close)
		lc := math.Abs(candles[i].Low - candles[i-1].Close)
		tr[i] = math.Max(hl, math.Max(hc, lc))
	}

	var sum float64
	for i, v := range tr {
		sum += v
		if i >= period {
			sum -= tr[i-period]
		}
		if i >= period-1 {
			out[i] = sum / float64(period)
		}
	}
	return out
}
