package breakout

import (
	"sort"
	"time"

	"forex-breakout-bot/models"
)

// FitParams tunes the trend-line fitter.
type FitParams struct {
	MinPoints   int     // minimum swing points per line
	MaxDistance float64 // relative distance tolerance when extending a line
}

// FitTrendLines fits resistance lines through swing highs and support
// lines through swing lows, then evaluates every line at each candle
// timestamp and at the latest one. Time is measured in seconds elapsed
// since the first candle of the series.
//
// The fit is greedy and order-dependent: lines are seeded left to right
// and extension points, once accepted, are never retracted even when a
// refit worsens earlier residuals. Results are path-dependent, not
// globally optimal.
func FitTrendLines(candles []models.Candle, highs, lows []models.SwingPoint, p FitParams) models.TrendLineSet {
	if len(candles) == 0 || len(highs) == 0 || len(lows) == 0 {
		return models.TrendLineSet{}
	}

	base := candles[0].Timestamp

	set := models.TrendLineSet{
		Resistance: fitLines(highs, base, p, models.LineResistance),
		Support:    fitLines(lows, base, p, models.LineSupport),
	}

	offsets := make([]float64, len(candles))
	for i, c := range candles {
		offsets[i] = c.Timestamp.Sub(base).Seconds()
	}
	latest := offsets[len(offsets)-1]

	for i := range set.Resistance {
		evaluateLine(&set.Resistance[i], offsets, latest)
	}
	for i := range set.Support {
		evaluateLine(&set.Support[i], offsets, latest)
	}

	return set
}

// evaluateLine fills in the line's price at every candle offset and at
// the latest timestamp.
func evaluateLine(line *models.TrendLine, offsets []float64, latest float64) {
	line.Values = make([]float64, len(offsets))
	for i, t := range offsets {
		line.Values[i] = line.Slope*t + line.Intercept
	}
	line.CurrentValue = line.Slope*latest + line.Intercept
}

// fitLines runs the greedy first-fit scan over swing points of one kind.
// Only the start position is checked against the used set; that matches
// the original scan exactly.
func fitLines(points []models.SwingPoint, base time.Time, p FitParams, kind models.LineKind) []models.TrendLine {
	if len(points) < p.MinPoints {
		return nil
	}

	offsets := make([]float64, len(points))
	for i, pt := range points {
		offsets[i] = pt.Timestamp.Sub(base).Seconds()
	}

	var lines []models.TrendLine
	used := make(map[int]struct{})

	for i := 0; i <= len(points)-p.MinPoints; i++ {
		if _, ok := used[i]; ok {
			continue
		}

		// Seed from MinPoints consecutive positions.
		members := make([]int, 0, p.MinPoints)
		for j := i; j < i+p.MinPoints; j++ {
			members = append(members, j)
		}
		slope, intercept := leastSquares(offsets, points, members)

		// Extend forward with every later unused point close enough to
		// the line, refitting after each accepted point.
		for j := i + p.MinPoints; j < len(points); j++ {
			if _, ok := used[j]; ok {
				continue
			}
			if points[j].Price == 0 {
				continue // relative distance undefined
			}
			predicted := slope*offsets[j] + intercept
			distance := abs(points[j].Price-predicted) / points[j].Price
			if distance <= p.MaxDistance {
				members = append(members, j)
				slope, intercept = leastSquares(offsets, points, members)
			}
		}

		if len(members) < p.MinPoints {
			continue
		}

		for _, m := range members {
			used[m] = struct{}{}
		}

		minT, maxT := offsets[members[0]], offsets[members[0]]
		linePoints := make([]models.TrendPoint, 0, len(members))
		for _, m := range members {
			if offsets[m] < minT {
				minT = offsets[m]
			}
			if offsets[m] > maxT {
				maxT = offsets[m]
			}
			linePoints = append(linePoints, models.TrendPoint{Price: points[m].Price, Offset: offsets[m]})
		}

		// Strength rewards both point count and timespan, in hours.
		strength := float64(len(members)) * (maxT - minT) / 3600.0

		lines = append(lines, models.TrendLine{
			Slope:     slope,
			Intercept: intercept,
			Points:    linePoints,
			NumPoints: len(members),
			Strength:  strength,
			Kind:      kind,
		})
	}

	sort.Slice(lines, func(a, b int) bool {
		return lines[a].Strength > lines[b].Strength
	})

	return lines
}

// leastSquares fits price against time offset over the member positions:
// slope = cov(t,p)/var(t), intercept = mean(p) - slope*mean(t).
func leastSquares(offsets []float64, points []models.SwingPoint, members []int) (slope, intercept float64) {
	n := float64(len(members))
	var meanT, meanP float64
	for _, m := range members {
		meanT += offsets[m]
		meanP += points[m].Price
	}
	meanT /= n
	meanP /= n

	var cov, varT float64
	for _, m := range members {
		dt := offsets[m] - meanT
		cov += dt * (points[m].Price - meanP)
		varT += dt * dt
	}
	if varT == 0 {
		return 0, meanP // all points share a timestamp, fall back to flat line
	}

	slope = cov / varT
	intercept = meanP - slope*meanT
	return slope, intercept
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
