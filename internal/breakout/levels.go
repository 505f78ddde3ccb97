package breakout

import (
	"sort"

	"forex-breakout-bot/models"
)

// LevelParams tunes the horizontal level detector.
type LevelParams struct {
	Window    int     // sliding window size for price clustering
	Threshold float64 // relative distance for cluster membership and merging
}

// minClusterSize is the number of nearby prices a window must contain
// before they count as a candidate level.
const minClusterSize = 3

type cluster struct {
	price float64
	count float64
}

// FindLevels clusters highs into resistance levels and lows into support
// levels, counts bounce touches for each retained level, and returns both
// lists sorted by strength descending.
func FindLevels(candles []models.Candle, p LevelParams) models.LevelSet {
	if len(candles) == 0 {
		return models.LevelSet{}
	}

	highs := make([]float64, len(candles))
	lows := make([]float64, len(candles))
	for i, c := range candles {
		highs[i] = c.High
		lows[i] = c.Low
	}

	return models.LevelSet{
		Support:    buildLevels(candles, findPriceClusters(lows, p), models.LineSupport, p.Threshold),
		Resistance: buildLevels(candles, findPriceClusters(highs, p), models.LineResistance, p.Threshold),
	}
}

// findPriceClusters slides a window over the price array, records every
// price with at least minClusterSize neighbours within the threshold, and
// merges nearby candidates into count-weighted averages.
func findPriceClusters(prices []float64, p LevelParams) []cluster {
	var candidates []cluster

	for i := 0; i+p.Window <= len(prices); i++ {
		window := prices[i : i+p.Window]
		for _, price := range window {
			if price == 0 {
				continue // relative threshold undefined
			}
			count := 0
			for _, other := range window {
				if abs(other-price)/price < p.Threshold {
					count++
				}
			}
			if count >= minClusterSize {
				candidates = append(candidates, cluster{price: price, count: float64(count)})
			}
		}
	}

	// Merge candidates in scan order: a candidate within the threshold of
	// an existing cluster replaces it with the count-weighted average.
	var merged []cluster
	for _, cand := range candidates {
		found := false
		for k := range merged {
			if abs(cand.price-merged[k].price)/merged[k].price < p.Threshold {
				total := merged[k].count + cand.count
				merged[k].price = (merged[k].price*merged[k].count + cand.price*cand.count) / total
				merged[k].count = total
				found = true
				break
			}
		}
		if !found {
			merged = append(merged, cand)
		}
	}

	return merged
}

// buildLevels deduplicates near-identical clusters keeping the stronger
// one, counts touches, and sorts by strength descending.
func buildLevels(candles []models.Candle, clusters []cluster, kind models.LineKind, threshold float64) []models.HorizontalLevel {
	sort.SliceStable(clusters, func(a, b int) bool {
		return clusters[a].count > clusters[b].count
	})

	var levels []models.HorizontalLevel
	for _, c := range clusters {
		duplicate := false
		for _, existing := range levels {
			if abs(c.price-existing.Price)/existing.Price < threshold {
				duplicate = true
				break
			}
		}
		if duplicate {
			continue
		}
		levels = append(levels, models.HorizontalLevel{
			Price:    c.price,
			Strength: c.count,
			Touches:  countTouches(candles, c.price, kind, threshold),
			Kind:     kind,
		})
	}

	sort.SliceStable(levels, func(a, b int) bool {
		return levels[a].Strength > levels[b].Strength
	})

	return levels
}

// countTouches counts candles that approach the level within the
// threshold band and bounce off it: for support, a low inside the band
// with a close back above the level; for resistance, the mirror with
// highs and closes below.
func countTouches(candles []models.Candle, level float64, kind models.LineKind, threshold float64) int {
	touches := 0
	for i := 1; i < len(candles); i++ {
		if kind == models.LineSupport {
			if candles[i].Low < level*(1+threshold) &&
				candles[i].Low > level*(1-threshold) &&
				candles[i].Close > level {
				touches++
			}
		} else {
			if candles[i].High > level*(1-threshold) &&
				candles[i].High < level*(1+threshold) &&
				candles[i].Close < level {
				touches++
			}
		}
	}
	return touches
}
