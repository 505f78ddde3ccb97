package models

import "context"

// MarketData provides historical candles for a pair and timeframe,
// oldest first. An empty slice means no data; an unknown pair is an error.
type MarketData interface {
	GetSeries(ctx context.Context, pairSymbol, timeframe string, limit int) ([]Candle, error)
}

// BreakoutStore persists detected breakouts. The store assigns identity.
type BreakoutStore interface {
	SaveBreakout(ctx context.Context, b Breakout, pairSymbol string) (int64, error)
}

// DetectionStore provides access to stored pattern detections.
type DetectionStore interface {
	GetActivePatternDetections(ctx context.Context) ([]PatternDetection, error)
	UpdatePatternDetectionStatus(ctx context.Context, detectionID int64, status, notes string) error
}
