package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"forex-breakout-bot/internal/risk"
	"forex-breakout-bot/internal/storage"
	"forex-breakout-bot/models"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleDetectBreakouts runs the full breakout analysis for one pair,
// persists every confirmed breakout and returns the analysis.
func (s *Server) handleDetectBreakouts(w http.ResponseWriter, r *http.Request) {
	pairSymbol := r.URL.Query().Get("symbol")
	if pairSymbol == "" {
		s.writeError(w, http.StatusBadRequest, "currency pair symbol is required")
		return
	}
	timeframe := r.URL.Query().Get("timeframe")
	if timeframe == "" {
		timeframe = "1h"
	}

	analysis, err := s.detector.AnalyzePair(r.Context(), pairSymbol, timeframe)
	if err != nil {
		if errors.Is(err, storage.ErrPairNotFound) {
			s.writeError(w, http.StatusNotFound, err.Error())
			return
		}
		s.logger.Error().Err(err).Str("pair", pairSymbol).Msg("breakout analysis failed")
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	for _, b := range analysis.Breakouts {
		if _, err := s.detector.SaveBreakout(r.Context(), b, pairSymbol); err != nil {
			s.logger.Error().Err(err).Str("pair", pairSymbol).Msg("failed to save breakout")
			continue
		}
		if s.notifier != nil {
			if err := s.notifier.NotifyBreakout(b, pairSymbol); err != nil {
				s.logger.Warn().Err(err).Msg("breakout notification failed")
			}
		}
	}

	s.writeJSON(w, http.StatusOK, analysis)
}

// annotatedSignal is a confirmed signal plus the position sizing for
// its entry and stop levels, when the detection carries both.
type annotatedSignal struct {
	models.ConfirmedSignal
	Position *risk.PositionInfo `json:"position,omitempty"`
}

// handleFilteredSignals confirms all active pattern detections and
// returns the ones that pass, each sized against the account's risk
// parameters.
func (s *Server) handleFilteredSignals(w http.ResponseWriter, r *http.Request) {
	minConfidence := s.cfg.MinSignalConfidence
	if raw := r.URL.Query().Get("min_confidence"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "min_confidence must be a number")
			return
		}
		minConfidence = v
	}

	signals, err := s.signals.FilterSignals(r.Context(), minConfidence)
	if err != nil {
		s.logger.Error().Err(err).Msg("signal filtering failed")
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	annotated := make([]annotatedSignal, len(signals))
	for i, sig := range signals {
		annotated[i] = annotatedSignal{ConfirmedSignal: sig}
		d := sig.Detection
		if d.PriceAtDetection != nil && d.TargetPrice != nil && *d.PriceAtDetection != *d.TargetPrice {
			info := s.calculator.CalculatePositionSize(*d.PriceAtDetection, *d.TargetPrice, 0)
			annotated[i].Position = &info
		}
	}

	if s.notifier != nil {
		for _, sig := range signals {
			if err := s.notifier.NotifySignal(sig); err != nil {
				s.logger.Warn().Err(err).Msg("signal notification failed")
			}
		}
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"count":   len(annotated),
		"signals": annotated,
	})
}

// handleMultiTimeframe reports trend alignment across 1h, 4h and 1d.
func (s *Server) handleMultiTimeframe(w http.ResponseWriter, r *http.Request) {
	pairSymbol := r.URL.Query().Get("symbol")
	if pairSymbol == "" {
		s.writeError(w, http.StatusBadRequest, "currency pair symbol is required")
		return
	}

	result, err := s.signals.MultiTimeframeConfirmation(r.Context(), pairSymbol)
	if err != nil {
		if errors.Is(err, storage.ErrPairNotFound) {
			s.writeError(w, http.StatusNotFound, err.Error())
			return
		}
		s.logger.Error().Err(err).Str("pair", pairSymbol).Msg("multi-timeframe confirmation failed")
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleCurrencyPairs(w http.ResponseWriter, r *http.Request) {
	pairs, err := s.store.ListPairs(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"pairs":   pairs,
	})
}

func (s *Server) handleChartPatterns(w http.ResponseWriter, r *http.Request) {
	patterns, err := s.store.ListChartPatterns(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"patterns": patterns,
	})
}

func (s *Server) handlePatternDetections(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			s.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = v
	}

	detections, err := s.store.ListPatternDetections(r.Context(), limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"detections": detections,
	})
}

// handleAccount returns the account row plus the derived drawdown
// threshold for the day.
func (s *Server) handleAccount(w http.ResponseWriter, r *http.Request) {
	account, err := s.store.GetAccount(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	drawdownAmount := account.PreviousBalance * (account.DrawdownPercentage / 100)
	s.writeJSON(w, http.StatusOK, map[string]any{
		"success":            true,
		"account":            account,
		"drawdown_threshold": account.PreviousBalance - drawdownAmount,
	})
}

// handleUpdateForexData pulls the latest rate for every stored pair and
// appends it to the 1h series.
func (s *Server) handleUpdateForexData(w http.ResponseWriter, r *http.Request) {
	pairs, err := s.store.ListPairs(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	symbols := make([]string, len(pairs))
	for i, p := range pairs {
		symbols[i] = p.Symbol
	}

	updated, err := s.rates.UpdateForexData(r.Context(), s.store, symbols)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"updated": updated,
	})
}

type calculateRiskRequest struct {
	EntryPrice    float64 `json:"entry_price"`
	StopLossPrice float64 `json:"stop_loss_price"`
	PairSymbol    string  `json:"pair_symbol"`
}

// handleCalculateRisk sizes a position for the given entry and stop.
func (s *Server) handleCalculateRisk(w http.ResponseWriter, r *http.Request) {
	var req calculateRiskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.EntryPrice <= 0 || req.StopLossPrice <= 0 {
		s.writeError(w, http.StatusBadRequest, "entry_price and stop_loss_price are required")
		return
	}
	if req.EntryPrice == req.StopLossPrice {
		s.writeError(w, http.StatusBadRequest, "stop loss must differ from entry price")
		return
	}

	// The per-lot pip value defaults to $10; no stored pair overrides it
	// yet, but the lookup validates the symbol.
	if req.PairSymbol != "" {
		if _, err := s.store.GetPairID(r.Context(), req.PairSymbol); err != nil {
			if errors.Is(err, storage.ErrPairNotFound) {
				s.writeError(w, http.StatusNotFound, err.Error())
				return
			}
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}

	position := s.calculator.CalculatePositionSize(req.EntryPrice, req.StopLossPrice, 0)
	canTrade, message := s.calculator.CanPlaceTrade()

	s.writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"position":  position,
		"can_trade": canTrade,
		"message":   message,
		"metrics":   s.calculator.GetRiskMetrics(),
	})
}

type updateDetectionStatusRequest struct {
	DetectionID int64  `json:"detection_id"`
	Status      string `json:"status"`
	Notes       string `json:"notes"`
}

// handleUpdateDetectionStatus moves a pattern detection through its
// lifecycle.
func (s *Server) handleUpdateDetectionStatus(w http.ResponseWriter, r *http.Request) {
	var req updateDetectionStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.DetectionID <= 0 {
		s.writeError(w, http.StatusBadRequest, "detection_id is required")
		return
	}

	switch req.Status {
	case models.StatusActive, models.StatusConfirmed, models.StatusInvalidated, models.StatusCompleted:
	default:
		s.writeError(w, http.StatusBadRequest, "invalid status")
		return
	}

	if err := s.signals.UpdateDetectionStatus(r.Context(), req.DetectionID, req.Status, req.Notes); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
