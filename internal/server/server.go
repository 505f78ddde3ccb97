package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"forex-breakout-bot/internal/breakout"
	"forex-breakout-bot/internal/config"
	"forex-breakout-bot/internal/rates"
	"forex-breakout-bot/internal/risk"
	"forex-breakout-bot/internal/signal"
	"forex-breakout-bot/models"
)

// Notifier pushes alerts about confirmed breakouts and signals.
type Notifier interface {
	NotifyBreakout(b models.Breakout, pairSymbol string) error
	NotifySignal(s models.ConfirmedSignal) error
}

// Store is the persistence surface the API reads from and refreshes.
// *storage.DB satisfies it.
type Store interface {
	GetPairID(ctx context.Context, pairSymbol string) (int64, error)
	ListPairs(ctx context.Context) ([]models.CurrencyPair, error)
	ListChartPatterns(ctx context.Context) ([]models.ChartPattern, error)
	ListPatternDetections(ctx context.Context, limit int) ([]models.PatternDetection, error)
	GetAccount(ctx context.Context) (*models.Account, error)
	InsertCandle(ctx context.Context, pairSymbol, timeframe string, c models.Candle) error
}

// Server exposes the analysis engine over a JSON HTTP API.
type Server struct {
	cfg        *config.Config
	store      Store
	detector   *breakout.Detector
	signals    *signal.Engine
	rates      *rates.Client
	calculator *risk.Calculator
	notifier   Notifier
	logger     zerolog.Logger
}

// New wires the API server. notifier may be nil when alerting is not
// configured.
func New(cfg *config.Config, store Store, detector *breakout.Detector, signals *signal.Engine, ratesClient *rates.Client, calculator *risk.Calculator, notifier Notifier) *Server {
	return &Server{
		cfg:        cfg,
		store:      store,
		detector:   detector,
		signals:    signals,
		rates:      ratesClient,
		calculator: calculator,
		notifier:   notifier,
		logger:     log.With().Str("component", "http_server").Logger(),
	}
}

// Routes builds the request multiplexer.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/detect-breakouts", s.handleDetectBreakouts)
	mux.HandleFunc("GET /api/filtered-signals", s.handleFilteredSignals)
	mux.HandleFunc("GET /api/multi-timeframe", s.handleMultiTimeframe)
	mux.HandleFunc("GET /api/currency-pairs", s.handleCurrencyPairs)
	mux.HandleFunc("GET /api/chart-patterns", s.handleChartPatterns)
	mux.HandleFunc("GET /api/pattern-detections", s.handlePatternDetections)
	mux.HandleFunc("GET /api/account", s.handleAccount)
	mux.HandleFunc("GET /api/update-forex-data", s.handleUpdateForexData)
	mux.HandleFunc("POST /api/calculate-risk", s.handleCalculateRisk)
	mux.HandleFunc("POST /api/update-detection-status", s.handleUpdateDetectionStatus)
	return mux
}

// ListenAndServe runs the server until ctx is cancelled, then shuts it
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.HTTPAddr,
		Handler:      s.Routes(),
		ReadTimeout:  time.Duration(s.cfg.RequestTimeout) * time.Second,
		WriteTimeout: time.Duration(s.cfg.RequestTimeout) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.cfg.HTTPAddr).Msg("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error().Err(err).Msg("failed to encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]any{
		"success": false,
		"error":   message,
	})
}
