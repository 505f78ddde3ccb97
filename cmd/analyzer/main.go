package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"forex-breakout-bot/internal/breakout"
	"forex-breakout-bot/internal/config"
	sig "forex-breakout-bot/internal/signal"
	"forex-breakout-bot/internal/storage"
)

// analyzer runs a one-shot breakout analysis for a single pair and
// prints the result as JSON, for cron jobs and manual inspection.
func main() {
	symbol := flag.String("symbol", "EUR/USD", "currency pair symbol")
	timeframe := flag.String("timeframe", "1h", "candle timeframe")
	multiTF := flag.Bool("multi", false, "also run multi-timeframe confirmation")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	lvl, _ := zerolog.ParseLevel(cfg.LogLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(lvl)

	store, err := storage.New(storage.ConnectionParams{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		DBName:   cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.RequestTimeout)*time.Second)
	defer cancel()

	detector := breakout.New(store, store, cfg)
	analysis, err := detector.AnalyzePair(ctx, *symbol, *timeframe)
	if err != nil {
		log.Fatal().Err(err).Str("pair", *symbol).Msg("analysis failed")
	}

	output := map[string]any{"analysis": analysis}

	if *multiTF {
		engine := sig.New(store, store, cfg)
		mtf, err := engine.MultiTimeframeConfirmation(ctx, *symbol)
		if err != nil {
			log.Fatal().Err(err).Str("pair", *symbol).Msg("multi-timeframe confirmation failed")
		}
		output["multi_timeframe"] = mtf
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(output); err != nil {
		log.Fatal().Err(err).Msg("failed to encode output")
	}
}
