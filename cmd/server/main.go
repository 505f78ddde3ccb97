package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"forex-breakout-bot/internal/breakout"
	"forex-breakout-bot/internal/config"
	"forex-breakout-bot/internal/notifier"
	"forex-breakout-bot/internal/rates"
	"forex-breakout-bot/internal/risk"
	"forex-breakout-bot/internal/server"
	sig "forex-breakout-bot/internal/signal"
	"forex-breakout-bot/internal/storage"
)

func main() {
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	account, err := store.GetAccount(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load account")
	}
	calculator := risk.NewCalculator(account.Balance, account.RiskPercentage, account.DrawdownPercentage)

	detector := breakout.New(store, store, cfg)
	signals := sig.New(store, store, cfg)
	ratesClient := rates.NewClient(cfg.RatesAPIKey, time.Duration(cfg.RequestTimeout)*time.Second)

	var alerter server.Notifier
	tg, err := notifier.NewTelegram(cfg.TelegramBotToken, cfg.TelegramChatID)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create telegram notifier")
	}
	if tg != nil {
		alerter = tg
	} else {
		log.Info().Msg("telegram alerting disabled")
	}

	srv := server.New(cfg, store, detector, signals, ratesClient, calculator, alerter)
	if err := srv.ListenAndServe(ctx); err != nil {
		log.Fatal().Err(err).Msg("http server failed")
	}

	log.Info().Msg("server stopped")
}
