package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds all application configuration
type Config struct {
	// Breakout analysis
	SwingWindow         int
	TrendMinPoints      int
	TrendMaxDistance    float64
	LevelWindow         int
	LevelThreshold      float64
	BreakoutLookback    int
	ConfirmationCandles int
	MinBreakoutPct      float64
	HistoryLimit        int

	// Indicators
	SMAFastPeriod    int
	SMASlowPeriod    int
	SMALongPeriod    int
	RSIPeriod        int
	MACDFastPeriod   int
	MACDSlowPeriod   int
	MACDSignalPeriod int
	BBPeriod         int
	BBStdDev         float64
	ATRPeriod        int

	// Signal confirmation
	ConfidenceThreshold float64
	MinSignalConfidence float64
	ConfirmHistoryLimit int

	// Collaborators
	DBHost           string
	DBPort           string
	DBUser           string
	DBPassword       string
	DBName           string
	DBSSLMode        string
	RatesAPIKey      string
	TelegramBotToken string
	TelegramChatID   int64
	HTTPAddr         string
	RequestTimeout   int // seconds
	LogLevel         string
}

// Load initializes configuration from environment variables
func Load() (*Config, error) {
	// Load environment variables from .env file if present
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, relying on actual environment variables")
	}

	var cfg Config

	cfg.SwingWindow = getEnvIntWithDefault("SWING_WINDOW", 5)
	cfg.TrendMinPoints = getEnvIntWithDefault("TREND_MIN_POINTS", 3)
	cfg.TrendMaxDistance = getEnvFloatWithDefault("TREND_MAX_DISTANCE", 0.0015)
	cfg.LevelWindow = getEnvIntWithDefault("LEVEL_WINDOW", 20)
	cfg.LevelThreshold = getEnvFloatWithDefault("LEVEL_THRESHOLD", 0.0005)
	cfg.BreakoutLookback = getEnvIntWithDefault("BREAKOUT_LOOKBACK", 5)
	cfg.ConfirmationCandles = getEnvIntWithDefault("CONFIRMATION_CANDLES", 2)
	cfg.MinBreakoutPct = getEnvFloatWithDefault("MIN_BREAKOUT_PCT", 0.001)
	cfg.HistoryLimit = getEnvIntWithDefault("HISTORY_LIMIT", 200)

	cfg.SMAFastPeriod = getEnvIntWithDefault("SMA_FAST_PERIOD", 20)
	cfg.SMASlowPeriod = getEnvIntWithDefault("SMA_SLOW_PERIOD", 50)
	cfg.SMALongPeriod = getEnvIntWithDefault("SMA_LONG_PERIOD", 200)
	cfg.RSIPeriod = getEnvIntWithDefault("RSI_PERIOD", 14)
	cfg.MACDFastPeriod = getEnvIntWithDefault("MACD_FAST_PERIOD", 12)
	cfg.MACDSlowPeriod = getEnvIntWithDefault("MACD_SLOW_PERIOD", 26)
	cfg.MACDSignalPeriod = getEnvIntWithDefault("MACD_SIGNAL_PERIOD", 9)
	cfg.BBPeriod = getEnvIntWithDefault("BB_PERIOD", 20)
	cfg.BBStdDev = getEnvFloatWithDefault("BB_STD_DEV", 2.0)
	cfg.ATRPeriod = getEnvIntWithDefault("ATR_PERIOD", 14)

	cfg.ConfidenceThreshold = getEnvFloatWithDefault("CONFIDENCE_THRESHOLD", 70)
	cfg.MinSignalConfidence = getEnvFloatWithDefault("MIN_SIGNAL_CONFIDENCE", 75)
	cfg.ConfirmHistoryLimit = getEnvIntWithDefault("CONFIRM_HISTORY_LIMIT", 100)

	cfg.DBHost = getEnvWithDefault("DB_HOST", "localhost")
	cfg.DBPort = getEnvWithDefault("DB_PORT", "5432")
	cfg.DBUser = getEnvWithDefault("DB_USER", "postgres")
	cfg.DBPassword = os.Getenv("DB_PASSWORD")
	cfg.DBName = getEnvWithDefault("DB_NAME", "forex_bot")
	cfg.DBSSLMode = getEnvWithDefault("DB_SSLMODE", "disable")
	cfg.RatesAPIKey = os.Getenv("RATES_API_KEY")
	cfg.TelegramBotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	cfg.TelegramChatID = getEnvInt64WithDefault("TELEGRAM_CHAT_ID", 0)
	cfg.HTTPAddr = getEnvWithDefault("HTTP_ADDR", ":5000")
	cfg.RequestTimeout = getEnvIntWithDefault("REQUEST_TIMEOUT", 30)
	cfg.LogLevel = getEnvWithDefault("LOG_LEVEL", "info")

	return &cfg, nil
}

// Helper functions for environment variable handling
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64WithDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatWithDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
