package notifier

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"forex-breakout-bot/models"
)

// Telegram sends breakout and signal alerts to a configured chat.
type Telegram struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	logger zerolog.Logger
}

// NewTelegram creates the notifier. An empty token disables alerting
// and returns nil without error.
func NewTelegram(token string, chatID int64) (*Telegram, error) {
	if token == "" {
		return nil, nil
	}

	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("creating telegram bot: %w", err)
	}

	return &Telegram{
		bot:    bot,
		chatID: chatID,
		logger: log.With().Str("component", "telegram_notifier").Logger(),
	}, nil
}

// NotifyBreakout sends a formatted breakout alert.
func (t *Telegram) NotifyBreakout(b models.Breakout, pairSymbol string) error {
	arrow := "🔼"
	if b.Direction == models.Bearish {
		arrow = "🔽"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s *%s breakout* on %s\n", arrow, b.Direction, pairSymbol)
	fmt.Fprintf(&sb, "Broke %s %s at %.5f\n", b.ReferenceKind, sourceLabel(b.Source), b.ReferenceValue)
	fmt.Fprintf(&sb, "Price: %.5f (%.2f%%)\n", b.Price, b.Percentage*100)
	fmt.Fprintf(&sb, "Strength: %.1f", b.Strength)
	if b.Touches > 0 {
		fmt.Fprintf(&sb, ", touches: %d", b.Touches)
	}

	return t.send(sb.String())
}

// NotifySignal sends a formatted confirmed-signal alert.
func (t *Telegram) NotifySignal(s models.ConfirmedSignal) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "✅ *%s* confirmed on %s (%s)\n", s.Detection.PatternName, s.Detection.PairSymbol, s.Detection.Timeframe)
	fmt.Fprintf(&sb, "Confidence: %.0f\n", s.Confirmation.Confidence)
	for _, reason := range s.Confirmation.Reasons {
		fmt.Fprintf(&sb, "• %s\n", reason)
	}

	return t.send(sb.String())
}

func (t *Telegram) send(text string) error {
	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown

	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("sending telegram message: %w", err)
	}

	t.logger.Debug().Msg("alert sent")
	return nil
}

func sourceLabel(source string) string {
	if source == models.SourceTrendLine {
		return "trend line"
	}
	return "level"
}
