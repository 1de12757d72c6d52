// Package notify delivers signal alerts over the Telegram Bot API.
package notify

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"tradercopilot/internal/models"
)

// Telegram sends signal alerts. Per-persona alerts go to the owner's chat;
// the Pusher side feeds every new signal to the shared default chat.
type Telegram struct {
	bot           *tgbotapi.BotAPI
	defaultChatID int64
	logger        *zap.Logger
}

func NewTelegram(botToken string, defaultChatID int64, logger *zap.Logger) (*Telegram, error) {
	if strings.TrimSpace(botToken) == "" {
		return nil, fmt.Errorf("telegram bot token is empty")
	}
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return &Telegram{bot: bot, defaultChatID: defaultChatID, logger: logger}, nil
}

// NotifySignal sends one alert to a persona owner's chat. Personas without a
// chat are skipped; the default-chat feed already carries every new signal.
func (t *Telegram) NotifySignal(ctx context.Context, sig *models.Signal, chatID *int64) error {
	if chatID == nil || *chatID == 0 {
		return nil
	}
	return t.send(ctx, sig, *chatID)
}

// Push feeds a new signal to the shared default chat. Implements the
// persistence gateway's push sink.
func (t *Telegram) Push(ctx context.Context, sig *models.Signal) error {
	if t == nil || t.defaultChatID == 0 {
		return nil
	}
	return t.send(ctx, sig, t.defaultChatID)
}

func (t *Telegram) send(ctx context.Context, sig *models.Signal, target int64) error {
	if t == nil || t.bot == nil || sig == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(target, FormatSignal(sig))
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	if t.logger != nil {
		t.logger.Debug("telegram alert sent",
			zap.Int64("chat_id", target),
			zap.String("token", sig.Token),
		)
	}
	return nil
}

// FormatSignal renders the plain-text alert body.
func FormatSignal(sig *models.Signal) string {
	var b strings.Builder

	arrow := "📈 LONG"
	if sig.Direction == "short" {
		arrow = "📉 SHORT"
	}
	fmt.Fprintf(&b, "%s %s (%s)\n", arrow, sig.Token, sig.Timeframe)
	fmt.Fprintf(&b, "Entry: %s\n", sig.Entry.String())
	fmt.Fprintf(&b, "Target: %s\n", sig.TakeProfit.String())
	fmt.Fprintf(&b, "Stop: %s\n", sig.StopLoss.String())
	fmt.Fprintf(&b, "Confidence: %.0f%%\n", sig.Confidence*100)
	if sig.Rationale != "" {
		fmt.Fprintf(&b, "Why: %s\n", sig.Rationale)
	}
	fmt.Fprintf(&b, "Source: %s", sig.Source)
	return b.String()
}
