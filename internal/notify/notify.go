// Package notify alerts operators about High urgency predictions.
package notify

import (
	"context"
	"fmt"
	"sort"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Alert describes one High urgency prediction.
type Alert struct {
	Urgency    string
	Model      string
	Confidence float64
	RunID      string
	Record     map[string]any
}

type Notifier interface {
	Notify(ctx context.Context, alert Alert) error
}

// Nop discards every alert.
type Nop struct{}

func (Nop) Notify(context.Context, Alert) error { return nil }

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram posts alerts to a single chat.
type Telegram struct {
	api    sender
	chatID int64
	logger *zap.Logger
}

// NewTelegram authorizes the bot token against the Telegram API.
func NewTelegram(token string, chatID int64, logger *zap.Logger) (*Telegram, error) {
	botAPI, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot API: %w", err)
	}
	logger.Info("Telegram bot authorized", zap.String("username", botAPI.Self.UserName))
	return newTelegram(botAPI, chatID, logger), nil
}

func newTelegram(api sender, chatID int64, logger *zap.Logger) *Telegram {
	return &Telegram{api: api, chatID: chatID, logger: logger}
}

func (t *Telegram) Notify(_ context.Context, alert Alert) error {
	msg := tgbotapi.NewMessage(t.chatID, Format(alert))
	if _, err := t.api.Send(msg); err != nil {
		t.logger.Error("Failed to send urgency alert", zap.Int64("chat_id", t.chatID), zap.Error(err))
		return fmt.Errorf("failed to send notification: %w", err)
	}
	t.logger.Info("Urgency alert sent", zap.Int64("chat_id", t.chatID), zap.String("run_id", alert.RunID))
	return nil
}

// Format renders the alert text. Record fields are listed in name order.
func Format(alert Alert) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🚨 %s urgency request\n\n", alert.Urgency)
	fmt.Fprintf(&b, "Model: %s\nConfidence: %.2f\n", alert.Model, alert.Confidence)

	keys := make([]string, 0, len(alert.Record))
	for k := range alert.Record {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) > 0 {
		b.WriteString("\n")
	}
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %v\n", k, alert.Record[k])
	}
	return b.String()
}
