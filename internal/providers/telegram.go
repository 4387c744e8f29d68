package providers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"golang.org/x/time/rate"

	"alert-registry/internal/logging"
	"alert-registry/internal/models"
	"alert-registry/internal/utils"
)

const (
	sendAttempts = 3
	retryDelay   = time.Second
)

type messageSender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*tgmodels.Message, error)
}

// TelegramNotifier posts newly created alerts to a Telegram chat.
type TelegramNotifier struct {
	sender  messageSender
	chatID  int64
	limiter *rate.Limiter
	delay   time.Duration
	logger  *logging.Logger
}

// NewTelegramNotifier builds a notifier sending at most ratePerSecond messages
// per second.
func NewTelegramNotifier(token string, chatID int64, ratePerSecond int, logger *logging.Logger) (*TelegramNotifier, error) {
	b, err := bot.New(token, bot.WithSkipGetMe())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Telegram bot: %w", err)
	}
	return newTelegramNotifier(b, chatID, ratePerSecond, logger), nil
}

func newTelegramNotifier(sender messageSender, chatID int64, ratePerSecond int, logger *logging.Logger) *TelegramNotifier {
	if ratePerSecond < 1 {
		ratePerSecond = 1
	}
	return &TelegramNotifier{
		sender:  sender,
		chatID:  chatID,
		limiter: rate.NewLimiter(rate.Limit(float64(ratePerSecond)), ratePerSecond),
		delay:   retryDelay,
		logger:  logger,
	}
}

func (n *TelegramNotifier) Name() string { return "telegram" }

// Publish sends alert.created events. Other event types are ignored.
func (n *TelegramNotifier) Publish(ctx context.Context, ev models.AlertEvent) error {
	if ev.Type != models.AlertCreated {
		return nil
	}

	// Check rate limit
	if err := n.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("telegram rate limit exceeded: %w", err)
	}

	params := &bot.SendMessageParams{
		ChatID: n.chatID,
		Text:   FormatAlertMessage(ev.Alert),
	}
	return utils.Retry(ctx, n.logger, sendAttempts, n.delay, func() error {
		if _, err := n.sender.SendMessage(ctx, params); err != nil {
			return fmt.Errorf("failed to send Telegram message to chat_id %d: %w", n.chatID, err)
		}
		return nil
	})
}

// FormatAlertMessage renders an alert as plain text. Empty optional fields
// are left out.
func FormatAlertMessage(a models.Alert) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "New alert #%d: %s\n", a.ID, a.Title)
	if a.Category != "" {
		fmt.Fprintf(&sb, "Category: %s\n", a.Category)
	}
	if a.Neighborhood != "" {
		fmt.Fprintf(&sb, "Bairro: %s\n", a.Neighborhood)
	}
	fmt.Fprintf(&sb, "Location: %.5f, %.5f\n", a.Latitude, a.Longitude)
	if a.Description != "" {
		sb.WriteString(a.Description + "\n")
	}
	sb.WriteString("At: " + a.Timestamp.UTC().Format(time.RFC3339))
	return sb.String()
}
