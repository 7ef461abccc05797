package telegram_bot

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/rizkywidodo/TugasAkhir/internal/config"
)

// Notifier pushes audit notifications (new registrations, model registry
// changes) to a configured admin Telegram chat. A nil Notifier is valid and
// silently drops everything, so callers never have to branch on whether
// notifications are enabled.
type Notifier struct {
	api    *tgbotapi.BotAPI
	chatID int64
	logger *zap.Logger
}

// NewNotifier creates the admin notifier. Returns (nil, nil) when
// notifications are disabled or no token is configured.
func NewNotifier(cfg *config.Config, logger *zap.Logger) (*Notifier, error) {
	if !cfg.Notifications.Enabled || cfg.Notifications.TelegramBotToken == "" {
		logger.Info("Telegram notifications are disabled (notifications.enabled=false or token is empty)")
		return nil, nil
	}

	botAPI, err := tgbotapi.NewBotAPI(cfg.Notifications.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot API: %w", err)
	}

	logger.Info("Telegram notifier authorized", zap.String("username", botAPI.Self.UserName))

	return &Notifier{
		api:    botAPI,
		chatID: cfg.Notifications.AdminChatID,
		logger: logger,
	}, nil
}

func (n *Notifier) NotifyUserRegistered(name, email string) {
	n.send(fmt.Sprintf("👤 New user registered: %s (%s)", name, email))
}

func (n *Notifier) NotifyModelAdded(modelName, by string) {
	n.send(fmt.Sprintf("🤖 Model registered: %s (by %s)", modelName, by))
}

func (n *Notifier) NotifyModelRemoved(modelName, by string) {
	n.send(fmt.Sprintf("🗑 Model removed: %s (by %s)", modelName, by))
}

func (n *Notifier) send(text string) {
	if n == nil {
		return // Notifier is disabled
	}

	msg := tgbotapi.NewMessage(n.chatID, text)
	if _, err := n.api.Send(msg); err != nil {
		n.logger.Error("Failed to send Telegram notification", zap.Error(err))
	}
}
