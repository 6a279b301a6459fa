// Package notify delivers SMS-method alert logs to the parent.
package notify

import (
	"context"
	"fmt"
	"strings"

	"safebrowse/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Notifier sends one alert to the parent.
type Notifier interface {
	Notify(ctx context.Context, log models.AlertLog) error
}

// Nop discards every alert. Used when no delivery channel is configured.
type Nop struct{}

func (Nop) Notify(context.Context, models.AlertLog) error { return nil }

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram relays alerts to a single chat through a bot.
type Telegram struct {
	api    sender
	bot    *tgbotapi.BotAPI
	chatID int64
	logger *zap.Logger
}

// NewTelegram authorizes the bot token and returns a notifier for chatID.
func NewTelegram(token string, chatID int64, logger *zap.Logger) (*Telegram, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram bot token is empty")
	}
	botAPI, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot API: %w", err)
	}

	logger.Info("Telegram bot authorized", zap.String("username", botAPI.Self.UserName))

	t := newTelegram(botAPI, chatID, logger)
	t.bot = botAPI
	return t, nil
}

func newTelegram(api sender, chatID int64, logger *zap.Logger) *Telegram {
	return &Telegram{api: api, chatID: chatID, logger: logger}
}

// Notify sends log as a Markdown message.
func (t *Telegram) Notify(ctx context.Context, log models.AlertLog) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(t.chatID, Format(log))
	msg.ParseMode = tgbotapi.ModeMarkdown

	if _, err := t.api.Send(msg); err != nil {
		t.logger.Error("Failed to send Telegram alert",
			zap.String("alert_id", log.ID),
			zap.Int64("chat_id", t.chatID),
			zap.Error(err))
		return fmt.Errorf("failed to send telegram alert: %w", err)
	}

	t.logger.Info("Telegram alert sent",
		zap.String("alert_id", log.ID),
		zap.String("risk_level", string(log.RiskLevel)))
	return nil
}

// Run answers /start and /chatid with the chat id so a parent can find the
// value to configure. It returns when ctx ends.
func (t *Telegram) Run(ctx context.Context) error {
	if t.bot == nil {
		return nil
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := t.bot.GetUpdatesChan(u)

	t.logger.Info("Telegram bot started, waiting for updates")

	for {
		select {
		case <-ctx.Done():
			t.logger.Info("Telegram bot shutting down")
			t.bot.StopReceivingUpdates()
			return nil
		case update := <-updates:
			if update.Message == nil || !update.Message.IsCommand() {
				continue
			}
			t.handleCommand(update.Message)
		}
	}
}

func (t *Telegram) handleCommand(m *tgbotapi.Message) {
	switch m.Command() {
	case "start", "chatid":
		reply := tgbotapi.NewMessage(m.Chat.ID, fmt.Sprintf("Safe browse alerts for this chat use chat_id %d.", m.Chat.ID))
		if _, err := t.api.Send(reply); err != nil {
			t.logger.Error("Failed to reply to command", zap.String("command", m.Command()), zap.Error(err))
		}
	}
}

// Format renders an alert log for chat delivery.
func Format(log models.AlertLog) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*%s risk alert*\n", escape(string(log.RiskLevel)))
	b.WriteString(escape(log.Message))
	if !log.Timestamp.IsZero() {
		fmt.Fprintf(&b, "\n_%s_", log.Timestamp.UTC().Format("2006-01-02 15:04:05 UTC"))
	}
	return b.String()
}

var markdownEscaper = strings.NewReplacer("_", `\_`, "*", `\*`, "`", "\\`", "[", `\[`)

func escape(s string) string {
	return markdownEscaper.Replace(s)
}
