// Package telegram delivers notifications through the Telegram Bot API.
package telegram

import (
	"context"
	"fmt"
	"html"
	"os"
	"time"

	"golang.org/x/time/rate"

	"github.com/darkkaiser/resale-watcher/internal/config"
	apperrors "github.com/darkkaiser/resale-watcher/internal/pkg/errors"
	"github.com/darkkaiser/resale-watcher/internal/service/contract"
	applog "github.com/darkkaiser/resale-watcher/pkg/log"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const component = "notification.notifier.telegram"

const (
	// messageMaxLength keeps a safety margin below the 4096 byte limit of
	// the Bot API so HTML tags never push a chunk over it.
	messageMaxLength = 3900

	// captionMaxLength is the Bot API limit for photo captions. Longer
	// texts are sent as a separate message after the photo.
	captionMaxLength = 1024

	// maxSendRetries bounds the per-chunk retry loop.
	maxSendRetries = 3

	// defaultRetryDelay is used between retries unless the API asks for a
	// specific Retry-After wait.
	defaultRetryDelay = 2 * time.Second
)

// client abstracts the Bot API for tests.
type client interface {
	GetSelf() tgbotapi.User
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// tgClient adapts tgbotapi.BotAPI to the client interface.
type tgClient struct {
	*tgbotapi.BotAPI
}

func (c *tgClient) GetSelf() tgbotapi.User {
	return c.Self
}

// Notifier sends one message to every configured chat. The Bot API allows
// roughly one message per second per chat, the rate limiter enforces that
// across the fan-out.
type Notifier struct {
	id      contract.NotifierID
	chatIDs []int64

	client      client
	retryDelay  time.Duration
	rateLimiter *rate.Limiter
}

// New connects to the Bot API with the configured token and builds a
// Notifier for the configured chats.
func New(cfg *config.TelegramConfig) (*Notifier, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.Unavailable, fmt.Sprintf("the telegram bot for notifier '%s' could not be initialized", cfg.ID))
	}

	n := newWithClient(cfg, &tgClient{bot})

	applog.WithComponentAndFields(component, applog.Fields{
		"notifier_id": n.id,
		"bot":         n.client.GetSelf().UserName,
		"bot_token":   applog.MaskSensitiveData(cfg.BotToken),
		"chats":       len(n.chatIDs),
	}).Info("the telegram notifier is connected")

	return n, nil
}

func newWithClient(cfg *config.TelegramConfig, c client) *Notifier {
	return &Notifier{
		id:      contract.NotifierID(cfg.ID),
		chatIDs: append([]int64(nil), cfg.ChatIDs...),

		client:      c,
		retryDelay:  defaultRetryDelay,
		rateLimiter: rate.NewLimiter(rate.Every(time.Second), 1),
	}
}

// ID returns the notifier identifier used in the configuration.
func (n *Notifier) ID() contract.NotifierID {
	return n.id
}

// Send delivers the message to every chat and reports one result per
// chat. A chat failure never blocks delivery to the remaining chats.
func (n *Notifier) Send(ctx context.Context, msg contract.Message) []contract.DeliveryResult {
	text := formatMessage(msg.Title, msg.Body)
	imagePath := n.usableImagePath(msg.ImagePath)

	results := make([]contract.DeliveryResult, 0, len(n.chatIDs))
	for _, chatID := range n.chatIDs {
		err := n.sendToChat(ctx, chatID, text, imagePath)
		results = append(results, contract.DeliveryResult{Recipient: chatID, Err: err})
	}

	return results
}

// usableImagePath verifies the attachment is a readable regular file.
// Anything else degrades the notification to text only.
func (n *Notifier) usableImagePath(path string) string {
	if path == "" {
		return ""
	}

	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		applog.WithComponentAndFields(component, applog.Fields{
			"notifier_id": n.id,
			"image":       path,
		}).Warn("the attachment is not readable, sending the notification as text only")

		return ""
	}

	return path
}

// formatMessage wraps the body with the bracketed title line. The body is
// trusted HTML, the title is escaped.
func formatMessage(title, body string) string {
	if title == "" {
		return body
	}
	return fmt.Sprintf("<b>【 %s 】</b>\n\n%s", html.EscapeString(title), body)
}
