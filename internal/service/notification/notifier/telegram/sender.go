package telegram

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	applog "github.com/darkkaiser/resale-watcher/pkg/log"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// sendToChat delivers one notification to a single chat. With a readable
// attachment the text rides along as the photo caption when it fits,
// otherwise the photo goes first and the text follows as its own message.
// A failing photo upload degrades to a plain text delivery.
func (n *Notifier) sendToChat(ctx context.Context, chatID int64, text, imagePath string) error {
	if imagePath == "" {
		return n.sendText(ctx, chatID, text)
	}

	withCaption := len(text) <= captionMaxLength

	if err := n.sendPhoto(ctx, chatID, imagePath, text, withCaption); err != nil {
		applog.WithComponentAndFields(component, applog.Fields{
			"notifier_id": n.id,
			"chat_id":     chatID,
			"image":       imagePath,
			"error":       err.Error(),
		}).Warn("the photo upload failed, falling back to a text-only delivery")

		return n.sendText(ctx, chatID, text)
	}

	if withCaption {
		return nil
	}

	return n.sendText(ctx, chatID, text)
}

func (n *Notifier) sendPhoto(ctx context.Context, chatID int64, imagePath, text string, withCaption bool) error {
	if err := n.waitRate(ctx); err != nil {
		return err
	}

	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FilePath(imagePath))
	if withCaption {
		photo.Caption = text
		photo.ParseMode = tgbotapi.ModeHTML
	}

	_, err := n.client.Send(photo)
	return err
}

// sendText splits the message into chunks the Bot API accepts and sends
// them in order. Splitting prefers line boundaries, a single oversized
// line is cut at an UTF-8 rune boundary. The first failing chunk aborts
// the remainder.
func (n *Notifier) sendText(ctx context.Context, chatID int64, message string) error {
	if len(message) <= messageMaxLength {
		return n.sendChunk(ctx, chatID, message, true)
	}

	var sb strings.Builder
	sb.Grow(messageMaxLength)

	for line := range strings.SplitSeq(message, "\n") {
		if err := ctx.Err(); err != nil {
			return err
		}

		neededSpace := len(line)
		if sb.Len() > 0 {
			neededSpace++
		}

		if sb.Len()+neededSpace > messageMaxLength {
			if sb.Len() > 0 {
				if err := n.sendChunk(ctx, chatID, sb.String(), true); err != nil {
					return err
				}
				sb.Reset()
			}

			if len(line) > messageMaxLength {
				currentLine := line
				for len(currentLine) > messageMaxLength {
					if err := ctx.Err(); err != nil {
						return err
					}

					chunk, remainder := safeSplit(currentLine, messageMaxLength)
					if err := n.sendChunk(ctx, chatID, chunk, true); err != nil {
						return err
					}
					currentLine = remainder
				}
				sb.WriteString(currentLine)
			} else {
				sb.WriteString(line)
			}
		} else {
			if sb.Len() > 0 {
				sb.WriteByte('\n')
			}
			sb.WriteString(line)
		}
	}

	if sb.Len() > 0 {
		return n.sendChunk(ctx, chatID, sb.String(), true)
	}

	return nil
}

// sendChunk sends one chunk with the retry and fallback policy applied.
//
// Policy: up to maxSendRetries attempts, a 429 waits for the Retry-After
// the API announced, other 4xx responses fail immediately, and a 400 in
// HTML mode retries once more in plain text because it almost always
// means the HTML did not parse.
func (n *Notifier) sendChunk(ctx context.Context, chatID int64, message string, useHTML bool) error {
	messageConfig := tgbotapi.NewMessage(chatID, message)
	if useHTML {
		messageConfig.ParseMode = tgbotapi.ModeHTML
	}

	if err := n.waitRate(ctx); err != nil {
		return err
	}

	var lastErr error

	for attempt := 1; attempt <= maxSendRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		_, err := n.client.Send(messageConfig)
		if err == nil {
			applog.WithComponentAndFields(component, applog.Fields{
				"notifier_id":    n.id,
				"chat_id":        chatID,
				"attempt":        attempt,
				"mode":           formatParseMode(messageConfig.ParseMode),
				"message_length": len(message),
			}).Debug("a message chunk was delivered")

			return nil
		}

		lastErr = err
		errCode, retryAfter := parseTelegramError(err)

		applog.WithComponentAndFields(component, applog.Fields{
			"notifier_id":    n.id,
			"chat_id":        chatID,
			"attempt":        attempt,
			"code":           errCode,
			"error":          err.Error(),
			"mode":           formatParseMode(messageConfig.ParseMode),
			"message_length": len(message),
		}).Warn("sending a message chunk failed")

		if useHTML && errCode == 400 {
			applog.WithComponentAndFields(component, applog.Fields{
				"notifier_id": n.id,
				"chat_id":     chatID,
			}).Warn("the message did not parse as HTML, retrying in plain text")

			return n.sendChunk(ctx, chatID, message, false)
		}

		if !shouldRetry(errCode) {
			return err
		}

		if attempt >= maxSendRetries {
			break
		}

		backoff := n.delayForRetry(retryAfter)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}

	applog.WithComponentAndFields(component, applog.Fields{
		"notifier_id": n.id,
		"chat_id":     chatID,
		"max_retries": maxSendRetries,
		"error":       lastErr.Error(),
	}).Error("a message chunk was dropped after exhausting all retries")

	return lastErr
}

func (n *Notifier) waitRate(ctx context.Context) error {
	if n.rateLimiter == nil {
		return nil
	}
	return n.rateLimiter.Wait(ctx)
}

// shouldRetry reports whether a send may be retried for the given Bot API
// status code. Client errors are final except for 429, everything else
// (server errors, network errors with code 0) is transient.
func shouldRetry(statusCode int) bool {
	if statusCode >= 400 && statusCode < 500 {
		return statusCode == 429
	}
	return true
}

// delayForRetry honors an explicit Retry-After, otherwise the default
// backoff applies.
func (n *Notifier) delayForRetry(retryAfter int) time.Duration {
	if retryAfter > 0 {
		return time.Duration(retryAfter) * time.Second
	}
	return n.retryDelay
}

func formatParseMode(mode string) string {
	if mode == tgbotapi.ModeHTML {
		return "HTML"
	}
	return "PlainText"
}

// parseTelegramError extracts the status code and the Retry-After seconds
// from a Bot API error. Non-API errors report code 0.
func parseTelegramError(err error) (code int, retryAfter int) {
	if apiErr, ok := err.(tgbotapi.Error); ok {
		return apiErr.Code, apiErr.ResponseParameters.RetryAfter
	}
	if apiErrPtr, ok := err.(*tgbotapi.Error); ok {
		return apiErrPtr.Code, apiErrPtr.ResponseParameters.RetryAfter
	}
	return 0, 0
}

// safeSplit cuts s after at most limit bytes without breaking a UTF-8
// rune. The cut point backs up to the nearest rune start.
func safeSplit(s string, limit int) (chunk, remainder string) {
	if len(s) <= limit {
		return s, ""
	}

	splitIndex := limit
	for splitIndex > 0 && !utf8.RuneStart(s[splitIndex]) {
		splitIndex--
	}

	if splitIndex == 0 {
		return s[:limit], s[limit:]
	}

	return s[:splitIndex], s[splitIndex:]
}
