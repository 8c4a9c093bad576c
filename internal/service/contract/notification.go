package contract

import "context"

// Message is one notification to dispatch through a notifier channel.
type Message struct {
	// Title is prepended to the body, typically in bold.
	Title string

	// Body is the message content. Channels that support HTML receive it
	// as-is; others receive a plain-text rendition.
	Body string

	// ImagePath optionally names a local image to attach. An unreadable
	// path degrades the notification to text only, it never fails it.
	ImagePath string
}

// DeliveryResult reports the outcome of delivering one message to one
// recipient of a channel.
type DeliveryResult struct {
	// Recipient identifies the receiving chat or account within the channel.
	Recipient int64

	// Err is nil when the recipient accepted the message.
	Err error
}

// Delivered reports whether at least one recipient accepted the message.
func Delivered(results []DeliveryResult) bool {
	for _, r := range results {
		if r.Err == nil {
			return true
		}
	}
	return false
}

// NotificationSender dispatches messages to the configured notification
// channels. Delivery is synchronous: the call returns once every recipient
// of the channel has been attempted.
type NotificationSender interface {
	// Notify sends a message through the identified channel and returns
	// the per-recipient outcomes. The returned error is non-nil only when
	// the message could not be attempted at all (unknown notifier,
	// stopped service, empty message).
	Notify(ctx context.Context, notifierID NotifierID, msg Message) ([]DeliveryResult, error)

	// NotifyDefault sends a message through the default channel.
	NotifyDefault(ctx context.Context, msg Message) ([]DeliveryResult, error)

	// NotifyErrorToDefault reports an internal failure to the default
	// channel. It is best-effort: delivery failures are logged, not returned.
	NotifyErrorToDefault(ctx context.Context, message string)
}

// NotificationHealthChecker checks that the notification service is running.
type NotificationHealthChecker interface {
	// Health returns nil while the service is able to accept messages.
	Health() error
}
