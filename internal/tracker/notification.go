package tracker

import "context"

// Severity selects the visual style of a notification. It maps onto the
// embed colors the bot historically used: blue status, green success,
// gold reminder, red error.
type Severity int

const (
	SeverityInfo Severity = iota
	SeveritySuccess
	SeverityWarning
	SeverityError
)

// Field is a named section inside a notification.
type Field struct {
	Name  string
	Value string
}

// Notification is a platform-neutral structured message. The Notifier
// implementation decides how to render it for its chat platform.
type Notification struct {
	Title    string
	Body     string
	Severity Severity
	Fields   []Field
	// Mentions are platform mention tokens prepended to the message so the
	// named users get pinged.
	Mentions []string
}

// MessageRef identifies a platform message for best-effort deletion.
type MessageRef struct {
	ChatID    int64
	MessageID int
}

// Notifier delivers notifications to a chat. Delivery is best-effort: errors
// are logged by the caller and never roll back state.
type Notifier interface {
	Send(ctx context.Context, chatID int64, n Notification) error
}

// Channel exposes the platform capabilities the rules engine needs beyond
// plain sending: deleting the originating message and resolving a tracked
// user name to a mention token.
type Channel interface {
	DeleteMessage(ctx context.Context, ref MessageRef) error
	ResolveMention(ctx context.Context, trackedUser string) string
}
