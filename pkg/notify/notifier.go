package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Notification is a best-effort message addressed to a user or to an
// entity thread (a purchase or product conversation).
type Notification struct {
	Target    string    `json:"target"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}

// Notifier delivers notifications best-effort. Callers must treat
// failures as non-fatal; delivery never participates in the caller's
// transaction.
type Notifier interface {
	Notify(ctx context.Context, target, subject, body string) error
}

// MemoryNotifier records notifications for tests.
type MemoryNotifier struct {
	mu   sync.Mutex
	sent []Notification
}

// NewMemoryNotifier builds an in-memory recorder.
func NewMemoryNotifier() *MemoryNotifier {
	return &MemoryNotifier{}
}

// Notify records the notification.
func (n *MemoryNotifier) Notify(_ context.Context, target, subject, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, Notification{
		Target:    target,
		Subject:   subject,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	})
	return nil
}

// Sent returns a copy of the recorded notifications.
func (n *MemoryNotifier) Sent() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Notification(nil), n.sent...)
}

// NopNotifier drops all notifications.
type NopNotifier struct{}

// Notify discards the notification.
func (NopNotifier) Notify(context.Context, string, string, string) error { return nil }

// LogNotifier writes notifications to the process log. Used when no
// delivery backend is configured.
type LogNotifier struct{}

// NewLogNotifier builds a log-only notifier.
func NewLogNotifier() LogNotifier { return LogNotifier{} }

// Notify logs the notification.
func (LogNotifier) Notify(_ context.Context, target, subject, body string) error {
	slog.Info("notification", "target", target, "subject", subject, "body", body)
	return nil
}
