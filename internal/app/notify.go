package app

import (
	"context"

	"revendo/internal/util"
)

// notifyBestEffort delivers a notification without affecting the
// caller's outcome. Failures are logged and dropped.
func (a *App) notifyBestEffort(ctx context.Context, target, subject, body string) {
	if a.notifier == nil {
		return
	}
	if err := a.notifier.Notify(ctx, target, subject, body); err != nil {
		util.LoggerFromContext(ctx).Warn("notification delivery failed",
			"target", target, "subject", subject, "error", err)
	}
}
