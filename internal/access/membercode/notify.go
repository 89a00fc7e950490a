// Copyright (c) 2026 Velour Club. All rights reserved.
// Author: dev@velour.club

package membercode

import (
	"context"
	"log/slog"
)

// Notifier hands a rotated code to the out-of-band delivery channel.
//
// # Scope
//
// Message transport (email, SMS, a human with a phone) is an external
// collaborator — this subsystem only knows that dispatch was attempted so it
// can clear the pending-notify flag afterwards.
type Notifier interface {

	/*
		NotifyCode delivers the member's current code.

		Parameters:
		  - ctx: context.Context
		  - email: string (canonical recipient)
		  - code: string

		Returns:
		  - error: Delivery hand-off failures
	*/
	NotifyCode(ctx context.Context, email string, code string) error
}

// LogNotifier is the default [Notifier]: it records the dispatch without
// sending anything. Deployments without a mail relay use it so operators can
// read the code off the operator console instead.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a logging-only notifier.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// NotifyCode logs the dispatch. The code itself is never written to the log.
func (notifier *LogNotifier) NotifyCode(ctx context.Context, email string, _ string) error {
	notifier.logger.InfoContext(ctx, "member_code_dispatch_recorded",
		slog.String("email", email),
	)
	return nil
}
