// Package notification is the boundary to the email/SMS sender. The core
// only depends on the Dispatcher contract; delivery is best-effort with no
// exactly-once guarantee.
package notification

import (
	"context"

	"go.uber.org/zap"
)

type Dispatcher interface {
	SendEmail(ctx context.Context, to, subject, body string) error
	SendSMS(ctx context.Context, to, body string) error
}

// LogDispatcher writes outbound messages to the log instead of delivering
// them. Used in development and wherever no broker is configured.
type LogDispatcher struct {
	logger *zap.Logger
}

func NewLogDispatcher(logger *zap.Logger) *LogDispatcher {
	return &LogDispatcher{logger: logger}
}

func (d *LogDispatcher) SendEmail(_ context.Context, to, subject, body string) error {
	d.logger.Info("email dispatch (log only)",
		zap.String("to", to), zap.String("subject", subject), zap.String("body", body))
	return nil
}

func (d *LogDispatcher) SendSMS(_ context.Context, to, body string) error {
	d.logger.Info("sms dispatch (log only)",
		zap.String("to", to), zap.String("body", body))
	return nil
}
