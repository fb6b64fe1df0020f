package notify

import (
	"context"

	"account-service/internal/observability"
	"account-service/internal/user"
)

// Sender delivers account notifications. Delivery mechanics live
// behind this interface; callers only hand over the user and the link.
type Sender interface {
	SendPasswordReset(ctx context.Context, u user.User, resetURL string) error
}

// LogSender writes notifications to the log instead of delivering
// them. Used when no mail provider is configured.
type LogSender struct {
	logger *observability.Logger
}

func NewLogSender(logger *observability.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) SendPasswordReset(ctx context.Context, u user.User, resetURL string) error {
	s.logger.Info("password_reset_notification", map[string]any{
		"email":     u.Email,
		"reset_url": resetURL,
	})

	return nil
}
