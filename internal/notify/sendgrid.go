package notify

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"account-service/internal/user"
)

// SendgridSender delivers password-reset email through SendGrid.
type SendgridSender struct {
	apiKey     string
	senderName string
	senderMail string
}

func NewSendgridSender(apiKey, senderName, senderMail string) *SendgridSender {
	return &SendgridSender{
		apiKey:     apiKey,
		senderName: senderName,
		senderMail: senderMail,
	}
}

func (s *SendgridSender) SendPasswordReset(ctx context.Context, u user.User, resetURL string) error {
	from := mail.NewEmail(s.senderName, s.senderMail)
	to := mail.NewEmail(displayName(u), u.Email)
	subject := "Password reset"

	plain := fmt.Sprintf("Follow this link to choose a new password: %s\n\nIf you did not request a reset, you can ignore this message.", resetURL)
	html := fmt.Sprintf(`<p>Follow this link to choose a new password:</p><p><a href="%s">%s</a></p><p>If you did not request a reset, you can ignore this message.</p>`, resetURL, resetURL)

	message := mail.NewSingleEmail(from, subject, to, plain, html)
	response, err := sendgrid.NewSendClient(s.apiKey).Send(message)
	if err != nil {
		return fmt.Errorf("send reset email: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("send reset email: status %d", response.StatusCode)
	}

	return nil
}

func displayName(u user.User) string {
	if u.FirstName == "" && u.LastName == "" {
		return u.Username
	}
	if u.FirstName == "" {
		return u.LastName
	}
	if u.LastName == "" {
		return u.FirstName
	}

	return u.FirstName + " " + u.LastName
}
