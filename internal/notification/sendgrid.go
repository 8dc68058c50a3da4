package notification

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/vasiliy-maslov/educore/internal/config"
)

type SendGridSender struct {
	client   *sendgrid.Client
	from     string
	fromName string
}

func NewSendGridSender(cfg config.MailConfig) *SendGridSender {
	return &SendGridSender{
		client:   sendgrid.NewSendClient(cfg.SendGridAPIKey),
		from:     cfg.FromAddress,
		fromName: cfg.FromName,
	}
}

func (s *SendGridSender) SendPurchaseConfirmation(ctx context.Context, toEmail, firstName string, courseTitles []string) error {
	body, err := renderPurchase(firstName, courseTitles)
	if err != nil {
		return err
	}

	message := mail.NewSingleEmail(
		mail.NewEmail(s.fromName, s.from),
		purchaseSubject,
		mail.NewEmail(firstName, toEmail),
		"Thank you for your purchase.",
		body,
	)
	resp, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid: failed to send to %s: %w", toEmail, err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid: unexpected status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}
