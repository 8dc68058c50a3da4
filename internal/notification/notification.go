// Package notification sends transactional email to students.
package notification

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"github.com/rs/zerolog/log"

	"github.com/vasiliy-maslov/educore/internal/config"
)

type Sender interface {
	SendPurchaseConfirmation(ctx context.Context, toEmail, firstName string, courseTitles []string) error
}

const purchaseSubject = "Your EduCore purchase"

var purchaseTemplate = template.Must(template.New("purchase").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Helvetica, Arial, sans-serif; color: #1f2933;">
  <h2>Thank you for your purchase{{if .FirstName}}, {{.FirstName}}{{end}}!</h2>
  <p>You now have access to:</p>
  <ul>
  {{- range .Courses}}
    <li>{{.}}</li>
  {{- end}}
  </ul>
  <p>Happy learning,<br>The EduCore team</p>
</body>
</html>`))

func renderPurchase(firstName string, courseTitles []string) (string, error) {
	var buf bytes.Buffer
	err := purchaseTemplate.Execute(&buf, struct {
		FirstName string
		Courses   []string
	}{firstName, courseTitles})
	if err != nil {
		return "", fmt.Errorf("failed to render purchase email: %w", err)
	}
	return buf.String(), nil
}

// NewSender picks the provider named by cfg.Provider.
func NewSender(cfg config.MailConfig) (Sender, error) {
	switch cfg.Provider {
	case "", "log":
		return LogSender{}, nil
	case "smtp":
		return NewSMTPSender(cfg), nil
	case "sendgrid":
		return NewSendGridSender(cfg), nil
	default:
		return nil, fmt.Errorf("unknown mail provider %q", cfg.Provider)
	}
}

// LogSender only logs the message. It is the default outside production.
type LogSender struct{}

func (LogSender) SendPurchaseConfirmation(_ context.Context, toEmail, firstName string, courseTitles []string) error {
	log.Info().Str("to", toEmail).Str("first_name", firstName).Strs("courses", courseTitles).Msg("notification: purchase confirmation (log only)")
	return nil
}

// BestEffort wraps a Sender so delivery failures are logged and never returned.
type BestEffort struct {
	Sender Sender
}

func (b BestEffort) SendPurchaseConfirmation(ctx context.Context, toEmail, firstName string, courseTitles []string) error {
	if b.Sender == nil || toEmail == "" {
		return nil
	}
	defer func() {
		if p := recover(); p != nil {
			log.Error().Interface("panic_value", p).Str("to", toEmail).Msg("notification: panic while sending purchase confirmation")
		}
	}()
	if err := b.Sender.SendPurchaseConfirmation(ctx, toEmail, firstName, courseTitles); err != nil {
		log.Warn().Err(err).Str("to", toEmail).Msg("notification: failed to send purchase confirmation")
	}
	return nil
}
