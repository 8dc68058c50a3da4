package notification

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strings"

	"github.com/vasiliy-maslov/educore/internal/config"
)

type SMTPSender struct {
	addr     string
	host     string
	user     string
	password string
	from     string
	fromName string
	send     func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPSender(cfg config.MailConfig) *SMTPSender {
	return &SMTPSender{
		addr:     net.JoinHostPort(cfg.SMTPHost, cfg.SMTPPort),
		host:     cfg.SMTPHost,
		user:     cfg.SMTPUser,
		password: cfg.SMTPPassword,
		from:     cfg.FromAddress,
		fromName: cfg.FromName,
		send:     smtp.SendMail,
	}
}

func (s *SMTPSender) SendPurchaseConfirmation(ctx context.Context, toEmail, firstName string, courseTitles []string) error {
	body, err := renderPurchase(firstName, courseTitles)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var msg strings.Builder
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	fmt.Fprintf(&msg, "From: %s <%s>\r\n", s.fromName, s.from)
	fmt.Fprintf(&msg, "To: %s\r\n", toEmail)
	fmt.Fprintf(&msg, "Subject: %s\r\n\r\n", purchaseSubject)
	msg.WriteString(body)

	var auth smtp.Auth
	if s.user != "" {
		auth = smtp.PlainAuth("", s.user, s.password, s.host)
	}
	if err := s.send(s.addr, auth, s.from, []string{toEmail}, []byte(msg.String())); err != nil {
		return fmt.Errorf("smtp: failed to send to %s: %w", toEmail, err)
	}
	return nil
}
