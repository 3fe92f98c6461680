package integrations

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"frutico/backend/internal/config"

	"golang.org/x/time/rate"
	mail "gopkg.in/mail.v2"
)

var ErrNoRecipient = errors.New("email recipient is required")

// InlineAttachment is a file shown inside the HTML body via cid:<ContentID>.
type InlineAttachment struct {
	Filename  string
	Content   []byte
	ContentID string
}

// Email is one outbound HTML message.
type Email struct {
	To      string
	Subject string
	HTML    string
	Inline  []InlineAttachment
}

// SMTPMailer sends email through an SMTP relay, throttled to the relay's send rate.
type SMTPMailer struct {
	dialer  *mail.Dialer
	from    string
	limiter *rate.Limiter
}

// NewSMTPMailer creates an SMTP mailer.
func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	dialer := mail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	dialer.Timeout = 15 * time.Second
	dialer.StartTLSPolicy = mail.OpportunisticStartTLS

	perSec := cfg.RatePerSec
	if perSec <= 0 {
		perSec = 5
	}
	burst := int(perSec)
	if burst < 1 {
		burst = 1
	}
	return &SMTPMailer{
		dialer:  dialer,
		from:    cfg.From,
		limiter: rate.NewLimiter(rate.Limit(perSec), burst),
	}
}

// Send delivers email, waiting for a send slot first.
func (m *SMTPMailer) Send(ctx context.Context, email Email) error {
	msg, err := m.buildMessage(email)
	if err != nil {
		return err
	}
	if err := m.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("mail rate limit: %w", err)
	}
	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func (m *SMTPMailer) buildMessage(email Email) (*mail.Message, error) {
	to := strings.TrimSpace(email.To)
	if to == "" {
		return nil, ErrNoRecipient
	}
	msg := mail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", email.Subject)
	msg.SetBody("text/html", email.HTML)
	for _, att := range email.Inline {
		content := att.Content
		msg.Embed(att.Filename,
			mail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(content)
				return err
			}),
			mail.SetHeader(map[string][]string{
				"Content-ID": {"<" + att.ContentID + ">"},
			}),
		)
	}
	return msg, nil
}
