package out

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/gomail.v2"

	notifyout "staywithme/internal/modules/notify/port/out"
	apperrors "staywithme/internal/platform/errors"
)

const smtpSubject = "Emergency alert"

// SMTPSettings describes an email-to-SMS bridge.
type SMTPSettings struct {
	Host     string
	Port     int
	User     string
	From     string
	Domain   string
	Password TokenSource
}

// SMTPChannel mails the message to <digits>@Domain.
type SMTPChannel struct {
	settings SMTPSettings
	send     func(d *gomail.Dialer, m ...*gomail.Message) error
}

func NewSMTPChannel(settings SMTPSettings) notifyout.MessageChannel {
	return &SMTPChannel{
		settings: settings,
		send: func(d *gomail.Dialer, m ...*gomail.Message) error {
			return d.DialAndSend(m...)
		},
	}
}

func (c *SMTPChannel) Name() string { return "smtp" }

func (c *SMTPChannel) SendText(ctx context.Context, phone, body string) error {
	address, err := SMSAddress(phone, c.settings.Domain)
	if err != nil {
		return err
	}
	password := ""
	if c.settings.Password != nil {
		password, err = c.settings.Password()
		if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			return fmt.Errorf("%w: smtp password: %v", apperrors.ErrPermissionDenied, err)
		}
	}
	from := c.settings.From
	if from == "" {
		from = c.settings.User
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", from)
	msg.SetHeader("To", address)
	msg.SetHeader("Subject", smtpSubject)
	msg.SetBody("text/plain", body)
	dialer := gomail.NewDialer(c.settings.Host, c.settings.Port, c.settings.User, password)

	done := make(chan error, 1)
	go func() { done <- c.send(dialer, msg) }()
	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: smtp send: %v", apperrors.ErrDeliveryFailure, ctx.Err())
	case err := <-done:
		if err != nil {
			return fmt.Errorf("%w: smtp send: %v", apperrors.ErrDeliveryFailure, err)
		}
		return nil
	}
}

// SMSAddress keeps only the digits of phone and appends the gateway domain.
func SMSAddress(phone, domain string) (string, error) {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 || strings.TrimSpace(domain) == "" {
		return "", fmt.Errorf("%w: cannot address %q via %q", apperrors.ErrDeliveryFailure, phone, domain)
	}
	return b.String() + "@" + strings.TrimPrefix(strings.TrimSpace(domain), "@"), nil
}
