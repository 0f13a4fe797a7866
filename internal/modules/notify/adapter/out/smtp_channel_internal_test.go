package out

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"

	apperrors "staywithme/internal/platform/errors"
)

func TestSMTPChannelAddressesGatewayAndUsesSecret(t *testing.T) {
	t.Parallel()
	var (
		dialer *gomail.Dialer
		msg    *gomail.Message
	)
	ch := NewSMTPChannel(SMTPSettings{
		Host:     "smtp.example.net",
		Port:     587,
		User:     "alerts@example.net",
		Domain:   "sms.example.net",
		Password: func() (string, error) { return "pw", nil },
	}).(*SMTPChannel)
	ch.send = func(d *gomail.Dialer, m ...*gomail.Message) error {
		dialer, msg = d, m[0]
		return nil
	}

	require.NoError(t, ch.SendText(context.Background(), "+1 555 010 0101", "help"))
	assert.Equal(t, "pw", dialer.Password)
	assert.Equal(t, "smtp.example.net", dialer.Host)
	assert.Equal(t, []string{"15550100101@sms.example.net"}, msg.GetHeader("To"))
	assert.Equal(t, []string{"alerts@example.net"}, msg.GetHeader("From"))
}

func TestSMTPChannelWrapsFailuresAndHonoursContext(t *testing.T) {
	t.Parallel()
	ch := NewSMTPChannel(SMTPSettings{Host: "smtp.example.net", Port: 587, Domain: "sms.example.net"}).(*SMTPChannel)
	ch.send = func(*gomail.Dialer, ...*gomail.Message) error { return errors.New("connection refused") }
	require.ErrorIs(t, ch.SendText(context.Background(), "+15550100", "x"), apperrors.ErrDeliveryFailure)

	block := make(chan struct{})
	defer close(block)
	ch.send = func(*gomail.Dialer, ...*gomail.Message) error {
		<-block
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, ch.SendText(ctx, "+15550100", "x"), apperrors.ErrDeliveryFailure)
}
