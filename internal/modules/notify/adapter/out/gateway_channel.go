package out

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	notifyout "staywithme/internal/modules/notify/port/out"
	apperrors "staywithme/internal/platform/errors"
)

// TokenSource resolves the gateway bearer token at send time.
type TokenSource func() (string, error)

type gatewayRequest struct {
	To   string `json:"to"`
	From string `json:"from,omitempty"`
	Body string `json:"body"`
}

type gatewayError struct {
	Error string `json:"error"`
}

// GatewayChannel posts messages to an HTTP SMS gateway.
type GatewayChannel struct {
	client *resty.Client
	url    string
	from   string
	token  TokenSource
}

func NewGatewayChannel(url, from string, token TokenSource, timeout time.Duration) notifyout.MessageChannel {
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(200*time.Millisecond).
		SetHeader("Accept", "application/json")
	return &GatewayChannel{client: client, url: url, from: from, token: token}
}

func (c *GatewayChannel) Name() string { return "gateway" }

func (c *GatewayChannel) SendText(ctx context.Context, phone, body string) error {
	req := c.client.R().
		SetContext(ctx).
		SetBody(gatewayRequest{To: phone, From: c.from, Body: body}).
		SetError(&gatewayError{})
	if c.token != nil {
		token, err := c.token()
		if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			return fmt.Errorf("%w: gateway token: %v", apperrors.ErrPermissionDenied, err)
		}
		if token != "" {
			req.SetAuthToken(token)
		}
	}
	resp, err := req.Post(c.url)
	if err != nil {
		return fmt.Errorf("%w: gateway request: %v", apperrors.ErrDeliveryFailure, err)
	}
	switch code := resp.StatusCode(); {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return fmt.Errorf("%w: gateway rejected credentials (%d)", apperrors.ErrPermissionDenied, code)
	case resp.IsError():
		reason := resp.Status()
		if e, ok := resp.Error().(*gatewayError); ok && e.Error != "" {
			reason = e.Error
		}
		return fmt.Errorf("%w: gateway %d: %s", apperrors.ErrDeliveryFailure, code, reason)
	}
	return nil
}
