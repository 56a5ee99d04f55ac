// Package mail delivers verification codes to account email addresses.
//
// Delivery is best-effort: Send reports success as a bool and never returns
// an error, because a down mail gateway must not fail registration or
// login. Callers log a fallback line with the code when Send reports
// failure, so operators can relay it from the server logs.
package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Mailer is the outbound-mail collaborator contract.
type Mailer interface {
	// Send attempts to deliver a message and reports whether the gateway
	// accepted it. It never panics and never returns an error.
	Send(ctx context.Context, to, subject, text string) bool
}

// resendEndpoint is the Resend REST API. Overridable for tests.
const resendEndpoint = "https://api.resend.com/emails"

// sendTimeout bounds a single delivery attempt. There is no retry queue;
// a timed-out send is simply reported as failed.
const sendTimeout = 5 * time.Second

// ResendClient sends mail through the Resend HTTP API.
type ResendClient struct {
	apiKey   string
	from     string
	endpoint string
	client   *http.Client
	logger   *slog.Logger
}

// NewResendClient creates a ResendClient. from is the sender identity,
// e.g. `Stepmates <noreply@stepmates.app>`.
func NewResendClient(apiKey, from string, logger *slog.Logger) *ResendClient {
	return &ResendClient{
		apiKey:   apiKey,
		from:     from,
		endpoint: resendEndpoint,
		client:   &http.Client{Timeout: sendTimeout},
		logger:   logger,
	}
}

// newResendClientForTest points the client at a test server.
func newResendClientForTest(apiKey, from, endpoint string, logger *slog.Logger) *ResendClient {
	c := NewResendClient(apiKey, from, logger)
	c.endpoint = endpoint
	return c
}

// resendRequest is the Resend /emails payload.
type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Text    string   `json:"text"`
	HTML    string   `json:"html"`
}

// Send posts the message to Resend. Any failure (missing API key, network
// error, non-2xx response) is logged and reported as false.
func (c *ResendClient) Send(ctx context.Context, to, subject, text string) bool {
	if c.apiKey == "" {
		c.logger.Warn("mail: no API key configured, skipping delivery", slog.String("to", to))
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	body, err := json.Marshal(resendRequest{
		From:    c.from,
		To:      []string{to},
		Subject: subject,
		Text:    text,
		HTML:    fmt.Sprintf("<b>%s</b>", text),
	})
	if err != nil {
		c.logger.Error("mail: encoding request", slog.String("error", err.Error()))
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		c.logger.Error("mail: building request", slog.String("error", err.Error()))
		return false
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Error("mail: delivery failed", slog.String("to", to), slog.String("error", err.Error()))
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error("mail: gateway rejected the request",
			slog.String("to", to),
			slog.Int("status", resp.StatusCode),
		)
		return false
	}

	c.logger.Info("mail: delivered", slog.String("to", to))
	return true
}

// NopMailer reports every delivery as failed. Used when no mail gateway is
// configured, so the code always falls through to the server-log path.
type NopMailer struct{}

func (NopMailer) Send(ctx context.Context, to, subject, text string) bool {
	return false
}
