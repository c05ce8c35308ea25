// Package notify sends lifecycle emails through a Resend-compatible HTTP
// API. Delivery is best-effort: the workflow logs failures and moves on.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

type Client struct {
	BaseURL string
	APIKey  string
	From    string
	HTTP    *http.Client
}

func New(baseURL, apiKey, from string) *Client {
	return &Client{BaseURL: baseURL, APIKey: apiKey, From: from, HTTP: &http.Client{}}
}

func (c *Client) Send(ctx context.Context, to, subject, htmlBody string) error {
	payload, err := json.Marshal(map[string]any{
		"from":    c.From,
		"to":      []string{to},
		"subject": subject,
		"html":    htmlBody,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/emails", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("content-type", "application/json")
	req.Header.Set("authorization", "Bearer "+c.APIKey)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("mail provider returned %d", resp.StatusCode)
	}
	return nil
}

// Noop drops every message; used in dev and tests.
type Noop struct{}

func (Noop) Send(ctx context.Context, to, subject, htmlBody string) error { return nil }

// Async fires m.Send on a goroutine and logs the outcome. Notification
// failures never block or fail the calling workflow.
func Async(logger *zap.Logger, m Mailer, to, subject, htmlBody string) {
	go func() {
		if err := m.Send(context.Background(), to, subject, htmlBody); err != nil {
			logger.Warn("email delivery failed",
				zap.String("to", to), zap.String("subject", subject), zap.Error(err))
			return
		}
		logger.Debug("email sent", zap.String("to", to), zap.String("subject", subject))
	}()
}
