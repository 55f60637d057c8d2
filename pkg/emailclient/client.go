// Package emailclient sends transactional email through a Postmark-style
// JSON API.
package emailclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/marmos91/newsletter/internal/logger"
	"github.com/marmos91/newsletter/pkg/config"
	"github.com/marmos91/newsletter/pkg/domain"
)

// TokenHeader carries the server token on every request.
const TokenHeader = "X-Postmark-Server-Token"

// Client is the outbound email API client.
type Client struct {
	baseURL    string
	sender     domain.SubscriberEmail
	token      config.Secret
	httpClient *http.Client
}

// New creates a client sending as sender. A zero timeout means 10s.
func New(baseURL string, sender domain.SubscriberEmail, token config.Secret, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		sender:     sender,
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// FromSettings validates the configured sender and builds a client.
func FromSettings(s config.EmailClientSettings) (*Client, error) {
	sender, err := s.Sender()
	if err != nil {
		return nil, err
	}
	return New(s.BaseURL, sender, s.AuthorizationToken, s.Timeout), nil
}

// Sender returns the From address.
func (c *Client) Sender() domain.SubscriberEmail { return c.sender }

// BaseURL returns the API base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// SendEmailRequest is the JSON body of POST /email.
type SendEmailRequest struct {
	From     string `json:"From"`
	To       string `json:"To"`
	Subject  string `json:"Subject"`
	HtmlBody string `json:"HtmlBody"`
	TextBody string `json:"TextBody"`
}

// SendEmail delivers one message to recipient.
func (c *Client) SendEmail(ctx context.Context, recipient domain.SubscriberEmail, subject, htmlBody, textBody string) error {
	body := SendEmailRequest{
		From:     c.sender.String(),
		To:       recipient.String(),
		Subject:  subject,
		HtmlBody: htmlBody,
		TextBody: textBody,
	}
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/email", bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(TokenHeader, c.token.Expose())

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	logger.DebugCtx(ctx, "Email sent",
		logger.KeyRecipient, recipient.String(),
		logger.KeyDurationMs, logger.Duration(start))
	return nil
}
