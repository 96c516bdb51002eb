// Package whatsapp is the outbound side of the messaging channel: a thin
// client for the Cloud API style "messages" endpoint.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"property_service_backend/platform/apperr"
	"property_service_backend/platform/config"
	"property_service_backend/platform/logger"
	"property_service_backend/platform/phone"
)

// ErrNotConfigured is returned by a nil client.
var ErrNotConfigured = errors.New("whatsapp gateway not configured")

type Client struct {
	baseURL       string
	phoneNumberID string
	accessToken   string
	region        string
	http          *http.Client
	log           *logger.Logger
}

// ClientConfig combines the settings the client needs.
type ClientConfig interface {
	config.WhatsAppConfig
	config.PhoneConfig
}

// NewClient returns nil when the gateway is not configured; a nil client
// fails every send with ErrNotConfigured.
func NewClient(cfg ClientConfig, log *logger.Logger) *Client {
	if cfg.GetWhatsAppURL() == "" || cfg.GetWhatsAppPhoneNumberID() == "" {
		return nil
	}

	timeout := cfg.GetWhatsAppTimeout()
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		baseURL:       strings.TrimRight(cfg.GetWhatsAppURL(), "/"),
		phoneNumberID: cfg.GetWhatsAppPhoneNumberID(),
		accessToken:   cfg.GetWhatsAppAccessToken(),
		region:        cfg.GetPhoneDefaultRegion(),
		http:          &http.Client{Timeout: timeout},
		log:           log,
	}
}

// SendText sends a plain text message and returns the provider message ID.
func (c *Client) SendText(ctx context.Context, to string, body string) (string, error) {
	if c == nil {
		return "", ErrNotConfigured
	}

	return c.send(ctx, sendRequest{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               c.recipient(to),
		Type:             "text",
		Text:             &textPayload{Body: body},
	})
}

// SendInteractive sends a button or list menu and returns the provider message ID.
func (c *Client) SendInteractive(ctx context.Context, to string, msg Interactive) (string, error) {
	if c == nil {
		return "", ErrNotConfigured
	}

	payload, err := buildInteractive(msg)
	if err != nil {
		return "", apperr.Validation(err.Error()).WithOp("whatsapp.SendInteractive")
	}

	return c.send(ctx, sendRequest{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               c.recipient(to),
		Type:             "interactive",
		Interactive:      payload,
	})
}

func (c *Client) send(ctx context.Context, payload sendRequest) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal whatsapp payload: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", c.baseURL, c.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}

	req.Header.Set("Content-Type", "application/json")
	if c.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", apperr.Unavailable("whatsapp request failed", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode >= http.StatusBadRequest {
		return "", apperr.Unavailable(
			fmt.Sprintf("whatsapp gateway returned %d", resp.StatusCode),
			errors.New(strings.TrimSpace(string(data))),
		)
	}

	var parsed sendResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", apperr.Unavailable("whatsapp gateway returned unreadable body", err)
	}
	if len(parsed.Messages) == 0 || parsed.Messages[0].ID == "" {
		return "", apperr.Unavailable("whatsapp gateway returned no message id", nil)
	}

	c.log.Debug("whatsapp message sent", "to", payload.To, "type", payload.Type, "providerMessageId", parsed.Messages[0].ID)
	return parsed.Messages[0].ID, nil
}

func (c *Client) recipient(to string) string {
	return strings.TrimPrefix(phone.NormalizeE164(to, c.region), "+")
}
