package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Sender delivers outbound messages to a customer's WhatsApp number
type Sender interface {
	SendText(ctx context.Context, toPhone, text string) error
}

// Config holds the WhatsApp gateway connection settings
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// HTTPSender sends messages through a WhatsApp gateway HTTP API
type HTTPSender struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *zap.Logger
}

var _ Sender = (*HTTPSender)(nil)

// NewHTTPSender creates a sender for the given gateway
func NewHTTPSender(cfg Config, logger *zap.Logger) *HTTPSender {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPSender{
		baseURL:    cfg.BaseURL,
		token:      cfg.Token,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

type outboundMessage struct {
	To   string       `json:"to"`
	Type string       `json:"type"`
	Text outboundText `json:"text"`
}

type outboundText struct {
	Body string `json:"body"`
}

// SendText posts a text message to the gateway
func (s *HTTPSender) SendText(ctx context.Context, toPhone, text string) error {
	payload, err := json.Marshal(outboundMessage{
		To:   toPhone,
		Type: "text",
		Text: outboundText{Body: text},
	})
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	url := s.baseURL + "/messages"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach whatsapp gateway: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		s.logger.Warn("whatsapp gateway rejected message",
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body)))
		return fmt.Errorf("whatsapp gateway returned status %d", resp.StatusCode)
	}

	s.logger.Debug("whatsapp message sent", zap.String("to", toPhone))
	return nil
}

// NopSender discards messages. Used when no gateway is configured, typically
// in local development.
type NopSender struct{}

var _ Sender = (*NopSender)(nil)

// SendText does nothing
func (NopSender) SendText(context.Context, string, string) error {
	return nil
}
