package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// GatewaySMSSender sends SMS through a JSON REST gateway using a bearer key.
type GatewaySMSSender struct {
	apiURL     string
	apiKey     string
	senderName string
	client     *http.Client
}

// GatewaySMSConfig holds the settings for a GatewaySMSSender.
type GatewaySMSConfig struct {
	APIURL     string
	APIKey     string
	SenderName string
}

// NewGatewaySMSSender creates a sender for the given gateway.
func NewGatewaySMSSender(cfg GatewaySMSConfig) (*GatewaySMSSender, error) {
	if cfg.APIURL == "" {
		return nil, fmt.Errorf("sms gateway url not configured")
	}
	return &GatewaySMSSender{
		apiURL:     cfg.APIURL,
		apiKey:     cfg.APIKey,
		senderName: cfg.SenderName,
		client:     &http.Client{Timeout: 10 * time.Second},
	}, nil
}

type gatewaySMSRequest struct {
	Recipient  string `json:"recipient"`
	SenderName string `json:"sender_name"`
	Message    string `json:"message"`
}

type gatewaySMSResponse struct {
	Code   int    `json:"code"`
	Status string `json:"status"`
	Msg    string `json:"msg"`
}

// SendSMS implements SMSSender.
func (s *GatewaySMSSender) SendSMS(ctx context.Context, to, body string) error {
	payload, err := json.Marshal(gatewaySMSRequest{
		Recipient:  to,
		SenderName: s.senderName,
		Message:    body,
	})
	if err != nil {
		return fmt.Errorf("marshal sms payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create sms request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send sms to %s: %w", to, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read sms response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("sms gateway returned %d: %s", resp.StatusCode, string(raw))
	}

	var gr gatewaySMSResponse
	if err := json.Unmarshal(raw, &gr); err == nil && gr.Status != "" && gr.Status != "success" {
		return fmt.Errorf("sms gateway rejected message: %s", gr.Msg)
	}
	return nil
}

// DisabledSMSSender is used when no SMS gateway is configured. Every send
// fails with a configuration error, which the dispatcher logs and tolerates.
type DisabledSMSSender struct{}

// SendSMS always reports the channel as unconfigured.
func (DisabledSMSSender) SendSMS(context.Context, string, string) error {
	return fmt.Errorf("sms channel not configured")
}
