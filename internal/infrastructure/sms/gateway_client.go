package sms

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"servicemarket/pkg/logger"
)

// GatewayClient sends text messages through an HTTP SMS provider.
type GatewayClient struct {
	apiURL   string
	username string
	password string
	sender   string
	client   *http.Client
}

func NewGatewayClient(apiURL, username, password, sender string) *GatewayClient {
	return &GatewayClient{
		apiURL:   apiURL,
		username: username,
		password: password,
		sender:   sender,
		client:   &http.Client{Timeout: 15 * time.Second},
	}
}

type sendRequest struct {
	From     string   `json:"from"`
	To       []string `json:"to"`
	Text     string   `json:"text"`
	Encoding string   `json:"encoding"`
}

type sendResponse struct {
	JobID  string `json:"jobId"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Send delivers text to phone and returns the provider's job id.
func (g *GatewayClient) Send(ctx context.Context, phone, text string) (string, error) {
	body, err := json.Marshal(sendRequest{
		From:     g.sender,
		To:       []string{phone},
		Text:     text,
		Encoding: "TR",
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.apiURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %v", err)
	}
	auth := base64.StdEncoding.EncodeToString([]byte(g.username + ":" + g.password))
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Basic "+auth)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to execute request: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return "", fmt.Errorf("failed to read response: %v", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logger.Error("sms gateway error (%d): %s", resp.StatusCode, string(raw))
		return "", fmt.Errorf("sms gateway returned status %d", resp.StatusCode)
	}

	var out sendResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("failed to parse response: %v", err)
	}
	if out.Error != "" {
		return "", fmt.Errorf("sms gateway error: %s", out.Error)
	}
	return out.JobID, nil
}

// LogSender writes messages to the log instead of sending them. Used when
// SMS delivery is disabled outside production.
type LogSender struct{}

func (LogSender) Send(_ context.Context, phone, text string) (string, error) {
	logger.Info("sms disabled, message to %s: %s", phone, text)
	return "", nil
}
