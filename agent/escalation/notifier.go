package escalation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	contractx "github.com/nimesha-edirisinghe/whatsapp-fashion-commerce-ai/agent/contract"
)

type NotifierConfig struct {
	URL     string        `split_words:"true"`
	Secret  string        `split_words:"true"`
	Timeout time.Duration `split_words:"true" default:"5s"`
}

// WebhookNotifier posts escalation payloads to the human-handoff webhook.
type WebhookNotifier struct {
	baseURL    string
	secret     string
	httpClient *http.Client
}

func NewWebhookNotifier(cfg NotifierConfig) (*WebhookNotifier, error) {
	baseURL := strings.TrimSpace(cfg.URL)
	if baseURL == "" {
		return nil, errors.New("escalation webhook url is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid escalation webhook url: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &WebhookNotifier{
		baseURL:    strings.TrimRight(baseURL, "/"),
		secret:     strings.TrimSpace(cfg.Secret),
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

func (n *WebhookNotifier) Notify(ctx context.Context, payload contractx.EscalationPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal escalation payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.baseURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build escalation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if n.secret != "" {
		req.Header.Set("X-Webhook-Secret", n.secret)
	}

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute escalation request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("escalation webhook status=%d", resp.StatusCode)
	}
	return nil
}
