package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	contractx "github.com/nimesha-edirisinghe/whatsapp-fashion-commerce-ai/agent/contract"
)

const (
	maxMenuButtons = 3
	maxListRows    = 10
)

// GraphSender delivers outbound messages through the WhatsApp Cloud API.
type GraphSender struct {
	baseURL       string
	accessToken   string
	phoneNumberID string
	httpClient    *http.Client
}

func NewGraphSender(cfg Config) *GraphSender {
	return &GraphSender{
		baseURL:       cfg.GraphBaseURL,
		accessToken:   cfg.AccessToken,
		phoneNumberID: cfg.PhoneNumberID,
		httpClient:    &http.Client{Timeout: cfg.Timeout},
	}
}

func (s *GraphSender) SendText(ctx context.Context, to, text string) error {
	return s.post(ctx, map[string]any{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              "text",
		"text":              map[string]any{"body": text},
	})
}

func (s *GraphSender) SendMenu(ctx context.Context, to string, menu contractx.Menu) error {
	buttons := menu.Buttons
	if len(buttons) > maxMenuButtons {
		buttons = buttons[:maxMenuButtons]
	}
	rendered := make([]map[string]any, 0, len(buttons))
	for _, b := range buttons {
		rendered = append(rendered, map[string]any{
			"type":  "reply",
			"reply": map[string]any{"id": b.ID, "title": b.Title},
		})
	}

	interactive := map[string]any{
		"type":   "button",
		"body":   map[string]any{"text": menu.Body},
		"action": map[string]any{"buttons": rendered},
	}
	if menu.Header != "" {
		interactive["header"] = map[string]any{"type": "text", "text": menu.Header}
	}

	return s.post(ctx, map[string]any{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              "interactive",
		"interactive":       interactive,
	})
}

func (s *GraphSender) SendProductList(ctx context.Context, to, body string, products []contractx.ProductMatch) error {
	if len(products) == 0 {
		return s.SendText(ctx, to, body)
	}
	if len(products) > maxListRows {
		products = products[:maxListRows]
	}

	rows := make([]map[string]any, 0, len(products))
	for _, p := range products {
		rows = append(rows, map[string]any{
			"id":          p.ID,
			"title":       truncate(p.Name, 24),
			"description": fmt.Sprintf("%s %.2f", p.Currency, p.Price),
		})
	}

	return s.post(ctx, map[string]any{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              "interactive",
		"interactive": map[string]any{
			"type": "list",
			"body": map[string]any{"text": body},
			"action": map[string]any{
				"button": "View products",
				"sections": []map[string]any{
					{"title": "Matches", "rows": rows},
				},
			},
		},
	})
}

func (s *GraphSender) post(ctx context.Context, payload map[string]any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal outbound message: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", s.baseURL, s.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build outbound request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.accessToken)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: send message: %v", contractx.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: send message status=%d body=%s", contractx.ErrUpstream, resp.StatusCode, snippet)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
