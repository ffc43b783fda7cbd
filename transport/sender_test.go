package transport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	contractx "github.com/nimesha-edirisinghe/whatsapp-fashion-commerce-ai/agent/contract"
)

type capturedRequest struct {
	path    string
	auth    string
	payload map[string]any
}

func newCaptureSender(t *testing.T, status int) (*GraphSender, *[]capturedRequest) {
	t.Helper()

	var (
		mu       sync.Mutex
		captured []capturedRequest
	)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var payload map[string]any
		_ = json.Unmarshal(body, &payload)
		mu.Lock()
		captured = append(captured, capturedRequest{
			path:    r.URL.Path,
			auth:    r.Header.Get("Authorization"),
			payload: payload,
		})
		mu.Unlock()
		w.WriteHeader(status)
	}))
	t.Cleanup(ts.Close)

	sender := NewGraphSender(Config{
		GraphBaseURL:  ts.URL,
		AccessToken:   "token-123",
		PhoneNumberID: "555000",
		Timeout:       5 * time.Second,
	})
	return sender, &captured
}

func TestSendText(t *testing.T) {
	t.Parallel()

	sender, captured := newCaptureSender(t, http.StatusOK)
	if err := sender.SendText(context.Background(), "15551234567", "Hello!"); err != nil {
		t.Fatalf("SendText() error = %v", err)
	}

	got := (*captured)[0]
	if got.path != "/555000/messages" {
		t.Errorf("path = %q", got.path)
	}
	if got.auth != "Bearer token-123" {
		t.Errorf("auth = %q", got.auth)
	}
	if got.payload["type"] != "text" || got.payload["to"] != "15551234567" {
		t.Errorf("payload = %+v", got.payload)
	}
	text := got.payload["text"].(map[string]any)
	if text["body"] != "Hello!" {
		t.Errorf("text body = %v", text["body"])
	}
}

func TestSendMenuCapsButtons(t *testing.T) {
	t.Parallel()

	sender, captured := newCaptureSender(t, http.StatusOK)
	menu := contractx.Menu{
		Header: "How can I help?",
		Body:   "Pick an option",
		Buttons: []contractx.MenuButton{
			{ID: "browse", Title: "Browse"},
			{ID: "track", Title: "Track order"},
			{ID: "help", Title: "Help"},
			{ID: "extra", Title: "Too many"},
		},
	}
	if err := sender.SendMenu(context.Background(), "15551234567", menu); err != nil {
		t.Fatalf("SendMenu() error = %v", err)
	}

	interactive := (*captured)[0].payload["interactive"].(map[string]any)
	if interactive["type"] != "button" {
		t.Errorf("interactive type = %v", interactive["type"])
	}
	header := interactive["header"].(map[string]any)
	if header["text"] != "How can I help?" {
		t.Errorf("header = %v", header)
	}
	buttons := interactive["action"].(map[string]any)["buttons"].([]any)
	if len(buttons) != maxMenuButtons {
		t.Fatalf("len(buttons) = %d, want capped at %d", len(buttons), maxMenuButtons)
	}
}

func TestSendProductList(t *testing.T) {
	t.Parallel()

	sender, captured := newCaptureSender(t, http.StatusOK)
	products := []contractx.ProductMatch{
		{ID: "p1", Name: "Red Midi Dress", Currency: "USD", Price: 79.99},
		{ID: "p2", Name: "A very long product name that overflows", Currency: "USD", Price: 12},
	}
	if err := sender.SendProductList(context.Background(), "15551234567", "Matches for you", products); err != nil {
		t.Fatalf("SendProductList() error = %v", err)
	}

	interactive := (*captured)[0].payload["interactive"].(map[string]any)
	if interactive["type"] != "list" {
		t.Errorf("interactive type = %v", interactive["type"])
	}
	sections := interactive["action"].(map[string]any)["sections"].([]any)
	rows := sections[0].(map[string]any)["rows"].([]any)
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d", len(rows))
	}
	first := rows[0].(map[string]any)
	if first["id"] != "p1" || first["description"] != "USD 79.99" {
		t.Errorf("row = %+v", first)
	}
	second := rows[1].(map[string]any)
	if title := second["title"].(string); !strings.HasSuffix(title, "…") {
		t.Errorf("long title not truncated: %q", title)
	}
}

func TestSendProductListEmptyFallsBackToText(t *testing.T) {
	t.Parallel()

	sender, captured := newCaptureSender(t, http.StatusOK)
	if err := sender.SendProductList(context.Background(), "15551234567", "Nothing matched", nil); err != nil {
		t.Fatalf("SendProductList() error = %v", err)
	}
	if (*captured)[0].payload["type"] != "text" {
		t.Fatalf("payload = %+v, want plain text fallback", (*captured)[0].payload)
	}
}

func TestSendTextUpstreamError(t *testing.T) {
	t.Parallel()

	sender, _ := newCaptureSender(t, http.StatusInternalServerError)
	err := sender.SendText(context.Background(), "15551234567", "Hello!")
	if !errors.Is(err, contractx.ErrUpstream) {
		t.Fatalf("error = %v, want ErrUpstream", err)
	}
}
