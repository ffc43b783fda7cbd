package state

import (
	"time"

	contractx "github.com/nimesha-edirisinghe/whatsapp-fashion-commerce-ai/agent/contract"
)

const (
	// MaxHistory bounds a session's turn history. Oldest turns are evicted
	// first once the cap is reached.
	MaxHistory = 10

	// InactivityWindow is how long a session survives without activity.
	InactivityWindow = 24 * time.Hour
)

const (
	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"
)

// Turn is one recorded message within an exchange. Immutable once appended.
type Turn struct {
	ID         string                `json:"id"`
	Direction  string                `json:"direction"`
	Kind       contractx.MessageKind `json:"kind"`
	Content    string                `json:"content,omitempty"`
	Intent     contractx.Intent      `json:"intent"`
	Confidence float64               `json:"confidence"`
	LatencyMS  int64                 `json:"latency_ms,omitempty"`
	Escalated  bool                  `json:"escalated,omitempty"`
	At         time.Time             `json:"at"`
}

// ContextSlot is the cross-turn reference state: the last product/topic the
// customer referred to, the last routed intent, and the detected language.
type ContextSlot struct {
	ProductID   string           `json:"product_id,omitempty"`
	ProductName string           `json:"product_name,omitempty"`
	LastIntent  contractx.Intent `json:"last_intent,omitempty"`
	Language    string           `json:"language,omitempty"`
	// AwaitingOrderID marks an open order-tracking exchange: the last reply
	// asked the customer for their order ID. Cleared once a lookup resolves.
	AwaitingOrderID bool `json:"awaiting_order_id,omitempty"`
}

// Session is the per-customer short-term conversational state.
type Session struct {
	CustomerID string      `json:"customer_id"`
	History    []Turn      `json:"history,omitempty"`
	Context    ContextSlot `json:"context"`
	LastActive time.Time   `json:"last_active"`
}

// NewSession returns the empty/default session for a customer. Loading a
// missing or expired session yields exactly this.
func NewSession(customerID string, now time.Time) *Session {
	return &Session{
		CustomerID: customerID,
		LastActive: now.UTC(),
	}
}

// PushTurn appends a turn, evicting the oldest beyond MaxHistory.
func (s *Session) PushTurn(t Turn) {
	s.History = append(s.History, t)
	if overflow := len(s.History) - MaxHistory; overflow > 0 {
		s.History = append([]Turn(nil), s.History[overflow:]...)
	}
}

// Touch refreshes the inactivity timer.
func (s *Session) Touch(now time.Time) {
	s.LastActive = now.UTC()
}

// Expired reports whether the inactivity window has elapsed.
func (s *Session) Expired(now time.Time) bool {
	return now.UTC().Sub(s.LastActive) > InactivityWindow
}

// HistoryMessages projects the turn history into chat-model messages,
// inbound turns as "user" and outbound as "assistant".
func (s *Session) HistoryMessages() []contractx.HistoryMessage {
	if s == nil || len(s.History) == 0 {
		return nil
	}
	out := make([]contractx.HistoryMessage, 0, len(s.History))
	for _, t := range s.History {
		role := "assistant"
		if t.Direction == DirectionInbound {
			role = "user"
		}
		if t.Content == "" {
			continue
		}
		out = append(out, contractx.HistoryMessage{Role: role, Content: t.Content})
	}
	return out
}

// HasProductRef reports whether the context slot holds a product reference.
func (s *Session) HasProductRef() bool {
	return s != nil && (s.Context.ProductID != "" || s.Context.ProductName != "")
}
