package contract

import (
	"strings"
	"time"
)

// MessageKind mirrors the transport message types the core accepts.
type MessageKind string

const (
	KindText        MessageKind = "text"
	KindImage       MessageKind = "image"
	KindInteractive MessageKind = "interactive"
)

// Message is one inbound or outbound transport message, as handed over by
// the transport layer.
type Message struct {
	CustomerID string      `json:"customer_id"`
	Kind       MessageKind `json:"kind"`
	Text       string      `json:"text,omitempty"`
	Image      []byte      `json:"-"`
	MediaID    string      `json:"media_id,omitempty"`
	Timestamp  time.Time   `json:"timestamp"`
}

// Intent is the closed classification set. Exactly one per turn.
type Intent string

const (
	IntentVisualSearch  Intent = "visual_search"
	IntentQA            Intent = "qa"
	IntentOrderTracking Intent = "order_tracking"
	IntentCatalogBrowse Intent = "catalog_browse"
	IntentGreeting      Intent = "greeting"
	IntentUnclear       Intent = "unclear"
)

// VisionOutcome distinguishes a clean attribute extraction from the two
// non-attribute classifications, which produce different customer messages.
type VisionOutcome string

const (
	VisionClothing    VisionOutcome = "clothing"
	VisionNotClothing VisionOutcome = "not_clothing"
	VisionAmbiguous   VisionOutcome = "ambiguous"
)

// VisionResult is the structured record extracted from an image.
type VisionResult struct {
	Outcome       VisionOutcome `json:"outcome"`
	GarmentType   string        `json:"garment_type,omitempty"`
	Colors        []string      `json:"colors,omitempty"`
	Patterns      []string      `json:"patterns,omitempty"`
	StyleKeywords []string      `json:"style_keywords,omitempty"`
	Reason        string        `json:"reason,omitempty"`
}

// QueryText flattens the extracted attributes into a retrieval query.
func (v VisionResult) QueryText() string {
	parts := make([]string, 0, 1+len(v.Colors)+len(v.Patterns)+len(v.StyleKeywords))
	if v.GarmentType != "" {
		parts = append(parts, v.GarmentType)
	}
	parts = append(parts, v.Colors...)
	parts = append(parts, v.Patterns...)
	parts = append(parts, v.StyleKeywords...)
	return strings.Join(parts, " ")
}

// ProductMatch is one ranked product candidate from the retrieval oracle.
type ProductMatch struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	Currency   string  `json:"currency"`
	ImageURL   string  `json:"image_url,omitempty"`
	Sizes      []string `json:"sizes,omitempty"`
	Colors     []string `json:"colors,omitempty"`
	Similarity float64 `json:"similarity"`
}

// Snippet is one ranked knowledge-base passage.
type Snippet struct {
	Content    string  `json:"content"`
	Similarity float64 `json:"similarity"`
}

// Evidence is the ephemeral per-turn bundle consumed by the composer.
// It is produced fresh each turn and never persisted.
type Evidence struct {
	Vision          *VisionResult
	Products        []ProductMatch
	Snippets        []Snippet
	VisionDegraded  bool
	SearchDegraded  bool
}

// Reply is a candidate (or final) outbound reply.
type Reply struct {
	Text string
	// Menu is set when the reply should render as an interactive menu
	// instead of plain text (the rule-based fallback).
	Menu *Menu
	// Products carries the listed matches so the transport can render an
	// interactive list with images and prices.
	Products []ProductMatch
	// Degraded marks a reply synthesized by the degradation fallback path.
	Degraded bool
	// AwaitOrderID marks a reply that prompted the customer for an order ID,
	// keeping the order-tracking exchange open for the next message.
	AwaitOrderID bool
}

// Menu is a fixed interactive button menu.
type Menu struct {
	Header  string
	Body    string
	Buttons []MenuButton
}

type MenuButton struct {
	ID    string
	Title string
}

// GenerationRequest feeds the generation oracle.
type GenerationRequest struct {
	UserMessage string
	Context     string
	History     []HistoryMessage
	Language    string
}

// HistoryMessage is a prior turn projected into chat-model form.
type HistoryMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// GenerationResult carries the model text plus its reported confidence.
type GenerationResult struct {
	Text       string
	Confidence float64
}

// OrderStatus is the order-lookup collaborator's record.
type OrderStatus struct {
	ID                string
	Status            string
	TrackingNumber    string
	Carrier           string
	EstimatedDelivery string
	DeliveredAt       string
	Items             []OrderItem
	TotalAmount       float64
	Currency          string
}

type OrderItem struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// EscalationPayload is handed to the notification collaborator.
type EscalationPayload struct {
	CustomerID string           `json:"customer_id"`
	Reason     string           `json:"reason"`
	Confidence *float64         `json:"confidence,omitempty"`
	LastText   string           `json:"last_message,omitempty"`
	History    []HistoryMessage `json:"conversation_history"`
	Timestamp  time.Time        `json:"timestamp"`
}

// TurnRecord is the finalized analytics record for one exchange.
type TurnRecord struct {
	ID          string
	CustomerID  string
	Kind        MessageKind
	Direction   string
	Content     string
	Intent      Intent
	Confidence  float64
	LatencyMS   int64
	Escalated   bool
	Language    string
	OccurredAt  time.Time
}
