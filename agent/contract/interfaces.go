package contract

import "context"

// VisionOracle extracts clothing attributes from raw image bytes.
type VisionOracle interface {
	Analyze(ctx context.Context, image []byte) (VisionResult, error)
}

// Retriever runs semantic similarity lookups against the two corpora.
// Candidates below the similarity threshold are excluded by the retriever.
type Retriever interface {
	SearchProducts(ctx context.Context, query string, limit int) ([]ProductMatch, error)
	SearchKnowledge(ctx context.Context, query string, limit int) ([]Snippet, error)
}

// Generator is the language-generation oracle.
type Generator interface {
	Generate(ctx context.Context, req GenerationRequest) (GenerationResult, error)
}

// OrderLookup resolves an order identifier to a status record.
// A missing order is reported as ErrNotFound.
type OrderLookup interface {
	Lookup(ctx context.Context, orderID string) (OrderStatus, error)
}

// Browser serves catalog-browse queries for the fixed trigger categories.
type Browser interface {
	NewArrivals(ctx context.Context, limit int) ([]ProductMatch, error)
	Trending(ctx context.Context, limit int) ([]ProductMatch, error)
	SaleItems(ctx context.Context, limit int) ([]ProductMatch, error)
}

// Notifier delivers an escalation summary to the human-handoff collaborator.
// Best effort: the reply path never depends on its result.
type Notifier interface {
	Notify(ctx context.Context, payload EscalationPayload) error
}

// AnalyticsSink accepts finalized turn records for durable logging.
// Write failures must not affect the reply path.
type AnalyticsSink interface {
	Record(ctx context.Context, rec TurnRecord) error
}

// Sender delivers an outbound message through the transport layer.
type Sender interface {
	SendText(ctx context.Context, to, text string) error
	SendMenu(ctx context.Context, to string, menu Menu) error
	SendProductList(ctx context.Context, to, body string, products []ProductMatch) error
}
