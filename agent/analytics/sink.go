// Package analytics persists finished turns for offline analysis.
package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	contractx "github.com/nimesha-edirisinghe/whatsapp-fashion-commerce-ai/agent/contract"
)

type conversationRow struct {
	bun.BaseModel `bun:"table:conversations,alias:c"`

	ID         string    `bun:"id,pk"`
	CustomerID string    `bun:"customer_id"`
	Kind       string    `bun:"kind"`
	Direction  string    `bun:"direction"`
	Content    string    `bun:"content"`
	Intent     string    `bun:"intent"`
	Confidence float64   `bun:"confidence"`
	LatencyMS  int64     `bun:"latency_ms"`
	Escalated  bool      `bun:"escalated"`
	Language   string    `bun:"language"`
	OccurredAt time.Time `bun:"occurred_at"`
}

type Sink struct {
	db *bun.DB
}

func NewSink(db *bun.DB) *Sink {
	return &Sink{db: db}
}

func (s *Sink) Record(ctx context.Context, rec contractx.TurnRecord) error {
	row := conversationRow{
		ID:         rec.ID,
		CustomerID: rec.CustomerID,
		Kind:       string(rec.Kind),
		Direction:  rec.Direction,
		Content:    rec.Content,
		Intent:     string(rec.Intent),
		Confidence: rec.Confidence,
		LatencyMS:  rec.LatencyMS,
		Escalated:  rec.Escalated,
		Language:   rec.Language,
		OccurredAt: rec.OccurredAt,
	}
	if _, err := s.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		return fmt.Errorf("%w: record turn: %v", contractx.ErrUpstream, err)
	}
	return nil
}
