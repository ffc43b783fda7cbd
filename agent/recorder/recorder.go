// Package recorder finalizes a turn: it writes the inbound/outbound pair to
// the session store, refreshes the context slot, and ships the analytics
// record. Every write in here is best effort; the reply has already been
// decided by the time the recorder runs.
package recorder

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	contractx "github.com/nimesha-edirisinghe/whatsapp-fashion-commerce-ai/agent/contract"
	statex "github.com/nimesha-edirisinghe/whatsapp-fashion-commerce-ai/agent/state"
)

const imagePlaceholder = "[image]"

// Turn carries everything the recorder needs about one finished exchange.
type Turn struct {
	CustomerID string
	Message    contractx.Message
	Reply      contractx.Reply
	Intent     contractx.Intent
	Confidence float64
	Escalated  bool
	Language   string
	StartedAt  time.Time
	PriorSlot  statex.ContextSlot

	// SkipHistory keeps the exchange out of the session history while still
	// producing an analytics record. Used for superseded messages.
	SkipHistory bool
}

type Recorder struct {
	store statex.Store
	sink  contractx.AnalyticsSink
	now   func() time.Time
}

func New(store statex.Store, sink contractx.AnalyticsSink) *Recorder {
	return &Recorder{store: store, sink: sink, now: time.Now}
}

// Record persists the finished exchange. Store and sink failures are logged
// and swallowed so a recording problem never surfaces to the customer.
func (r *Recorder) Record(ctx context.Context, t Turn) {
	now := r.now().UTC()
	latency := now.Sub(t.StartedAt).Milliseconds()
	if latency < 0 {
		latency = 0
	}

	inbound, outbound := r.buildTurns(t, now, latency)

	if !t.SkipHistory {
		if err := r.store.AppendTurns(ctx, t.CustomerID, inbound, outbound); err != nil {
			log.Error().Err(err).Str("customer_id", t.CustomerID).Msg("append turns failed")
		}
		if err := r.store.SetContext(ctx, t.CustomerID, nextSlot(t)); err != nil {
			log.Error().Err(err).Str("customer_id", t.CustomerID).Msg("set context failed")
		}
	}

	if r.sink != nil {
		if err := r.sink.Record(ctx, r.analyticsRecord(t, inbound, latency, now)); err != nil {
			log.Warn().Err(err).Str("customer_id", t.CustomerID).Msg("analytics record failed")
		}
	}
}

func (r *Recorder) buildTurns(t Turn, now time.Time, latency int64) (statex.Turn, statex.Turn) {
	content := t.Message.Text
	if t.Message.Kind == contractx.KindImage {
		content = imagePlaceholder
	}
	inbound := statex.Turn{
		ID:         uuid.NewString(),
		Direction:  statex.DirectionInbound,
		Kind:       t.Message.Kind,
		Content:    content,
		Intent:     t.Intent,
		Confidence: t.Confidence,
		At:         t.StartedAt.UTC(),
	}
	outbound := statex.Turn{
		ID:         uuid.NewString(),
		Direction:  statex.DirectionOutbound,
		Kind:       contractx.KindText,
		Content:    t.Reply.Text,
		Intent:     t.Intent,
		Confidence: t.Confidence,
		LatencyMS:  latency,
		Escalated:  t.Escalated,
		At:         now,
	}
	return inbound, outbound
}

// nextSlot advances the context slot: last routed intent and detected
// language always, the product reference only when this turn surfaced
// products. The previous reference is kept otherwise so follow-up pronouns
// still resolve. The order-ID wait flag follows the reply, so it stays set
// only while the prompt is outstanding and drops once a lookup resolves.
func nextSlot(t Turn) statex.ContextSlot {
	slot := statex.ContextSlot{
		ProductID:       t.PriorSlot.ProductID,
		ProductName:     t.PriorSlot.ProductName,
		LastIntent:      t.Intent,
		Language:        t.Language,
		AwaitingOrderID: t.Reply.AwaitOrderID,
	}
	if len(t.Reply.Products) > 0 {
		slot.ProductID = t.Reply.Products[0].ID
		slot.ProductName = t.Reply.Products[0].Name
	}
	return slot
}

func (r *Recorder) analyticsRecord(t Turn, inbound statex.Turn, latency int64, now time.Time) contractx.TurnRecord {
	return contractx.TurnRecord{
		ID:         inbound.ID,
		CustomerID: t.CustomerID,
		Kind:       t.Message.Kind,
		Direction:  statex.DirectionInbound,
		Content:    inbound.Content,
		Intent:     t.Intent,
		Confidence: t.Confidence,
		LatencyMS:  latency,
		Escalated:  t.Escalated,
		Language:   t.Language,
		OccurredAt: now,
	}
}
