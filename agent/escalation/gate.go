// Package escalation decides whether a candidate reply reaches the customer
// or is replaced by a human-handoff notice. The decision is binary and
// re-evaluated fresh every turn; keeping a human pinned to a conversation is
// the notification collaborator's concern, not this core's.
package escalation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	contractx "github.com/nimesha-edirisinghe/whatsapp-fashion-commerce-ai/agent/contract"
	statex "github.com/nimesha-edirisinghe/whatsapp-fashion-commerce-ai/agent/state"
)

// ConfidenceThreshold is the floor below which a composed reply is handed
// to a human.
const ConfidenceThreshold = 0.70

const notifyTimeout = 5 * time.Second

// HandoffNotice is the fixed reply that replaces an escalated candidate.
const HandoffNotice = "🙋 I'm connecting you with a human agent who can better assist you.\n\n" +
	"A team member will respond shortly during business hours " +
	"(Mon-Fri 9AM-6PM EST).\n\n" +
	"In the meantime, you can continue to send messages and I'll " +
	"make sure they see your full conversation."

var humanRequestPhrases = []string{
	"talk to human",
	"speak to human",
	"human agent",
	"real person",
	"customer service",
	"support agent",
	"talk to someone",
	"speak to someone",
	"representative",
	"agent please",
}

// DetectHumanRequest reports whether the customer explicitly asked for a
// human agent.
func DetectHumanRequest(text string) bool {
	lower := strings.ToLower(text)
	for _, phrase := range humanRequestPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// Input is everything the gate evaluates for one turn.
type Input struct {
	CustomerID string
	Reply      contractx.Reply
	Confidence float64
	Intent     contractx.Intent
	LastText   string
	// Override is a caller-specified explicit trigger.
	Override bool
	Session  *statex.Session
	Now      time.Time
}

// Stable trigger codes, safe to use as metric labels.
const (
	ReasonOverride        = "override"
	ReasonHumanRequest    = "human_request"
	ReasonRepeatedUnclear = "repeated_unclear"
	ReasonLowConfidence   = "low_confidence"
)

// Outcome is the gate's decision for one turn.
type Outcome struct {
	Reply     contractx.Reply
	Escalated bool
	// Code is the stable trigger identifier; Reason the human-readable detail.
	Code   string
	Reason string
}

type Gate struct {
	notifier  contractx.Notifier
	threshold float64
	notifyFn  func(ctx context.Context, payload contractx.EscalationPayload)
}

func NewGate(notifier contractx.Notifier) *Gate {
	g := &Gate{notifier: notifier, threshold: ConfidenceThreshold}
	g.notifyFn = g.notifyAsync
	return g
}

// Decide applies the escalation rule. On escalation the candidate reply is
// replaced by the handoff notice and the notification side-effect is fired;
// notification delivery never blocks the reply path. A degradation-fallback
// reply is never replaced, since it is already the safest deterministic
// content, but a human is still notified.
func (g *Gate) Decide(ctx context.Context, in Input) Outcome {
	escalate, code, reason := g.shouldEscalate(in)
	if !escalate {
		return Outcome{Reply: in.Reply}
	}

	g.notifyFn(ctx, g.buildPayload(in, reason))

	out := Outcome{Reply: in.Reply, Escalated: true, Code: code, Reason: reason}
	if !in.Reply.Degraded {
		out.Reply = contractx.Reply{Text: HandoffNotice}
	}
	return out
}

func (g *Gate) shouldEscalate(in Input) (bool, string, string) {
	if in.Override {
		return true, ReasonOverride, "caller override"
	}
	if DetectHumanRequest(in.LastText) {
		return true, ReasonHumanRequest, "customer requested human assistance"
	}
	if repeatedUnclear(in) {
		return true, ReasonRepeatedUnclear, "repeated unclear intents"
	}
	if in.Confidence < g.threshold {
		return true, ReasonLowConfidence, fmt.Sprintf("low confidence score: %.2f", in.Confidence)
	}
	return false, "", ""
}

// repeatedUnclear fires when the previous recorded inbound turn was already
// unclear and this one is too.
func repeatedUnclear(in Input) bool {
	if in.Intent != contractx.IntentUnclear || in.Session == nil {
		return false
	}
	for i := len(in.Session.History) - 1; i >= 0; i-- {
		t := in.Session.History[i]
		if t.Direction != statex.DirectionInbound {
			continue
		}
		return t.Intent == contractx.IntentUnclear
	}
	return false
}

func (g *Gate) buildPayload(in Input, reason string) contractx.EscalationPayload {
	confidence := in.Confidence
	payload := contractx.EscalationPayload{
		CustomerID: in.CustomerID,
		Reason:     reason,
		Confidence: &confidence,
		LastText:   in.LastText,
		Timestamp:  in.Now.UTC(),
	}
	if in.Session != nil {
		payload.History = in.Session.HistoryMessages()
	}
	return payload
}

func (g *Gate) notifyAsync(ctx context.Context, payload contractx.EscalationPayload) {
	if g.notifier == nil {
		log.Warn().Str("customer_id", payload.CustomerID).Msg("escalation notifier not configured")
		return
	}

	// Detach from the turn's context: the notification must be attempted
	// even if the reply path finishes first.
	detached := context.WithoutCancel(ctx)
	go func() {
		notifyCtx, cancel := context.WithTimeout(detached, notifyTimeout)
		defer cancel()
		if err := g.notifier.Notify(notifyCtx, payload); err != nil {
			log.Error().
				Str("customer_id", payload.CustomerID).
				Err(err).
				Msg("escalation notification failed")
		}
	}()
}
