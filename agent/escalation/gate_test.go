package escalation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	contractx "github.com/nimesha-edirisinghe/whatsapp-fashion-commerce-ai/agent/contract"
	statex "github.com/nimesha-edirisinghe/whatsapp-fashion-commerce-ai/agent/state"
)

func captureGate() (*Gate, *[]contractx.EscalationPayload) {
	g := NewGate(nil)
	payloads := &[]contractx.EscalationPayload{}
	g.notifyFn = func(ctx context.Context, payload contractx.EscalationPayload) {
		*payloads = append(*payloads, payload)
	}
	return g, payloads
}

func TestDecidePassesConfidentReply(t *testing.T) {
	t.Parallel()

	g, payloads := captureGate()

	out := g.Decide(context.Background(), Input{
		CustomerID: "cust-1",
		Reply:      contractx.Reply{Text: "Here you go"},
		Confidence: 0.9,
		Intent:     contractx.IntentQA,
		LastText:   "what sizes do you have",
		Now:        time.Now().UTC(),
	})

	if out.Escalated {
		t.Fatalf("Escalated = true for confidence 0.9, reason %q", out.Reason)
	}
	if out.Reply.Text != "Here you go" {
		t.Fatalf("Reply = %q, want original", out.Reply.Text)
	}
	if len(*payloads) != 0 {
		t.Fatalf("notifications = %d, want 0", len(*payloads))
	}
}

func TestDecideThresholdBoundary(t *testing.T) {
	t.Parallel()

	tests := []struct {
		confidence float64
		escalated  bool
	}{
		{0.70, false}, // at the threshold stays with the bot
		{0.699, true},
		{0.0, true},
	}

	for _, tc := range tests {
		g, _ := captureGate()
		out := g.Decide(context.Background(), Input{
			CustomerID: "cust-1",
			Reply:      contractx.Reply{Text: "maybe"},
			Confidence: tc.confidence,
			Intent:     contractx.IntentQA,
			Now:        time.Now().UTC(),
		})
		if out.Escalated != tc.escalated {
			t.Fatalf("confidence %v: Escalated = %v, want %v", tc.confidence, out.Escalated, tc.escalated)
		}
		if tc.escalated && out.Reply.Text != HandoffNotice {
			t.Fatalf("confidence %v: reply not replaced by handoff notice", tc.confidence)
		}
	}
}

func TestDecideExplicitHumanRequest(t *testing.T) {
	t.Parallel()

	g, payloads := captureGate()

	out := g.Decide(context.Background(), Input{
		CustomerID: "cust-1",
		Reply:      contractx.Reply{Text: "I can help with that!"},
		Confidence: 0.95,
		Intent:     contractx.IntentQA,
		LastText:   "I want to talk to a real person",
		Now:        time.Now().UTC(),
	})

	if !out.Escalated {
		t.Fatal("Escalated = false, want true for explicit human request")
	}
	if out.Code != ReasonHumanRequest {
		t.Fatalf("Code = %q, want %q", out.Code, ReasonHumanRequest)
	}
	if out.Reply.Text != HandoffNotice {
		t.Fatalf("Reply = %q, want handoff notice", out.Reply.Text)
	}
	if len(*payloads) != 1 {
		t.Fatalf("notifications = %d, want 1", len(*payloads))
	}
	if (*payloads)[0].CustomerID != "cust-1" {
		t.Fatalf("payload customer = %q", (*payloads)[0].CustomerID)
	}
}

func TestDecideRepeatedUnclear(t *testing.T) {
	t.Parallel()

	sess := statex.NewSession("cust-1", time.Now().UTC())
	sess.PushTurn(statex.Turn{Direction: statex.DirectionInbound, Content: "gibberish", Intent: contractx.IntentUnclear})
	sess.PushTurn(statex.Turn{Direction: statex.DirectionOutbound, Content: "I'm not sure", Intent: contractx.IntentUnclear})

	g, _ := captureGate()
	out := g.Decide(context.Background(), Input{
		CustomerID: "cust-1",
		Reply:      contractx.Reply{Text: "I'm not sure"},
		Confidence: 1.0,
		Intent:     contractx.IntentUnclear,
		Session:    sess,
		Now:        time.Now().UTC(),
	})

	if !out.Escalated || out.Code != ReasonRepeatedUnclear {
		t.Fatalf("outcome = %+v, want repeated-unclear escalation", out)
	}
}

func TestDecideSingleUnclearDoesNotEscalate(t *testing.T) {
	t.Parallel()

	g, _ := captureGate()
	out := g.Decide(context.Background(), Input{
		CustomerID: "cust-1",
		Reply:      contractx.Reply{Text: "I'm not sure"},
		Confidence: 1.0,
		Intent:     contractx.IntentUnclear,
		Session:    statex.NewSession("cust-1", time.Now().UTC()),
		Now:        time.Now().UTC(),
	})

	if out.Escalated {
		t.Fatalf("Escalated = true on first unclear, reason %q", out.Reason)
	}
}

func TestDecideDegradedFallbackKeptButHumanNotified(t *testing.T) {
	t.Parallel()

	g, payloads := captureGate()

	fallback := contractx.Reply{Text: "Please choose an option", Degraded: true}
	out := g.Decide(context.Background(), Input{
		CustomerID: "cust-1",
		Reply:      fallback,
		Confidence: 0.0,
		Intent:     contractx.IntentQA,
		Now:        time.Now().UTC(),
	})

	if !out.Escalated {
		t.Fatal("Escalated = false, want true at confidence 0.0")
	}
	if out.Reply.Text != fallback.Text {
		t.Fatalf("Reply = %q, want degradation fallback kept", out.Reply.Text)
	}
	if len(*payloads) != 1 {
		t.Fatalf("notifications = %d, want 1", len(*payloads))
	}
}

func TestDecideOverride(t *testing.T) {
	t.Parallel()

	g, _ := captureGate()
	out := g.Decide(context.Background(), Input{
		CustomerID: "cust-1",
		Reply:      contractx.Reply{Text: "sure"},
		Confidence: 1.0,
		Override:   true,
		Now:        time.Now().UTC(),
	})
	if !out.Escalated || out.Code != ReasonOverride {
		t.Fatalf("outcome = %+v, want override escalation", out)
	}
}

type blockingNotifier struct {
	mu    sync.Mutex
	calls int
	err   error
	done  chan struct{}
}

func (n *blockingNotifier) Notify(ctx context.Context, payload contractx.EscalationPayload) error {
	n.mu.Lock()
	n.calls++
	n.mu.Unlock()
	close(n.done)
	return n.err
}

func TestNotifyFailureDoesNotBlockDecision(t *testing.T) {
	t.Parallel()

	notifier := &blockingNotifier{err: errors.New("webhook down"), done: make(chan struct{})}
	g := NewGate(notifier)

	out := g.Decide(context.Background(), Input{
		CustomerID: "cust-1",
		Reply:      contractx.Reply{Text: "maybe"},
		Confidence: 0.1,
		Intent:     contractx.IntentQA,
		Now:        time.Now().UTC(),
	})

	if !out.Escalated {
		t.Fatal("Escalated = false, want true")
	}
	if out.Reply.Text != HandoffNotice {
		t.Fatalf("Reply = %q, want handoff notice despite notifier failure", out.Reply.Text)
	}

	select {
	case <-notifier.done:
	case <-time.After(2 * time.Second):
		t.Fatal("notifier was never called")
	}
}

func TestDetectHumanRequest(t *testing.T) {
	t.Parallel()

	positives := []string{
		"I need to TALK TO HUMAN now",
		"can I speak to someone about my order",
		"give me a representative",
	}
	for _, text := range positives {
		if !DetectHumanRequest(text) {
			t.Fatalf("DetectHumanRequest(%q) = false, want true", text)
		}
	}

	if DetectHumanRequest("do you have humane leather alternatives") {
		t.Fatal("DetectHumanRequest() false positive")
	}
}
