package state

import (
	"fmt"
	"testing"
	"time"

	contractx "github.com/nimesha-edirisinghe/whatsapp-fashion-commerce-ai/agent/contract"
)

func TestPushTurnEvictsOldestBeyondCap(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	sess := NewSession("cust-1", now)

	for i := 0; i < MaxHistory+3; i++ {
		sess.PushTurn(Turn{
			ID:        fmt.Sprintf("turn-%d", i),
			Direction: DirectionInbound,
			Kind:      contractx.KindText,
			Content:   fmt.Sprintf("message %d", i),
			At:        now,
		})
	}

	if len(sess.History) != MaxHistory {
		t.Fatalf("len(History) = %d, want %d", len(sess.History), MaxHistory)
	}
	if sess.History[0].ID != "turn-3" {
		t.Fatalf("History[0].ID = %q, want turn-3", sess.History[0].ID)
	}
	if last := sess.History[MaxHistory-1].ID; last != fmt.Sprintf("turn-%d", MaxHistory+2) {
		t.Fatalf("History[last].ID = %q, want turn-%d", last, MaxHistory+2)
	}
}

func TestExpired(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	sess := NewSession("cust-1", now)

	if sess.Expired(now.Add(InactivityWindow - time.Minute)) {
		t.Fatal("session expired before the inactivity window elapsed")
	}
	if !sess.Expired(now.Add(InactivityWindow + time.Minute)) {
		t.Fatal("session not expired after the inactivity window elapsed")
	}
}

func TestHistoryMessagesMapsDirectionsToRoles(t *testing.T) {
	t.Parallel()

	sess := NewSession("cust-1", time.Now().UTC())
	sess.PushTurn(Turn{Direction: DirectionInbound, Content: "hi"})
	sess.PushTurn(Turn{Direction: DirectionOutbound, Content: "hello!"})
	sess.PushTurn(Turn{Direction: DirectionInbound, Kind: contractx.KindImage})

	msgs := sess.HistoryMessages()
	if len(msgs) != 2 {
		t.Fatalf("len(HistoryMessages()) = %d, want 2 (empty content skipped)", len(msgs))
	}
	if msgs[0].Role != "user" || msgs[0].Content != "hi" {
		t.Fatalf("msgs[0] = %+v, want user/hi", msgs[0])
	}
	if msgs[1].Role != "assistant" || msgs[1].Content != "hello!" {
		t.Fatalf("msgs[1] = %+v, want assistant/hello!", msgs[1])
	}
}

func TestHasProductRef(t *testing.T) {
	t.Parallel()

	sess := NewSession("cust-1", time.Now().UTC())
	if sess.HasProductRef() {
		t.Fatal("empty session reported a product reference")
	}

	sess.Context.ProductName = "Red Midi Dress"
	if !sess.HasProductRef() {
		t.Fatal("session with product name reported no reference")
	}
}
