package state

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestMemoryStoreLoadMissing(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	_, err := store.Load(context.Background(), "cust-1")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("Load() error = %v, want ErrSessionNotFound", err)
	}
}

func TestMemoryStoreAppendThenLoad(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	ctx := context.Background()

	err := store.AppendTurns(ctx, "cust-1",
		Turn{ID: "a", Direction: DirectionInbound, Content: "hi"},
		Turn{ID: "b", Direction: DirectionOutbound, Content: "hello!"},
	)
	if err != nil {
		t.Fatalf("AppendTurns() error = %v", err)
	}

	sess, err := store.Load(ctx, "cust-1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(sess.History) != 2 {
		t.Fatalf("len(History) = %d, want 2", len(sess.History))
	}
	if sess.History[0].ID != "a" || sess.History[1].ID != "b" {
		t.Fatalf("History order = %q,%q, want a,b", sess.History[0].ID, sess.History[1].ID)
	}
}

func TestMemoryStoreExpiryResetsSession(t *testing.T) {
	t.Parallel()

	current := time.Now().UTC()
	store := NewMemoryStore(WithMemoryNow(func() time.Time { return current }))
	ctx := context.Background()

	if err := store.AppendTurns(ctx, "cust-1", Turn{ID: "a", Content: "hi"}); err != nil {
		t.Fatalf("AppendTurns() error = %v", err)
	}
	if err := store.SetContext(ctx, "cust-1", ContextSlot{ProductName: "Red Midi Dress"}); err != nil {
		t.Fatalf("SetContext() error = %v", err)
	}

	current = current.Add(InactivityWindow + time.Minute)

	if _, err := store.Load(ctx, "cust-1"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("Load() after expiry error = %v, want ErrSessionNotFound", err)
	}

	// Writing after expiry starts over rather than resurrecting history.
	if err := store.AppendTurns(ctx, "cust-1", Turn{ID: "b", Content: "new"}); err != nil {
		t.Fatalf("AppendTurns() after expiry error = %v", err)
	}
	sess, err := store.Load(ctx, "cust-1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(sess.History) != 1 || sess.History[0].ID != "b" {
		t.Fatalf("History = %+v, want single turn b", sess.History)
	}
	if sess.Context.ProductName != "" {
		t.Fatalf("Context.ProductName = %q, want empty after expiry", sess.Context.ProductName)
	}
}

func TestMemoryStoreLoadReturnsCopy(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	ctx := context.Background()
	if err := store.AppendTurns(ctx, "cust-1", Turn{ID: "a", Content: "hi"}); err != nil {
		t.Fatalf("AppendTurns() error = %v", err)
	}

	first, _ := store.Load(ctx, "cust-1")
	first.History[0].Content = "mutated"
	first.Context.ProductName = "mutated"

	second, _ := store.Load(ctx, "cust-1")
	if second.History[0].Content != "hi" {
		t.Fatalf("History leaked mutation: %q", second.History[0].Content)
	}
	if second.Context.ProductName != "" {
		t.Fatalf("Context leaked mutation: %q", second.Context.ProductName)
	}
}

func TestMemoryStoreConcurrentCustomers(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	ctx := context.Background()

	const (
		customers      = 8
		turnsPerWorker = 5
	)
	var wg sync.WaitGroup
	for i := 0; i < customers; i++ {
		id := fmt.Sprintf("cust-%d", i)
		wg.Add(1)
		go func() {
			defer wg.Done()
			for n := 0; n < turnsPerWorker; n++ {
				if err := store.AppendTurns(ctx, id, Turn{ID: fmt.Sprintf("%s-%d", id, n)}); err != nil {
					t.Errorf("AppendTurns(%s) error = %v", id, err)
					return
				}
				if err := store.SetContext(ctx, id, ContextSlot{Language: "en"}); err != nil {
					t.Errorf("SetContext(%s) error = %v", id, err)
					return
				}
			}
		}()
	}
	wg.Wait()

	for i := 0; i < customers; i++ {
		id := fmt.Sprintf("cust-%d", i)
		sess, err := store.Load(ctx, id)
		if err != nil {
			t.Fatalf("Load(%s) error = %v", id, err)
		}
		if len(sess.History) != turnsPerWorker {
			t.Fatalf("len(History) for %s = %d, want %d", id, len(sess.History), turnsPerWorker)
		}
	}
}
