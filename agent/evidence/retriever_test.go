package evidence

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	chromem "github.com/philippgille/chromem-go"

	contractx "github.com/nimesha-edirisinghe/whatsapp-fashion-commerce-ai/agent/contract"
)

// stubEmbedding maps any text mentioning a dress onto one axis and
// everything else onto another, so similarity is 1.0 or 0.0.
func stubEmbedding(_ context.Context, text string) ([]float32, error) {
	if strings.Contains(strings.ToLower(text), "dress") {
		return []float32{1, 0, 0}, nil
	}
	return []float32{0, 1, 0}, nil
}

func newTestRetriever(t *testing.T) *ChromemRetriever {
	t.Helper()
	r, err := NewChromemRetriever(chromem.NewDB(), stubEmbedding)
	if err != nil {
		t.Fatalf("NewChromemRetriever() error = %v", err)
	}
	return r
}

func TestSearchProductsFiltersBelowThreshold(t *testing.T) {
	t.Parallel()

	r := newTestRetriever(t)
	ctx := context.Background()

	products := []contractx.ProductMatch{
		{ID: "p1", Name: "Red Midi Dress", Price: 79.99, Currency: "USD"},
		{ID: "p2", Name: "Leather Boots", Price: 120, Currency: "USD"},
	}
	for _, p := range products {
		if err := r.IndexProduct(ctx, p, "sleeveless summer cut"); err != nil {
			t.Fatalf("IndexProduct(%s) error = %v", p.ID, err)
		}
	}

	matches, err := r.SearchProducts(ctx, "red dress", 5)
	if err != nil {
		t.Fatalf("SearchProducts() error = %v", err)
	}
	if len(matches) != 1 || matches[0].ID != "p1" {
		t.Fatalf("matches = %+v, want only the dress above the threshold", matches)
	}
	if matches[0].Name != "Red Midi Dress" || matches[0].Price != 79.99 {
		t.Fatalf("metadata round-trip = %+v", matches[0])
	}
}

func TestSearchKnowledge(t *testing.T) {
	t.Parallel()

	r := newTestRetriever(t)
	ctx := context.Background()

	if err := r.IndexKnowledge(ctx, "kb-1", "Dress orders ship within 3-5 business days."); err != nil {
		t.Fatalf("IndexKnowledge() error = %v", err)
	}

	snippets, err := r.SearchKnowledge(ctx, "dress shipping time", 3)
	if err != nil {
		t.Fatalf("SearchKnowledge() error = %v", err)
	}
	if len(snippets) != 1 || !strings.Contains(snippets[0].Content, "3-5 business days") {
		t.Fatalf("snippets = %+v", snippets)
	}
}

func TestSearchEmptyCollectionAndQuery(t *testing.T) {
	t.Parallel()

	r := newTestRetriever(t)
	ctx := context.Background()

	matches, err := r.SearchProducts(ctx, "red dress", 5)
	if err != nil || len(matches) != 0 {
		t.Fatalf("empty collection: matches = %+v, err = %v", matches, err)
	}

	matches, err = r.SearchProducts(ctx, "   ", 5)
	if err != nil || len(matches) != 0 {
		t.Fatalf("blank query: matches = %+v, err = %v", matches, err)
	}
}

func TestConcurrentIndexAndSearch(t *testing.T) {
	t.Parallel()

	r := newTestRetriever(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		i := i
		wg.Add(2)
		go func() {
			defer wg.Done()
			for n := 0; n < 5; n++ {
				p := contractx.ProductMatch{
					ID:   fmt.Sprintf("p-%d-%d", i, n),
					Name: "Wrap Dress",
				}
				if err := r.IndexProduct(ctx, p, "jersey fabric"); err != nil {
					t.Errorf("IndexProduct() error = %v", err)
					return
				}
			}
		}()
		go func() {
			defer wg.Done()
			for n := 0; n < 5; n++ {
				if _, err := r.SearchProducts(ctx, "dress", 3); err != nil {
					t.Errorf("SearchProducts() error = %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	matches, err := r.SearchProducts(ctx, "dress", 3)
	if err != nil {
		t.Fatalf("SearchProducts() error = %v", err)
	}
	if len(matches) != 3 {
		t.Fatalf("len(matches) = %d, want limit respected", len(matches))
	}
}
