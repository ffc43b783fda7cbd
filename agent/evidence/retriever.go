package evidence

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	chromem "github.com/philippgille/chromem-go"

	contractx "github.com/nimesha-edirisinghe/whatsapp-fashion-commerce-ai/agent/contract"
)

const (
	productsCollection  = "products"
	knowledgeCollection = "knowledge"

	// Candidates below this similarity never reach the composer.
	defaultSimilarityThreshold = 0.7
)

// ChromemRetriever is the knowledge retriever: semantic similarity lookup
// over two independently addressable corpora backed by an embedded
// chromem-go vector store. Safe for concurrent use; chromem synchronizes
// collection access internally.
type ChromemRetriever struct {
	db        *chromem.DB
	embedFn   chromem.EmbeddingFunc
	threshold float32
}

type RetrieverOption func(*ChromemRetriever)

func WithSimilarityThreshold(threshold float32) RetrieverOption {
	return func(r *ChromemRetriever) {
		r.threshold = threshold
	}
}

func NewChromemRetriever(db *chromem.DB, embedFn chromem.EmbeddingFunc, opts ...RetrieverOption) (*ChromemRetriever, error) {
	if db == nil {
		return nil, fmt.Errorf("chromem db is required")
	}
	r := &ChromemRetriever{
		db:        db,
		embedFn:   embedFn,
		threshold: defaultSimilarityThreshold,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r, nil
}

func (r *ChromemRetriever) SearchProducts(ctx context.Context, query string, limit int) ([]contractx.ProductMatch, error) {
	results, err := r.query(ctx, productsCollection, query, limit)
	if err != nil {
		return nil, err
	}

	matches := make([]contractx.ProductMatch, 0, len(results))
	for _, res := range results {
		matches = append(matches, productFromResult(res))
	}
	return matches, nil
}

func (r *ChromemRetriever) SearchKnowledge(ctx context.Context, query string, limit int) ([]contractx.Snippet, error) {
	results, err := r.query(ctx, knowledgeCollection, query, limit)
	if err != nil {
		return nil, err
	}

	snippets := make([]contractx.Snippet, 0, len(results))
	for _, res := range results {
		snippets = append(snippets, contractx.Snippet{
			Content:    res.Content,
			Similarity: float64(res.Similarity),
		})
	}
	return snippets, nil
}

// IndexProduct adds (or re-indexes) one product document.
func (r *ChromemRetriever) IndexProduct(ctx context.Context, match contractx.ProductMatch, description string) error {
	col, err := r.collection(productsCollection)
	if err != nil {
		return err
	}

	content := strings.TrimSpace(match.Name + " " + description)
	return col.AddDocument(ctx, chromem.Document{
		ID:      match.ID,
		Content: content,
		Metadata: map[string]string{
			"name":      match.Name,
			"price":     strconv.FormatFloat(match.Price, 'f', 2, 64),
			"currency":  match.Currency,
			"image_url": match.ImageURL,
			"sizes":     strings.Join(match.Sizes, ","),
			"colors":    strings.Join(match.Colors, ","),
		},
	})
}

// IndexKnowledge adds one knowledge-base passage.
func (r *ChromemRetriever) IndexKnowledge(ctx context.Context, id, content string) error {
	col, err := r.collection(knowledgeCollection)
	if err != nil {
		return err
	}
	return col.AddDocument(ctx, chromem.Document{ID: id, Content: content})
}

func (r *ChromemRetriever) query(ctx context.Context, name, query string, limit int) ([]chromem.Result, error) {
	if strings.TrimSpace(query) == "" || limit <= 0 {
		return nil, nil
	}

	col, err := r.collection(name)
	if err != nil {
		return nil, err
	}

	count := col.Count()
	if count == 0 {
		return nil, nil
	}
	if limit > count {
		limit = count
	}

	results, err := col.Query(ctx, query, limit, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s query: %v", contractx.ErrUpstream, name, err)
	}

	kept := results[:0]
	for _, res := range results {
		if res.Similarity >= r.threshold {
			kept = append(kept, res)
		}
	}
	return kept, nil
}

func (r *ChromemRetriever) collection(name string) (*chromem.Collection, error) {
	col, err := r.db.GetOrCreateCollection(name, nil, r.embedFn)
	if err != nil {
		return nil, fmt.Errorf("%w: collection %s: %v", contractx.ErrUpstream, name, err)
	}
	return col, nil
}

func productFromResult(res chromem.Result) contractx.ProductMatch {
	price, _ := strconv.ParseFloat(res.Metadata["price"], 64)

	match := contractx.ProductMatch{
		ID:         res.ID,
		Name:       res.Metadata["name"],
		Price:      price,
		Currency:   res.Metadata["currency"],
		ImageURL:   res.Metadata["image_url"],
		Similarity: float64(res.Similarity),
	}
	if match.Name == "" {
		match.Name = res.Content
	}
	if match.Currency == "" {
		match.Currency = "USD"
	}
	if raw := res.Metadata["sizes"]; raw != "" {
		match.Sizes = strings.Split(raw, ",")
	}
	if raw := res.Metadata["colors"]; raw != "" {
		match.Colors = strings.Split(raw, ",")
	}
	return match
}
