// Package catalog serves the curated browse categories out of Postgres.
package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	contractx "github.com/nimesha-edirisinghe/whatsapp-fashion-commerce-ai/agent/contract"
)

type productRow struct {
	bun.BaseModel `bun:"table:products,alias:p"`

	ID          string    `bun:"id,pk"`
	Name        string    `bun:"name"`
	Description string    `bun:"description"`
	Price       float64   `bun:"price"`
	Currency    string    `bun:"currency"`
	ImageURL    string    `bun:"image_url"`
	Sizes       []string  `bun:"sizes,type:jsonb"`
	Colors      []string  `bun:"colors,type:jsonb"`
	IsActive    bool      `bun:"is_active"`
	OnSale      bool      `bun:"on_sale"`
	DiscountPct float64   `bun:"discount_pct"`
	ViewCount   int64     `bun:"view_count"`
	CreatedAt   time.Time `bun:"created_at"`
}

type Browser struct {
	db *bun.DB
}

func NewBrowser(db *bun.DB) *Browser {
	return &Browser{db: db}
}

// NewArrivals returns active products, newest first.
func (b *Browser) NewArrivals(ctx context.Context, limit int) ([]contractx.ProductMatch, error) {
	return b.list(ctx, limit, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Order("p.created_at DESC")
	})
}

// Trending ranks active products by accumulated views.
func (b *Browser) Trending(ctx context.Context, limit int) ([]contractx.ProductMatch, error) {
	return b.list(ctx, limit, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Order("p.view_count DESC")
	})
}

// SaleItems returns discounted products, steepest discount first.
func (b *Browser) SaleItems(ctx context.Context, limit int) ([]contractx.ProductMatch, error) {
	return b.list(ctx, limit, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("p.on_sale").Order("p.discount_pct DESC")
	})
}

func (b *Browser) list(ctx context.Context, limit int, shape func(*bun.SelectQuery) *bun.SelectQuery) ([]contractx.ProductMatch, error) {
	if limit <= 0 {
		limit = 10
	}

	var rows []productRow
	q := b.db.NewSelect().
		Model(&rows).
		Where("p.is_active").
		Limit(limit)
	if err := shape(q).Scan(ctx); err != nil {
		return nil, fmt.Errorf("%w: catalog browse: %v", contractx.ErrUpstream, err)
	}

	products := make([]contractx.ProductMatch, 0, len(rows))
	for _, row := range rows {
		products = append(products, contractx.ProductMatch{
			ID:       row.ID,
			Name:     row.Name,
			Price:    row.Price,
			Currency: row.Currency,
			ImageURL: row.ImageURL,
			Sizes:    row.Sizes,
			Colors:   row.Colors,
		})
	}
	return products, nil
}

// ProductIndexer receives catalog entries for semantic search.
type ProductIndexer interface {
	IndexProduct(ctx context.Context, match contractx.ProductMatch, description string) error
}

// SyncIndex pushes every active product into the semantic index. Run at
// startup and after catalog imports.
func (b *Browser) SyncIndex(ctx context.Context, indexer ProductIndexer) (int, error) {
	var rows []productRow
	err := b.db.NewSelect().
		Model(&rows).
		Where("p.is_active").
		Order("p.created_at ASC").
		Scan(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: catalog sync: %v", contractx.ErrUpstream, err)
	}

	indexed := 0
	for _, row := range rows {
		match := contractx.ProductMatch{
			ID:       row.ID,
			Name:     row.Name,
			Price:    row.Price,
			Currency: row.Currency,
			ImageURL: row.ImageURL,
			Sizes:    row.Sizes,
			Colors:   row.Colors,
		}
		if err := indexer.IndexProduct(ctx, match, row.Description); err != nil {
			return indexed, err
		}
		indexed++
	}
	return indexed, nil
}

// RecordView bumps a product's view counter. Best effort, trending only.
func (b *Browser) RecordView(ctx context.Context, productID string) error {
	_, err := b.db.NewUpdate().
		Model((*productRow)(nil)).
		Set("view_count = view_count + 1").
		Where("p.id = ?", productID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("%w: record view: %v", contractx.ErrUpstream, err)
	}
	return nil
}
