// Package orders is the order-lookup collaborator backed by Postgres.
package orders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"

	contractx "github.com/nimesha-edirisinghe/whatsapp-fashion-commerce-ai/agent/contract"
)

type orderRow struct {
	bun.BaseModel `bun:"table:orders,alias:o"`

	ID                string               `bun:"id,pk"`
	CustomerID        string               `bun:"customer_id"`
	Status            string               `bun:"status"`
	TrackingNumber    string               `bun:"tracking_number"`
	Carrier           string               `bun:"carrier"`
	EstimatedDelivery string               `bun:"estimated_delivery"`
	DeliveredAt       *time.Time           `bun:"delivered_at"`
	Items             []contractx.OrderItem `bun:"items,type:jsonb"`
	TotalAmount       float64              `bun:"total_amount"`
	Currency          string               `bun:"currency"`
	CreatedAt         time.Time            `bun:"created_at"`
}

type Store struct {
	db *bun.DB
}

func NewStore(db *bun.DB) *Store {
	return &Store{db: db}
}

// Lookup resolves an order ID to its status record. Unknown IDs are
// reported as contract.ErrNotFound, a domain outcome rather than a fault.
func (s *Store) Lookup(ctx context.Context, orderID string) (contractx.OrderStatus, error) {
	id := strings.ToUpper(strings.TrimSpace(orderID))
	if id == "" {
		return contractx.OrderStatus{}, fmt.Errorf("%w: empty order id", contractx.ErrInvalid)
	}

	var row orderRow
	err := s.db.NewSelect().
		Model(&row).
		Where("o.id = ?", id).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return contractx.OrderStatus{}, fmt.Errorf("%w: order %s", contractx.ErrNotFound, id)
	}
	if err != nil {
		return contractx.OrderStatus{}, fmt.Errorf("%w: order lookup: %v", contractx.ErrUpstream, err)
	}

	status := contractx.OrderStatus{
		ID:                row.ID,
		Status:            row.Status,
		TrackingNumber:    row.TrackingNumber,
		Carrier:           row.Carrier,
		EstimatedDelivery: row.EstimatedDelivery,
		Items:             row.Items,
		TotalAmount:       row.TotalAmount,
		Currency:          row.Currency,
	}
	if row.DeliveredAt != nil {
		status.DeliveredAt = row.DeliveredAt.Format("2006-01-02")
	}
	return status, nil
}
