package application

import (
	"context"

	"github.com/infoshop/orderflow/internal/inventory/domain"
)

// StockStore is the persistence port for product counters. ReserveAll must be
// atomic for the whole slice: either every product's counter is decremented,
// or none are and a *domain.InsufficientStockError comes back. The per-product
// check-and-decrement must itself be a single indivisible step so concurrent
// reservations can never jointly oversubscribe a counter.
type StockStore interface {
	Get(ctx context.Context, productID string) (domain.ProductStock, error)
	ReserveAll(ctx context.Context, reservations []domain.Reservation) error
	ReleaseAll(ctx context.Context, reservations []domain.Reservation) error
}
