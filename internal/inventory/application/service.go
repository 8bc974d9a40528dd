package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/infoshop/orderflow/internal/inventory/domain"
)

// Ledger exposes the inventory operations the order lifecycle depends on.
// Reservation failures are returned immediately, never retried here.
type Ledger struct {
	log   *slog.Logger
	store StockStore
}

func NewLedger(log *slog.Logger, store StockStore) *Ledger {
	return &Ledger{log: log, store: store}
}

// Available reads the current counter for one product. The value is only a
// snapshot; Reserve is the authority.
func (l *Ledger) Available(ctx context.Context, productID string) (int, error) {
	stock, err := l.store.Get(ctx, productID)
	if err != nil {
		return 0, err
	}
	return stock.Available, nil
}

// Reserve commits the whole reservation or none of it.
func (l *Ledger) Reserve(ctx context.Context, reservations []domain.Reservation) error {
	for _, r := range reservations {
		if r.Quantity <= 0 {
			return fmt.Errorf("reservation for product %s has non-positive quantity %d", r.ProductID, r.Quantity)
		}
	}
	if err := l.store.ReserveAll(ctx, reservations); err != nil {
		return err
	}
	l.log.Debug("stock reserved", "products", len(reservations))
	return nil
}

// Release returns units to the counters. Used only for explicit
// compensations; the base lifecycle never calls it.
func (l *Ledger) Release(ctx context.Context, reservations []domain.Reservation) error {
	if err := l.store.ReleaseAll(ctx, reservations); err != nil {
		return err
	}
	l.log.Info("stock released", "products", len(reservations))
	return nil
}
