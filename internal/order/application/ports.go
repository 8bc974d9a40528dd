package application

import (
	"context"

	invdomain "github.com/infoshop/orderflow/internal/inventory/domain"
	"github.com/infoshop/orderflow/internal/order/domain"
)

// OrderRepository persists aggregates. SaveWithOutbox commits the order and
// the given event in one transaction, which is what makes "persist
// happens-before notify" hold: the event row exists iff the transition is
// durable. Save is the same write without an event, used by transitions that
// notify nobody.
type OrderRepository interface {
	SaveWithOutbox(ctx context.Context, o domain.Order, eventType string, payload []byte, traceparent string) error
	Save(ctx context.Context, o domain.Order) error
	Get(ctx context.Context, id string) (domain.Order, error)
	Delete(ctx context.Context, id string) error
	FindByOwner(ctx context.Context, userID string) ([]domain.Order, error)
	FindAll(ctx context.Context) ([]domain.Order, error)
}

// Ledger is the slice of the inventory ledger the lifecycle needs.
type Ledger interface {
	Available(ctx context.Context, productID string) (int, error)
	Reserve(ctx context.Context, reservations []invdomain.Reservation) error
	Release(ctx context.Context, reservations []invdomain.Reservation) error
}
