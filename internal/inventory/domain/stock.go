package domain

import (
	"fmt"
	"time"
)

// ProductStock is the per-product available-quantity counter. It is the only
// piece of state shared between concurrent order creations; every mutation
// goes through the ledger's reserve/release operations and the count never
// drops below zero.
type ProductStock struct {
	ProductID string
	Name      string
	Category  string
	Available int
	UpdatedAt time.Time
}

// Reservation is one product's share of an order reservation.
type Reservation struct {
	ProductID string
	Quantity  int
}

// InsufficientStockError reports the authoritative reservation failure: the
// conditional decrement found fewer units than requested.
type InsufficientStockError struct {
	ProductID string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s (available: %d, requested: %d)",
		e.ProductID, e.Available, e.Requested)
}

// OutOfStockError reports the best-effort pre-check failure during order
// creation. It carries less detail than InsufficientStockError because the
// read it is based on is already stale by the time the caller sees it.
type OutOfStockError struct {
	ProductID string
}

func (e *OutOfStockError) Error() string {
	return fmt.Sprintf("product %s is out of stock", e.ProductID)
}

// UnknownProductError is returned when a reservation names a product the
// catalog has never seen.
type UnknownProductError struct {
	ProductID string
}

func (e *UnknownProductError) Error() string {
	return fmt.Sprintf("unknown product %s", e.ProductID)
}
