package memory

import (
	"context"
	"sync"
	"time"

	"github.com/infoshop/orderflow/internal/inventory/domain"
)

// Store is an in-memory StockStore with the same all-or-nothing contract as
// the postgres implementation. A single mutex is the serialization point, so
// check-and-decrement is indivisible per call. Used by unit tests and local
// runs without a database.
type Store struct {
	mu     sync.Mutex
	stocks map[string]*domain.ProductStock
}

func NewStore() *Store {
	return &Store{stocks: make(map[string]*domain.ProductStock)}
}

// Put sets the counter for a product, creating it if needed.
func (s *Store) Put(stock domain.ProductStock) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := stock
	s.stocks[stock.ProductID] = &cp
}

func (s *Store) Get(_ context.Context, productID string) (domain.ProductStock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stock, ok := s.stocks[productID]
	if !ok {
		return domain.ProductStock{}, &domain.UnknownProductError{ProductID: productID}
	}
	return *stock, nil
}

func (s *Store) ReserveAll(_ context.Context, reservations []domain.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Sum per product first: a request naming the same product twice must be
	// checked against the combined quantity, not entry by entry.
	totals := make(map[string]int, len(reservations))
	for _, r := range reservations {
		totals[r.ProductID] += r.Quantity
	}

	// Validate everything before mutating anything.
	for _, r := range reservations {
		stock, ok := s.stocks[r.ProductID]
		if !ok {
			return &domain.UnknownProductError{ProductID: r.ProductID}
		}
		if stock.Available < totals[r.ProductID] {
			return &domain.InsufficientStockError{
				ProductID: r.ProductID,
				Available: stock.Available,
				Requested: totals[r.ProductID],
			}
		}
	}
	for id, qty := range totals {
		s.stocks[id].Available -= qty
		s.stocks[id].UpdatedAt = time.Now().UTC()
	}
	return nil
}

func (s *Store) ReleaseAll(_ context.Context, reservations []domain.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range reservations {
		if _, ok := s.stocks[r.ProductID]; !ok {
			return &domain.UnknownProductError{ProductID: r.ProductID}
		}
	}
	for _, r := range reservations {
		s.stocks[r.ProductID].Available += r.Quantity
		s.stocks[r.ProductID].UpdatedAt = time.Now().UTC()
	}
	return nil
}
