// Package reporting is the read-only projection over persisted orders, users
// and products. It never writes and shares no state with the lifecycle
// service beyond the database it reads.
package reporting

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"
)

type OrderTotals struct {
	NumOrders  int             `json:"num_orders"`
	TotalSales decimal.Decimal `json:"total_sales"`
}

type DailyOrders struct {
	Day    string          `json:"day"`
	Orders int             `json:"orders"`
	Sales  decimal.Decimal `json:"sales"`
}

type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

type Summary struct {
	Orders            OrderTotals     `json:"orders"`
	NumUsers          int             `json:"num_users"`
	DailyOrders       []DailyOrders   `json:"daily_orders"`
	ProductCategories []CategoryCount `json:"product_categories"`
}

type Store interface {
	OrderTotals(ctx context.Context) (OrderTotals, error)
	CountUsers(ctx context.Context) (int, error)
	OrdersByDay(ctx context.Context) ([]DailyOrders, error)
	ProductsByCategory(ctx context.Context) ([]CategoryCount, error)
}

type Service struct {
	log   *slog.Logger
	store Store
}

func NewService(log *slog.Logger, store Store) *Service {
	return &Service{log: log, store: store}
}

func (s *Service) Summary(ctx context.Context) (Summary, error) {
	totals, err := s.store.OrderTotals(ctx)
	if err != nil {
		return Summary{}, err
	}
	users, err := s.store.CountUsers(ctx)
	if err != nil {
		return Summary{}, err
	}
	daily, err := s.store.OrdersByDay(ctx)
	if err != nil {
		return Summary{}, err
	}
	categories, err := s.store.ProductsByCategory(ctx)
	if err != nil {
		return Summary{}, err
	}

	return Summary{
		Orders:            totals,
		NumUsers:          users,
		DailyOrders:       daily,
		ProductCategories: categories,
	}, nil
}
