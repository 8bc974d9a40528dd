package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/infoshop/orderflow/internal/reporting"
)

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) OrderTotals(ctx context.Context) (reporting.OrderTotals, error) {
	var t reporting.OrderTotals
	err := s.pool.QueryRow(ctx,
		`SELECT count(*), coalesce(sum(total_price), 0) FROM orders`,
	).Scan(&t.NumOrders, &t.TotalSales)
	if err != nil {
		return reporting.OrderTotals{}, err
	}
	return t, nil
}

func (s *Store) CountUsers(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM users`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *Store) OrdersByDay(ctx context.Context) ([]reporting.DailyOrders, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT to_char(created_at, 'YYYY-MM-DD') AS day, count(*), coalesce(sum(total_price), 0)
		FROM orders
		GROUP BY day
		ORDER BY day`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var daily []reporting.DailyOrders
	for rows.Next() {
		var d reporting.DailyOrders
		var sales decimal.Decimal
		if err := rows.Scan(&d.Day, &d.Orders, &sales); err != nil {
			return nil, err
		}
		d.Sales = sales
		daily = append(daily, d)
	}
	return daily, rows.Err()
}

func (s *Store) ProductsByCategory(ctx context.Context) ([]reporting.CategoryCount, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT category, count(*) FROM products GROUP BY category ORDER BY category`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []reporting.CategoryCount
	for rows.Next() {
		var c reporting.CategoryCount
		if err := rows.Scan(&c.Category, &c.Count); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}
