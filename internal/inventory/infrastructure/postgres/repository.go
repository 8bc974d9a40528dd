package postgres

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/infoshop/orderflow/internal/inventory/domain"
)

// Repository keeps product counters in the products table. The reserve path
// never reads-then-writes: each decrement is a conditional UPDATE guarded by
// the current count, so two concurrent reservations serialize on the row and
// the loser sees the post-commit value.
type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

func (r *Repository) Get(ctx context.Context, productID string) (domain.ProductStock, error) {
	var s domain.ProductStock
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, category, count_in_stock, updated_at FROM products WHERE id=$1`,
		productID,
	).Scan(&s.ProductID, &s.Name, &s.Category, &s.Available, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ProductStock{}, &domain.UnknownProductError{ProductID: productID}
	}
	if err != nil {
		return domain.ProductStock{}, err
	}
	return s, nil
}

func (r *Repository) ReserveAll(ctx context.Context, reservations []domain.Reservation) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	for _, res := range reservations {
		ct, err := tx.Exec(ctx,
			`UPDATE products SET count_in_stock = count_in_stock - $2, updated_at = now()
			 WHERE id = $1 AND count_in_stock >= $2`,
			res.ProductID, res.Quantity)
		if err != nil {
			return err
		}
		if ct.RowsAffected() == 0 {
			// Either the product is unknown or the guard failed. Read the
			// counter outside the guard for the error detail; the rollback
			// undoes every decrement already applied in this transaction.
			var available int
			err := tx.QueryRow(ctx, `SELECT count_in_stock FROM products WHERE id=$1`, res.ProductID).Scan(&available)
			if errors.Is(err, pgx.ErrNoRows) {
				return &domain.UnknownProductError{ProductID: res.ProductID}
			}
			if err != nil {
				return err
			}
			return &domain.InsufficientStockError{
				ProductID: res.ProductID,
				Available: available,
				Requested: res.Quantity,
			}
		}
	}
	return tx.Commit(ctx)
}

func (r *Repository) ReleaseAll(ctx context.Context, reservations []domain.Reservation) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	for _, res := range reservations {
		ct, err := tx.Exec(ctx,
			`UPDATE products SET count_in_stock = count_in_stock + $2, updated_at = now() WHERE id = $1`,
			res.ProductID, res.Quantity)
		if err != nil {
			return err
		}
		if ct.RowsAffected() == 0 {
			return &domain.UnknownProductError{ProductID: res.ProductID}
		}
	}
	return tx.Commit(ctx)
}
