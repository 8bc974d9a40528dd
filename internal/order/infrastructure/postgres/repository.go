package postgres

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/infoshop/orderflow/internal/order/domain"
)

// Repository persists order aggregates. SaveWithOutbox writes the order, its
// line items and the outbox event in one transaction; either the transition
// and its event are both durable or neither is.
type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

func (r *Repository) SaveWithOutbox(ctx context.Context, o domain.Order, eventType string, payload []byte, traceparent string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := saveOrderTx(ctx, tx, o); err != nil {
		return err
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO outbox (aggregate_type, aggregate_id, type, payload, traceparent, status)
		 VALUES ('order', $1, $2, $3, $4, 'pending')`,
		o.ID, eventType, payload, traceparent)
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *Repository) Save(ctx context.Context, o domain.Order) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := saveOrderTx(ctx, tx, o); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func saveOrderTx(ctx context.Context, tx pgx.Tx, o domain.Order) error {
	var txID, payStatus, payerEmail *string
	if o.PaymentDetails != nil {
		txID = &o.PaymentDetails.TransactionID
		payStatus = &o.PaymentDetails.Status
		payerEmail = &o.PaymentDetails.PayerEmail
	}

	_, err := tx.Exec(ctx, `
		INSERT INTO orders (
			id, owner_user_id, payment_method,
			items_price, shipping_price, tax_price, total_price,
			ship_full_name, ship_street, ship_city, ship_postal_code, ship_country,
			payment_state, payment_tx_id, payment_status, payer_email,
			delivery_state, created_at, paid_at, delivered_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)
		ON CONFLICT (id) DO UPDATE SET
			payment_state=$13, payment_tx_id=$14, payment_status=$15, payer_email=$16,
			delivery_state=$17, paid_at=$19, delivered_at=$20`,
		o.ID, o.OwnerUserID, o.PaymentMethod,
		o.Prices.Items, o.Prices.Shipping, o.Prices.Tax, o.Prices.Total,
		o.ShippingAddress.FullName, o.ShippingAddress.Street, o.ShippingAddress.City,
		o.ShippingAddress.PostalCode, o.ShippingAddress.Country,
		string(o.PaymentState), txID, payStatus, payerEmail,
		string(o.DeliveryState), o.CreatedAt, o.PaidAt, o.DeliveredAt)
	if err != nil {
		return err
	}

	// Line items are immutable after creation; the upsert only matters for
	// replays of the creating transaction.
	batch := &pgx.Batch{}
	for _, it := range o.Items {
		batch.Queue(`INSERT INTO order_items (order_id, product_id, name, quantity, unit_price)
			VALUES ($1,$2,$3,$4,$5)
			ON CONFLICT (order_id, product_id) DO NOTHING`,
			o.ID, it.ProductID, it.Name, it.Quantity, it.UnitPrice)
	}
	return tx.SendBatch(ctx, batch).Close()
}

func (r *Repository) Get(ctx context.Context, id string) (domain.Order, error) {
	o, err := r.scanOrder(ctx, r.pool.QueryRow(ctx, selectOrder+` WHERE id=$1`, id))
	if err != nil {
		return domain.Order{}, err
	}
	if err := r.loadItems(ctx, &o); err != nil {
		return domain.Order{}, err
	}
	return o, nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM orders WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

func (r *Repository) FindByOwner(ctx context.Context, userID string) ([]domain.Order, error) {
	return r.findWhere(ctx, ` WHERE owner_user_id=$1 ORDER BY created_at DESC`, userID)
}

func (r *Repository) FindAll(ctx context.Context) ([]domain.Order, error) {
	return r.findWhere(ctx, ` ORDER BY created_at DESC`)
}

const selectOrder = `
	SELECT id, owner_user_id, payment_method,
		items_price, shipping_price, tax_price, total_price,
		ship_full_name, ship_street, ship_city, ship_postal_code, ship_country,
		payment_state, payment_tx_id, payment_status, payer_email,
		delivery_state, created_at, paid_at, delivered_at
	FROM orders`

func (r *Repository) scanOrder(_ context.Context, row pgx.Row) (domain.Order, error) {
	var o domain.Order
	var txID, payStatus, payerEmail *string
	var payState, delState string

	err := row.Scan(
		&o.ID, &o.OwnerUserID, &o.PaymentMethod,
		&o.Prices.Items, &o.Prices.Shipping, &o.Prices.Tax, &o.Prices.Total,
		&o.ShippingAddress.FullName, &o.ShippingAddress.Street, &o.ShippingAddress.City,
		&o.ShippingAddress.PostalCode, &o.ShippingAddress.Country,
		&payState, &txID, &payStatus, &payerEmail,
		&delState, &o.CreatedAt, &o.PaidAt, &o.DeliveredAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	if err != nil {
		return domain.Order{}, err
	}

	o.PaymentState = domain.PaymentState(payState)
	o.DeliveryState = domain.DeliveryState(delState)
	if o.PaymentState == domain.PaymentPaid && txID != nil {
		o.PaymentDetails = &domain.PaymentDetails{
			TransactionID: *txID,
			PayerEmail:    deref(payerEmail),
			Status:        deref(payStatus),
		}
		if o.PaidAt != nil {
			o.PaymentDetails.PaidAt = *o.PaidAt
		}
	}
	return o, nil
}

func (r *Repository) loadItems(ctx context.Context, o *domain.Order) error {
	rows, err := r.pool.Query(ctx,
		`SELECT product_id, name, quantity, unit_price FROM order_items WHERE order_id=$1 ORDER BY product_id`,
		o.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var it domain.LineItem
		if err := rows.Scan(&it.ProductID, &it.Name, &it.Quantity, &it.UnitPrice); err != nil {
			return err
		}
		o.Items = append(o.Items, it)
	}
	return rows.Err()
}

func (r *Repository) findWhere(ctx context.Context, clause string, args ...any) ([]domain.Order, error) {
	rows, err := r.pool.Query(ctx, selectOrder+clause, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		o, err := r.scanOrder(ctx, rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range orders {
		if err := r.loadItems(ctx, &orders[i]); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
