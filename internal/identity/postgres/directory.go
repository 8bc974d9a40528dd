package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/infoshop/orderflow/internal/identity"
)

// Directory reads user contact identities from the users table.
type Directory struct {
	pool *pgxpool.Pool
}

func NewDirectory(pool *pgxpool.Pool) *Directory {
	return &Directory{pool: pool}
}

func (d *Directory) Contact(ctx context.Context, userID string) (identity.Contact, error) {
	var c identity.Contact
	err := d.pool.QueryRow(ctx,
		`SELECT id, name, email FROM users WHERE id=$1`, userID,
	).Scan(&c.UserID, &c.Name, &c.Email)
	if errors.Is(err, pgx.ErrNoRows) {
		return identity.Contact{}, fmt.Errorf("unknown user %s", userID)
	}
	if err != nil {
		return identity.Contact{}, err
	}
	return c, nil
}
