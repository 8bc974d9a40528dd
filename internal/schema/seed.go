package schema

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type seedProduct struct {
	id       string
	name     string
	category string
	price    string
	stock    int
}

var demoProducts = []seedProduct{
	{"prod-vase", "Ceramic vase", "Pottery", "40.00", 25},
	{"prod-rug", "Kilim rug", "Textiles", "200.00", 6},
	{"prod-print", "Wall print", "Art", "20.00", 40},
	{"prod-bowl", "Olive wood bowl", "Kitchen", "35.00", 18},
}

// SeedDemo loads a small demo catalog and an admin account for local runs.
// Existing rows are left alone, so reruns are harmless.
func SeedDemo(ctx context.Context, pool *pgxpool.Pool) error {
	for _, p := range demoProducts {
		_, err := pool.Exec(ctx,
			`INSERT INTO products (id, name, category, price, count_in_stock)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (id) DO NOTHING`,
			p.id, p.name, p.category, p.price, p.stock)
		if err != nil {
			return err
		}
	}
	_, err := pool.Exec(ctx,
		`INSERT INTO users (id, name, email, is_admin)
		 VALUES ('admin', 'Admin', 'admin@example.com', TRUE)
		 ON CONFLICT (id) DO NOTHING`)
	return err
}
