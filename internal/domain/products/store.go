package products

import (
	"context"
	"fmt"

	"bozor/internal/infra/dbx"
)

type Repository struct{ q dbx.Querier }

func NewRepository(q dbx.Querier) *Repository { return &Repository{q: q} }

// List returns every product, newest last. The catalog is small and the
// endpoint is intentionally unpaginated.
func (r *Repository) List(ctx context.Context) ([]*Product, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, name, price::text, currency, created_at, updated_at
		FROM products
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	out := make([]*Product, 0)
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Currency, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out = append(out, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return out, nil
}
