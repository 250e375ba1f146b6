package orders

import (
	"context"
	"errors"
	"fmt"

	"bozor/internal/infra/dbx"

	"github.com/jackc/pgx/v5"
)

type Repository struct {
	q dbx.Querier
}

func NewRepository(q dbx.Querier) *Repository {
	return &Repository{q: q}
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*Order, error) {
	return r.get(ctx, `
		SELECT id, user_id, status, created_at, updated_at
		FROM orders WHERE id=$1`, id)
}

// LockByID takes a row lock on the order. Concurrent checkouts for the same
// order queue up here, which keeps find-or-create of the pending payment atomic.
func (r *Repository) LockByID(ctx context.Context, id int64) (*Order, error) {
	return r.get(ctx, `
		SELECT id, user_id, status, created_at, updated_at
		FROM orders WHERE id=$1
		FOR UPDATE`, id)
}

func (r *Repository) get(ctx context.Context, query string, id int64) (*Order, error) {
	var o Order
	err := r.q.QueryRow(ctx, query, id).Scan(&o.ID, &o.UserID, &o.Status, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	return &o, nil
}

func (r *Repository) ListItems(ctx context.Context, orderID int64) ([]OrderItem, error) {
	rows, err := r.q.Query(ctx, `
		SELECT op.id, op.order_id, op.product_id, p.name, p.price::text, p.currency, op.quantity
		FROM order_products op
		JOIN products p ON p.id = op.product_id
		WHERE op.order_id = $1
		ORDER BY op.id ASC
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	defer rows.Close()

	var items []OrderItem
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName,
			&it.UnitPrice, &it.Currency, &it.Quantity); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return items, nil
}

func (r *Repository) UpdateStatus(ctx context.Context, orderID int64, status Status) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE orders SET status=$2, updated_at=now() WHERE id=$1
	`, orderID, status)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update order status: order %d not found", orderID)
	}
	return nil
}
