package paymentsrepo

import (
	"context"
	"errors"
	"fmt"

	"bozor/internal/infra/dbx"

	"github.com/jackc/pgx/v5"
)

const paymentColumns = `
	id, payment_id::text, order_id, provider, amount::text, status,
	provider_transaction_id, provider_transaction_time, provider_payment_data,
	created_at, updated_at`

type Repository struct{ q dbx.Querier }

func NewRepository(q dbx.Querier) *Repository { return &Repository{q: q} }

func scanPayment(row pgx.Row, p *Payment, extra ...any) error {
	dest := []any{
		&p.ID, &p.PaymentID, &p.OrderID, &p.Provider, &p.Amount, &p.Status,
		&p.ProviderTransactionID, &p.ProviderTransactionTime, &p.ProviderPaymentData,
		&p.CreatedAt, &p.UpdatedAt,
	}
	return row.Scan(append(dest, extra...)...)
}

func (r *Repository) Create(ctx context.Context, p *Payment) (*Payment, error) {
	if p.Status == "" {
		p.Status = StatusPending
	}
	if p.Provider == "" {
		p.Provider = ProviderPayme
	}
	if err := r.q.QueryRow(ctx, `
		INSERT INTO payments (payment_id, order_id, provider, amount, status)
		VALUES ($1::uuid, $2, $3, $4::numeric, $5)
		RETURNING id, created_at, updated_at
	`, p.PaymentID, p.OrderID, p.Provider, p.Amount.String(), p.Status).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, fmt.Errorf("create payment: %w", err)
	}
	return p, nil
}

func (r *Repository) getOne(ctx context.Context, what, query string, args ...any) (*Payment, error) {
	var p Payment
	if err := scanPayment(r.q.QueryRow(ctx, query, args...), &p); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", what, err)
	}
	return &p, nil
}

func (r *Repository) GetByPaymentID(ctx context.Context, paymentID string) (*Payment, error) {
	return r.getOne(ctx, "get payment by payment_id",
		`SELECT `+paymentColumns+` FROM payments WHERE payment_id::text=$1`, paymentID)
}

func (r *Repository) LockByPaymentID(ctx context.Context, paymentID string) (*Payment, error) {
	return r.getOne(ctx, "lock payment",
		`SELECT `+paymentColumns+` FROM payments WHERE payment_id::text=$1 FOR UPDATE`, paymentID)
}

// FirstPendingForOrder mirrors the "first pending payment" lookup; callers
// hold the order row lock so the result cannot go stale before they act on it.
func (r *Repository) FirstPendingForOrder(ctx context.Context, orderID int64) (*Payment, error) {
	return r.getOne(ctx, "first pending payment", `
		SELECT `+paymentColumns+`
		FROM payments
		WHERE order_id=$1 AND status=$2
		ORDER BY id ASC
		LIMIT 1`, orderID, StatusPending)
}

// ListByOrder returns one page of an order's payments plus the total count.
func (r *Repository) ListByOrder(ctx context.Context, orderID int64, limit, offset int) ([]*Payment, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.q.Query(ctx, `
		SELECT `+paymentColumns+`, COUNT(*) OVER() AS total_count
		FROM payments
		WHERE order_id=$1
		ORDER BY id DESC
		LIMIT $2 OFFSET $3
	`, orderID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	var (
		out   []*Payment
		total int
	)
	for rows.Next() {
		var (
			p Payment
			t int
		)
		if err := scanPayment(rows, &p, &t); err != nil {
			return nil, 0, fmt.Errorf("scan payment: %w", err)
		}
		if total == 0 {
			total = t
		}
		out = append(out, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows error: %w", err)
	}
	return out, total, nil
}

func (r *Repository) SetProviderTransactionTime(ctx context.Context, id int64, ms int64) error {
	_, err := r.q.Exec(ctx, `
		UPDATE payments SET provider_transaction_time=$2, updated_at=now() WHERE id=$1
	`, id, ms)
	if err != nil {
		return fmt.Errorf("set provider transaction time: %w", err)
	}
	return nil
}

func (r *Repository) SetProviderTransaction(ctx context.Context, id int64, transactionID string, raw any) error {
	jb, err := marshalPayload(raw)
	if err != nil {
		return fmt.Errorf("marshal provider data: %w", err)
	}
	_, err = r.q.Exec(ctx, `
		UPDATE payments
		   SET provider_transaction_id=$2, provider_payment_data=$3, updated_at=now()
		 WHERE id=$1
	`, id, transactionID, jb)
	if err != nil {
		return fmt.Errorf("set provider transaction: %w", err)
	}
	return nil
}

// SetStatus writes the status and, when raw is non-nil, the latest gateway payload.
func (r *Repository) SetStatus(ctx context.Context, id int64, status Status, raw any) error {
	jb, err := marshalPayload(raw)
	if err != nil {
		return fmt.Errorf("marshal provider data: %w", err)
	}
	_, err = r.q.Exec(ctx, `
		UPDATE payments
		   SET status=$2,
		       provider_payment_data=COALESCE($3, provider_payment_data),
		       updated_at=now()
		 WHERE id=$1
	`, id, status, jb)
	if err != nil {
		return fmt.Errorf("set payment status: %w", err)
	}
	return nil
}
