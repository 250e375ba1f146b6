package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"bozor/internal/infra/dbx"
)

type Repository struct{ q dbx.Querier }

func NewRepository(q dbx.Querier) *Repository { return &Repository{q: q} }

func (r *Repository) Enqueue(ctx context.Context, e Event) error {
	headers := e.Headers
	if headers == nil {
		headers = map[string]string{}
	}
	hb, err := json.Marshal(headers)
	if err != nil {
		return fmt.Errorf("marshal outbox headers: %w", err)
	}
	_, err = r.q.Exec(ctx, `
		INSERT INTO outbox (aggregate_type, aggregate_id, type, payload, headers, status)
		VALUES ($1, $2, $3, $4, $5, 'pending')
	`, e.AggregateType, e.AggregateID, e.Type, e.Payload, hb)
	if err != nil {
		return fmt.Errorf("enqueue outbox event: %w", err)
	}
	return nil
}

// LockBatch claims pending events, and in-progress ones whose lease expired,
// for relayID. SKIP LOCKED lets several relays share the table.
func (r *Repository) LockBatch(ctx context.Context, relayID string, batchSize int, lease time.Duration) ([]Event, error) {
	rows, err := r.q.Query(ctx, `
		UPDATE outbox o
		   SET status='in_progress',
		       locked_by=$1,
		       locked_until=now() + make_interval(secs => $3)
		 WHERE o.id IN (
		       SELECT id FROM outbox
		        WHERE status='pending'
		           OR (status='in_progress' AND locked_until < now())
		        ORDER BY id
		        LIMIT $2
		        FOR UPDATE SKIP LOCKED)
		RETURNING o.id, o.aggregate_type, o.aggregate_id, o.type, o.payload, o.headers,
		          o.created_at, o.status, o.retry_count, o.last_error
	`, relayID, batchSize, lease.Seconds())
	if err != nil {
		return nil, fmt.Errorf("lock outbox batch: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var (
			e  Event
			hb []byte
		)
		if err := rows.Scan(&e.ID, &e.AggregateType, &e.AggregateID, &e.Type, &e.Payload, &hb,
			&e.CreatedAt, &e.Status, &e.RetryCount, &e.LastError); err != nil {
			return nil, fmt.Errorf("scan outbox event: %w", err)
		}
		if len(hb) > 0 {
			_ = json.Unmarshal(hb, &e.Headers)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return out, nil
}

func (r *Repository) MarkSent(ctx context.Context, ids []int64) error {
	_, err := r.q.Exec(ctx, `
		UPDATE outbox SET status='sent', locked_by=NULL, locked_until=NULL
		 WHERE id = ANY($1)
	`, ids)
	if err != nil {
		return fmt.Errorf("mark outbox sent: %w", err)
	}
	return nil
}

// MarkFailed puts the event back to pending until it has failed maxRetries times.
func (r *Repository) MarkFailed(ctx context.Context, id int64, errMsg string, maxRetries int) error {
	_, err := r.q.Exec(ctx, `
		UPDATE outbox
		   SET retry_count = retry_count + 1,
		       last_error = $2,
		       status = CASE WHEN retry_count + 1 >= $3 THEN 'failed' ELSE 'pending' END,
		       locked_by = NULL,
		       locked_until = NULL
		 WHERE id=$1
	`, id, errMsg, maxRetries)
	if err != nil {
		return fmt.Errorf("mark outbox failed: %w", err)
	}
	return nil
}
