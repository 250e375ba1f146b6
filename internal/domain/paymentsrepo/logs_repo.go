package paymentsrepo

import (
	"context"
	"encoding/json"
	"fmt"

	"bozor/internal/infra/dbx"
)

type LogsRepository struct{ q dbx.Querier }

func NewLogsRepository(q dbx.Querier) *LogsRepository {
	return &LogsRepository{q: q}
}

func (r *LogsRepository) InsertPaymentLog(ctx context.Context, paymentID int64, logType string, payload any) error {
	jb, err := marshalPayload(payload)
	if err != nil {
		return fmt.Errorf("marshal payment_log payload: %w", err)
	}

	_, err = r.q.Exec(ctx, `
		INSERT INTO payment_logs (payment_id, log_type, payload)
		VALUES ($1, $2, $3)
	`, paymentID, logType, jb)
	if err != nil {
		return fmt.Errorf("insert payment_log: %w", err)
	}
	return nil
}

// marshalPayload keeps raw JSON as-is and encodes everything else.
func marshalPayload(v any) ([]byte, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case json.RawMessage:
		if len(t) == 0 {
			return nil, nil
		}
		return t, nil
	case []byte:
		if len(t) == 0 {
			return nil, nil
		}
		return t, nil
	default:
		return json.Marshal(v)
	}
}
