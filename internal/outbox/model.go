package outbox

import (
	"context"
	"time"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusSent       Status = "sent"
	StatusFailed     Status = "failed"
)

const (
	AggregatePayment         = "payment"
	TypePaymentStatusChanged = "payment.status_changed"
)

type Event struct {
	ID            int64
	AggregateType string
	AggregateID   string
	Type          string
	Payload       []byte
	Headers       map[string]string
	CreatedAt     time.Time
	Status        Status
	RetryCount    int
	LastError     *string
}

// Writer appends events inside the caller's transaction.
type Writer interface {
	Enqueue(ctx context.Context, e Event) error
}

// PaymentStatusChanged is the payload of TypePaymentStatusChanged.
type PaymentStatusChanged struct {
	PaymentID     string `json:"payment_id"`
	OrderID       int64  `json:"order_id"`
	From          string `json:"from"`
	To            string `json:"to"`
	GatewayState  int    `json:"gateway_state"`
	TransactionID string `json:"transaction_id,omitempty"`
	AmountTiyins  int64  `json:"amount_tiyins"`
	OccurredAt    int64  `json:"occurred_at"` // epoch ms
}
