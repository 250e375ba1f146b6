package paymentsrepo

import (
	"context"
	"encoding/json"
	"time"

	"bozor/internal/domain/products"

	"github.com/shopspring/decimal"
)

const ProviderPayme = "payme"

type Payment struct {
	ID        int64          `json:"id"`
	PaymentID string         `json:"payment_id"` // public uuid, also the Payme transaction "id"
	OrderID   int64          `json:"order_id"`
	Provider  string         `json:"provider"`
	Amount    products.Money `json:"amount" swaggertype:"string" example:"25000.00"`
	Status    Status         `json:"status"`
	// Set once the gateway has created its side of the transaction.
	ProviderTransactionID   *string         `json:"provider_transaction_id"`
	ProviderTransactionTime *int64          `json:"provider_transaction_time"` // epoch ms
	ProviderPaymentData     json.RawMessage `json:"provider_payment_data,omitempty" swaggertype:"object"`
	CreatedAt               time.Time       `json:"created_at"`
	UpdatedAt               time.Time       `json:"updated_at"`
}

var hundred = decimal.NewFromInt(100)

// AmountInTiyins converts the amount to minor units (1 UZS = 100 tiyin),
// rounding half away from zero.
func (p *Payment) AmountInTiyins() int64 {
	return ToTiyins(p.Amount.Decimal)
}

func ToTiyins(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}

// TransactionID returns the gateway transaction id or "" when none was stored.
func (p *Payment) TransactionID() string {
	if p.ProviderTransactionID == nil {
		return ""
	}
	return *p.ProviderTransactionID
}

type Store interface {
	Create(ctx context.Context, p *Payment) (*Payment, error)

	GetByPaymentID(ctx context.Context, paymentID string) (*Payment, error)
	// LockByPaymentID reads with FOR UPDATE. Only meaningful inside a tx.
	LockByPaymentID(ctx context.Context, paymentID string) (*Payment, error)
	FirstPendingForOrder(ctx context.Context, orderID int64) (*Payment, error)
	ListByOrder(ctx context.Context, orderID int64, limit, offset int) ([]*Payment, int, error)

	SetProviderTransactionTime(ctx context.Context, id int64, ms int64) error
	SetProviderTransaction(ctx context.Context, id int64, transactionID string, raw any) error
	SetStatus(ctx context.Context, id int64, status Status, raw any) error
}
