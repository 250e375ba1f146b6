package payments

import "context"

// Gateway is the merchant-side view of a Payme-compatible provider.
type Gateway interface {
	CheckPerformTransaction(ctx context.Context, p CheckPerformParams) (CheckPerformResult, error)
	CreateTransaction(ctx context.Context, p CreateTransactionParams) (TransactionResult, error)
	PerformTransaction(ctx context.Context, transactionID string) (TransactionResult, error)
	CancelTransaction(ctx context.Context, transactionID string, reason CancelReason) (TransactionResult, error)
	CheckTransaction(ctx context.Context, transactionID string) (TransactionResult, error)
}
