package storage

import (
	"context"
	"errors"
	"fmt"

	"bozor/internal/domain/orders"
	"bozor/internal/domain/paymentsrepo"
	"bozor/internal/domain/products"
	"bozor/internal/outbox"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Container struct {
	pool     *pgxpool.Pool
	Products products.Store
	Sales    Sales
	Outbox   *outbox.Repository
}

type Sales struct {
	Orders   orders.Store
	Payments paymentsrepo.Store
	PayLogs  paymentsrepo.LogsStore
}

func NewContainer(db *pgxpool.Pool) *Container {
	return &Container{
		pool:     db,
		Products: products.NewRepository(db),
		Sales: Sales{
			Orders:   orders.NewRepository(db),
			Payments: paymentsrepo.NewRepository(db),
			PayLogs:  paymentsrepo.NewLogsRepository(db),
		},
		Outbox: outbox.NewRepository(db),
	}
}

// SalesTx is a tx-scoped set of repos for one atomic unit of work.
type SalesTx struct {
	Orders   orders.Store
	Payments paymentsrepo.Store
	PayLogs  paymentsrepo.LogsStore
	Outbox   outbox.Writer
}

// WithSalesTx runs fn in a transaction and commits when fn returns nil.
func (c *Container) WithSalesTx(ctx context.Context, fn func(s *SalesTx) error) error {
	if c.pool == nil {
		return errors.New("storage container pool is nil")
	}

	tx, err := c.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx) // no-op after commit
	}()

	s := &SalesTx{
		Orders:   orders.NewRepository(tx),
		Payments: paymentsrepo.NewRepository(tx),
		PayLogs:  paymentsrepo.NewLogsRepository(tx),
		Outbox:   outbox.NewRepository(tx),
	}

	if err := fn(s); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Stat exposes pool counters for expvar.
func (c *Container) Stat() *pgxpool.Stat {
	if c.pool == nil {
		return nil
	}
	return c.pool.Stat()
}
