// Package testenv starts throwaway backing services for integration tests.
package testenv

import (
	"context"
	"testing"
	"time"

	"bozor/internal/db"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Postgres runs a postgres container with every migration applied and
// returns a pool on it. It skips the test under -short or without Docker.
func Postgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("postgres container skipped in -short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pgC, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("bozor"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = pgC.Terminate(context.Background())
	})

	dsn, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	_, err = db.Migrate(dsn)
	require.NoError(t, err)

	pool, err := db.New(dsn, 20, "1m")
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

// SeedOrder inserts a product and a PENDING order holding quantity of it.
func SeedOrder(t *testing.T, pool *pgxpool.Pool, userID int64, price string, quantity int) int64 {
	t.Helper()
	ctx := context.Background()

	var productID, orderID int64
	err := pool.QueryRow(ctx, `
		INSERT INTO products (name, price, currency) VALUES ('Green tea', $1::numeric, 'UZS')
		RETURNING id`, price).Scan(&productID)
	require.NoError(t, err)

	err = pool.QueryRow(ctx, `
		INSERT INTO orders (user_id) VALUES ($1) RETURNING id`, userID).Scan(&orderID)
	require.NoError(t, err)

	_, err = pool.Exec(ctx, `
		INSERT INTO order_products (order_id, product_id, quantity) VALUES ($1, $2, $3)`,
		orderID, productID, quantity)
	require.NoError(t, err)
	return orderID
}
