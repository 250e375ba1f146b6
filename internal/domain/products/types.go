package products

import (
	"context"
	"time"
)

type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyUZS Currency = "UZS"
)

type Product struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Price     Money     `json:"price" swaggertype:"string" example:"12500.00"`
	Currency  Currency  `json:"currency"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store is the read side of the catalog. Writes happen outside this service.
type Store interface {
	List(ctx context.Context) ([]*Product, error)
}
