package orders

import (
	"context"
	"time"

	"bozor/internal/domain/products"

	"github.com/shopspring/decimal"
)

type Order struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OrderItem is one order_products row joined with the product it points at.
type OrderItem struct {
	ID          int64             `json:"id"`
	OrderID     int64             `json:"order_id"`
	ProductID   int64             `json:"product_id"`
	ProductName string            `json:"product_name"`
	UnitPrice   products.Money    `json:"unit_price" swaggertype:"string"`
	Currency    products.Currency `json:"currency"`
	Quantity    int               `json:"quantity"`
}

// LineTotal is unit price times quantity.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Total sums price × quantity over the items.
func Total(items []OrderItem) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.LineTotal())
	}
	return sum
}

type Store interface {
	GetByID(ctx context.Context, id int64) (*Order, error)
	// LockByID reads the order with FOR UPDATE. Only meaningful inside a tx.
	LockByID(ctx context.Context, id int64) (*Order, error)
	ListItems(ctx context.Context, orderID int64) ([]OrderItem, error)
	UpdateStatus(ctx context.Context, orderID int64, status Status) error
}
