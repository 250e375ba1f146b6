package checkout

import (
	"errors"
	"fmt"

	"bozor/internal/payments"
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrOrderNotPayable   = errors.New("order is not awaiting payment")
	ErrEmptyOrder        = errors.New("order has no items")
	ErrPaymentNotFound   = errors.New("payment not found")
	ErrNotOwner          = errors.New("payment belongs to another user")
	ErrNotAllowed        = errors.New("Payment not allowed by Payme")
	ErrNoTransaction     = errors.New("payment has no gateway transaction yet")
	ErrIllegalTransition = errors.New("illegal payment status transition")
	ErrInvalidReason     = errors.New("invalid cancel reason")
)

// GatewayCallError marks a failed call to the payment provider. Every such
// failure is reported to the client the same way, whatever its cause.
type GatewayCallError struct {
	Method string
	Err    error
}

func (e *GatewayCallError) Error() string { return fmt.Sprintf("%s: %v", e.Method, e.Err) }

func (e *GatewayCallError) Unwrap() error { return e.Err }

// Message is what the client sees: the provider's own message when it sent one.
func (e *GatewayCallError) Message() string {
	var ge *payments.GatewayError
	if errors.As(e.Err, &ge) {
		return ge.Message
	}
	return e.Err.Error()
}
