package checkout

import (
	"bozor/internal/domain/paymentsrepo"
	"bozor/internal/payments"
)

// StatusForState maps a gateway transaction state onto the local payment
// status. ok is false when the state does not move the payment (state 1 and
// anything unrecognised).
func StatusForState(state payments.State) (status paymentsrepo.Status, ok bool) {
	switch state {
	case payments.StatePerformed:
		return paymentsrepo.StatusPaid, true
	case payments.StateCanceled:
		return paymentsrepo.StatusCanceled, true
	case payments.StateCanceledAfterPerform:
		return paymentsrepo.StatusRefunded, true
	default:
		return "", false
	}
}
