package paymentsrepo

import "fmt"

type Status string

const (
	StatusPending  Status = "PENDING"
	StatusPaid     Status = "PAID"
	StatusFailed   Status = "FAILED"
	StatusCanceled Status = "CANCELED"
	StatusRefunded Status = "REFUNDED"
)

var transitions = map[Status][]Status{
	StatusPending: {StatusPaid, StatusFailed, StatusCanceled, StatusRefunded},
	StatusPaid:    {StatusRefunded, StatusCanceled},
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusFailed, StatusCanceled, StatusRefunded:
		return true
	}
	return false
}

// CanTransitionTo reports whether a payment may move from s to next.
// Staying put is allowed so replays of the same gateway state are no-ops.
func (s Status) CanTransitionTo(next Status) bool {
	if s == next {
		return true
	}
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type TransitionError struct {
	From, To Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("payment status %s cannot change to %s", e.From, e.To)
}

func (s Status) Transition(next Status) (Status, error) {
	if !next.Valid() || !s.CanTransitionTo(next) {
		return s, &TransitionError{From: s, To: next}
	}
	return next, nil
}
