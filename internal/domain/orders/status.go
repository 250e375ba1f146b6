package orders

import "fmt"

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusPaid      Status = "PAID"
	StatusFailed    Status = "FAILED"
	StatusShipped   Status = "SHIPPED"
	StatusCanceled  Status = "CANCELED"
	StatusCompleted Status = "COMPLETED"
)

var transitions = map[Status][]Status{
	StatusPending: {StatusPaid, StatusFailed, StatusCanceled},
	StatusFailed:  {StatusPaid, StatusCanceled},
	StatusPaid:    {StatusShipped, StatusCanceled},
	StatusShipped: {StatusCompleted},
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusFailed, StatusShipped, StatusCanceled, StatusCompleted:
		return true
	}
	return false
}

// CanTransitionTo reports whether the order may move from s to next.
// Staying in the same status is always allowed.
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
	return fmt.Sprintf("order status %s cannot change to %s", e.From, e.To)
}

// Transition validates s → next and returns a *TransitionError when illegal.
func (s Status) Transition(next Status) (Status, error) {
	if !next.Valid() || !s.CanTransitionTo(next) {
		return s, &TransitionError{From: s, To: next}
	}
	return next, nil
}
