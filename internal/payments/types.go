package payments

import (
	"encoding/json"
	"strconv"
)

// Method names of the Payme merchant JSON-RPC API.
const (
	MethodCheckPerformTransaction = "CheckPerformTransaction"
	MethodCreateTransaction       = "CreateTransaction"
	MethodPerformTransaction      = "PerformTransaction"
	MethodCancelTransaction       = "CancelTransaction"
	MethodCheckTransaction        = "CheckTransaction"
)

// State is the provider-side transaction state returned by Payme.
type State int

const (
	StateCreated              State = 1
	StatePerformed            State = 2
	StateCanceled             State = -1
	StateCanceledAfterPerform State = -2
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StatePerformed:
		return "performed"
	case StateCanceled:
		return "canceled"
	case StateCanceledAfterPerform:
		return "canceled_after_perform"
	default:
		return "unknown(" + strconv.Itoa(int(s)) + ")"
	}
}

// CancelReason is the reason code sent with CancelTransaction.
type CancelReason int

const (
	ReasonReceiverNotFound CancelReason = 1
	ReasonDebitFailed      CancelReason = 2
	ReasonExecutionFailed  CancelReason = 3
	ReasonTimeout          CancelReason = 4
	ReasonRefund           CancelReason = 5
	ReasonUnknown          CancelReason = 10
)

func (r CancelReason) Valid() bool {
	switch r {
	case ReasonReceiverNotFound, ReasonDebitFailed, ReasonExecutionFailed,
		ReasonTimeout, ReasonRefund, ReasonUnknown:
		return true
	}
	return false
}

// Account identifies what is being paid for on the merchant side.
type Account struct {
	OrderID string `json:"order_id"`
}

func OrderAccount(orderID int64) Account {
	return Account{OrderID: strconv.FormatInt(orderID, 10)}
}

type CheckPerformParams struct {
	Amount  int64   `json:"amount"`
	Account Account `json:"account"`
}

type CreateTransactionParams struct {
	ID      string  `json:"id"`
	Time    int64   `json:"time"` // epoch ms
	Amount  int64   `json:"amount"`
	Account Account `json:"account"`
}

type transactionParams struct {
	ID     string        `json:"id"`
	Reason *CancelReason `json:"reason,omitempty"`
}

type CheckPerformResult struct {
	Allow bool            `json:"allow"`
	Raw   json.RawMessage `json:"-"`
}

// TransactionResult covers the result shapes of Create/Perform/Cancel/CheckTransaction.
// Fields a method does not return stay zero.
type TransactionResult struct {
	CreateTime  int64           `json:"create_time"`
	PerformTime int64           `json:"perform_time"`
	CancelTime  int64           `json:"cancel_time"`
	Transaction string          `json:"transaction"`
	State       State           `json:"state"`
	Reason      *int            `json:"reason"`
	Raw         json.RawMessage `json:"-"`
}
