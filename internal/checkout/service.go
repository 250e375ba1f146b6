package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"bozor/internal/domain/orders"
	"bozor/internal/domain/paymentsrepo"
	"bozor/internal/domain/products"
	"bozor/internal/domain/storage"
	"bozor/internal/outbox"
	"bozor/internal/payments"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UnitOfWork runs fn inside one database transaction.
type UnitOfWork interface {
	WithSalesTx(ctx context.Context, fn func(s *storage.SalesTx) error) error
}

// Gateways resolves a provider name to its client.
type Gateways interface {
	Gateway(name string) (payments.Gateway, error)
}

type Settings struct {
	MerchantID  string
	CheckoutURL string
	// BaseURL is where this service is reachable by the payer's browser;
	// the cancel page hangs off it.
	BaseURL  string
	Lang     string
	Provider string
}

type Service struct {
	uow      UnitOfWork
	gateways Gateways
	settings Settings
	log      *zap.SugaredLogger
	now      func() time.Time
	newID    func() string
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithIDGenerator(gen func() string) Option {
	return func(s *Service) { s.newID = gen }
}

func NewService(uow UnitOfWork, gateways Gateways, settings Settings, logger *zap.SugaredLogger, opts ...Option) *Service {
	if settings.Provider == "" {
		settings.Provider = paymentsrepo.ProviderPayme
	}
	s := &Service{
		uow:      uow,
		gateways: gateways,
		settings: settings,
		log:      logger,
		now:      time.Now,
		newID:    func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type CheckoutView struct {
	Order      *orders.Order         `json:"order"`
	Items      []orders.OrderItem    `json:"items"`
	Payment    *paymentsrepo.Payment `json:"payment"`
	MerchantID string                `json:"payme_merchant_id"`
}

type InitResult struct {
	PaymentID     string `json:"payment_id"`
	TransactionID string `json:"transaction_id"`
	RedirectURL   string `json:"redirect_url"`
}

type StatusResult struct {
	PaymentID   string              `json:"payment_id"`
	Status      paymentsrepo.Status `json:"status"`
	State       payments.State      `json:"state"`
	PaymentData json.RawMessage     `json:"payment_data" swaggertype:"object"`
}

// Checkout returns the order with its single pending payment, creating the
// payment on first visit.
func (s *Service) Checkout(ctx context.Context, userID, orderID int64) (*CheckoutView, error) {
	var view CheckoutView
	err := s.uow.WithSalesTx(ctx, func(tx *storage.SalesTx) error {
		order, items, payment, err := s.ensurePending(ctx, tx, userID, orderID)
		if err != nil {
			return err
		}
		view = CheckoutView{Order: order, Items: items, Payment: payment, MerchantID: s.settings.MerchantID}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// ensurePending locks the order row so concurrent checkouts of the same order
// serialize and agree on one pending payment.
func (s *Service) ensurePending(ctx context.Context, tx *storage.SalesTx, userID, orderID int64) (*orders.Order, []orders.OrderItem, *paymentsrepo.Payment, error) {
	order, err := tx.Orders.LockByID(ctx, orderID)
	if err != nil {
		return nil, nil, nil, err
	}
	if order == nil || order.UserID != userID {
		return nil, nil, nil, ErrOrderNotFound
	}

	items, err := tx.Orders.ListItems(ctx, orderID)
	if err != nil {
		return nil, nil, nil, err
	}

	payment, err := tx.Payments.FirstPendingForOrder(ctx, orderID)
	if err != nil {
		return nil, nil, nil, err
	}
	if payment != nil {
		return order, items, payment, nil
	}

	if order.Status == orders.StatusPaid || !order.Status.CanTransitionTo(orders.StatusPaid) {
		return nil, nil, nil, ErrOrderNotPayable
	}
	if len(items) == 0 {
		return nil, nil, nil, ErrEmptyOrder
	}

	payment, err = tx.Payments.Create(ctx, &paymentsrepo.Payment{
		PaymentID: s.newID(),
		OrderID:   orderID,
		Provider:  s.settings.Provider,
		Amount:    products.NewMoney(orders.Total(items)),
		Status:    paymentsrepo.StatusPending,
	})
	if err != nil {
		return nil, nil, nil, err
	}
	s.log.Infow("payment created", "payment_id", payment.PaymentID, "order_id", orderID, "amount", payment.Amount.String())
	return order, items, payment, nil
}

// InitPayme asks Payme to allow and create a transaction for the order's
// pending payment and returns the hosted checkout URL.
func (s *Service) InitPayme(ctx context.Context, userID, orderID int64) (*InitResult, error) {
	var payment *paymentsrepo.Payment
	err := s.uow.WithSalesTx(ctx, func(tx *storage.SalesTx) error {
		var err error
		_, _, payment, err = s.ensurePending(ctx, tx, userID, orderID)
		return err
	})
	if err != nil {
		return nil, err
	}

	gw, err := s.gateways.Gateway(payment.Provider)
	if err != nil {
		return nil, err
	}

	amount := payment.AmountInTiyins()
	account := payments.OrderAccount(orderID)

	check, err := gw.CheckPerformTransaction(ctx, payments.CheckPerformParams{Amount: amount, Account: account})
	if err != nil {
		return nil, s.gatewayFailure(ctx, payment, payments.MethodCheckPerformTransaction, err)
	}
	if !check.Allow {
		s.log.Warnw("payme refused transaction", "payment_id", payment.PaymentID, "order_id", orderID)
		return nil, ErrNotAllowed
	}

	createParams := payments.CreateTransactionParams{
		ID:      payment.PaymentID,
		Time:    s.now().UnixMilli(),
		Amount:  amount,
		Account: account,
	}
	err = s.uow.WithSalesTx(ctx, func(tx *storage.SalesTx) error {
		if err := tx.Payments.SetProviderTransactionTime(ctx, payment.ID, createParams.Time); err != nil {
			return err
		}
		return tx.PayLogs.InsertPaymentLog(ctx, payment.ID, paymentsrepo.LogRequest, map[string]any{
			"method": payments.MethodCreateTransaction,
			"params": createParams,
		})
	})
	if err != nil {
		return nil, err
	}

	created, err := gw.CreateTransaction(ctx, createParams)
	if err != nil {
		return nil, s.gatewayFailure(ctx, payment, payments.MethodCreateTransaction, err)
	}

	err = s.uow.WithSalesTx(ctx, func(tx *storage.SalesTx) error {
		if err := tx.Payments.SetProviderTransaction(ctx, payment.ID, created.Transaction, created.Raw); err != nil {
			return err
		}
		return tx.PayLogs.InsertPaymentLog(ctx, payment.ID, paymentsrepo.LogResponse, map[string]any{
			"method": payments.MethodCreateTransaction,
			"result": created.Raw,
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.Infow("payme transaction created",
		"payment_id", payment.PaymentID, "transaction", created.Transaction, "state", created.State.String())

	return &InitResult{
		PaymentID:     payment.PaymentID,
		TransactionID: created.Transaction,
		RedirectURL: payments.CheckoutURL(s.settings.CheckoutURL, payments.CheckoutParams{
			MerchantID: s.settings.MerchantID,
			OrderID:    orderID,
			Amount:     amount,
			Lang:       s.settings.Lang,
			CancelURL:  s.CancelURL(payment.PaymentID),
		}),
	}, nil
}

// CancelURL is the page Payme sends the payer back to after abandoning checkout.
func (s *Service) CancelURL(paymentID string) string {
	return strings.TrimRight(s.settings.BaseURL, "/") + "/cancel-payment/?payment_id=" + url.QueryEscape(paymentID)
}

// CheckStatus polls the gateway and applies the reported state locally.
func (s *Service) CheckStatus(ctx context.Context, userID int64, paymentID string) (*StatusResult, error) {
	payment, gw, err := s.loadOwned(ctx, userID, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.TransactionID() == "" {
		return nil, ErrNoTransaction
	}

	res, err := gw.CheckTransaction(ctx, payment.TransactionID())
	if err != nil {
		return nil, s.gatewayFailure(ctx, payment, payments.MethodCheckTransaction, err)
	}
	return s.ApplyState(ctx, payment.PaymentID, res)
}

// Perform confirms a created transaction on the gateway side.
func (s *Service) Perform(ctx context.Context, userID int64, paymentID string) (*StatusResult, error) {
	payment, gw, err := s.loadOwned(ctx, userID, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.TransactionID() == "" {
		return nil, ErrNoTransaction
	}

	res, err := gw.PerformTransaction(ctx, payment.TransactionID())
	if err != nil {
		return nil, s.gatewayFailure(ctx, payment, payments.MethodPerformTransaction, err)
	}
	return s.ApplyState(ctx, payment.PaymentID, res)
}

// Cancel cancels the gateway transaction. A performed transaction comes back
// as state -2 and the payment is marked refunded.
func (s *Service) Cancel(ctx context.Context, userID int64, paymentID string, reason payments.CancelReason) (*StatusResult, error) {
	if !reason.Valid() {
		return nil, ErrInvalidReason
	}
	payment, gw, err := s.loadOwned(ctx, userID, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.TransactionID() == "" {
		return nil, ErrNoTransaction
	}

	res, err := gw.CancelTransaction(ctx, payment.TransactionID(), reason)
	if err != nil {
		return nil, s.gatewayFailure(ctx, payment, payments.MethodCancelTransaction, err)
	}
	return s.ApplyState(ctx, payment.PaymentID, res)
}

// ListPayments pages through the payments of one of the user's orders.
func (s *Service) ListPayments(ctx context.Context, userID, orderID int64, limit, offset int) ([]*paymentsrepo.Payment, int, error) {
	var (
		list  []*paymentsrepo.Payment
		total int
	)
	err := s.uow.WithSalesTx(ctx, func(tx *storage.SalesTx) error {
		order, err := tx.Orders.GetByID(ctx, orderID)
		if err != nil {
			return err
		}
		if order == nil || order.UserID != userID {
			return ErrOrderNotFound
		}
		list, total, err = tx.Payments.ListByOrder(ctx, orderID, limit, offset)
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// ApplyState moves the payment to the status matching the gateway state.
// Replays of a state the payment already reflects change nothing.
func (s *Service) ApplyState(ctx context.Context, paymentID string, res payments.TransactionResult) (*StatusResult, error) {
	target, moves := StatusForState(res.State)
	if !moves && res.State != payments.StateCreated {
		s.log.Warnw("unrecognised payme state", "payment_id", paymentID, "state", int(res.State))
	}

	var out StatusResult
	err := s.uow.WithSalesTx(ctx, func(tx *storage.SalesTx) error {
		p, err := tx.Payments.LockByPaymentID(ctx, paymentID)
		if err != nil {
			return err
		}
		if p == nil {
			return ErrPaymentNotFound
		}
		out = StatusResult{PaymentID: p.PaymentID, Status: p.Status, State: res.State, PaymentData: res.Raw}

		if !moves || p.Status == target {
			return nil
		}

		from := p.Status
		next, err := from.Transition(target)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrIllegalTransition, err)
		}
		if err := tx.Payments.SetStatus(ctx, p.ID, next, res.Raw); err != nil {
			return err
		}
		if err := tx.PayLogs.InsertPaymentLog(ctx, p.ID, paymentsrepo.LogStatus, map[string]any{
			"from":  from,
			"to":    next,
			"state": int(res.State),
		}); err != nil {
			return err
		}
		if next == paymentsrepo.StatusPaid {
			if err := s.promoteOrder(ctx, tx, p.OrderID); err != nil {
				return err
			}
		}
		if err := s.enqueueStatusChanged(ctx, tx, p, from, next, res); err != nil {
			return err
		}

		out.Status = next
		s.log.Infow("payment status changed", "payment_id", p.PaymentID, "from", from, "to", next)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Service) promoteOrder(ctx context.Context, tx *storage.SalesTx, orderID int64) error {
	order, err := tx.Orders.LockByID(ctx, orderID)
	if err != nil {
		return err
	}
	if order == nil || order.Status == orders.StatusPaid {
		return nil
	}
	next, err := order.Status.Transition(orders.StatusPaid)
	if err != nil {
		s.log.Warnw("paid payment for order that cannot be paid", "order_id", orderID, "error", err)
		return nil
	}
	return tx.Orders.UpdateStatus(ctx, orderID, next)
}

func (s *Service) enqueueStatusChanged(ctx context.Context, tx *storage.SalesTx, p *paymentsrepo.Payment, from, to paymentsrepo.Status, res payments.TransactionResult) error {
	payload, err := json.Marshal(outbox.PaymentStatusChanged{
		PaymentID:     p.PaymentID,
		OrderID:       p.OrderID,
		From:          string(from),
		To:            string(to),
		GatewayState:  int(res.State),
		TransactionID: res.Transaction,
		AmountTiyins:  p.AmountInTiyins(),
		OccurredAt:    s.now().UnixMilli(),
	})
	if err != nil {
		return err
	}
	return tx.Outbox.Enqueue(ctx, outbox.Event{
		AggregateType: outbox.AggregatePayment,
		AggregateID:   p.PaymentID,
		Type:          outbox.TypePaymentStatusChanged,
		Payload:       payload,
	})
}

func (s *Service) loadOwned(ctx context.Context, userID int64, paymentID string) (*paymentsrepo.Payment, payments.Gateway, error) {
	var payment *paymentsrepo.Payment
	err := s.uow.WithSalesTx(ctx, func(tx *storage.SalesTx) error {
		p, err := tx.Payments.GetByPaymentID(ctx, paymentID)
		if err != nil {
			return err
		}
		if p == nil {
			return ErrPaymentNotFound
		}
		order, err := tx.Orders.GetByID(ctx, p.OrderID)
		if err != nil {
			return err
		}
		if order == nil || order.UserID != userID {
			return ErrNotOwner
		}
		payment = p
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	gw, err := s.gateways.Gateway(payment.Provider)
	if err != nil {
		return nil, nil, err
	}
	return payment, gw, nil
}

// gatewayFailure records the failed call against the payment and wraps err
// for the handlers.
func (s *Service) gatewayFailure(ctx context.Context, p *paymentsrepo.Payment, method string, err error) error {
	payload := map[string]any{"method": method, "error": err.Error()}
	var (
		ge *payments.GatewayError
		he *payments.HTTPStatusError
	)
	switch {
	case errors.As(err, &ge):
		payload["code"] = ge.Code
		payload["raw"] = ge.Raw
		s.log.Errorw("payme call failed", "method", method, "payment_id", p.PaymentID, "error", err)
	case errors.As(err, &he):
		payload["http_status"] = he.StatusCode
		payload["body"] = string(he.Body)
		s.log.Errorw("payme call failed", "method", method, "payment_id", p.PaymentID, "error", err, "body", string(he.Body))
	default:
		s.log.Errorw("payme call failed", "method", method, "payment_id", p.PaymentID, "error", err)
	}
	if logErr := s.uow.WithSalesTx(ctx, func(tx *storage.SalesTx) error {
		return tx.PayLogs.InsertPaymentLog(ctx, p.ID, paymentsrepo.LogError, payload)
	}); logErr != nil {
		s.log.Warnw("could not record payment log", "payment_id", p.PaymentID, "error", logErr)
	}
	return &GatewayCallError{Method: method, Err: err}
}
