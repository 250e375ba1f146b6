package checkout

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"bozor/internal/domain/orders"
	"bozor/internal/domain/paymentsrepo"
	"bozor/internal/domain/storage"
	"bozor/internal/outbox"
	"bozor/internal/payments"
)

// memStore backs every fake repository. WithSalesTx holds the mutex for the
// whole callback, which is enough isolation for these tests.
type memStore struct {
	mu       sync.Mutex
	orders   map[int64]*orders.Order
	items    map[int64][]orders.OrderItem
	payments map[int64]*paymentsrepo.Payment
	logs     []paymentsrepo.PaymentLog
	events   []outbox.Event
	nextID   int64
}

func newMemStore() *memStore {
	return &memStore{
		orders:   map[int64]*orders.Order{},
		items:    map[int64][]orders.OrderItem{},
		payments: map[int64]*paymentsrepo.Payment{},
	}
}

func (m *memStore) WithSalesTx(ctx context.Context, fn func(s *storage.SalesTx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(&storage.SalesTx{
		Orders:   ordersFake{m},
		Payments: paymentsFake{m},
		PayLogs:  logsFake{m},
		Outbox:   outboxFake{m},
	})
}

func (m *memStore) addOrder(o orders.Order, items ...orders.OrderItem) {
	m.orders[o.ID] = &o
	m.items[o.ID] = items
}

func (m *memStore) paymentsForOrder(orderID int64) []*paymentsrepo.Payment {
	var out []*paymentsrepo.Payment
	for _, p := range m.payments {
		if p.OrderID == orderID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *memStore) logsOfType(t string) []paymentsrepo.PaymentLog {
	var out []paymentsrepo.PaymentLog
	for _, l := range m.logs {
		if l.LogType == t {
			out = append(out, l)
		}
	}
	return out
}

type ordersFake struct{ m *memStore }

func (f ordersFake) GetByID(ctx context.Context, id int64) (*orders.Order, error) {
	o, ok := f.m.orders[id]
	if !ok {
		return nil, nil
	}
	cp := *o
	return &cp, nil
}

func (f ordersFake) LockByID(ctx context.Context, id int64) (*orders.Order, error) {
	return f.GetByID(ctx, id)
}

func (f ordersFake) ListItems(ctx context.Context, orderID int64) ([]orders.OrderItem, error) {
	return f.m.items[orderID], nil
}

func (f ordersFake) UpdateStatus(ctx context.Context, orderID int64, status orders.Status) error {
	f.m.orders[orderID].Status = status
	return nil
}

type paymentsFake struct{ m *memStore }

func (f paymentsFake) Create(ctx context.Context, p *paymentsrepo.Payment) (*paymentsrepo.Payment, error) {
	f.m.nextID++
	cp := *p
	cp.ID = f.m.nextID
	f.m.payments[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (f paymentsFake) GetByPaymentID(ctx context.Context, paymentID string) (*paymentsrepo.Payment, error) {
	for _, p := range f.m.payments {
		if p.PaymentID == paymentID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (f paymentsFake) LockByPaymentID(ctx context.Context, paymentID string) (*paymentsrepo.Payment, error) {
	return f.GetByPaymentID(ctx, paymentID)
}

func (f paymentsFake) FirstPendingForOrder(ctx context.Context, orderID int64) (*paymentsrepo.Payment, error) {
	for _, p := range f.m.paymentsForOrder(orderID) {
		if p.Status == paymentsrepo.StatusPending {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (f paymentsFake) ListByOrder(ctx context.Context, orderID int64, limit, offset int) ([]*paymentsrepo.Payment, int, error) {
	all := f.m.paymentsForOrder(orderID)
	total := len(all)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (f paymentsFake) SetProviderTransactionTime(ctx context.Context, id int64, ms int64) error {
	f.m.payments[id].ProviderTransactionTime = &ms
	return nil
}

func (f paymentsFake) SetProviderTransaction(ctx context.Context, id int64, transactionID string, raw any) error {
	p := f.m.payments[id]
	p.ProviderTransactionID = &transactionID
	if b, ok := raw.(json.RawMessage); ok {
		p.ProviderPaymentData = b
	}
	return nil
}

func (f paymentsFake) SetStatus(ctx context.Context, id int64, status paymentsrepo.Status, raw any) error {
	p := f.m.payments[id]
	p.Status = status
	if b, ok := raw.(json.RawMessage); ok && len(b) > 0 {
		p.ProviderPaymentData = b
	}
	return nil
}

type logsFake struct{ m *memStore }

func (f logsFake) InsertPaymentLog(ctx context.Context, paymentID int64, logType string, payload any) error {
	f.m.logs = append(f.m.logs, paymentsrepo.PaymentLog{PaymentID: paymentID, LogType: logType, Payload: payload})
	return nil
}

type outboxFake struct{ m *memStore }

func (f outboxFake) Enqueue(ctx context.Context, e outbox.Event) error {
	f.m.events = append(f.m.events, e)
	return nil
}

// fakeGateway returns canned results and records the calls it received.
type fakeGateway struct {
	allow     bool
	checkErr  error
	createErr error
	created   payments.TransactionResult
	state     payments.TransactionResult
	stateErr  error

	checkPerform []payments.CheckPerformParams
	creates      []payments.CreateTransactionParams
	cancels      []payments.CancelReason
	calls        []string
}

func (g *fakeGateway) CheckPerformTransaction(ctx context.Context, p payments.CheckPerformParams) (payments.CheckPerformResult, error) {
	g.calls = append(g.calls, payments.MethodCheckPerformTransaction)
	g.checkPerform = append(g.checkPerform, p)
	if g.checkErr != nil {
		return payments.CheckPerformResult{}, g.checkErr
	}
	return payments.CheckPerformResult{Allow: g.allow}, nil
}

func (g *fakeGateway) CreateTransaction(ctx context.Context, p payments.CreateTransactionParams) (payments.TransactionResult, error) {
	g.calls = append(g.calls, payments.MethodCreateTransaction)
	g.creates = append(g.creates, p)
	if g.createErr != nil {
		return payments.TransactionResult{}, g.createErr
	}
	return g.created, nil
}

func (g *fakeGateway) PerformTransaction(ctx context.Context, transactionID string) (payments.TransactionResult, error) {
	g.calls = append(g.calls, payments.MethodPerformTransaction)
	return g.state, g.stateErr
}

func (g *fakeGateway) CancelTransaction(ctx context.Context, transactionID string, reason payments.CancelReason) (payments.TransactionResult, error) {
	g.calls = append(g.calls, payments.MethodCancelTransaction)
	g.cancels = append(g.cancels, reason)
	return g.state, g.stateErr
}

func (g *fakeGateway) CheckTransaction(ctx context.Context, transactionID string) (payments.TransactionResult, error) {
	g.calls = append(g.calls, payments.MethodCheckTransaction)
	return g.state, g.stateErr
}
