package payments

import (
	"context"
	"encoding/json"
	"math/rand/v2"
	"strconv"
	"sync"
	"time"
)

// SandboxGateway answers like a cooperative Payme test merchant: every
// transaction is allowed, created in state 1 and reported as performed on the
// first check. It never touches the network.
type SandboxGateway struct {
	mu  sync.Mutex
	txs map[string]*TransactionResult
	// created maps the merchant's create id to the transaction it produced.
	created map[string]string
	now     func() time.Time
}

func NewSandboxGateway() *SandboxGateway {
	return &SandboxGateway{
		txs:     make(map[string]*TransactionResult),
		created: make(map[string]string),
		now:     time.Now,
	}
}

func (g *SandboxGateway) nowMs() int64 { return g.now().UnixMilli() }

func (g *SandboxGateway) CheckPerformTransaction(ctx context.Context, p CheckPerformParams) (CheckPerformResult, error) {
	out := CheckPerformResult{Allow: true}
	out.Raw, _ = json.Marshal(map[string]bool{"allow": true})
	return out, nil
}

func (g *SandboxGateway) CreateTransaction(ctx context.Context, p CreateTransactionParams) (TransactionResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	// Payme answers a repeated create with the transaction it already made.
	if id, ok := g.created[p.ID]; ok {
		return g.snapshot(g.txs[id]), nil
	}

	id := strconv.Itoa(1000 + rand.IntN(9000))
	for g.txs[id] != nil {
		id = strconv.Itoa(1000 + rand.IntN(9000))
	}
	tx := &TransactionResult{
		CreateTime:  p.Time,
		Transaction: id,
		State:       StateCreated,
	}
	g.txs[id] = tx
	g.created[p.ID] = id
	return g.snapshot(tx), nil
}

func (g *SandboxGateway) PerformTransaction(ctx context.Context, transactionID string) (TransactionResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	tx := g.lookup(transactionID)
	if tx.State == StateCreated {
		tx.State = StatePerformed
		tx.PerformTime = g.nowMs()
	}
	return g.snapshot(tx), nil
}

func (g *SandboxGateway) CancelTransaction(ctx context.Context, transactionID string, reason CancelReason) (TransactionResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	tx := g.lookup(transactionID)
	switch tx.State {
	case StateCreated:
		tx.State = StateCanceled
	case StatePerformed:
		tx.State = StateCanceledAfterPerform
	default:
		return g.snapshot(tx), nil
	}
	r := int(reason)
	tx.Reason = &r
	tx.CancelTime = g.nowMs()
	return g.snapshot(tx), nil
}

func (g *SandboxGateway) CheckTransaction(ctx context.Context, transactionID string) (TransactionResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	tx := g.lookup(transactionID)
	if tx.State == StateCreated {
		tx.State = StatePerformed
		tx.PerformTime = g.nowMs()
	}
	return g.snapshot(tx), nil
}

// lookup returns the stored transaction or registers an unknown id as created,
// so sandbox checks survive a process restart.
func (g *SandboxGateway) lookup(id string) *TransactionResult {
	tx, ok := g.txs[id]
	if !ok {
		tx = &TransactionResult{CreateTime: g.nowMs(), Transaction: id, State: StateCreated}
		g.txs[id] = tx
	}
	return tx
}

func (g *SandboxGateway) snapshot(tx *TransactionResult) TransactionResult {
	out := *tx
	out.Raw, _ = json.Marshal(tx)
	return out
}
