package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"bozor/internal/auth"
	"bozor/internal/checkout"
	"bozor/internal/domain/orders"
	"bozor/internal/domain/paymentsrepo"
	"bozor/internal/domain/products"
	"bozor/internal/payments"
	"bozor/internal/ratelimiter"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeProducts struct {
	list []*products.Product
	err  error
}

func (f *fakeProducts) List(ctx context.Context) ([]*products.Product, error) { return f.list, f.err }

// fakePayments answers with whatever the test configured and records the
// user ids it was called with.
type fakePayments struct {
	mu      sync.Mutex
	userIDs []int64

	view    *checkout.CheckoutView
	init    *checkout.InitResult
	status  *checkout.StatusResult
	list    []*paymentsrepo.Payment
	total   int
	reasons []payments.CancelReason
	err     error
}

func (f *fakePayments) record(userID int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.userIDs = append(f.userIDs, userID)
}

func (f *fakePayments) Checkout(ctx context.Context, userID, orderID int64) (*checkout.CheckoutView, error) {
	f.record(userID)
	return f.view, f.err
}

func (f *fakePayments) InitPayme(ctx context.Context, userID, orderID int64) (*checkout.InitResult, error) {
	f.record(userID)
	return f.init, f.err
}

func (f *fakePayments) CheckStatus(ctx context.Context, userID int64, paymentID string) (*checkout.StatusResult, error) {
	f.record(userID)
	return f.status, f.err
}

func (f *fakePayments) Perform(ctx context.Context, userID int64, paymentID string) (*checkout.StatusResult, error) {
	f.record(userID)
	return f.status, f.err
}

func (f *fakePayments) Cancel(ctx context.Context, userID int64, paymentID string, reason payments.CancelReason) (*checkout.StatusResult, error) {
	f.record(userID)
	f.reasons = append(f.reasons, reason)
	return f.status, f.err
}

func (f *fakePayments) ListPayments(ctx context.Context, userID, orderID int64, limit, offset int) ([]*paymentsrepo.Payment, int, error) {
	f.record(userID)
	return f.list, f.total, f.err
}

type fakeIdempotency struct {
	mu   sync.Mutex
	seen map[string]bool
}

func (f *fakeIdempotency) Key(scope string, userID int64, clientKey string) string {
	return scope + ":" + clientKey
}

func (f *fakeIdempotency) Seen(ctx context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.seen[key] {
		return true, nil
	}
	f.seen[key] = true
	return false, nil
}

func (f *fakeIdempotency) Forget(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.seen, key)
	return nil
}

const testUserID = int64(42)

func newTestApplication(t *testing.T, svc *fakePayments) (*application, string) {
	t.Helper()

	authenticator := auth.NewJWTAuthenticator("test-secret", "bozor", time.Hour)
	token, err := authenticator.GenerateToken(testUserID)
	require.NoError(t, err)

	app := &application{
		config: config{
			env: "test",
			auth: authConfig{
				basic: basicConfig{user: "ops", pass: "pw"},
			},
		},
		logger: zap.NewNop().Sugar(),
		products: &fakeProducts{list: []*products.Product{
			{ID: 1, Name: "Tea", Price: products.MustMoney("12000.00"), Currency: products.CurrencyUZS},
		}},
		payments:      svc,
		authenticator: authenticator,
		rateLimiter:   ratelimiter.NewFixedWindowLimiter(100, time.Minute),
		idempotency:   &fakeIdempotency{seen: map[string]bool{}},
	}
	return app, token
}

func do(t *testing.T, h http.Handler, method, path, token, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	return out
}

func TestListProducts(t *testing.T) {
	app, _ := newTestApplication(t, &fakePayments{})
	mux := app.mount()

	rr := do(t, mux, http.MethodGet, "/v1/products/", "", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var list []map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "Tea", list[0]["name"])
	assert.Equal(t, "12000.00", list[0]["price"])
	assert.Equal(t, "UZS", list[0]["currency"])
}

func TestPaymentsRequireToken(t *testing.T) {
	app, _ := newTestApplication(t, &fakePayments{})
	mux := app.mount()

	rr := do(t, mux, http.MethodGet, "/v1/payments/checkout/7", "", "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = do(t, mux, http.MethodGet, "/v1/payments/checkout/7", "not-a-jwt", "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestCheckoutHandler(t *testing.T) {
	svc := &fakePayments{view: &checkout.CheckoutView{
		Order:      &orders.Order{ID: 7, UserID: testUserID, Status: orders.StatusPending},
		Payment:    &paymentsrepo.Payment{PaymentID: "pid", Status: paymentsrepo.StatusPending, Amount: products.MustMoney("15000.50")},
		MerchantID: "m-1",
	}}
	app, token := newTestApplication(t, svc)
	mux := app.mount()

	rr := do(t, mux, http.MethodGet, "/v1/payments/checkout/7/", token, "")
	require.Equal(t, http.StatusOK, rr.Code)

	data := decode(t, rr)["data"].(map[string]any)
	assert.Equal(t, "m-1", data["payme_merchant_id"])
	assert.Equal(t, "pid", data["payment"].(map[string]any)["payment_id"])
	assert.Equal(t, "15000.50", data["payment"].(map[string]any)["amount"])
	assert.Equal(t, []int64{testUserID}, svc.userIDs)

	rr = do(t, mux, http.MethodGet, "/v1/payments/checkout/abc", token, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestPaymentErrorMapping(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantCode  int
		wantError string
	}{
		{
			name:      "gateway message",
			err:       &checkout.GatewayCallError{Method: "CreateTransaction", Err: &payments.GatewayError{Message: "Invalid amount"}},
			wantCode:  http.StatusBadRequest,
			wantError: "Invalid amount",
		},
		{
			name:      "not allowed",
			err:       checkout.ErrNotAllowed,
			wantCode:  http.StatusBadRequest,
			wantError: "Payment not allowed by Payme",
		},
		{
			name:      "other user's payment",
			err:       checkout.ErrNotOwner,
			wantCode:  http.StatusBadRequest,
			wantError: "Unauthorized",
		},
		{name: "missing order", err: checkout.ErrOrderNotFound, wantCode: http.StatusNotFound},
		{name: "illegal transition", err: fmt.Errorf("%w: x", checkout.ErrIllegalTransition), wantCode: http.StatusConflict},
		{name: "database", err: errors.New("connection reset"), wantCode: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, token := newTestApplication(t, &fakePayments{err: tt.err})
			mux := app.mount()

			rr := do(t, mux, http.MethodPost, "/v1/payments/init-payme/7", token, "")
			assert.Equal(t, tt.wantCode, rr.Code)

			body := decode(t, rr)
			assert.Equal(t, false, body["success"])
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, body["error"])
			}
		})
	}
}

func TestInitPaymeHandler(t *testing.T) {
	svc := &fakePayments{init: &checkout.InitResult{PaymentID: "pid", TransactionID: "7777", RedirectURL: "https://checkout/abc"}}
	app, token := newTestApplication(t, svc)
	mux := app.mount()

	rr := do(t, mux, http.MethodPost, "/v1/payments/init-payme/7", token, "", "Idempotency-Key", "k1")
	require.Equal(t, http.StatusOK, rr.Code)

	body := decode(t, rr)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "7777", body["transaction_id"])
	assert.Equal(t, "https://checkout/abc", body["redirect_url"])

	rr = do(t, mux, http.MethodPost, "/v1/payments/init-payme/7", token, "", "Idempotency-Key", "k1")
	assert.Equal(t, http.StatusConflict, rr.Code)

	// without a key nothing is deduplicated
	rr = do(t, mux, http.MethodPost, "/v1/payments/init-payme/7", token, "")
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestIdempotencyKeyReleasedOnFailure(t *testing.T) {
	svc := &fakePayments{err: checkout.ErrNotAllowed}
	app, token := newTestApplication(t, svc)
	mux := app.mount()

	rr := do(t, mux, http.MethodPost, "/v1/payments/init-payme/7", token, "", "Idempotency-Key", "k2")
	require.Equal(t, http.StatusBadRequest, rr.Code)

	svc.err = nil
	svc.init = &checkout.InitResult{PaymentID: "pid", TransactionID: "1"}
	rr = do(t, mux, http.MethodPost, "/v1/payments/init-payme/7", token, "", "Idempotency-Key", "k2")
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestStatusHandlers(t *testing.T) {
	svc := &fakePayments{status: &checkout.StatusResult{
		PaymentID:   "pid",
		Status:      paymentsrepo.StatusPaid,
		State:       payments.StatePerformed,
		PaymentData: json.RawMessage(`{"state":2}`),
	}}
	app, token := newTestApplication(t, svc)
	mux := app.mount()

	for _, path := range []string{"/v1/payments/status/pid/", "/v1/payments/pid/perform"} {
		method := http.MethodGet
		if strings.HasSuffix(path, "perform") {
			method = http.MethodPost
		}
		rr := do(t, mux, method, path, token, "")
		require.Equal(t, http.StatusOK, rr.Code, path)

		body := decode(t, rr)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, "PAID", body["status"])
		assert.Equal(t, map[string]any{"state": float64(2)}, body["payment_data"])
	}
}

func TestCancelHandler(t *testing.T) {
	svc := &fakePayments{status: &checkout.StatusResult{PaymentID: "pid", Status: paymentsrepo.StatusRefunded}}
	app, token := newTestApplication(t, svc)
	mux := app.mount()

	rr := do(t, mux, http.MethodPost, "/v1/payments/pid/cancel", token, `{"reason":5}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "REFUNDED", decode(t, rr)["status"])
	assert.Equal(t, []payments.CancelReason{payments.ReasonRefund}, svc.reasons)

	rr = do(t, mux, http.MethodPost, "/v1/payments/pid/cancel", token, `{"reason":7}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, mux, http.MethodPost, "/v1/payments/pid/cancel", token, `{"reason":5,"extra":true}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, mux, http.MethodPost, "/v1/payments/pid/cancel", token, `{"reason":5} {"reason":1}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Len(t, svc.reasons, 1)
}

func TestListOrderPaymentsHandler(t *testing.T) {
	svc := &fakePayments{
		list:  []*paymentsrepo.Payment{{PaymentID: "a"}, {PaymentID: "b"}},
		total: 5,
	}
	app, token := newTestApplication(t, svc)
	mux := app.mount()

	rr := do(t, mux, http.MethodGet, "/v1/payments/orders/7?page=2&limit=2", token, "")
	require.Equal(t, http.StatusOK, rr.Code)

	data := decode(t, rr)["data"].(map[string]any)
	assert.Len(t, data["payments"], 2)
	pg := data["pagination"].(map[string]any)
	assert.Equal(t, float64(3), pg["total_pages"])
	assert.Equal(t, true, pg["has_next"])
	assert.Equal(t, true, pg["has_prev"])
}

func TestCancelPage(t *testing.T) {
	app, _ := newTestApplication(t, &fakePayments{})
	mux := app.mount()

	rr := do(t, mux, http.MethodGet, "/v1/cancel-payment/?payment_id=abc-123", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Your payment was cancelled. Payment id: abc-123", rr.Body.String())
	assert.True(t, strings.HasPrefix(rr.Header().Get("Content-Type"), "text/plain"))
}

func TestHealthRequiresBasicAuth(t *testing.T) {
	app, _ := newTestApplication(t, &fakePayments{})
	mux := app.mount()

	rr := do(t, mux, http.MethodGet, "/v1/health", "", "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	creds := base64.StdEncoding.EncodeToString([]byte("ops:pw"))
	rr = do(t, mux, http.MethodGet, "/v1/health", "", "", "Authorization", "Basic "+creds)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", decode(t, rr)["data"].(map[string]any)["status"])
}

func TestRateLimiterMiddleware(t *testing.T) {
	app, _ := newTestApplication(t, &fakePayments{})
	app.config.rateLimiter = ratelimiter.Config{Enabled: true, RequestsPerTimeFrame: 2, TimeFrame: time.Minute}
	app.rateLimiter = ratelimiter.NewFixedWindowLimiter(2, time.Minute)
	mux := app.mount()

	for i := 0; i < 2; i++ {
		rr := do(t, mux, http.MethodGet, "/v1/products", "", "")
		require.Equal(t, http.StatusOK, rr.Code)
	}
	rr := do(t, mux, http.MethodGet, "/v1/products", "", "")
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("Retry-After"))
}
