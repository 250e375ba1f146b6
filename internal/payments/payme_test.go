package payments

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rpcServer replies with body to every request and hands the decoded
// request to inspect.
func rpcServer(t *testing.T, status int, body string, inspect func(r *http.Request, req map[string]any)) *PaymeClient {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var req map[string]any
		require.NoError(t, json.Unmarshal(raw, &req))
		if inspect != nil {
			inspect(r, req)
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	return NewPaymeClient(PaymeConfig{
		MerchantID:  "merchant",
		SecretKey:   "secret",
		APIURL:      srv.URL,
		CheckoutURL: "https://checkout.test.paycom.uz",
		Timeout:     2 * time.Second,
	})
}

func TestBasicAuthHeader(t *testing.T) {
	// base64("merchant:secret")
	assert.Equal(t, "Basic bWVyY2hhbnQ6c2VjcmV0", BasicAuthHeader("merchant", "secret"))
}

func TestCallRequestShape(t *testing.T) {
	var ids []float64
	client := rpcServer(t, http.StatusOK, `{"result":{"allow":true}}`, func(r *http.Request, req map[string]any) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Basic bWVyY2hhbnQ6c2VjcmV0", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json; charset=UTF-8", r.Header.Get("Content-Type"))

		assert.Equal(t, "2.0", req["jsonrpc"])
		assert.Equal(t, MethodCheckPerformTransaction, req["method"])
		assert.Equal(t, map[string]any{
			"amount":  float64(1500050),
			"account": map[string]any{"order_id": "7"},
		}, req["params"])
		ids = append(ids, req["id"].(float64))
	})

	for i := 0; i < 2; i++ {
		res, err := client.CheckPerformTransaction(context.Background(), CheckPerformParams{
			Amount:  1500050,
			Account: OrderAccount(7),
		})
		require.NoError(t, err)
		assert.True(t, res.Allow)
		assert.JSONEq(t, `{"allow":true}`, string(res.Raw))
	}
	assert.Equal(t, []float64{1, 2}, ids)
}

func TestTransactionMethods(t *testing.T) {
	ctx := context.Background()

	t.Run("create", func(t *testing.T) {
		client := rpcServer(t, http.StatusOK,
			`{"result":{"create_time":1700000000000,"transaction":"5123","state":1}}`,
			func(r *http.Request, req map[string]any) {
				params := req["params"].(map[string]any)
				assert.Equal(t, "pid", params["id"])
				assert.Equal(t, float64(1700000000000), params["time"])
			})

		res, err := client.CreateTransaction(ctx, CreateTransactionParams{
			ID: "pid", Time: 1700000000000, Amount: 100, Account: OrderAccount(1),
		})
		require.NoError(t, err)
		assert.Equal(t, "5123", res.Transaction)
		assert.Equal(t, StateCreated, res.State)
		assert.Equal(t, int64(1700000000000), res.CreateTime)
	})

	t.Run("cancel sends the reason", func(t *testing.T) {
		client := rpcServer(t, http.StatusOK,
			`{"result":{"transaction":"5123","cancel_time":1,"state":-2}}`,
			func(r *http.Request, req map[string]any) {
				assert.Equal(t, MethodCancelTransaction, req["method"])
				assert.Equal(t, map[string]any{"id": "5123", "reason": float64(5)}, req["params"])
			})

		res, err := client.CancelTransaction(ctx, "5123", ReasonRefund)
		require.NoError(t, err)
		assert.Equal(t, StateCanceledAfterPerform, res.State)
	})

	t.Run("check omits the reason", func(t *testing.T) {
		client := rpcServer(t, http.StatusOK,
			`{"result":{"create_time":1,"perform_time":2,"cancel_time":0,"transaction":"5123","state":2,"reason":null}}`,
			func(r *http.Request, req map[string]any) {
				assert.Equal(t, map[string]any{"id": "5123"}, req["params"])
			})

		res, err := client.CheckTransaction(ctx, "5123")
		require.NoError(t, err)
		assert.Equal(t, StatePerformed, res.State)
		assert.Nil(t, res.Reason)
	})
}

func TestCallErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
		code    int
	}{
		{
			name:    "localized message",
			status:  http.StatusOK,
			body:    `{"error":{"code":-31050,"message":{"ru":"Неверный","uz":"Noto'g'ri","en":"X"}}}`,
			wantMsg: "X",
			code:    -31050,
		},
		{
			name:    "plain message",
			status:  http.StatusOK,
			body:    `{"error":{"code":-32504,"message":"Insufficient privilege"}}`,
			wantMsg: "Insufficient privilege",
			code:    -32504,
		},
		{
			name:    "data only",
			status:  http.StatusOK,
			body:    `{"error":{"code":-31001,"data":"amount"}}`,
			wantMsg: "amount",
			code:    -31001,
		},
		{
			name:    "null message falls through to data",
			status:  http.StatusOK,
			body:    `{"error":{"message":null,"data":"order_id"}}`,
			wantMsg: "order_id",
		},
		{
			name:    "bare string error",
			status:  http.StatusOK,
			body:    `{"error":"boom"}`,
			wantMsg: "boom",
		},
		{
			name:    "null error still fails the call",
			status:  http.StatusOK,
			body:    `{"error":null,"result":{"allow":true}}`,
			wantMsg: "null",
		},
		{
			name:    "object without message or data",
			status:  http.StatusOK,
			body:    `{"error":{"code":-1}}`,
			wantMsg: `{"code":-1}`,
			code:    -1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := rpcServer(t, tt.status, tt.body, nil)

			_, err := client.CheckTransaction(context.Background(), "1")
			var ge *GatewayError
			require.ErrorAs(t, err, &ge)
			assert.Equal(t, tt.wantMsg, ge.Error())
			assert.Equal(t, tt.code, ge.Code)
		})
	}
}

func TestCallTransportFailures(t *testing.T) {
	t.Run("non 2xx", func(t *testing.T) {
		client := rpcServer(t, http.StatusBadGateway, `upstream down`, nil)

		_, err := client.Call(context.Background(), MethodCheckTransaction, nil)
		require.Error(t, err)
		assert.Equal(t, "rpc request failed: http 502", err.Error())
		var ge *GatewayError
		assert.False(t, errors.As(err, &ge))

		var he *HTTPStatusError
		require.ErrorAs(t, err, &he)
		assert.Equal(t, http.StatusBadGateway, he.StatusCode)
		assert.Equal(t, "upstream down", string(he.Body))
	})

	t.Run("missing result", func(t *testing.T) {
		client := rpcServer(t, http.StatusOK, `{"jsonrpc":"2.0","id":1}`, nil)

		_, err := client.Call(context.Background(), MethodCheckTransaction, nil)
		assert.ErrorIs(t, err, ErrMissingResult)
	})

	t.Run("invalid json", func(t *testing.T) {
		client := rpcServer(t, http.StatusOK, `<html>`, nil)

		_, err := client.Call(context.Background(), MethodCheckTransaction, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "rpc request failed: decode response")
	})

	t.Run("unreachable", func(t *testing.T) {
		client := NewPaymeClient(PaymeConfig{APIURL: "http://127.0.0.1:1", Timeout: time.Second})

		_, err := client.Call(context.Background(), MethodCheckTransaction, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "rpc request failed")
	})
}
