package payments

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"
)

const (
	defaultTimeout   = 10 * time.Second
	maxResponseBytes = 1 << 20
)

type PaymeConfig struct {
	MerchantID  string        `validate:"required"`
	SecretKey   string        `validate:"required"`
	APIURL      string        `validate:"required,url"`
	CheckoutURL string        `validate:"required,url"`
	Lang        string        `validate:"omitempty,oneof=ru uz en"`
	Timeout     time.Duration `validate:"gte=0"`
}

type PaymeClient struct {
	cfg        PaymeConfig
	authHeader string
	httpClient *http.Client
	seq        atomic.Int64
}

func NewPaymeClient(cfg PaymeConfig) *PaymeClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &PaymeClient{
		cfg:        cfg,
		authHeader: BasicAuthHeader(cfg.MerchantID, cfg.SecretKey),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// BasicAuthHeader returns "Basic base64(username:password)".
func BasicAuthHeader(username, password string) string {
	creds := username + ":" + password
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(creds))
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
	ID      int64  `json:"id"`
}

// Call performs one JSON-RPC call and returns the raw `result` member.
// Nothing is retried; transport, HTTP and provider errors all come back as errors.
func (c *PaymeClient) Call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	if params == nil {
		params = map[string]any{}
	}
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      c.seq.Add(1),
	})
	if err != nil {
		return nil, fmt.Errorf("encode %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("rpc request failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")
	req.Header.Set("Authorization", c.authHeader)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rpc request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("rpc request failed: read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPStatusError{StatusCode: resp.StatusCode, Body: raw}
	}

	// Members are kept raw so an "error" key counts even when its value is null.
	var members map[string]json.RawMessage
	if err := json.Unmarshal(raw, &members); err != nil {
		return nil, fmt.Errorf("rpc request failed: decode response: %w", err)
	}

	if rpcErr, ok := members["error"]; ok {
		return nil, parseGatewayError(rpcErr)
	}
	result, ok := members["result"]
	if !ok {
		return nil, ErrMissingResult
	}
	return result, nil
}

func (c *PaymeClient) CheckPerformTransaction(ctx context.Context, p CheckPerformParams) (CheckPerformResult, error) {
	var out CheckPerformResult
	raw, err := c.Call(ctx, MethodCheckPerformTransaction, p)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("decode %s result: %w", MethodCheckPerformTransaction, err)
	}
	out.Raw = raw
	return out, nil
}

func (c *PaymeClient) CreateTransaction(ctx context.Context, p CreateTransactionParams) (TransactionResult, error) {
	return c.transactionCall(ctx, MethodCreateTransaction, p)
}

func (c *PaymeClient) PerformTransaction(ctx context.Context, transactionID string) (TransactionResult, error) {
	return c.transactionCall(ctx, MethodPerformTransaction, transactionParams{ID: transactionID})
}

func (c *PaymeClient) CancelTransaction(ctx context.Context, transactionID string, reason CancelReason) (TransactionResult, error) {
	return c.transactionCall(ctx, MethodCancelTransaction, transactionParams{ID: transactionID, Reason: &reason})
}

func (c *PaymeClient) CheckTransaction(ctx context.Context, transactionID string) (TransactionResult, error) {
	return c.transactionCall(ctx, MethodCheckTransaction, transactionParams{ID: transactionID})
}

func (c *PaymeClient) transactionCall(ctx context.Context, method string, params any) (TransactionResult, error) {
	var out TransactionResult
	raw, err := c.Call(ctx, method, params)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("decode %s result: %w", method, err)
	}
	out.Raw = raw
	return out, nil
}
