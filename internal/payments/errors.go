package payments

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrMissingResult = errors.New("invalid API response: missing 'result'")
)

// HTTPStatusError is a non-2xx reply from the provider. Body is kept for logs
// and stays out of Error().
type HTTPStatusError struct {
	StatusCode int
	Body       []byte
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("rpc request failed: http %d", e.StatusCode)
}

// GatewayError is an `error` member returned by the provider. Error() yields
// the human readable message only, which is what callers surface to users.
type GatewayError struct {
	Code    int
	Message string
	Raw     json.RawMessage
}

func (e *GatewayError) Error() string { return e.Message }

// rpcError is the documented error object. Message is usually a localized
// object {ru, uz, en} but some errors carry a plain string.
type rpcError struct {
	Code    *int            `json:"code"`
	Message json.RawMessage `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type localizedMessage struct {
	RU *string `json:"ru"`
	UZ *string `json:"uz"`
	EN *string `json:"en"`
}

// parseGatewayError picks the message in this order: message.en, message,
// data, then the whole error value.
func parseGatewayError(raw json.RawMessage) *GatewayError {
	ge := &GatewayError{Raw: raw}

	var e rpcError
	if !isObject(raw) || json.Unmarshal(raw, &e) != nil {
		ge.Message = stringify(raw)
		return ge
	}
	if e.Code != nil {
		ge.Code = *e.Code
	}

	switch {
	case present(e.Message):
		var lm localizedMessage
		if isObject(e.Message) && json.Unmarshal(e.Message, &lm) == nil && lm.EN != nil {
			ge.Message = *lm.EN
		} else {
			ge.Message = stringify(e.Message)
		}
	case present(e.Data):
		ge.Message = stringify(e.Data)
	default:
		ge.Message = stringify(raw)
	}
	return ge
}

func present(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

func isObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

// stringify renders JSON strings without quotes and everything else as compact JSON.
func stringify(raw json.RawMessage) string {
	if !present(raw) {
		return "null"
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var buf bytes.Buffer
	if json.Compact(&buf, raw) == nil {
		return buf.String()
	}
	return string(raw)
}
