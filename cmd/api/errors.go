package main

import (
	"errors"
	"net/http"

	"bozor/internal/checkout"
)

func (app *application) internalServerError(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Errorw("internal error", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusInternalServerError, "the server encountered a problem")
}

func (app *application) badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("bad request", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusBadRequest, err.Error())
}

func (app *application) notFoundResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("not found error", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusNotFound, err.Error())
}

func (app *application) conflictResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("conflict response", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusConflict, err.Error())
}

func (app *application) unauthorizedErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("unauthorized error", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusUnauthorized, "unauthorized")
}

func (app *application) unauthorizedBasicErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("unauthorized basic error", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	w.Header().Set("WWW-Authenticate", `Basic realm="restricted", charset="UTF-8"`)

	writeJSONError(w, http.StatusUnauthorized, "unauthorized")
}

func (app *application) rateLimitExceededResponse(w http.ResponseWriter, r *http.Request, retryAfter string) {
	app.logger.Warnw("rate limit exceeded", "method", r.Method, "path", r.URL.Path)

	w.Header().Set("Retry-After", retryAfter)

	writeJSONError(w, http.StatusTooManyRequests, "rate limit exceeded, retry after: "+retryAfter)
}

// paymentFailureResponse is the {success:false, error} shape the checkout
// page expects for anything that went wrong talking to Payme.
func (app *application) paymentFailureResponse(w http.ResponseWriter, r *http.Request, status int, message string) {
	app.logger.Warnw("payment request failed", "method", r.Method, "path", r.URL.Path, "error", message)

	type envelope struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	writeJSON(w, status, &envelope{Success: false, Error: message})
}

// paymentErrorResponse maps workflow errors onto HTTP responses.
func (app *application) paymentErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	var gce *checkout.GatewayCallError
	switch {
	case errors.As(err, &gce):
		app.paymentFailureResponse(w, r, http.StatusBadRequest, gce.Message())
	case errors.Is(err, checkout.ErrNotAllowed):
		app.paymentFailureResponse(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, checkout.ErrNotOwner):
		app.paymentFailureResponse(w, r, http.StatusBadRequest, "Unauthorized")
	case errors.Is(err, checkout.ErrOrderNotFound), errors.Is(err, checkout.ErrPaymentNotFound):
		app.notFoundResponse(w, r, err)
	case errors.Is(err, checkout.ErrEmptyOrder),
		errors.Is(err, checkout.ErrOrderNotPayable),
		errors.Is(err, checkout.ErrNoTransaction),
		errors.Is(err, checkout.ErrInvalidReason):
		app.badRequestResponse(w, r, err)
	case errors.Is(err, checkout.ErrIllegalTransition):
		app.conflictResponse(w, r, err)
	default:
		app.internalServerError(w, r, err)
	}
}
