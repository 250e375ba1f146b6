package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"bozor/internal/checkout"
	"bozor/internal/domain/paymentsrepo"
	"bozor/internal/params"
	"bozor/internal/payments"

	"github.com/go-chi/chi/v5"
)

type InitPaymeResponse struct {
	Success       bool   `json:"success"`
	PaymentID     string `json:"payment_id"`
	TransactionID string `json:"transaction_id"`
	RedirectURL   string `json:"redirect_url"`
}

type PaymentStatusResponse struct {
	Success     bool                `json:"success"`
	PaymentID   string              `json:"payment_id"`
	Status      paymentsrepo.Status `json:"status"`
	PaymentData json.RawMessage     `json:"payment_data" swaggertype:"object"`
}

type CancelPaymentPayload struct {
	Reason int `json:"reason" validate:"required,oneof=1 2 3 4 5 10"`
}

type OrderPaymentsResponse struct {
	Payments   []*paymentsrepo.Payment `json:"payments"`
	Pagination params.Pagination       `json:"pagination"`
}

func orderIDParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "orderID"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid order id")
	}
	return id, nil
}

func statusResponse(res *checkout.StatusResult) PaymentStatusResponse {
	return PaymentStatusResponse{
		Success:     true,
		PaymentID:   res.PaymentID,
		Status:      res.Status,
		PaymentData: res.PaymentData,
	}
}

// checkoutHandler godoc
//
//	@Summary		Checkout an order
//	@Description	Returns the order, its items and its pending payment, creating the payment on first visit.
//	@Tags			payments
//	@Produce		json
//	@Param			orderID	path		int	true	"Order ID"
//	@Success		200		{object}	checkout.CheckoutView
//	@Failure		400		{object}	error
//	@Failure		404		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/payments/checkout/{orderID} [get]
func (app *application) checkoutHandler(w http.ResponseWriter, r *http.Request) {
	orderID, err := orderIDParam(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	view, err := app.payments.Checkout(r.Context(), getUserIDFromContext(r), orderID)
	if err != nil {
		app.paymentErrorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, view); err != nil {
		app.internalServerError(w, r, err)
	}
}

// initPaymeHandler godoc
//
//	@Summary		Start a Payme payment
//	@Description	Checks the order with Payme, creates the transaction and returns the hosted checkout URL.
//	@Tags			payments
//	@Produce		json
//	@Param			orderID			path		int		true	"Order ID"
//	@Param			Idempotency-Key	header		string	false	"Client generated key; repeats are rejected with 409"
//	@Success		200				{object}	InitPaymeResponse
//	@Failure		400				{object}	error	"Payme refused or failed"
//	@Failure		404				{object}	error
//	@Failure		409				{object}	error
//	@Security		ApiKeyAuth
//	@Router			/payments/init-payme/{orderID} [post]
func (app *application) initPaymeHandler(w http.ResponseWriter, r *http.Request) {
	orderID, err := orderIDParam(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	res, err := app.payments.InitPayme(r.Context(), getUserIDFromContext(r), orderID)
	if err != nil {
		app.paymentErrorResponse(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, InitPaymeResponse{
		Success:       true,
		PaymentID:     res.PaymentID,
		TransactionID: res.TransactionID,
		RedirectURL:   res.RedirectURL,
	}); err != nil {
		app.internalServerError(w, r, err)
	}
}

// paymentStatusHandler godoc
//
//	@Summary		Check payment status
//	@Description	Asks Payme for the transaction state and updates the payment and order accordingly.
//	@Tags			payments
//	@Produce		json
//	@Param			paymentID	path		string	true	"Public payment id"
//	@Success		200			{object}	PaymentStatusResponse
//	@Failure		400			{object}	error
//	@Failure		404			{object}	error
//	@Security		ApiKeyAuth
//	@Router			/payments/status/{paymentID} [get]
func (app *application) paymentStatusHandler(w http.ResponseWriter, r *http.Request) {
	res, err := app.payments.CheckStatus(r.Context(), getUserIDFromContext(r), chi.URLParam(r, "paymentID"))
	if err != nil {
		app.paymentErrorResponse(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, statusResponse(res)); err != nil {
		app.internalServerError(w, r, err)
	}
}

// performPaymentHandler godoc
//
//	@Summary		Perform a Payme transaction
//	@Tags			payments
//	@Produce		json
//	@Param			paymentID	path		string	true	"Public payment id"
//	@Success		200			{object}	PaymentStatusResponse
//	@Failure		400			{object}	error
//	@Failure		404			{object}	error
//	@Security		ApiKeyAuth
//	@Router			/payments/{paymentID}/perform [post]
func (app *application) performPaymentHandler(w http.ResponseWriter, r *http.Request) {
	res, err := app.payments.Perform(r.Context(), getUserIDFromContext(r), chi.URLParam(r, "paymentID"))
	if err != nil {
		app.paymentErrorResponse(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, statusResponse(res)); err != nil {
		app.internalServerError(w, r, err)
	}
}

// cancelPaymentHandler godoc
//
//	@Summary		Cancel a Payme transaction
//	@Description	Cancels the transaction. A performed transaction is refunded.
//	@Tags			payments
//	@Accept			json
//	@Produce		json
//	@Param			paymentID	path		string					true	"Public payment id"
//	@Param			payload		body		CancelPaymentPayload	true	"Cancel reason (1,2,3,4,5,10)"
//	@Success		200			{object}	PaymentStatusResponse
//	@Failure		400			{object}	error
//	@Failure		404			{object}	error
//	@Security		ApiKeyAuth
//	@Router			/payments/{paymentID}/cancel [post]
func (app *application) cancelPaymentHandler(w http.ResponseWriter, r *http.Request) {
	var payload CancelPaymentPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("invalid cancel reason: %w", err))
		return
	}

	res, err := app.payments.Cancel(r.Context(), getUserIDFromContext(r), chi.URLParam(r, "paymentID"), payments.CancelReason(payload.Reason))
	if err != nil {
		app.paymentErrorResponse(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, statusResponse(res)); err != nil {
		app.internalServerError(w, r, err)
	}
}

// listOrderPaymentsHandler godoc
//
//	@Summary		List payments of an order
//	@Tags			payments
//	@Produce		json
//	@Param			orderID	path		int	true	"Order ID"
//	@Param			page	query		int	false	"Page number"
//	@Param			limit	query		int	false	"Items per page"
//	@Success		200		{object}	OrderPaymentsResponse
//	@Failure		404		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/payments/orders/{orderID} [get]
func (app *application) listOrderPaymentsHandler(w http.ResponseWriter, r *http.Request) {
	orderID, err := orderIDParam(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	p := params.ParsePagination(r.URL.Query())

	list, total, err := app.payments.ListPayments(r.Context(), getUserIDFromContext(r), orderID, p.Limit, p.Offset)
	if err != nil {
		app.paymentErrorResponse(w, r, err)
		return
	}
	if list == nil {
		list = []*paymentsrepo.Payment{}
	}
	p.ComputeMeta(total)

	if err := app.jsonResponse(w, http.StatusOK, OrderPaymentsResponse{Payments: list, Pagination: p}); err != nil {
		app.internalServerError(w, r, err)
	}
}
