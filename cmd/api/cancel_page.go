package main

import (
	"fmt"
	"net/http"
)

// cancelPageHandler godoc
//
//	@Summary		Payment cancelled landing page
//	@Description	Payme sends the payer here after they abandon checkout.
//	@Tags			payments
//	@Produce		plain
//	@Param			payment_id	query		string	false	"Public payment id"
//	@Success		200			{string}	string
//	@Router			/cancel-payment [get]
func (app *application) cancelPageHandler(w http.ResponseWriter, r *http.Request) {
	paymentID := r.URL.Query().Get("payment_id")
	app.logger.Infow("payer returned from cancelled checkout", "payment_id", paymentID)

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "Your payment was cancelled. Payment id: %s", paymentID)
}
