package payments

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// CheckoutParams are the fields encoded into the hosted checkout link.
type CheckoutParams struct {
	MerchantID string
	OrderID    int64
	Amount     int64 // tiyin
	Lang       string
	CancelURL  string
}

// CheckoutURL builds <checkoutURL>/<base64("m=..;ac.order_id=..;a=..;l=..;c=..")>.
func CheckoutURL(checkoutURL string, p CheckoutParams) string {
	lang := p.Lang
	if lang == "" {
		lang = "en"
	}
	form := fmt.Sprintf("m=%s;ac.order_id=%d;a=%d;l=%s;c=%s",
		p.MerchantID, p.OrderID, p.Amount, lang, p.CancelURL)

	encoded := base64.StdEncoding.EncodeToString([]byte(form))
	return strings.TrimRight(checkoutURL, "/") + "/" + encoded
}
