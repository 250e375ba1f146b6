package main

import (
	"net/http"

	"bozor/internal/domain/products"
)

// listProductsHandler godoc
//
//	@Summary		List products
//	@Description	Returns every product. The list is not filtered or paginated.
//	@Tags			products
//	@Produce		json
//	@Success		200	{array}		products.Product
//	@Failure		500	{object}	error
//	@Router			/products [get]
func (app *application) listProductsHandler(w http.ResponseWriter, r *http.Request) {
	list, err := app.products.List(r.Context())
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	if list == nil {
		list = []*products.Product{}
	}

	if err := writeJSON(w, http.StatusOK, list); err != nil {
		app.internalServerError(w, r, err)
	}
}
