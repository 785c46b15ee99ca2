package products

import (
	"context"
	"net/http"

	"github.com/corray333/backend-labs/shop/internal/service/models/product"
	"github.com/corray333/backend-labs/shop/internal/transport/http/response"
)

type service interface {
	ListActive(ctx context.Context) ([]product.Product, error)
}

type listProductsResponse struct {
	Products []product.Product `json:"products"`
}

// ListProducts returns the active catalog for the storefront.
func ListProducts(w http.ResponseWriter, r *http.Request, service service) {
	products, err := service.ListActive(r.Context())
	if err != nil {
		response.Error(w, r, err)

		return
	}

	response.JSON(w, http.StatusOK, listProductsResponse{Products: products})
}
