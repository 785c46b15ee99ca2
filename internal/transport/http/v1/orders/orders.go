package orders

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/corray333/backend-labs/shop/internal/service/errs"
	"github.com/corray333/backend-labs/shop/internal/service/models/order"
	"github.com/corray333/backend-labs/shop/internal/transport/http/response"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/schema"
)

// MaxLimit caps the page size of ListOrders.
const MaxLimit = 100

type service interface {
	ListRecent(ctx context.Context, limit int) ([]order.Order, error)
	GetOrder(ctx context.Context, id int64) (order.Order, error)
}

type listOrdersRequest struct {
	Limit int `schema:"limit"`
}

type listOrdersResponse struct {
	Orders []order.Order `json:"orders"`
}

var decoder = func() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)

	return d
}()

// ListOrders returns the newest order headers. limit defaults to 10.
func ListOrders(w http.ResponseWriter, r *http.Request, service service) {
	query := &listOrdersRequest{}
	if err := decoder.Decode(query, r.URL.Query()); err != nil {
		response.Error(w, r, fmt.Errorf("%w: %s", errs.ErrValidation, err.Error()))

		return
	}
	if query.Limit < 0 {
		response.Error(w, r, fmt.Errorf("%w: limit must not be negative", errs.ErrValidation))

		return
	}
	if query.Limit > MaxLimit {
		query.Limit = MaxLimit
	}

	orders, err := service.ListRecent(r.Context(), query.Limit)
	if err != nil {
		response.Error(w, r, err)

		return
	}

	response.JSON(w, http.StatusOK, listOrdersResponse{Orders: orders})
}

// GetOrder returns one order with its items.
func GetOrder(w http.ResponseWriter, r *http.Request, service service) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(w, r, fmt.Errorf("%w: order id must be a positive integer", errs.ErrValidation))

		return
	}

	o, err := service.GetOrder(r.Context(), id)
	if err != nil {
		response.Error(w, r, err)

		return
	}

	response.JSON(w, http.StatusOK, o)
}
