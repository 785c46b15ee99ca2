package response

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/corray333/backend-labs/shop/internal/service/errs"
	"github.com/stretchr/testify/require"
)

func TestError(t *testing.T) {
	tests := []struct {
		err  error
		code int
		body string
	}{
		{errs.ErrUnauthorized, http.StatusUnauthorized, `{"error":"unauthorized"}`},
		{fmt.Errorf("%w: order #1", errs.ErrNotFound), http.StatusNotFound, `{"error":"not found"}`},
		{fmt.Errorf("%w: bad limit", errs.ErrValidation), http.StatusBadRequest, `{"error":"validation error: bad limit"}`},
		{errors.New("pool closed"), http.StatusInternalServerError, `{"error":"internal error"}`},
	}

	for _, tt := range tests {
		rec := httptest.NewRecorder()
		Error(rec, httptest.NewRequest(http.MethodGet, "/api/orders/1", nil), tt.err)

		require.Equal(t, tt.code, rec.Code)
		require.JSONEq(t, tt.body, rec.Body.String())
		require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	}
}
