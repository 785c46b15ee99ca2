package shop

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/corray333/backend-labs/shop/internal/service/errs"
	"github.com/corray333/backend-labs/shop/internal/service/models/order"
)

const checkoutType = "checkout"

type checkoutPayload struct {
	Type     string        `json:"type"`
	Items    []payloadItem `json:"items"`
	City     string        `json:"city" validate:"max=256"`
	Branch   string        `json:"branch" validate:"max=256"`
	Receiver string        `json:"receiver" validate:"max=256"`
	Phone    string        `json:"phone" validate:"max=64"`
}

type payloadItem struct {
	SKU flexString `json:"sku"`
	Qty *flexInt   `json:"qty"`
}

// flexString accepts a JSON string or number.
type flexString string

func (s *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = flexString(v)

		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("sku must be a string or number: %w", err)
	}
	*s = flexString(n.String())

	return nil
}

// flexInt accepts a JSON number or a numeric string. Fractions are truncated.
type flexInt int

func (q *flexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	raw := string(b)
	if len(b) > 0 && b[0] == '"' {
		if err := json.Unmarshal(b, &raw); err != nil {
			return err
		}
		raw = strings.TrimSpace(raw)
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("qty %q is not a number: %w", raw, err)
		}
		*q = flexInt(n)

		return nil
	}

	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > math.MaxInt32 {
		return fmt.Errorf("qty %s is not a number", raw)
	}
	*q = flexInt(int(f))

	return nil
}

// DecodeCheckout turns web-app data into a cart for buyer. Lines are passed
// through unfiltered; the order service drops unknown skus and non-positive
// quantities. A missing qty means 1.
func DecodeCheckout(data string, buyer order.Buyer, validate *validator.Validate) (order.Cart, error) {
	var p checkoutPayload
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return order.Cart{}, fmt.Errorf("%w: %w", errs.ErrPayload, err)
	}
	if p.Type != checkoutType {
		return order.Cart{}, fmt.Errorf("%w: unknown type %q", errs.ErrPayload, p.Type)
	}

	p.City = strings.TrimSpace(p.City)
	p.Branch = strings.TrimSpace(p.Branch)
	p.Receiver = strings.TrimSpace(p.Receiver)
	p.Phone = strings.TrimSpace(p.Phone)
	if err := validate.Struct(p); err != nil {
		return order.Cart{}, fmt.Errorf("%w: %w", errs.ErrPayload, err)
	}

	lines := make([]order.CartLine, 0, len(p.Items))
	for _, it := range p.Items {
		qty := 1
		if it.Qty != nil {
			qty = int(*it.Qty)
		}
		lines = append(lines, order.CartLine{SKU: strings.TrimSpace(string(it.SKU)), Qty: qty})
	}

	return order.Cart{
		Buyer: buyer,
		Items: lines,
		Shipping: order.Shipping{
			City:     p.City,
			Branch:   p.Branch,
			Receiver: p.Receiver,
			Phone:    p.Phone,
		},
	}, nil
}
