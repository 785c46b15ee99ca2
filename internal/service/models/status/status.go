// Package status models the order status label.
//
// The status is a free label: any non-empty text is accepted and no transition
// graph is enforced, so "done" -> "new" is legal. The canonical values below
// are what the storefront uses, not a closed set.
package status

import (
	"errors"
	"strings"
)

type Status string

const (
	New       Status = "new"
	Paid      Status = "paid"
	Packed    Status = "packed"
	Shipped   Status = "shipped"
	Done      Status = "done"
	Cancelled Status = "cancelled"
)

var ErrEmptyStatus = errors.New("empty status")

// Canonical lists the statuses shown in admin help texts.
func Canonical() []Status {
	return []Status{New, Paid, Packed, Shipped, Done, Cancelled}
}

// Parse is the single entry point for operator-supplied statuses.
func Parse(s string) (Status, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrEmptyStatus
	}

	return Status(s), nil
}

func (s Status) String() string {
	return string(s)
}

// IsCanonical reports whether s is one of the storefront statuses.
func (s Status) IsCanonical() bool {
	for _, c := range Canonical() {
		if s == c {
			return true
		}
	}

	return false
}
