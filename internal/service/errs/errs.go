// Package errs holds the error classes shared by services and front-ends.
// Callers wrap them with fmt.Errorf("%w: ...") and match with errors.Is.
package errs

import "errors"

var (
	// ErrValidation marks malformed input: bad command arguments, negative price, empty sku.
	ErrValidation = errors.New("validation error")
	// ErrUnauthorized marks a request without valid admin credentials.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound marks an unknown order id or sku.
	ErrNotFound = errors.New("not found")
	// ErrEmptyCart is returned when no cart line survives filtering.
	ErrEmptyCart = errors.New("cart is empty or items are unavailable")
	// ErrPayload marks an unreadable or wrong-type checkout submission.
	ErrPayload = errors.New("could not read checkout data")
	// ErrOrderPersistence is returned when an order could not be stored; nothing was committed.
	ErrOrderPersistence = errors.New("order persistence failed")
	// ErrNotificationDelivery is logged by the notification gateway and never returned to users.
	ErrNotificationDelivery = errors.New("notification delivery failed")
)
