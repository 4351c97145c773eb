package order

import "errors"

var (
	ErrNotFound           = errors.New("order not found")
	ErrCartEmpty          = errors.New("cart is empty")
	ErrProductUnavailable = errors.New("product is unavailable")
	ErrForbidden          = errors.New("cannot access another user's order")
	ErrInvalidTransition  = errors.New("invalid order status transition")
)
