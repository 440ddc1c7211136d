package core

import "errors"

var (
	// ErrInvalidOrder covers absent orders and non-positive or
	// over-precise prices and quantities.
	ErrInvalidOrder = errors.New("invalid order")

	// ErrSymbolMismatch is returned when an order is inserted into a book
	// for a different symbol.
	ErrSymbolMismatch = errors.New("order symbol does not match order book symbol")

	// ErrOrderNotFound is returned by cancel/modify for an unknown id.
	ErrOrderNotFound = errors.New("order not found")

	// ErrInactiveOrder is returned by cancel/modify when the order has
	// already been executed or cancelled.
	ErrInactiveOrder = errors.New("cannot modify or cancel inactive order")

	// ErrBookMissing indicates a modify targeting a symbol with no book.
	// Unreachable for validly submitted orders; an internal-consistency fault.
	ErrBookMissing = errors.New("order book not found for symbol")
)
