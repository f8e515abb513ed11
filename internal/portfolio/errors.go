package portfolio

import "errors"

// Sentinel errors for the engine's failure taxonomy. Every operation is
// all-or-nothing: when one of these is returned the portfolio is unchanged.
var (
	// ErrUnknownSymbol is returned for orders against a symbol outside the
	// tracked universe.
	ErrUnknownSymbol = errors.New("unknown symbol")

	// ErrInvalidOrder is returned for non-positive quantity, price, or
	// leverage below 1.
	ErrInvalidOrder = errors.New("invalid order")

	// ErrInsufficientCash is returned when the required collateral for an
	// opening or increasing trade exceeds available cash, or when settling
	// a closing trade would drive available cash negative.
	ErrInsufficientCash = errors.New("insufficient cash")

	// ErrMalformedSnapshot is returned when persisted state fails
	// structural or semantic validation on load.
	ErrMalformedSnapshot = errors.New("malformed snapshot")
)
