package domain

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidInput        = errors.New("invalid input")
	ErrConflict            = errors.New("concurrent modification")
	ErrDuplicateRate       = errors.New("rate already exists for method and zone")
	ErrDuplicateRequest    = errors.New("duplicate request")
	ErrDiscountNotValid    = errors.New("discount code is not valid")
	ErrMinPurchaseNotMet   = errors.New("cart subtotal below discount minimum purchase")
	ErrDiscountExhausted   = errors.New("discount code usage limit reached")
	ErrShippingUnavailable = errors.New("shipping method unavailable for destination")
	ErrEmptyCart           = errors.New("cart is empty")
	ErrOrderNotCancellable = errors.New("order cannot be cancelled")
	ErrInvalidTransition   = errors.New("invalid order status transition")
	ErrPaymentFailed       = errors.New("payment failed")
)

// IsDomainRule reports whether err is a business-rule rejection rather than
// bad input or an infrastructure failure.
func IsDomainRule(err error) bool {
	for _, target := range []error{
		ErrDiscountNotValid,
		ErrMinPurchaseNotMet,
		ErrDiscountExhausted,
		ErrShippingUnavailable,
		ErrEmptyCart,
		ErrOrderNotCancellable,
		ErrInvalidTransition,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
