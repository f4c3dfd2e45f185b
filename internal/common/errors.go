// Package common defines shared constants and sentinel errors used across
// the appstate components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Storage-level errors.
	ErrorNotFound    = errors.New("not found")
	ErrMalformedData = errors.New("malformed persisted data")

	// Subscription / payment outcomes surfaced to the UI as result values.
	ErrMissingDefaultPaymentMethod = errors.New("missing default payment method")
	ErrPaymentDeclined             = errors.New("payment declined")
	ErrUnsupportedPaymentMethod    = errors.New("unsupported payment method")
	ErrUnknownPlan                 = errors.New("unknown plan")

	// Gateway transport errors.
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	ErrRateLimited        = errors.New("too many payment attempts")

	// Validation errors.
	ErrInvalidMode     = errors.New("invalid mode")
	ErrInvalidLanguage = errors.New("invalid language")
	ErrInvalidCurrency = errors.New("invalid currency")
	ErrInvalidCountry  = errors.New("invalid country code")
	ErrInvalidDomain   = errors.New("invalid favorite domain")
)
