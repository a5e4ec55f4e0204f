package errors

import "errors"

var ErrUnauthorized = errors.New("user is not authorized")
var ErrForbidden = errors.New("operation is forbidden for user")

var (
	ErrNotFound           = errors.New("resource not found")
	ErrValidation         = errors.New("validation failed")
	ErrConflict           = errors.New("resource already exists")
	ErrInvalidRating      = errors.New("rating must be between 1 and 5")
	ErrSoldOut            = errors.New("not enough tickets available")
	ErrRegistrationClosed = errors.New("registration is closed for this event")
	ErrPaymentState       = errors.New("registration is not in a state that allows this payment operation")
)
