package models

import "errors"

// Repository and generator sentinel errors. Callers distinguish these with
// errors.Is; anything else is an infrastructure failure.
var (
	// ErrOrderNotFound is returned when an order id does not exist.
	ErrOrderNotFound = errors.New("order not found")

	// ErrLabelNotFound is returned when an RMA id has no issued label.
	ErrLabelNotFound = errors.New("label not found")

	// ErrReturnInProgress is returned by the mark-return-in-progress write
	// when the flag is already set for the order/product pair.
	ErrReturnInProgress = errors.New("return already in progress")

	// ErrInvalidProcessCategory is returned by the label generator when
	// invoked without an eligible process category.
	ErrInvalidProcessCategory = errors.New("invalid process category for label generation")

	// ErrLabelIssuance is returned when minting the authorization identifier
	// fails; retryable by the caller.
	ErrLabelIssuance = errors.New("label identifier issuance failed")
)
