package models

import "errors"

// Domain errors. Handlers translate these into HTTP status codes;
// everything else is a caller bug, not a business failure.
var (
	// ErrInvalidCard means the credit card failed the validity check at
	// the point of use (deposit/withdraw).
	ErrInvalidCard = errors.New("credit card is not valid")

	// ErrInsufficientFunds means a withdrawal exceeds the account balance.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrInvalidAmount means a zero or negative amount was supplied.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrSameAccount means both sides of a transfer are the same account.
	ErrSameAccount = errors.New("sender and recipient are the same account")

	// ErrNotPending means a status transition was attempted on a
	// transaction that has already been finalized.
	ErrNotPending = errors.New("transaction is not pending")
)
