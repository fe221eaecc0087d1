package ledger

import "errors"

var (
	// ErrUnauthorized is returned when owner-only operation is called by
	// someone else.
	ErrUnauthorized = errors.New("Endpoint can only be called by owner") //nolint:stylecheck // message is a part of the ledger interface

	// ErrInsufficientPayment is returned when deposit payment doesn't exceed
	// current fee.
	ErrInsufficientPayment = errors.New("Payments must be greater than fee") //nolint:stylecheck // message is a part of the ledger interface

	// ErrNothingToClaim is returned on withdrawal by non-owner without reserve.
	ErrNothingToClaim = errors.New("Nothing to claim") //nolint:stylecheck // message is a part of the ledger interface

	// ErrTransferFailed wraps errors of the Transferer.
	ErrTransferFailed = errors.New("transfer failed")

	// ErrNotInitialized is returned by all operations of the ledger that has
	// not been initialized yet.
	ErrNotInitialized = errors.New("ledger is not initialized")

	// ErrAlreadyInitialized is returned on repeated initialization.
	ErrAlreadyInitialized = errors.New("ledger is already initialized")

	// ErrNegativeAmount is returned for negative fees and payments.
	ErrNegativeAmount = errors.New("negative amount")
)
