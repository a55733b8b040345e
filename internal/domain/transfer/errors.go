package domain_transfer

import "errors"

var (
	ErrInvalidTransferID = errors.New("transfer: invalid transfer_id")
	ErrInvalidUserID     = errors.New("transfer: invalid user_id")
	ErrInvalidQuoteID    = errors.New("transfer: invalid quote_id")
	ErrUnknownStatus     = errors.New("transfer: unknown status")

	ErrInvalidStateTransition = errors.New("transfer: invalid state transition")
	ErrAlreadyFinalized       = errors.New("transfer: transfer already finalized")
	ErrMissingReason          = errors.New("transfer: reason is required for hold or failure")
)
