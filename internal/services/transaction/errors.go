package transaction

import "errors"

// Service errors
var (
	ErrMissingSource       = errors.New("transaction type requires a source account")
	ErrMissingDestination  = errors.New("transaction type requires a destination account")
	ErrUnexpectedSource    = errors.New("transaction type does not take a source account")
	ErrSameAccount         = errors.New("source and destination are the same account")
	ErrCurrencyMismatch    = errors.New("currency does not match the source account")
	ErrUnknownType         = errors.New("unknown transaction type")
	ErrNotPendingApproval  = errors.New("transaction is not pending approval")
	ErrInsufficientBalance = errors.New("insufficient balance at commit time")
)
