package approval

import "errors"

var (
	ErrApprovalNotPending   = errors.New("approval is not pending")
	ErrAuthorizationDenied  = errors.New("not authorized to act on this approval")
	ErrCannotEscalate       = errors.New("approval is already at the highest level")
	ErrDuplicateApproval    = errors.New("transaction already has an active approval")
	ErrUnknownLevel         = errors.New("unknown approval level")
)
