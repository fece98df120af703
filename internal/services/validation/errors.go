package validation

import "fmt"

// Stable machine-readable rejection codes. Each carries the concrete
// numbers involved in Details for user-facing messaging.
const (
	CodeInvalidAmount         = "invalid_amount"
	CodeInsufficientBalance   = "insufficient_balance"
	CodeAccountStateViolation = "account_state_violation"
	CodeDailyLimitExceeded    = "daily_limit_exceeded"
	CodeFraudRiskBlocked      = "fraud_risk_blocked"
	CodeNotFound              = "not_found"
	CodeInternal              = "internal"
)

// ChainError is a classified rejection produced by a chain stage. It stops
// the chain before any persistent side effect.
type ChainError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *ChainError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newChainError(code, format string, args ...interface{}) *ChainError {
	return &ChainError{Code: code, Message: fmt.Sprintf(format, args...)}
}

func (e *ChainError) withDetail(key string, value interface{}) *ChainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}
