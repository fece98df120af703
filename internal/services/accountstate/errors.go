package accountstate

import "errors"

var (
	// ErrStateTransitionDenied means a business rule blocks the transition.
	// Non-retryable: the caller must change the target state.
	ErrStateTransitionDenied = errors.New("state transition denied")

	// ErrAuthorizationDenied means the actor lacks the role the transition
	// requires. Non-retryable: the caller must change the actor.
	ErrAuthorizationDenied = errors.New("authorization denied")

	ErrUnknownState = errors.New("unknown account state")
)
