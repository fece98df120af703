package transaction

import (
	"context"

	"ledgerd/internal/models"
)

// ApprovalCreator opens a review record for a deferred transaction. It is
// implemented by the approval service.
type ApprovalCreator interface {
	CreateForTransaction(ctx context.Context, tx *models.Transaction, level string) (*models.Approval, error)
}

// OutflowInvalidator drops the cached daily outflow for an actor/account
// pair after a committed debit changes it.
type OutflowInvalidator interface {
	InvalidateDailyOutflow(ctx context.Context, actorID, accountID uint, currency, date string) error
}
