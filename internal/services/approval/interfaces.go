package approval

import (
	"context"
	"time"

	"ledgerd/internal/models"
)

// Store is the slice of the approval repository the workflow needs.
type Store interface {
	Create(approval *models.Approval) error
	Update(approval *models.Approval) error
	GetByID(id uint) (*models.Approval, error)
	GetActiveByTransaction(transactionID uint) (*models.Approval, error)
	ListPendingByLevel(level string, limit int) ([]*models.Approval, error)
	ListOverdue(asOf time.Time, limit int) ([]*models.Approval, error)

	// CreateEscalation resolves the original and inserts its successor
	// atomically; neither write lands without the other.
	CreateEscalation(original, successor *models.Approval) error
}

// TransactionReader loads transactions for authority checks.
type TransactionReader interface {
	GetByID(id uint) (*models.Transaction, error)
}

// Finalizer resumes or terminates a deferred transaction once its approval
// resolves. Implemented by the transaction service; an interface here keeps
// the two packages from importing each other.
type Finalizer interface {
	CompleteApproved(ctx context.Context, transactionID, approverID uint) error
	FailRejected(ctx context.Context, transactionID, actorID uint, reason string) error
	CancelPending(ctx context.Context, transactionID, actorID uint) error
}
