// Package approval manages the lifecycle of approval requests created when
// the validation chain defers a transaction: creation, decision, escalation
// and the overdue sweep.
package approval

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ledgerd/internal/models"
	"ledgerd/internal/repositories"
)

type Service struct {
	store        Store
	transactions TransactionReader
	finalizer    Finalizer
	publisher    Publisher
	now          func() time.Time
}

func NewService(store Store, transactions TransactionReader) *Service {
	if store == nil {
		panic("store is required")
	}
	if transactions == nil {
		panic("transaction reader is required")
	}
	return &Service{
		store:        store,
		transactions: transactions,
		publisher:    LogPublisher{},
		now:          time.Now,
	}
}

// WithFinalizer wires the transaction service in after construction.
func (s *Service) WithFinalizer(f Finalizer) *Service {
	s.finalizer = f
	return s
}

// WithPublisher sets the outbound event publisher.
func (s *Service) WithPublisher(p Publisher) *Service {
	s.publisher = p
	return s
}

// WithClock overrides the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// CreateForTransaction opens a pending approval at the given level. A
// transaction holds at most one active approval at a time.
func (s *Service) CreateForTransaction(ctx context.Context, tx *models.Transaction, level string) (*models.Approval, error) {
	if models.ApprovalLevelRank(level) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLevel, level)
	}
	if existing, err := s.store.GetActiveByTransaction(tx.ID); err == nil && existing != nil {
		return nil, ErrDuplicateApproval
	} else if err != nil && err != repositories.ErrApprovalNotFound {
		return nil, err
	}

	approval := &models.Approval{
		Reference:     "APR-" + uuid.NewString(),
		TransactionID: tx.ID,
		Level:         level,
		Status:        models.ApprovalStatusPending,
		DueAt:         s.now().Add(LevelTimeout(level)),
		Metadata:      models.JSON{},
	}
	if err := s.store.Create(approval); err != nil {
		return nil, err
	}
	return approval, nil
}

// Approve finalizes an approval positively and resumes the transaction.
func (s *Service) Approve(ctx context.Context, approvalID uint, actor *models.User, notes string) (*models.Approval, error) {
	approval, tx, err := s.loadForAction(approvalID, actor)
	if err != nil {
		return nil, err
	}

	now := s.now()
	approval.Status = models.ApprovalStatusApproved
	approval.ApproverID = &actor.ID
	approval.ResolvedAt = &now
	approval.Notes = notes
	if err := s.store.Update(approval); err != nil {
		return nil, err
	}

	if s.finalizer != nil {
		if err := s.finalizer.CompleteApproved(ctx, tx.ID, actor.ID); err != nil {
			return nil, fmt.Errorf("approval recorded but completion failed: %w", err)
		}
	}

	s.publisher.Publish(Event{
		Kind:          EventTransactionApproved,
		TransactionID: tx.ID,
		ApprovalID:    approval.ID,
		Level:         approval.Level,
		ActorID:       actor.ID,
		At:            now,
	})
	return approval, nil
}

// Reject finalizes an approval negatively; the transaction fails with no
// balance mutation.
func (s *Service) Reject(ctx context.Context, approvalID uint, actor *models.User, reason string) (*models.Approval, error) {
	approval, tx, err := s.loadForAction(approvalID, actor)
	if err != nil {
		return nil, err
	}

	now := s.now()
	approval.Status = models.ApprovalStatusRejected
	approval.ApproverID = &actor.ID
	approval.ResolvedAt = &now
	approval.Notes = reason
	if err := s.store.Update(approval); err != nil {
		return nil, err
	}

	if s.finalizer != nil {
		if err := s.finalizer.FailRejected(ctx, tx.ID, actor.ID, reason); err != nil {
			return nil, fmt.Errorf("rejection recorded but finalization failed: %w", err)
		}
	}

	s.publisher.Publish(Event{
		Kind:          EventTransactionRejected,
		TransactionID: tx.ID,
		ApprovalID:    approval.ID,
		Level:         approval.Level,
		ActorID:       actor.ID,
		At:            now,
	})
	return approval, nil
}

// Cancel withdraws a pending approval; the transaction is cancelled.
func (s *Service) Cancel(ctx context.Context, approvalID uint, actor *models.User) (*models.Approval, error) {
	approval, err := s.store.GetByID(approvalID)
	if err != nil {
		return nil, err
	}
	if !approval.IsActive() {
		return nil, ErrApprovalNotPending
	}
	tx, err := s.transactions.GetByID(approval.TransactionID)
	if err != nil {
		return nil, err
	}
	// The initiator may withdraw their own request; otherwise staff only.
	if actor.ID != tx.InitiatorID && !actor.IsStaff() {
		return nil, ErrAuthorizationDenied
	}

	now := s.now()
	approval.Status = models.ApprovalStatusCancelled
	approval.ResolvedAt = &now
	if err := s.store.Update(approval); err != nil {
		return nil, err
	}
	if s.finalizer != nil {
		if err := s.finalizer.CancelPending(ctx, tx.ID, actor.ID); err != nil {
			return nil, err
		}
	}
	return approval, nil
}

// Escalate resolves the approval as escalated and opens a successor at the
// next level with a fresh deadline. The original record is never mutated
// into the new level.
func (s *Service) Escalate(ctx context.Context, approvalID uint, actorID uint) (*models.Approval, error) {
	approval, err := s.store.GetByID(approvalID)
	if err != nil {
		return nil, err
	}
	if !approval.IsActive() {
		return nil, ErrApprovalNotPending
	}

	nextLevel := models.NextApprovalLevel(approval.Level)
	if nextLevel == "" {
		return nil, ErrCannotEscalate
	}

	now := s.now()
	successor := &models.Approval{
		Reference:       "APR-" + uuid.NewString(),
		TransactionID:   approval.TransactionID,
		Level:           nextLevel,
		Status:          models.ApprovalStatusPending,
		DueAt:           now.Add(LevelTimeout(nextLevel)),
		EscalatedFromID: &approval.ID,
		Metadata:        models.JSON{},
	}

	approval.Status = models.ApprovalStatusEscalated
	approval.ResolvedAt = &now
	if err := s.store.CreateEscalation(approval, successor); err != nil {
		approval.Status = models.ApprovalStatusPending
		approval.ResolvedAt = nil
		return nil, err
	}

	s.publisher.Publish(Event{
		Kind:          EventApprovalEscalated,
		TransactionID: approval.TransactionID,
		ApprovalID:    successor.ID,
		Level:         nextLevel,
		ActorID:       actorID,
		At:            now,
	})
	return successor, nil
}

// ListPendingForRole returns the pending queue at the actor's level.
func (s *Service) ListPendingForRole(ctx context.Context, actor *models.User, limit int) ([]*models.Approval, error) {
	level := actor.Role
	if models.ApprovalLevelRank(level) == 0 {
		return nil, ErrAuthorizationDenied
	}
	if limit <= 0 {
		limit = 50
	}
	return s.store.ListPendingByLevel(level, limit)
}

// loadForAction fetches the approval and transaction and runs the shared
// decision checks: pending status, level authority, amount authority.
func (s *Service) loadForAction(approvalID uint, actor *models.User) (*models.Approval, *models.Transaction, error) {
	approval, err := s.store.GetByID(approvalID)
	if err != nil {
		return nil, nil, err
	}
	if !approval.IsActive() {
		return nil, nil, ErrApprovalNotPending
	}

	tx, err := s.transactions.GetByID(approval.TransactionID)
	if err != nil {
		return nil, nil, err
	}

	if !CanActOn(actor.Role, approval.Level, tx.Amount) {
		return nil, nil, fmt.Errorf("%w: role %s cannot decide a %s approval for %s %s",
			ErrAuthorizationDenied, actor.Role, approval.Level, tx.Amount, tx.Currency)
	}
	return approval, tx, nil
}
