package transaction

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"ledgerd/internal/models"
	"ledgerd/internal/repositories"
	"ledgerd/internal/services/validation"
)

// commit applies the balance movement inside a single database transaction
// and marks the record completed. Accounts are locked in ascending ID order
// so concurrent transfers between the same pair cannot deadlock.
func (s *Service) commit(ctx context.Context, tx *models.Transaction, processorID uint) error {
	err := s.accounts.ExecuteInTransaction(func(repo repositories.AccountRepository) error {
		var ids []uint
		if tx.SourceAccountID != nil {
			ids = append(ids, *tx.SourceAccountID)
		}
		if tx.DestinationAccountID != nil {
			ids = append(ids, *tx.DestinationAccountID)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

		locked := make(map[uint]*models.Account, len(ids))
		for _, id := range ids {
			acct, err := repo.GetForUpdate(id)
			if err != nil {
				return fmt.Errorf("lock account %d: %w", id, err)
			}
			locked[id] = acct
		}

		if tx.SourceAccountID != nil {
			source := locked[*tx.SourceAccountID]
			total := tx.Amount.Add(tx.Fee)
			if source.Balance.LessThan(total) {
				return ErrInsufficientBalance
			}
			source.Balance = source.Balance.Sub(total)
			if err := repo.Update(source); err != nil {
				return fmt.Errorf("debit account %d: %w", source.ID, err)
			}
		}

		if tx.DestinationAccountID != nil {
			destination := locked[*tx.DestinationAccountID]
			credit := tx.Amount
			if tx.SourceAccountID == nil {
				// Deposit: the fee, when any, comes out of the credited amount.
				credit = credit.Sub(tx.Fee)
			}
			destination.Balance = destination.Balance.Add(credit)
			if err := repo.Update(destination); err != nil {
				return fmt.Errorf("credit account %d: %w", destination.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		s.metrics.RecordError("commit")
		tx.Status = models.TransactionStatusFailed
		code := "commit_failed"
		if errors.Is(err, ErrInsufficientBalance) {
			// A shortfall found under lock is the same classified failure
			// the chain reports, not an infrastructure error.
			code = validation.CodeInsufficientBalance
		}
		tx.Metadata[models.MetaFailureCode] = code
		tx.Metadata[models.MetaFailureDetail] = err.Error()
		if updateErr := s.transactions.Update(tx); updateErr != nil {
			return fmt.Errorf("commit failed (%v) and status update failed: %w", err, updateErr)
		}
		return err
	}

	tx.Status = models.TransactionStatusCompleted
	tx.ProcessedBy = &processorID
	if err := s.transactions.Update(tx); err != nil {
		return fmt.Errorf("finalize transaction %s: %w", tx.Reference, err)
	}

	amount, _ := tx.Amount.Float64()
	s.metrics.RecordCommit(tx.Type, amount)
	s.invalidateOutflow(ctx, tx)
	return nil
}

// CompleteApproved commits a transaction whose approval was granted.
func (s *Service) CompleteApproved(ctx context.Context, transactionID, approverID uint) error {
	tx, err := s.transactions.GetByID(transactionID)
	if err != nil {
		return err
	}
	if tx.Status != models.TransactionStatusPendingApproval {
		return fmt.Errorf("%w: transaction %s is %s", ErrNotPendingApproval, tx.Reference, tx.Status)
	}

	tx.ApprovedBy = &approverID
	return s.commit(ctx, tx, approverID)
}

// FailRejected terminates a transaction whose approval was denied. No
// balance was ever touched for it.
func (s *Service) FailRejected(ctx context.Context, transactionID, actorID uint, reason string) error {
	tx, err := s.transactions.GetByID(transactionID)
	if err != nil {
		return err
	}
	if tx.Status != models.TransactionStatusPendingApproval {
		return fmt.Errorf("%w: transaction %s is %s", ErrNotPendingApproval, tx.Reference, tx.Status)
	}

	tx.Status = models.TransactionStatusFailed
	tx.ProcessedBy = &actorID
	tx.Metadata[models.MetaFailureCode] = "approval_rejected"
	tx.Metadata[models.MetaFailureDetail] = reason
	return s.transactions.Update(tx)
}

// CancelPending withdraws a transaction whose approval was cancelled.
func (s *Service) CancelPending(ctx context.Context, transactionID, actorID uint) error {
	tx, err := s.transactions.GetByID(transactionID)
	if err != nil {
		return err
	}
	if tx.Status != models.TransactionStatusPendingApproval {
		return fmt.Errorf("%w: transaction %s is %s", ErrNotPendingApproval, tx.Reference, tx.Status)
	}

	tx.Status = models.TransactionStatusCancelled
	tx.ProcessedBy = &actorID
	return s.transactions.Update(tx)
}
