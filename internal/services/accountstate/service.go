// Package accountstate holds the account lifecycle state machine. Every
// transition appends an immutable AccountStateRecord; group transitions
// cascade to all children as a single atomic unit.
package accountstate

import (
	"context"
	"fmt"

	"ledgerd/internal/models"
)

// Store is the slice of the account repository the state machine needs.
type Store interface {
	GetByID(id uint) (*models.Account, error)
	GetChildren(parentID uint) ([]*models.Account, error)
	CurrentState(accountID uint) (string, error)
	AppendStateRecords(records []*models.AccountStateRecord) error
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	if store == nil {
		panic("store is required")
	}
	return &Service{store: store}
}

// CurrentState returns the account's current lifecycle state.
func (s *Service) CurrentState(ctx context.Context, accountID uint) (string, error) {
	return s.store.CurrentState(accountID)
}

// Transition moves an account to newState, cascading into children when
// the account is a group. Either every record is written or none are.
// Returns the appended records.
func (s *Service) Transition(ctx context.Context, accountID uint, newState string, actor *models.User, reason string) ([]*models.AccountStateRecord, error) {
	if !ValidState(newState) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownState, newState)
	}

	account, err := s.store.GetByID(accountID)
	if err != nil {
		return nil, err
	}

	current, err := s.store.CurrentState(accountID)
	if err != nil {
		return nil, err
	}

	if err := s.checkTransition(current, newState, actor); err != nil {
		return nil, err
	}

	records := []*models.AccountStateRecord{{
		AccountID: account.ID,
		State:     newState,
		ChangedBy: actor.ID,
		Reason:    reason,
	}}

	// Group accounts cascade the transition into every child. Each child is
	// rule-checked first: a single ineligible child fails the whole unit.
	// Children already in the target state need no record and don't block.
	if account.ParentID == nil {
		children, err := s.store.GetChildren(account.ID)
		if err != nil {
			return nil, err
		}
		for _, child := range children {
			childState, err := s.store.CurrentState(child.ID)
			if err != nil {
				return nil, err
			}
			if childState == newState {
				continue
			}
			if err := s.checkTransition(childState, newState, actor); err != nil {
				return nil, fmt.Errorf("cascade blocked at account %d: %w", child.ID, err)
			}
			records = append(records, &models.AccountStateRecord{
				AccountID: child.ID,
				State:     newState,
				ChangedBy: actor.ID,
				Reason:    reason,
			})
		}
	}

	if err := s.store.AppendStateRecords(records); err != nil {
		return nil, fmt.Errorf("failed to record transition: %w", err)
	}
	return records, nil
}

func (s *Service) checkTransition(current, newState string, actor *models.User) error {
	if current == newState {
		return fmt.Errorf("%w: account already %s", ErrStateTransitionDenied, current)
	}
	// Closed is terminal for reactivation.
	if newState == models.AccountStateActive && current == models.AccountStateClosed {
		return fmt.Errorf("%w: closed accounts cannot be reactivated", ErrStateTransitionDenied)
	}
	if !actor.IsStaff() {
		return fmt.Errorf("%w: account management requires a staff role", ErrAuthorizationDenied)
	}
	if newState == models.AccountStateSuspended || current == models.AccountStateSuspended {
		if !hasElevatedAuthorization(actor) {
			return fmt.Errorf("%w: suspension changes require elevated authorization", ErrAuthorizationDenied)
		}
	}
	return nil
}
