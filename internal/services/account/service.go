// Package account manages account records and composite groups: opening,
// attaching children to a group head, and the aggregated view where a
// group's reported balance is its own balance plus the sum of its
// children's.
package account

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"ledgerd/internal/models"
	"ledgerd/internal/repositories"
	"ledgerd/internal/services/accountstate"
)

type Service struct {
	accounts repositories.AccountRepository
	states   *accountstate.Service
}

func NewService(accounts repositories.AccountRepository, states *accountstate.Service) *Service {
	if accounts == nil {
		panic("account repository is required")
	}
	if states == nil {
		panic("account state service is required")
	}
	return &Service{accounts: accounts, states: states}
}

// Create opens a new account in the active state. Children inherit the
// parent's currency; an explicit mismatching currency is refused.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*models.Account, error) {
	account := &models.Account{
		Number:   "ACC-" + strings.ToUpper(uuid.NewString()[:12]),
		OwnerID:  req.OwnerID,
		Currency: req.Currency,
		Country:  req.Country,
		ParentID: req.ParentID,
		Features: req.Features,
	}
	if account.Currency == "" {
		account.Currency = "USD"
	}

	if req.ParentID != nil {
		parent, err := s.accounts.GetByID(*req.ParentID)
		if err != nil {
			return nil, fmt.Errorf("load parent account: %w", err)
		}
		if parent.ParentID != nil {
			return nil, repositories.ErrNestingTooDeep
		}
		if req.Currency != "" && req.Currency != parent.Currency {
			return nil, repositories.ErrCurrencyMismatch
		}
		account.Currency = parent.Currency
	}

	if err := s.accounts.Create(account); err != nil {
		return nil, err
	}
	return account, nil
}

// AttachToGroup makes an existing standalone account a child of a group
// head. Nesting and currency rules are enforced by the repository.
func (s *Service) AttachToGroup(ctx context.Context, childID, parentID uint) error {
	return s.accounts.AttachToGroup(childID, parentID)
}

// Get returns the account with its current state and reported balance.
// For a group head the reported balance aggregates the children.
func (s *Service) Get(ctx context.Context, id uint) (*Overview, error) {
	account, err := s.accounts.GetByID(id)
	if err != nil {
		return nil, err
	}

	state, err := s.states.CurrentState(ctx, id)
	if err != nil {
		return nil, err
	}

	overview := &Overview{
		Account:         account,
		State:           state,
		ReportedBalance: account.Balance,
	}

	children, err := s.accounts.GetChildren(id)
	if err != nil {
		return nil, err
	}
	overview.ChildCount = len(children)
	for _, child := range children {
		overview.ReportedBalance = overview.ReportedBalance.Add(child.Balance)
	}
	return overview, nil
}

// ListByOwner returns every account a user owns.
func (s *Service) ListByOwner(ctx context.Context, ownerID uint) ([]*models.Account, error) {
	return s.accounts.ListByOwner(ownerID)
}

// Transition changes an account's lifecycle state, cascading to group
// children as one unit.
func (s *Service) Transition(ctx context.Context, accountID uint, newState string, actor *models.User, reason string) ([]*models.AccountStateRecord, error) {
	return s.states.Transition(ctx, accountID, newState, actor, reason)
}

// StateHistory returns the newest state records for an account.
func (s *Service) StateHistory(ctx context.Context, accountID uint, limit int) ([]*models.AccountStateRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.accounts.StateHistory(accountID, limit)
}
