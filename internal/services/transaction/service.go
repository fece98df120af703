// Package transaction orchestrates the full decision pipeline for a money
// movement: load the parties, run the validation chain, then persist the
// classified outcome. Rejections persist a failed record and never touch
// balances; deferrals open an approval; admitted transactions are priced
// and committed under row locks.
package transaction

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"ledgerd/internal/models"
	"ledgerd/internal/repositories"
	"ledgerd/internal/services/fees"
	"ledgerd/internal/services/risk"
	"ledgerd/internal/services/validation"
)

type Service struct {
	accounts     repositories.AccountRepository
	transactions repositories.TransactionRepository
	users        repositories.UserRepository
	chain        *validation.Chain
	fees         *fees.Selector
	approvals    ApprovalCreator
	outflow      OutflowInvalidator
	metrics      MetricsCollector
	now          func() time.Time
}

func NewService(
	accounts repositories.AccountRepository,
	transactions repositories.TransactionRepository,
	users repositories.UserRepository,
	chain *validation.Chain,
	feeSelector *fees.Selector,
) *Service {
	if accounts == nil {
		panic("account repository is required")
	}
	if transactions == nil {
		panic("transaction repository is required")
	}
	if users == nil {
		panic("user repository is required")
	}
	if chain == nil {
		panic("validation chain is required")
	}
	if feeSelector == nil {
		panic("fee selector is required")
	}
	return &Service{
		accounts:     accounts,
		transactions: transactions,
		users:        users,
		chain:        chain,
		fees:         feeSelector,
		metrics:      NoopMetricsCollector{},
		now:          time.Now,
	}
}

// WithApprovals wires the approval service in after construction.
func (s *Service) WithApprovals(a ApprovalCreator) *Service {
	s.approvals = a
	return s
}

// WithOutflowInvalidator sets the daily-outflow cache invalidation hook.
func (s *Service) WithOutflowInvalidator(o OutflowInvalidator) *Service {
	s.outflow = o
	return s
}

// WithMetrics sets the metrics collector.
func (s *Service) WithMetrics(m MetricsCollector) *Service {
	s.metrics = m
	return s
}

// WithClock overrides the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Submit runs a proposed transaction through the decision chain and
// persists the classified outcome. The returned error covers internal
// faults only; business rejections come back inside the Result.
func (s *Service) Submit(ctx context.Context, req Request) (*Result, error) {
	actor, err := s.users.GetByID(req.InitiatorID)
	if err != nil {
		return nil, fmt.Errorf("load initiator: %w", err)
	}

	source, destination, err := s.loadParties(req)
	if err != nil {
		return nil, err
	}

	draft, err := s.buildDraft(req, source)
	if err != nil {
		return nil, err
	}

	vreq := &validation.Request{
		Transaction:   draft,
		Actor:         actor,
		Source:        source,
		Destination:   destination,
		OriginCountry: req.OriginCountry,
		Now:           s.now(),
	}
	if source != nil {
		if vreq.SourceState, err = s.accounts.CurrentState(source.ID); err != nil {
			return nil, fmt.Errorf("load source state: %w", err)
		}
	}
	if destination != nil {
		if vreq.DestinationState, err = s.accounts.CurrentState(destination.ID); err != nil {
			return nil, fmt.Errorf("load destination state: %w", err)
		}
	}

	start := s.now()
	outcome, err := s.chain.Run(ctx, vreq)
	if err != nil {
		s.metrics.RecordError("chain")
		return nil, fmt.Errorf("validation chain: %w", err)
	}
	s.metrics.RecordChainDuration(s.now().Sub(start))
	s.metrics.RecordOutcome(string(outcome.Decision), outcome.Stage)

	switch outcome.Decision {
	case validation.DecisionRejected:
		return s.persistRejected(draft, outcome)
	case validation.DecisionDeferred:
		return s.persistDeferred(ctx, draft, actor, source, destination, outcome)
	default:
		return s.persistAdmitted(ctx, draft, actor, source, destination, outcome)
	}
}

// loadParties resolves and shape-checks the accounts a transaction names.
func (s *Service) loadParties(req Request) (source, destination *models.Account, err error) {
	switch req.Type {
	case models.TransactionTypeDeposit:
		if req.SourceAccountID != nil {
			return nil, nil, ErrUnexpectedSource
		}
		if req.DestinationAccountID == nil {
			return nil, nil, ErrMissingDestination
		}
	case models.TransactionTypeWithdrawal:
		if req.SourceAccountID == nil {
			return nil, nil, ErrMissingSource
		}
	case models.TransactionTypeTransfer, models.TransactionTypeInternational:
		if req.SourceAccountID == nil {
			return nil, nil, ErrMissingSource
		}
		if req.DestinationAccountID == nil {
			return nil, nil, ErrMissingDestination
		}
		if *req.SourceAccountID == *req.DestinationAccountID {
			return nil, nil, ErrSameAccount
		}
	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownType, req.Type)
	}

	if req.SourceAccountID != nil {
		if source, err = s.accounts.GetByID(*req.SourceAccountID); err != nil {
			return nil, nil, fmt.Errorf("load source account: %w", err)
		}
	}
	if req.DestinationAccountID != nil {
		if destination, err = s.accounts.GetByID(*req.DestinationAccountID); err != nil {
			return nil, nil, fmt.Errorf("load destination account: %w", err)
		}
	}
	return source, destination, nil
}

func (s *Service) buildDraft(req Request, source *models.Account) (*models.Transaction, error) {
	currency := req.Currency
	if source != nil {
		if currency == "" {
			currency = source.Currency
		} else if currency != source.Currency {
			return nil, ErrCurrencyMismatch
		}
	}
	if currency == "" {
		currency = "USD"
	}

	metadata := models.JSON{}
	for k, v := range req.Metadata {
		metadata[k] = v
	}

	return &models.Transaction{
		Reference:            "TXN-" + uuid.NewString(),
		Type:                 req.Type,
		SourceAccountID:      req.SourceAccountID,
		DestinationAccountID: req.DestinationAccountID,
		Amount:               req.Amount,
		Currency:             currency,
		Status:               models.TransactionStatusPending,
		InitiatorID:          req.InitiatorID,
		Description:          req.Description,
		Metadata:             metadata,
	}, nil
}

// persistRejected records the refusal for audit. No balance is touched.
func (s *Service) persistRejected(draft *models.Transaction, outcome validation.Outcome) (*Result, error) {
	draft.Status = models.TransactionStatusFailed
	draft.Metadata[models.MetaFailureCode] = outcome.Err.Code
	draft.Metadata[models.MetaFailureDetail] = outcome.Err.Message
	if err := s.transactions.Create(draft); err != nil {
		return nil, fmt.Errorf("persist rejected transaction: %w", err)
	}
	return &Result{Transaction: draft, Outcome: outcome}, nil
}

// persistDeferred parks the transaction and opens the approval. The fee is
// priced now so reviewers see the full cost of what they are approving.
func (s *Service) persistDeferred(ctx context.Context, draft *models.Transaction, actor *models.User, source, destination *models.Account, outcome validation.Outcome) (*Result, error) {
	if err := s.priceDraft(draft, actor, source, destination); err != nil {
		return nil, err
	}

	draft.Status = models.TransactionStatusPendingApproval
	draft.Metadata[models.MetaApprovalLevel] = outcome.Level
	if err := s.transactions.Create(draft); err != nil {
		return nil, fmt.Errorf("persist deferred transaction: %w", err)
	}

	result := &Result{Transaction: draft, Outcome: outcome}
	if s.approvals != nil {
		approval, err := s.approvals.CreateForTransaction(ctx, draft, outcome.Level)
		if err != nil {
			return nil, fmt.Errorf("open approval: %w", err)
		}
		result.Approval = approval
		s.metrics.RecordApprovalCreated(outcome.Level)
	}
	return result, nil
}

// persistAdmitted prices the transaction and commits the funds.
func (s *Service) persistAdmitted(ctx context.Context, draft *models.Transaction, actor *models.User, source, destination *models.Account, outcome validation.Outcome) (*Result, error) {
	if err := s.priceDraft(draft, actor, source, destination); err != nil {
		return nil, err
	}
	if err := s.transactions.Create(draft); err != nil {
		return nil, fmt.Errorf("persist transaction: %w", err)
	}

	if err := s.commit(ctx, draft, draft.InitiatorID); err != nil {
		return nil, err
	}
	return &Result{Transaction: draft, Outcome: outcome}, nil
}

// priceDraft computes the fee for debit transactions. Deposits carry no
// fee; funds entering the bank are not priced.
func (s *Service) priceDraft(draft *models.Transaction, actor *models.User, source, destination *models.Account) error {
	if !draft.IsDebitType() {
		return nil
	}

	input := fees.Input{
		Amount:      draft.Amount,
		Source:      source,
		Destination: destination,
		Context:     s.feeContext(draft, actor, source, destination),
	}
	fee, strategy, err := s.fees.CalculateFee(input)
	if err != nil {
		return fmt.Errorf("price transaction: %w", err)
	}
	draft.Fee = fee
	draft.Metadata[models.MetaFeeStrategy] = strategy
	return nil
}

func (s *Service) feeContext(draft *models.Transaction, actor *models.User, source, destination *models.Account) fees.Context {
	c := fees.Context{
		WireTransfer: draft.Type == models.TransactionTypeInternational,
		LoyaltyYears: int(s.now().Sub(actor.CreatedAt).Hours() / (24 * 365)),
	}
	if source != nil && destination != nil {
		c.SameCustomer = source.OwnerID == destination.OwnerID
		c.EmployeeAccounts = source.HasFeature(models.FeatureEmployee) &&
			destination.HasFeature(models.FeatureEmployee)
	}
	if destination != nil {
		c.HighRiskDestination = risk.IsHighRiskCountry(destination.Country)
	}
	if v, ok := draft.Metadata["promotional"].(bool); ok {
		c.Promotional = v
	}
	if v, ok := draft.Metadata["system_generated"].(bool); ok {
		c.SystemGenerated = v
	}
	return c
}

// invalidateOutflow drops the cached daily aggregate after a committed
// debit. Failure here only delays cache refresh, so it is logged and
// swallowed.
func (s *Service) invalidateOutflow(ctx context.Context, tx *models.Transaction) {
	if s.outflow == nil || !tx.IsDebitType() || tx.SourceAccountID == nil {
		return
	}
	date := s.now().UTC().Format("2006-01-02")
	if err := s.outflow.InvalidateDailyOutflow(ctx, tx.InitiatorID, *tx.SourceAccountID, tx.Currency, date); err != nil {
		log.Printf("daily outflow invalidation failed for tx %s: %v", tx.Reference, err)
	}
}
