package validation

import (
	"context"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"ledgerd/internal/models"
	"ledgerd/internal/services/accountstate"
	"ledgerd/internal/services/approval"
	"ledgerd/internal/services/risk"
)

// amountStage checks amount bounds, the per-type maximum, and
// available-balance sufficiency for debit types.
type amountStage struct{}

func (amountStage) Name() string { return "amount" }
func (amountStage) Order() int   { return OrderAmount }

func (amountStage) Evaluate(ctx context.Context, req *Request) (StageResult, error) {
	tx := req.Transaction

	if !tx.Amount.IsPositive() {
		return StageResult{Err: newChainError(CodeInvalidAmount,
			"amount must be positive, got %s", tx.Amount).
			withDetail("amount", tx.Amount.String())}, nil
	}

	max, ok := typeMaxAmounts[tx.Type]
	if !ok {
		return StageResult{Err: newChainError(CodeInvalidAmount,
			"unsupported transaction type %q", tx.Type)}, nil
	}
	if tx.Amount.GreaterThan(max) {
		return StageResult{Err: newChainError(CodeInvalidAmount,
			"amount %s exceeds %s maximum %s", tx.Amount, tx.Type, max).
			withDetail("amount", tx.Amount.String()).
			withDetail("maximum", max.String())}, nil
	}

	if tx.IsDebitType() {
		if req.Source == nil {
			return StageResult{Err: newChainError(CodeNotFound,
				"%s requires a source account", tx.Type)}, nil
		}
		if req.Source.Balance.LessThan(tx.Amount) {
			return StageResult{Err: newChainError(CodeInsufficientBalance,
				"available balance %s below requested %s", req.Source.Balance, tx.Amount).
				withDetail("available", req.Source.Balance.String()).
				withDetail("requested", tx.Amount.String())}, nil
		}
	}

	return StageResult{}, nil
}

// stateStage consults the per-state permitted-operations table for both
// sides of the transaction.
type stateStage struct{}

func (stateStage) Name() string { return "account_state" }
func (stateStage) Order() int   { return OrderState }

func (stateStage) Evaluate(ctx context.Context, req *Request) (StageResult, error) {
	tx := req.Transaction

	if tx.IsDebitType() {
		if !accountstate.CanDebit(req.SourceState) {
			return StageResult{Err: newChainError(CodeAccountStateViolation,
				"%s accounts do not allow %s", req.SourceState, tx.Type).
				withDetail("account_id", req.Source.ID).
				withDetail("state", req.SourceState)}, nil
		}
	}

	if req.Destination != nil {
		if !accountstate.CanCredit(req.DestinationState, tx.Type) {
			return StageResult{Err: newChainError(CodeAccountStateViolation,
				"%s accounts do not accept %s", req.DestinationState, tx.Type).
				withDetail("account_id", req.Destination.ID).
				withDetail("state", req.DestinationState)}, nil
		}
	}

	return StageResult{}, nil
}

// dailyLimitStage sums today's outflow for (actor, account, currency) and
// rejects when the new amount would exceed the tiered limit. The aggregate
// is served from a short-TTL cache when warm.
type dailyLimitStage struct {
	source DailyOutflowSource
	cache  DailyOutflowCache
}

func (dailyLimitStage) Name() string { return "daily_limit" }
func (dailyLimitStage) Order() int   { return OrderDailyLimit }

func (s dailyLimitStage) Evaluate(ctx context.Context, req *Request) (StageResult, error) {
	tx := req.Transaction
	if !tx.IsDebitType() || req.Source == nil {
		return StageResult{}, nil
	}

	date := req.Now.Format("2006-01-02")
	used, found, err := s.cache.GetDailyOutflow(ctx, req.Actor.ID, req.Source.ID, tx.Currency, date)
	if err != nil {
		// Cache trouble is not a reason to reject; fall through to the source.
		log.Printf("daily outflow cache read failed: %v", err)
		found = false
	}
	if !found {
		dayStart := time.Date(req.Now.Year(), req.Now.Month(), req.Now.Day(), 0, 0, 0, 0, req.Now.Location())
		used, err = s.source.DailyOutflow(ctx, req.Actor.ID, req.Source.ID, tx.Currency, dayStart, dayStart.AddDate(0, 0, 1))
		if err != nil {
			return StageResult{}, err
		}
		if cacheErr := s.cache.SetDailyOutflow(ctx, req.Actor.ID, req.Source.ID, tx.Currency, date, used); cacheErr != nil {
			log.Printf("daily outflow cache write failed: %v", cacheErr)
		}
	}

	limit := dailyLimitFor(req.Source, req.Actor)
	if used.Add(tx.Amount).GreaterThan(limit) {
		remaining := limit.Sub(used)
		if remaining.IsNegative() {
			remaining = decimal.Zero
		}
		return StageResult{Err: newChainError(CodeDailyLimitExceeded,
			"daily limit %s %s would be exceeded: used %s, remaining %s",
			limit, tx.Currency, used, remaining).
			withDetail("limit", limit.String()).
			withDetail("used", used.String()).
			withDetail("remaining", remaining.String())}, nil
	}

	return StageResult{}, nil
}

// fraudStage delegates to the risk scorer: medium risk defers, high risk
// rejects. History assembly failures fail open so an internal scoring
// fault never blocks legitimate transactions.
type fraudStage struct {
	scorer  *risk.Service
	history HistorySource
}

func (fraudStage) Name() string { return "fraud" }
func (fraudStage) Order() int   { return OrderFraud }

func (s fraudStage) Evaluate(ctx context.Context, req *Request) (StageResult, error) {
	tx := req.Transaction

	hist, err := s.history.BuildActorHistory(ctx, req.Actor.ID, tx.SourceAccountID, tx.DestinationAccountID, req.Now)
	if err != nil {
		log.Printf("risk history assembly failed, failing open: %v", err)
		return StageResult{}, nil
	}

	in := risk.Input{
		TransactionType:    tx.Type,
		Amount:             tx.Amount,
		OriginCountry:      req.OriginCountry,
		ActorCountry:       req.Actor.Country,
		HasSourcePair:      tx.SourceAccountID != nil && tx.DestinationAccountID != nil,
		Now:                req.Now,
		History:            hist,
	}
	if req.Destination != nil {
		in.DestinationCountry = req.Destination.Country
	}
	if req.Source != nil {
		opened := req.Source.CreatedAt
		in.SourceOpenedAt = &opened
	}

	assessment := s.scorer.Score(in)
	score := assessment.Score

	if tx.Metadata == nil {
		tx.Metadata = models.JSON{}
	}
	tx.Metadata[models.MetaRiskScore] = score

	switch {
	case score >= risk.ThresholdBlock:
		return StageResult{Err: newChainError(CodeFraudRiskBlocked,
			"risk score %d at or above block threshold %d", score, risk.ThresholdBlock).
			withDetail("risk_score", score).
			withDetail("factors", assessment.Factors)}, nil
	case score >= risk.ThresholdReview:
		// Manual review at manager level, or higher if the amount tier
		// already demands it.
		level := approval.RequiredLevel(tx.Amount, tx.Type, risk.IsHighRiskCountry(in.DestinationCountry))
		if models.ApprovalLevelRank(level) < models.ApprovalLevelRank(models.ApprovalLevelManager) {
			level = models.ApprovalLevelManager
		}
		return StageResult{Defer: true, Level: level}, nil
	}

	return StageResult{}, nil
}

// thresholdStage defers transactions whose type or amount demands approval
// regardless of risk score.
type thresholdStage struct{}

func (thresholdStage) Name() string { return "approval_threshold" }
func (thresholdStage) Order() int   { return OrderThreshold }

func (thresholdStage) Evaluate(ctx context.Context, req *Request) (StageResult, error) {
	tx := req.Transaction
	highRisk := false
	if req.Destination != nil {
		highRisk = risk.IsHighRiskCountry(req.Destination.Country)
	}
	if level := approval.RequiredLevel(tx.Amount, tx.Type, highRisk); level != "" {
		return StageResult{Defer: true, Level: level}, nil
	}
	return StageResult{}, nil
}
