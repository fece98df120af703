package validation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledgerd/internal/models"
	"ledgerd/internal/repositories"
	"ledgerd/internal/services/risk"
)

// Wednesday mid-morning: no time-based risk factor fires.
var testNow = time.Date(2025, 3, 12, 10, 30, 0, 0, time.UTC)

type fakeHistory struct {
	history *repositories.ActorHistory
	err     error
	calls   int
}

func (f *fakeHistory) BuildActorHistory(_ context.Context, _ uint, _, _ *uint, _ time.Time) (*repositories.ActorHistory, error) {
	f.calls++
	return f.history, f.err
}

type fakeOutflow struct {
	total decimal.Decimal
	err   error
	calls int
}

func (f *fakeOutflow) DailyOutflow(_ context.Context, _, _ uint, _ string, _, _ time.Time) (decimal.Decimal, error) {
	f.calls++
	return f.total, f.err
}

type fakeOutflowCache struct {
	entries map[string]decimal.Decimal
	getErr  error
	gets    int
	sets    int
}

func newFakeOutflowCache() *fakeOutflowCache {
	return &fakeOutflowCache{entries: make(map[string]decimal.Decimal)}
}

func (f *fakeOutflowCache) key(actorID, accountID uint, currency, date string) string {
	return currency + date
}

func (f *fakeOutflowCache) GetDailyOutflow(_ context.Context, actorID, accountID uint, currency, date string) (decimal.Decimal, bool, error) {
	f.gets++
	if f.getErr != nil {
		return decimal.Zero, false, f.getErr
	}
	total, ok := f.entries[f.key(actorID, accountID, currency, date)]
	return total, ok, nil
}

func (f *fakeOutflowCache) SetDailyOutflow(_ context.Context, actorID, accountID uint, currency, date string, total decimal.Decimal) error {
	f.sets++
	f.entries[f.key(actorID, accountID, currency, date)] = total
	return nil
}

type chainFixture struct {
	history *fakeHistory
	outflow *fakeOutflow
	cache   *fakeOutflowCache
	chain   *Chain
}

func quietHistory() *repositories.ActorHistory {
	return &repositories.ActorHistory{
		AverageAmount3M:     decimal.NewFromInt(500),
		PriorTransferExists: true,
		TopTypes3M:          []string{"transfer", "withdrawal", "deposit"},
		HistoryDepth:        60,
	}
}

func newChainFixture() *chainFixture {
	f := &chainFixture{
		history: &fakeHistory{history: quietHistory()},
		outflow: &fakeOutflow{total: decimal.Zero},
		cache:   newFakeOutflowCache(),
	}
	f.chain = NewChain(risk.NewService(), f.history, f.outflow, f.cache)
	return f
}

func actor(id uint) *models.User {
	u := &models.User{Country: "US", Status: "active"}
	u.ID = id
	u.CreatedAt = testNow.AddDate(-3, 0, 0)
	return u
}

func account(id uint, balance int64, features ...string) *models.Account {
	return &models.Account{
		ID:        id,
		OwnerID:   1,
		Balance:   decimal.NewFromInt(balance),
		Currency:  "USD",
		Country:   "US",
		Features:  features,
		CreatedAt: testNow.AddDate(-2, 0, 0),
	}
}

func withdrawalRequest(amount int64, source *models.Account) *Request {
	tx := &models.Transaction{
		Type:            models.TransactionTypeWithdrawal,
		SourceAccountID: &source.ID,
		Amount:          decimal.NewFromInt(amount),
		Currency:        "USD",
		InitiatorID:     1,
		Metadata:        models.JSON{},
	}
	return &Request{
		Transaction:   tx,
		Actor:         actor(1),
		Source:        source,
		SourceState:   models.AccountStateActive,
		OriginCountry: "US",
		Now:           testNow,
	}
}

func transferRequest(amount int64, source, dest *models.Account) *Request {
	tx := &models.Transaction{
		Type:                 models.TransactionTypeTransfer,
		SourceAccountID:      &source.ID,
		DestinationAccountID: &dest.ID,
		Amount:               decimal.NewFromInt(amount),
		Currency:             "USD",
		InitiatorID:          1,
		Metadata:             models.JSON{},
	}
	return &Request{
		Transaction:      tx,
		Actor:            actor(1),
		Source:           source,
		Destination:      dest,
		SourceState:      models.AccountStateActive,
		DestinationState: models.AccountStateActive,
		OriginCountry:    "US",
		Now:              testNow,
	}
}

func TestChainAdmitsRoutineWithdrawal(t *testing.T) {
	f := newChainFixture()
	req := withdrawalRequest(200, account(10, 1500))

	outcome, err := f.chain.Run(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, DecisionAdmitted, outcome.Decision)
	assert.Empty(t, outcome.Stage)
	require.NotNil(t, outcome.RiskScore)
	assert.Equal(t, 0, *outcome.RiskScore)
}

func TestChainRejectsNonPositiveAmount(t *testing.T) {
	f := newChainFixture()
	req := withdrawalRequest(0, account(10, 1500))

	outcome, err := f.chain.Run(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, DecisionRejected, outcome.Decision)
	assert.Equal(t, "amount", outcome.Stage)
	assert.Equal(t, CodeInvalidAmount, outcome.Err.Code)
}

func TestChainRejectsOverTypeMaximum(t *testing.T) {
	f := newChainFixture()
	req := withdrawalRequest(60000, account(10, 100000))

	outcome, err := f.chain.Run(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, DecisionRejected, outcome.Decision)
	assert.Equal(t, CodeInvalidAmount, outcome.Err.Code)
	assert.Equal(t, "50000", outcome.Err.Details["maximum"])
}

func TestChainRejectsInsufficientBalance(t *testing.T) {
	f := newChainFixture()
	req := withdrawalRequest(2000, account(10, 1500))

	outcome, err := f.chain.Run(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, DecisionRejected, outcome.Decision)
	assert.Equal(t, CodeInsufficientBalance, outcome.Err.Code)
	assert.Equal(t, "1500", outcome.Err.Details["available"])

	// Rejected at the first stage: nothing downstream ran.
	assert.Zero(t, f.cache.gets)
	assert.Zero(t, f.history.calls)
}

func TestChainRejectsFrozenSource(t *testing.T) {
	f := newChainFixture()
	req := withdrawalRequest(200, account(10, 1500))
	req.SourceState = models.AccountStateFrozen

	outcome, err := f.chain.Run(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, DecisionRejected, outcome.Decision)
	assert.Equal(t, "account_state", outcome.Stage)
	assert.Equal(t, CodeAccountStateViolation, outcome.Err.Code)
	assert.Zero(t, f.history.calls)
}

func TestChainAllowsDepositToFrozenDestination(t *testing.T) {
	f := newChainFixture()
	dest := account(20, 0)
	tx := &models.Transaction{
		Type:                 models.TransactionTypeDeposit,
		DestinationAccountID: &dest.ID,
		Amount:               decimal.NewFromInt(300),
		Currency:             "USD",
		InitiatorID:          1,
		Metadata:             models.JSON{},
	}
	req := &Request{
		Transaction:      tx,
		Actor:            actor(1),
		Destination:      dest,
		DestinationState: models.AccountStateFrozen,
		OriginCountry:    "US",
		Now:              testNow,
	}

	outcome, err := f.chain.Run(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, DecisionAdmitted, outcome.Decision)
}

func TestChainRejectsTransferToSuspendedDestination(t *testing.T) {
	f := newChainFixture()
	req := transferRequest(200, account(10, 1500), account(20, 0))
	req.DestinationState = models.AccountStateSuspended

	outcome, err := f.chain.Run(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, DecisionRejected, outcome.Decision)
	assert.Equal(t, CodeAccountStateViolation, outcome.Err.Code)
}

func TestChainRejectsOverDailyLimit(t *testing.T) {
	f := newChainFixture()
	f.outflow.total = decimal.NewFromInt(9900)
	req := withdrawalRequest(200, account(10, 50000))

	outcome, err := f.chain.Run(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, DecisionRejected, outcome.Decision)
	assert.Equal(t, "daily_limit", outcome.Stage)
	assert.Equal(t, CodeDailyLimitExceeded, outcome.Err.Code)
	assert.Equal(t, "10000", outcome.Err.Details["limit"])
	assert.Equal(t, "9900", outcome.Err.Details["used"])
	assert.Equal(t, "100", outcome.Err.Details["remaining"])
}

func TestChainDailyLimitTiers(t *testing.T) {
	tests := []struct {
		name     string
		features []string
		override int64
		used     int64
		amount   int64
		rejected bool
	}{
		{"base limit holds", nil, 0, 9000, 1500, true},
		{"premium tier", []string{models.FeaturePremium}, 0, 9000, 1500, false},
		{"business outranks premium", []string{models.FeaturePremium, models.FeatureBusiness}, 0, 60000, 15000, false},
		{"actor override wins", nil, 200000, 60000, 15000, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newChainFixture()
			f.outflow.total = decimal.NewFromInt(tt.used)
			src := account(10, 1000000, tt.features...)
			req := withdrawalRequest(tt.amount, src)
			if tt.override > 0 {
				override := decimal.NewFromInt(tt.override)
				req.Actor.DailyLimitOverride = &override
			}

			outcome, err := f.chain.Run(context.Background(), req)

			require.NoError(t, err)
			if tt.rejected {
				assert.Equal(t, DecisionRejected, outcome.Decision)
				assert.Equal(t, CodeDailyLimitExceeded, outcome.Err.Code)
			} else {
				assert.NotEqual(t, DecisionRejected, outcome.Decision)
			}
		})
	}
}

func TestChainDailyLimitUsesCache(t *testing.T) {
	f := newChainFixture()
	req := withdrawalRequest(200, account(10, 1500))

	_, err := f.chain.Run(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1, f.outflow.calls)
	assert.Equal(t, 1, f.cache.sets)

	// Second run is served from the cache.
	_, err = f.chain.Run(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1, f.outflow.calls)
}

func TestChainDailyLimitCacheErrorFallsThrough(t *testing.T) {
	f := newChainFixture()
	f.cache.getErr = errors.New("redis down")
	req := withdrawalRequest(200, account(10, 1500))

	outcome, err := f.chain.Run(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, DecisionAdmitted, outcome.Decision)
	assert.Equal(t, 1, f.outflow.calls)
}

func TestChainFraudDefersMediumRisk(t *testing.T) {
	f := newChainFixture()
	// Unusual location (25) plus new payee (20) lands in the review band.
	f.history.history.PriorTransferExists = false
	req := transferRequest(500, account(10, 5000), account(20, 0))
	req.OriginCountry = "FR"

	outcome, err := f.chain.Run(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, DecisionDeferred, outcome.Decision)
	assert.Equal(t, "fraud", outcome.Stage)
	assert.Equal(t, models.ApprovalLevelManager, outcome.Level)
	require.NotNil(t, outcome.RiskScore)
	assert.Equal(t, 45, *outcome.RiskScore)
	assert.Equal(t, 45, req.Transaction.Metadata[models.MetaRiskScore])
}

func TestChainFraudBlocksHighRisk(t *testing.T) {
	f := newChainFixture()
	f.history.history.PriorTransferExists = false
	src := account(10, 5000)
	dest := account(20, 0)
	dest.Country = "IR"
	req := transferRequest(500, src, dest)
	req.OriginCountry = "FR"

	outcome, err := f.chain.Run(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, DecisionRejected, outcome.Decision)
	assert.Equal(t, CodeFraudRiskBlocked, outcome.Err.Code)
	require.NotNil(t, outcome.RiskScore)
	assert.Equal(t, 85, *outcome.RiskScore)
	assert.Equal(t, 85, outcome.Err.Details["risk_score"])
}

func TestChainFraudFailsOpenOnHistoryError(t *testing.T) {
	f := newChainFixture()
	f.history.err = errors.New("query timeout")
	f.history.history = nil
	req := withdrawalRequest(200, account(10, 1500))

	outcome, err := f.chain.Run(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, DecisionAdmitted, outcome.Decision)
	assert.Nil(t, outcome.RiskScore)
}

func TestChainDefersOverThreshold(t *testing.T) {
	f := newChainFixture()
	// A high running average keeps the large-amount factor quiet so the
	// threshold stage, not the fraud stage, makes the call.
	f.history.history.AverageAmount3M = decimal.NewFromInt(20000)
	src := account(10, 200000, models.FeatureBusiness)
	req := transferRequest(75000, src, account(20, 0))

	outcome, err := f.chain.Run(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, DecisionDeferred, outcome.Decision)
	assert.Equal(t, "approval_threshold", outcome.Stage)
	assert.Equal(t, models.ApprovalLevelManager, outcome.Level)
}

func TestChainOutcomeStableAcrossRuns(t *testing.T) {
	f := newChainFixture()
	f.history.history.AverageAmount3M = decimal.NewFromInt(20000)
	src := account(10, 200000, models.FeatureBusiness)
	req := transferRequest(75000, src, account(20, 0))

	first, err := f.chain.Run(context.Background(), req)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		again, err := f.chain.Run(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, first.Decision, again.Decision)
		assert.Equal(t, first.Stage, again.Stage)
		assert.Equal(t, first.Level, again.Level)
	}
}
