package validation

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"ledgerd/internal/models"
	"ledgerd/internal/repositories"
)

// Stage orders. Lower runs earlier; the chain iterates a statically
// declared list sorted by these.
const (
	OrderAmount     = 10
	OrderState      = 20
	OrderDailyLimit = 30
	OrderFraud      = 40
	OrderThreshold  = 50
)

// Decision classifies a chain run.
type Decision string

const (
	DecisionAdmitted Decision = "admitted"
	DecisionDeferred Decision = "deferred"
	DecisionRejected Decision = "rejected"
)

// Request is the fully-loaded input a chain run evaluates. The orchestrator
// resolves accounts, states and the actor before the chain starts; stages
// never fetch entities themselves.
type Request struct {
	Transaction      *models.Transaction // unsaved draft
	Actor            *models.User
	Source           *models.Account // nil for deposits
	Destination      *models.Account
	SourceState      string
	DestinationState string
	OriginCountry    string
	Now              time.Time
}

// StageResult is a single stage's verdict. The zero value is a pass.
type StageResult struct {
	Defer bool
	Level string      // required approval level when deferring
	Err   *ChainError // rejection when non-nil
}

// Stage is one decision step. Stages are pure over the Request plus their
// injected read-only sources.
type Stage interface {
	Name() string
	Order() int
	Evaluate(ctx context.Context, req *Request) (StageResult, error)
}

// Outcome is the chain's terminal classification.
type Outcome struct {
	Decision  Decision
	Stage     string      // stage that decided (empty for admitted)
	Level     string      // approval level when deferred
	RiskScore *int        // set once the fraud stage has run
	Err       *ChainError // rejection details
}

// DailyOutflowSource computes today's spend from persistent history.
type DailyOutflowSource interface {
	DailyOutflow(ctx context.Context, initiatorID, accountID uint, currency string, dayStart, dayEnd time.Time) (decimal.Decimal, error)
}

// DailyOutflowCache is the short-lived aggregate cache in front of
// DailyOutflowSource.
type DailyOutflowCache interface {
	GetDailyOutflow(ctx context.Context, actorID, accountID uint, currency, date string) (decimal.Decimal, bool, error)
	SetDailyOutflow(ctx context.Context, actorID, accountID uint, currency, date string, total decimal.Decimal) error
}

// HistorySource assembles the actor history the fraud stage scores.
type HistorySource interface {
	BuildActorHistory(ctx context.Context, initiatorID uint, sourceID, destinationID *uint, now time.Time) (*repositories.ActorHistory, error)
}
