package risk

import (
	"time"

	"github.com/shopspring/decimal"

	"ledgerd/internal/repositories"
)

// Factor weights. Each factor is binary: it contributes its full weight
// when triggered, nothing otherwise.
const (
	WeightUnusualLocation     = 25
	WeightLargeAmount         = 30
	WeightNewPayee            = 20
	WeightAfterHours          = 15
	WeightRapidSuccession     = 25
	WeightHighRiskDestination = 40
	WeightYoungAccount        = 10
	WeightUnusualPattern      = 35
)

// Score thresholds for the chain's classification.
const (
	ThresholdReview = 30 // below: pass
	ThresholdBlock  = 70 // at or above: hard block
)

// Factor records one triggered risk signal.
type Factor struct {
	Name        string `json:"name"`
	Weight      int    `json:"weight"`
	Description string `json:"description"`
}

// Assessment is the outcome of scoring one transaction.
type Assessment struct {
	Score   int      `json:"score"`
	Factors []Factor `json:"factors"`
}

// Input bundles the transaction with pre-fetched context so scoring is a
// pure function: no lookups happen once scoring starts.
type Input struct {
	TransactionType    string
	Amount             decimal.Decimal
	OriginCountry      string // where the request came from
	ActorCountry       string // the actor's known location
	DestinationCountry string
	SourceOpenedAt     *time.Time // nil when there is no source account
	HasSourcePair      bool       // both source and destination present
	Now                time.Time  // local submission time
	History            *repositories.ActorHistory
}
