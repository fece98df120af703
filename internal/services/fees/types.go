package fees

import (
	"github.com/shopspring/decimal"

	"ledgerd/internal/models"
)

// Context carries the facts about a transaction that fee predicates and
// discounts read beyond the accounts themselves. It is assembled by the
// caller; selection and computation are pure functions of Input.
type Context struct {
	SameCustomer        bool
	EmployeeAccounts    bool
	Promotional         bool
	SystemGenerated     bool
	WireTransfer        bool
	HighRiskDestination bool
	LoyaltyYears        int
	MonthlyVolume       decimal.Decimal
}

// Input is everything a strategy may consult.
type Input struct {
	Amount      decimal.Decimal
	Source      *models.Account // nil for deposits
	Destination *models.Account
	Context     Context
}

// Strategy is one entry in the fee registry: an applicability predicate,
// a priority (lower wins), and a pure fee computation.
type Strategy struct {
	Name     string
	Priority int
	Applies  func(Input) bool
	Compute  func(Input) decimal.Decimal
}

// Registry priorities for the built-in strategies.
const (
	PriorityNoFee         = 10
	PriorityPremium       = 20
	PriorityDomestic      = 30
	PriorityInternational = 40
)
