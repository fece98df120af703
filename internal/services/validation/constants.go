package validation

import (
	"github.com/shopspring/decimal"

	"ledgerd/internal/models"
)

// Per-type maximum amounts.
var typeMaxAmounts = map[string]decimal.Decimal{
	models.TransactionTypeDeposit:       decimal.NewFromInt(1000000),
	models.TransactionTypeWithdrawal:    decimal.NewFromInt(50000),
	models.TransactionTypeTransfer:      decimal.NewFromInt(500000),
	models.TransactionTypeInternational: decimal.NewFromInt(1000000),
}

// Daily outflow limits by account tier. A business feature outranks
// premium; actors may carry a personal override.
var (
	dailyLimitBase     = decimal.NewFromInt(10000)
	dailyLimitPremium  = decimal.NewFromInt(50000)
	dailyLimitBusiness = decimal.NewFromInt(100000)
)

func dailyLimitFor(account *models.Account, actor *models.User) decimal.Decimal {
	if actor.DailyLimitOverride != nil {
		return *actor.DailyLimitOverride
	}
	switch {
	case account.HasFeature(models.FeatureBusiness):
		return dailyLimitBusiness
	case account.HasFeature(models.FeaturePremium):
		return dailyLimitPremium
	}
	return dailyLimitBase
}
