package approval

import (
	"time"

	"github.com/shopspring/decimal"

	"ledgerd/internal/models"
)

// Per-level decision timeouts. An approval created at a level is due after
// its timeout; escalation restarts the clock at the new level's timeout.
var levelTimeouts = map[string]time.Duration{
	models.ApprovalLevelTeller:            24 * time.Hour,
	models.ApprovalLevelManager:           36 * time.Hour,
	models.ApprovalLevelAdmin:             48 * time.Hour,
	models.ApprovalLevelComplianceOfficer: 72 * time.Hour,
	models.ApprovalLevelSeniorManager:     96 * time.Hour,
	models.ApprovalLevelExecutive:         120 * time.Hour,
}

// LevelTimeout returns the decision window for a level.
func LevelTimeout(level string) time.Duration {
	if d, ok := levelTimeouts[level]; ok {
		return d
	}
	return 24 * time.Hour
}

// Amount tiers mapping transaction amounts to required approval levels.
var (
	tierNone      = decimal.NewFromInt(10000)
	tierTeller    = decimal.NewFromInt(50000)
	tierManager   = decimal.NewFromInt(100000)
	tierAdmin     = decimal.NewFromInt(500000)
)

// RequiredLevel computes the approval level a transaction needs, or ""
// when none is required. International/wire transfers always need at least
// manager review, and compliance review for high-risk destinations.
func RequiredLevel(amount decimal.Decimal, txType string, highRiskDestination bool) string {
	var level string
	switch {
	case amount.LessThanOrEqual(tierNone):
		level = ""
	case amount.LessThanOrEqual(tierTeller):
		level = models.ApprovalLevelTeller
	case amount.LessThanOrEqual(tierManager):
		level = models.ApprovalLevelManager
	case amount.LessThanOrEqual(tierAdmin):
		level = models.ApprovalLevelAdmin
	default:
		level = models.ApprovalLevelExecutive
	}

	if txType == models.TransactionTypeInternational {
		floor := models.ApprovalLevelManager
		if highRiskDestination {
			floor = models.ApprovalLevelComplianceOfficer
		}
		if models.ApprovalLevelRank(floor) > models.ApprovalLevelRank(level) {
			level = floor
		}
	}
	return level
}

// Maximum transaction amount each role may approve. This axis is
// independent of the level-timeout table: a role can hold the right level
// for an approval yet be barred by the amount cap.
var roleMaxApprovalAmount = map[string]decimal.Decimal{
	models.RoleTeller:            decimal.NewFromInt(10000),
	models.RoleManager:           decimal.NewFromInt(100000),
	models.RoleAdmin:             decimal.NewFromInt(500000),
	models.RoleComplianceOfficer: decimal.NewFromInt(500000),
	models.RoleSeniorManager:     decimal.NewFromInt(1000000),
	// executive: unbounded
}

// CanActOn reports whether a role may decide an approval at the given
// level for the given amount.
func CanActOn(role string, level string, amount decimal.Decimal) bool {
	roleRank := models.ApprovalLevelRank(role)
	if roleRank == 0 || roleRank < models.ApprovalLevelRank(level) {
		return false
	}
	if max, ok := roleMaxApprovalAmount[role]; ok && amount.GreaterThan(max) {
		return false
	}
	return true
}
