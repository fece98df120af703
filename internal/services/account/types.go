package account

import (
	"github.com/shopspring/decimal"

	"ledgerd/internal/models"
)

// CreateRequest describes a new account to open.
type CreateRequest struct {
	OwnerID  uint
	Currency string
	Country  string
	ParentID *uint
	Features []string
}

// Overview is an account plus its derived values: the current lifecycle
// state and, for group heads, the balance aggregated over the children.
type Overview struct {
	Account         *models.Account
	State           string
	ReportedBalance decimal.Decimal
	ChildCount      int
}
