package accountstate

import "ledgerd/internal/models"

// Operations permitted per account state. The validation chain consults
// these for both sides of a transaction.
//
//	state      | debit (source)          | credit (destination)
//	active     | all                     | all
//	frozen     | none                    | deposit, transfer
//	suspended  | none                    | deposit
//	closed     | none                    | none

// CanDebit reports whether an account in the given state may act as a
// transaction source.
func CanDebit(state string) bool {
	return state == models.AccountStateActive
}

// CanCredit reports whether an account in the given state may receive the
// given transaction type.
func CanCredit(state, txType string) bool {
	switch state {
	case models.AccountStateActive:
		return true
	case models.AccountStateFrozen:
		return txType == models.TransactionTypeDeposit ||
			txType == models.TransactionTypeTransfer
	case models.AccountStateSuspended:
		return txType == models.TransactionTypeDeposit
	}
	return false
}

// ValidState reports whether s names a lifecycle state.
func ValidState(s string) bool {
	switch s {
	case models.AccountStateActive, models.AccountStateFrozen,
		models.AccountStateSuspended, models.AccountStateClosed:
		return true
	}
	return false
}

// hasElevatedAuthorization gates transitions touching the suspended state.
func hasElevatedAuthorization(user *models.User) bool {
	switch user.Role {
	case models.RoleAdmin, models.RoleSeniorManager, models.RoleExecutive:
		return true
	}
	return false
}
