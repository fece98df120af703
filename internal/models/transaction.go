package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction types
const (
	TransactionTypeDeposit       = "deposit"
	TransactionTypeWithdrawal    = "withdrawal"
	TransactionTypeTransfer      = "transfer"
	TransactionTypeInternational = "international_transfer"
)

// Transaction statuses
const (
	TransactionStatusPending         = "pending"
	TransactionStatusPendingApproval = "pending_approval"
	TransactionStatusApproved        = "approved"
	TransactionStatusCompleted       = "completed"
	TransactionStatusFailed          = "failed"
	TransactionStatusCancelled       = "cancelled"
	TransactionStatusReversed        = "reversed"
)

// Metadata keys the pipeline writes into Transaction.Metadata.
const (
	MetaRiskScore     = "risk_score"
	MetaApprovalLevel = "approval_level"
	MetaFailureCode   = "failure_code"
	MetaFailureDetail = "failure_detail"
	MetaFeeStrategy   = "fee_strategy"
)

type Transaction struct {
	ID                   uint            `gorm:"primarykey"`
	Reference            string          `gorm:"uniqueIndex;not null"` // external reference ID
	Type                 string          `gorm:"not null;index"`
	SourceAccountID      *uint           `gorm:"index"` // nil for deposits
	DestinationAccountID *uint           `gorm:"index"`
	Amount               decimal.Decimal `gorm:"type:numeric(20,4);not null"`
	Currency             string          `gorm:"not null;default:'USD'"`
	Fee                  decimal.Decimal `gorm:"type:numeric(20,4);default:0"`
	Status               string          `gorm:"not null;default:'pending';index"`
	InitiatorID          uint            `gorm:"not null;index"`
	ProcessedBy          *uint
	ApprovedBy           *uint
	Description          string
	Metadata             JSON `gorm:"type:jsonb"`
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// IsDebitType reports whether the transaction draws from a source account.
func (t *Transaction) IsDebitType() bool {
	switch t.Type {
	case TransactionTypeWithdrawal, TransactionTypeTransfer, TransactionTypeInternational:
		return true
	}
	return false
}

// IsTerminal reports whether the transaction reached a final status.
func (t *Transaction) IsTerminal() bool {
	switch t.Status {
	case TransactionStatusCompleted, TransactionStatusFailed, TransactionStatusCancelled, TransactionStatusReversed:
		return true
	}
	return false
}
