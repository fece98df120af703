package models

import "time"

// Approval levels, ordered by authority. Rank returns the ordering.
const (
	ApprovalLevelTeller            = "teller"
	ApprovalLevelManager           = "manager"
	ApprovalLevelAdmin             = "admin"
	ApprovalLevelComplianceOfficer = "compliance_officer"
	ApprovalLevelSeniorManager     = "senior_manager"
	ApprovalLevelExecutive         = "executive"
)

// Approval statuses
const (
	ApprovalStatusPending   = "pending"
	ApprovalStatusApproved  = "approved"
	ApprovalStatusRejected  = "rejected"
	ApprovalStatusCancelled = "cancelled"
	ApprovalStatusEscalated = "escalated" // superseded by a higher-level successor
)

type Approval struct {
	ID              uint   `gorm:"primarykey"`
	Reference       string `gorm:"uniqueIndex;not null"`
	TransactionID   uint   `gorm:"not null;index"`
	Level           string `gorm:"not null"`
	Status          string `gorm:"not null;default:'pending';index"`
	ApproverID      *uint
	DueAt           time.Time `gorm:"not null;index"`
	EscalatedFromID *uint     // previous approval in the escalation chain
	ResolvedAt      *time.Time
	Notes           string
	Metadata        JSON `gorm:"type:jsonb"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsActive reports whether the approval still awaits a decision.
func (a *Approval) IsActive() bool {
	return a.Status == ApprovalStatusPending
}

// ApprovalLevelRank orders levels by authority; unknown levels rank 0.
func ApprovalLevelRank(level string) int {
	switch level {
	case ApprovalLevelTeller:
		return 1
	case ApprovalLevelManager:
		return 2
	case ApprovalLevelAdmin:
		return 3
	case ApprovalLevelComplianceOfficer:
		return 4
	case ApprovalLevelSeniorManager:
		return 5
	case ApprovalLevelExecutive:
		return 6
	}
	return 0
}

// NextApprovalLevel returns the level one rank above, or "" at the top.
func NextApprovalLevel(level string) string {
	switch level {
	case ApprovalLevelTeller:
		return ApprovalLevelManager
	case ApprovalLevelManager:
		return ApprovalLevelAdmin
	case ApprovalLevelAdmin:
		return ApprovalLevelComplianceOfficer
	case ApprovalLevelComplianceOfficer:
		return ApprovalLevelSeniorManager
	case ApprovalLevelSeniorManager:
		return ApprovalLevelExecutive
	}
	return ""
}
