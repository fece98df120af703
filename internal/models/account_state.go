package models

import "time"

// Account lifecycle states
const (
	AccountStateActive    = "active"
	AccountStateFrozen    = "frozen"
	AccountStateSuspended = "suspended"
	AccountStateClosed    = "closed"
)

// AccountStateRecord is an append-only audit record of a lifecycle
// transition. The account's current state is the most recent record;
// records are never updated or deleted.
type AccountStateRecord struct {
	ID        uint   `gorm:"primarykey"`
	AccountID uint   `gorm:"not null;index:idx_account_state,priority:1"`
	State     string `gorm:"not null"`
	ChangedBy uint   `gorm:"not null"`
	Reason    string
	CreatedAt time.Time `gorm:"index:idx_account_state,priority:2,sort:desc"`
}
