package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Account feature flags
const (
	FeaturePremium             = "premium"
	FeatureBusiness            = "business"
	FeatureOverdraftProtection = "overdraft-protection"
	FeatureEmployee            = "employee"
)

type Account struct {
	ID        uint            `gorm:"primarykey"`
	Number    string          `gorm:"uniqueIndex;not null"`
	OwnerID   uint            `gorm:"not null;index"`
	Balance   decimal.Decimal `gorm:"type:numeric(20,4);default:0"`
	Currency  string          `gorm:"not null;default:'USD'"`
	Country   string          `gorm:"default:''"`
	ParentID  *uint           `gorm:"index"` // nil = root/group or standalone leaf
	Features  StringList      `gorm:"type:jsonb"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (a *Account) BeforeCreate(tx *gorm.DB) error {
	// Balances start at zero; funding happens through transactions.
	a.Balance = decimal.Zero
	return nil
}

// HasFeature reports whether the account was granted a feature flag.
func (a *Account) HasFeature(feature string) bool {
	for _, f := range a.Features {
		if f == feature {
			return true
		}
	}
	return false
}

// IsLeaf reports whether the account belongs to a group.
func (a *Account) IsLeaf() bool {
	return a.ParentID != nil
}

// AgeDays returns whole days since the account was opened.
func (a *Account) AgeDays(now time.Time) int {
	return int(now.Sub(a.CreatedAt).Hours() / 24)
}
