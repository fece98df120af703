package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Staff and customer roles. Staff roles double as approval authority levels.
const (
	RoleCustomer          = "customer"
	RoleTeller            = "teller"
	RoleManager           = "manager"
	RoleAdmin             = "admin"
	RoleComplianceOfficer = "compliance_officer"
	RoleSeniorManager     = "senior_manager"
	RoleExecutive         = "executive"
)

type User struct {
	gorm.Model
	Email               string           `gorm:"uniqueIndex;not null"`
	Password            string           `gorm:"not null"`
	Name                string           `gorm:"not null"`
	Role                string           `gorm:"default:'customer'"`
	Status              string           `gorm:"default:'active'"`
	Country             string           `gorm:"default:''"` // known location, used by risk checks
	DailyLimitOverride  *decimal.Decimal `gorm:"type:numeric(20,4)"`
	LastLoginAt         time.Time
	LastLoginIP         string
	FailedLoginAttempts int `gorm:"default:0"`
	AccountLockoutUntil *time.Time
	TokenVersion        int `gorm:"default:1"`
}

// IsStaff reports whether the user holds any back-office role.
func (u *User) IsStaff() bool {
	return u.Role != RoleCustomer && u.Role != ""
}
