package repositories

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"ledgerd/internal/models"
)

var (
	ErrAccountNotFound  = errors.New("account not found")
	ErrDuplicateAccount = errors.New("account already exists")
	ErrNestingTooDeep   = errors.New("parent account is itself a leaf")
	ErrCurrencyMismatch = errors.New("child currency differs from group currency")
)

// AccountRepository defines account and state-record database operations.
type AccountRepository interface {
	Create(account *models.Account) error
	GetByID(id uint) (*models.Account, error)
	GetByNumber(number string) (*models.Account, error)
	GetForUpdate(id uint) (*models.Account, error)
	Update(account *models.Account) error
	ListByOwner(ownerID uint) ([]*models.Account, error)
	GetChildren(parentID uint) ([]*models.Account, error)
	AttachToGroup(childID, parentID uint) error

	CurrentState(accountID uint) (string, error)
	StateHistory(accountID uint, limit int) ([]*models.AccountStateRecord, error)
	AppendStateRecords(records []*models.AccountStateRecord) error

	ExecuteInTransaction(fn func(AccountRepository) error) error
}

type accountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) Create(account *models.Account) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(account).Error; err != nil {
			return fmt.Errorf("failed to create account: %w", err)
		}
		// Every account opens active; the record seeds the audit trail.
		record := &models.AccountStateRecord{
			AccountID: account.ID,
			State:     models.AccountStateActive,
			ChangedBy: account.OwnerID,
			Reason:    "account opened",
		}
		if err := tx.Create(record).Error; err != nil {
			return fmt.Errorf("failed to create initial state record: %w", err)
		}
		return nil
	})
}

func (r *accountRepository) GetByID(id uint) (*models.Account, error) {
	var account models.Account
	if err := r.db.First(&account, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return &account, nil
}

func (r *accountRepository) GetByNumber(number string) (*models.Account, error) {
	var account models.Account
	if err := r.db.Where("number = ?", number).First(&account).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return &account, nil
}

// GetForUpdate loads an account under a row-level lock. Only meaningful
// inside ExecuteInTransaction; concurrent balance commits on the same
// account serialize here.
func (r *accountRepository) GetForUpdate(id uint) (*models.Account, error) {
	var account models.Account
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&account, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to lock account: %w", err)
	}
	return &account, nil
}

func (r *accountRepository) Update(account *models.Account) error {
	if err := r.db.Save(account).Error; err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}
	return nil
}

func (r *accountRepository) ListByOwner(ownerID uint) ([]*models.Account, error) {
	var accounts []*models.Account
	if err := r.db.Where("owner_id = ?", ownerID).Find(&accounts).Error; err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return accounts, nil
}

func (r *accountRepository) GetChildren(parentID uint) ([]*models.Account, error) {
	var children []*models.Account
	if err := r.db.Where("parent_id = ?", parentID).Find(&children).Error; err != nil {
		return nil, fmt.Errorf("failed to list children: %w", err)
	}
	return children, nil
}

// AttachToGroup makes child a leaf of parent. One level of nesting only:
// the parent must not itself have a parent, and currencies must match.
func (r *accountRepository) AttachToGroup(childID, parentID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var parent, child models.Account
		if err := tx.First(&parent, parentID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return ErrAccountNotFound
			}
			return err
		}
		if err := tx.First(&child, childID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return ErrAccountNotFound
			}
			return err
		}
		if parent.ParentID != nil {
			return ErrNestingTooDeep
		}
		if parent.Currency != child.Currency {
			return ErrCurrencyMismatch
		}
		child.ParentID = &parent.ID
		return tx.Save(&child).Error
	})
}

// CurrentState returns the latest state record for the account, defaulting
// to active when no record exists.
func (r *accountRepository) CurrentState(accountID uint) (string, error) {
	var record models.AccountStateRecord
	err := r.db.Where("account_id = ?", accountID).
		Order("created_at DESC, id DESC").
		First(&record).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return models.AccountStateActive, nil
		}
		return "", fmt.Errorf("failed to get current state: %w", err)
	}
	return record.State, nil
}

func (r *accountRepository) StateHistory(accountID uint, limit int) ([]*models.AccountStateRecord, error) {
	var records []*models.AccountStateRecord
	err := r.db.Where("account_id = ?", accountID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get state history: %w", err)
	}
	return records, nil
}

// AppendStateRecords writes a batch of state records atomically. A group
// cascade passes the parent record plus one record per child; either all
// are written or none.
func (r *accountRepository) AppendStateRecords(records []*models.AccountStateRecord) error {
	if len(records) == 0 {
		return nil
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		for _, record := range records {
			if err := tx.Create(record).Error; err != nil {
				return fmt.Errorf("failed to append state record: %w", err)
			}
		}
		return nil
	})
}

func (r *accountRepository) ExecuteInTransaction(fn func(AccountRepository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&accountRepository{db: tx})
	})
}
