package repositories

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"ledgerd/internal/models"
)

var (
	ErrApprovalNotFound = errors.New("approval not found")
)

// ApprovalRepository defines approval database operations.
type ApprovalRepository interface {
	Create(approval *models.Approval) error
	Update(approval *models.Approval) error
	GetByID(id uint) (*models.Approval, error)
	GetByReference(reference string) (*models.Approval, error)

	// GetActiveByTransaction returns the single pending approval for a
	// transaction, if any. At most one is pending at a time.
	GetActiveByTransaction(transactionID uint) (*models.Approval, error)

	ListPendingByLevel(level string, limit int) ([]*models.Approval, error)
	ListOverdue(asOf time.Time, limit int) ([]*models.Approval, error)

	// CreateEscalation resolves the original and inserts its successor in
	// one database transaction.
	CreateEscalation(original, successor *models.Approval) error

	ExecuteInTransaction(fn func(ApprovalRepository) error) error
}

type approvalRepository struct {
	db *gorm.DB
}

func NewApprovalRepository(db *gorm.DB) ApprovalRepository {
	return &approvalRepository{db: db}
}

func (r *approvalRepository) Create(approval *models.Approval) error {
	if err := r.db.Create(approval).Error; err != nil {
		return fmt.Errorf("failed to create approval: %w", err)
	}
	return nil
}

func (r *approvalRepository) Update(approval *models.Approval) error {
	if err := r.db.Save(approval).Error; err != nil {
		return fmt.Errorf("failed to update approval: %w", err)
	}
	return nil
}

func (r *approvalRepository) GetByID(id uint) (*models.Approval, error) {
	var approval models.Approval
	if err := r.db.First(&approval, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrApprovalNotFound
		}
		return nil, fmt.Errorf("failed to get approval: %w", err)
	}
	return &approval, nil
}

func (r *approvalRepository) GetByReference(reference string) (*models.Approval, error) {
	var approval models.Approval
	if err := r.db.Where("reference = ?", reference).First(&approval).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrApprovalNotFound
		}
		return nil, fmt.Errorf("failed to get approval: %w", err)
	}
	return &approval, nil
}

func (r *approvalRepository) GetActiveByTransaction(transactionID uint) (*models.Approval, error) {
	var approval models.Approval
	err := r.db.Where("transaction_id = ? AND status = ?", transactionID, models.ApprovalStatusPending).
		Order("created_at DESC").
		First(&approval).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrApprovalNotFound
		}
		return nil, fmt.Errorf("failed to get active approval: %w", err)
	}
	return &approval, nil
}

func (r *approvalRepository) ListPendingByLevel(level string, limit int) ([]*models.Approval, error) {
	var approvals []*models.Approval
	err := r.db.Where("level = ? AND status = ?", level, models.ApprovalStatusPending).
		Order("due_at ASC").
		Limit(limit).
		Find(&approvals).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list pending approvals: %w", err)
	}
	return approvals, nil
}

func (r *approvalRepository) ListOverdue(asOf time.Time, limit int) ([]*models.Approval, error) {
	var approvals []*models.Approval
	err := r.db.Where("status = ? AND due_at < ?", models.ApprovalStatusPending, asOf).
		Order("due_at ASC").
		Limit(limit).
		Find(&approvals).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list overdue approvals: %w", err)
	}
	return approvals, nil
}

func (r *approvalRepository) CreateEscalation(original, successor *models.Approval) error {
	return r.ExecuteInTransaction(func(repo ApprovalRepository) error {
		if err := repo.Update(original); err != nil {
			return err
		}
		return repo.Create(successor)
	})
}

func (r *approvalRepository) ExecuteInTransaction(fn func(ApprovalRepository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&approvalRepository{db: tx})
	})
}
