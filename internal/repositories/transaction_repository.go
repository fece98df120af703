package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"ledgerd/internal/models"
)

var (
	ErrTransactionNotFound = errors.New("transaction not found")
)

// ActorHistory is the pre-fetched transaction history a fraud assessment
// reads. It is assembled in one pass so scoring never queries mid-run.
type ActorHistory struct {
	AverageAmount3M      decimal.Decimal
	CompletedLast15Min   int
	TopTypes3M           []string
	PriorTransferExists  bool
	KnownCountry         string
	HistoryDepth         int
}

// TransactionRepository defines transaction database operations.
type TransactionRepository interface {
	Create(tx *models.Transaction) error
	Update(tx *models.Transaction) error
	GetByID(id uint) (*models.Transaction, error)
	GetByReference(reference string) (*models.Transaction, error)
	ListByAccount(accountID uint, limit, offset int) ([]*models.Transaction, error)

	// DailyOutflow sums today's completed and pending withdrawals/transfers
	// by the initiator from the account in the given currency.
	DailyOutflow(ctx context.Context, initiatorID, accountID uint, currency string, dayStart, dayEnd time.Time) (decimal.Decimal, error)

	// BuildActorHistory assembles the history snapshot fraud scoring reads.
	BuildActorHistory(ctx context.Context, initiatorID uint, sourceID, destinationID *uint, now time.Time) (*ActorHistory, error)
}

type transactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) Create(tx *models.Transaction) error {
	if err := r.db.Create(tx).Error; err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

func (r *transactionRepository) Update(tx *models.Transaction) error {
	if err := r.db.Save(tx).Error; err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	return nil
}

func (r *transactionRepository) GetByID(id uint) (*models.Transaction, error) {
	var tx models.Transaction
	if err := r.db.First(&tx, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return &tx, nil
}

func (r *transactionRepository) GetByReference(reference string) (*models.Transaction, error) {
	var tx models.Transaction
	if err := r.db.Where("reference = ?", reference).First(&tx).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return &tx, nil
}

func (r *transactionRepository) ListByAccount(accountID uint, limit, offset int) ([]*models.Transaction, error) {
	var txs []*models.Transaction
	err := r.db.Where("source_account_id = ? OR destination_account_id = ?", accountID, accountID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&txs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return txs, nil
}

func (r *transactionRepository) DailyOutflow(ctx context.Context, initiatorID, accountID uint, currency string, dayStart, dayEnd time.Time) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := r.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("initiator_id = ? AND source_account_id = ? AND currency = ?", initiatorID, accountID, currency).
		Where("type IN ?", []string{
			models.TransactionTypeWithdrawal,
			models.TransactionTypeTransfer,
			models.TransactionTypeInternational,
		}).
		Where("status IN ?", []string{
			models.TransactionStatusCompleted,
			models.TransactionStatusPending,
			models.TransactionStatusPendingApproval,
		}).
		Where("created_at >= ? AND created_at < ?", dayStart, dayEnd).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum daily outflow: %w", err)
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}

func (r *transactionRepository) BuildActorHistory(ctx context.Context, initiatorID uint, sourceID, destinationID *uint, now time.Time) (*ActorHistory, error) {
	db := r.db.WithContext(ctx)
	hist := &ActorHistory{AverageAmount3M: decimal.Zero}
	threeMonthsAgo := now.AddDate(0, -3, 0)

	// 3-month average of completed transactions.
	var avg decimal.NullDecimal
	err := db.Model(&models.Transaction{}).
		Where("initiator_id = ? AND status = ? AND created_at >= ?",
			initiatorID, models.TransactionStatusCompleted, threeMonthsAgo).
		Select("COALESCE(AVG(amount), 0)").
		Scan(&avg).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute average amount: %w", err)
	}
	if avg.Valid {
		hist.AverageAmount3M = avg.Decimal
	}

	// Completed transactions in the preceding 15 minutes.
	var recent int64
	err = db.Model(&models.Transaction{}).
		Where("initiator_id = ? AND status = ? AND created_at >= ?",
			initiatorID, models.TransactionStatusCompleted, now.Add(-15*time.Minute)).
		Count(&recent).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count recent transactions: %w", err)
	}
	hist.CompletedLast15Min = int(recent)

	// Three most common transaction types over 3 months.
	err = db.Model(&models.Transaction{}).
		Where("initiator_id = ? AND status = ? AND created_at >= ?",
			initiatorID, models.TransactionStatusCompleted, threeMonthsAgo).
		Group("type").
		Order("COUNT(*) DESC").
		Limit(3).
		Pluck("type", &hist.TopTypes3M).Error
	if err != nil {
		return nil, fmt.Errorf("failed to rank transaction types: %w", err)
	}

	var depth int64
	err = db.Model(&models.Transaction{}).
		Where("initiator_id = ? AND status = ?", initiatorID, models.TransactionStatusCompleted).
		Count(&depth).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count history: %w", err)
	}
	hist.HistoryDepth = int(depth)

	// Prior completed transfer on this source→destination pair in 6 months.
	if sourceID != nil && destinationID != nil {
		var pair int64
		err = db.Model(&models.Transaction{}).
			Where("source_account_id = ? AND destination_account_id = ?", *sourceID, *destinationID).
			Where("status = ? AND created_at >= ?", models.TransactionStatusCompleted, now.AddDate(0, -6, 0)).
			Count(&pair).Error
		if err != nil {
			return nil, fmt.Errorf("failed to check payee history: %w", err)
		}
		hist.PriorTransferExists = pair > 0
	}

	return hist, nil
}
