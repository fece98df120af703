package transaction

import (
	"ledgerd/internal/models"
)

// GetByID loads a single transaction.
func (s *Service) GetByID(id uint) (*models.Transaction, error) {
	return s.transactions.GetByID(id)
}

// GetByReference loads a transaction by its external reference.
func (s *Service) GetByReference(reference string) (*models.Transaction, error) {
	return s.transactions.GetByReference(reference)
}

// ListByAccount pages a single account's history, newest first.
func (s *Service) ListByAccount(accountID uint, limit, offset int) ([]*models.Transaction, error) {
	if limit <= 0 || limit > maxPageSize {
		limit = defaultPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return s.transactions.ListByAccount(accountID, limit, offset)
}
