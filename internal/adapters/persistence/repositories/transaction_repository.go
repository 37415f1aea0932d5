package repositories

import (
	"context"

	"coinvest-api/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

type transactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates a new ledger read repository
func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

// ListByUser lists a user's ledger entries, newest first
func (r *transactionRepository) ListByUser(ctx context.Context, userID string, offset, limit int) ([]*models.Transaction, int64, error) {
	var entries []*models.Transaction
	var total int64

	scope := r.db.WithContext(ctx).Model(&models.Transaction{}).Where("user_id = ?", userID)
	if err := scope.Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}

	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&entries).Error; err != nil {
		return nil, 0, translate(err)
	}

	return entries, total, nil
}

// RecentByUser returns the n most recent ledger entries
func (r *transactionRepository) RecentByUser(ctx context.Context, userID string, n int) ([]*models.Transaction, error) {
	var entries []*models.Transaction
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(n).
		Find(&entries).Error
	return entries, translate(err)
}
