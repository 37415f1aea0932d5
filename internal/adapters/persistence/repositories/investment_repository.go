package repositories

import (
	"context"

	"coinvest-api/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

type investmentRepository struct {
	db *gorm.DB
}

// NewInvestmentRepository creates a new user investment repository
func NewInvestmentRepository(db *gorm.DB) InvestmentRepository {
	return &investmentRepository{db: db}
}

// ListByUser lists a user's investments with their plan
func (r *investmentRepository) ListByUser(ctx context.Context, userID string) ([]*models.UserInvestment, error) {
	var investments []*models.UserInvestment
	err := r.db.WithContext(ctx).
		Preload("Plan").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&investments).Error
	return investments, translate(err)
}

// CountActiveByUser counts a user's running investments
func (r *investmentRepository) CountActiveByUser(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.UserInvestment{}).
		Where("user_id = ? AND status = ?", userID, models.InvestmentActive).
		Count(&count).Error
	return count, translate(err)
}
