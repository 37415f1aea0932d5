package repositories

import (
	"context"

	"coinvest-api/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

type planRepository struct {
	db *gorm.DB
}

// NewPlanRepository creates a new investment plan repository
func NewPlanRepository(db *gorm.DB) PlanRepository {
	return &planRepository{db: db}
}

// ListActive lists active plans, cheapest entry first
func (r *planRepository) ListActive(ctx context.Context) ([]*models.InvestmentPlan, error) {
	var plans []*models.InvestmentPlan
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("min_amount ASC").
		Find(&plans).Error
	return plans, translate(err)
}
