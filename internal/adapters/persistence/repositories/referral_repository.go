package repositories

import (
	"context"

	"coinvest-api/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

type referralRepository struct {
	db *gorm.DB
}

// NewReferralRepository creates a new referral repository
func NewReferralRepository(db *gorm.DB) ReferralRepository {
	return &referralRepository{db: db}
}

// Create records a referral
func (r *referralRepository) Create(ctx context.Context, referral *models.Referral) error {
	return translate(r.db.WithContext(ctx).Create(referral).Error)
}

// ListByReferrer lists the users a profile referred
func (r *referralRepository) ListByReferrer(ctx context.Context, referrerID string) ([]*models.Referral, error) {
	var referrals []*models.Referral
	err := r.db.WithContext(ctx).
		Preload("Referred", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "email", "full_name", "created_at")
		}).
		Where("referrer_id = ?", referrerID).
		Order("created_at DESC").
		Find(&referrals).Error
	return referrals, translate(err)
}
