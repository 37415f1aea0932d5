package repositories

import (
	"context"

	"coinvest-api/internal/adapters/persistence/models"
	"coinvest-api/internal/core/domain"

	"gorm.io/gorm"
)

// profileRepository implements ProfileRepository interface
type profileRepository struct {
	db *gorm.DB
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

// Create creates a new profile
func (r *profileRepository) Create(ctx context.Context, profile *models.Profile) error {
	return translate(r.db.WithContext(ctx).Create(profile).Error)
}

// GetByID gets a profile by ID
func (r *profileRepository) GetByID(ctx context.Context, id string) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&profile).Error; err != nil {
		return nil, translate(err)
	}
	return &profile, nil
}

// GetByEmail gets a profile by email
func (r *profileRepository) GetByEmail(ctx context.Context, email string) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).Where("email = ?", email).Take(&profile).Error; err != nil {
		return nil, translate(err)
	}
	return &profile, nil
}

// GetByReferralCode gets a profile by its referral code
func (r *profileRepository) GetByReferralCode(ctx context.Context, code string) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).Where("referral_code = ?", code).Take(&profile).Error; err != nil {
		return nil, translate(err)
	}
	return &profile, nil
}

// List lists profiles with pagination, newest first
func (r *profileRepository) List(ctx context.Context, offset, limit int) ([]*models.Profile, int64, error) {
	var profiles []*models.Profile
	var total int64

	if err := r.db.WithContext(ctx).Model(&models.Profile{}).Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}

	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&profiles).Error; err != nil {
		return nil, 0, translate(err)
	}

	return profiles, total, nil
}

// ListByRole lists profiles holding a role
func (r *profileRepository) ListByRole(ctx context.Context, role domain.Role) ([]*models.Profile, error) {
	var profiles []*models.Profile
	err := r.db.WithContext(ctx).
		Where("role = ?", string(role)).
		Order("email ASC").
		Find(&profiles).Error
	return profiles, translate(err)
}

// UpdateRole sets the canonical role of a profile
func (r *profileRepository) UpdateRole(ctx context.Context, id string, role domain.Role) error {
	return r.updateColumn(ctx, id, "role", string(role))
}

// UpdateStatus sets the account status of a profile
func (r *profileRepository) UpdateStatus(ctx context.Context, id string, status domain.AccountStatus) error {
	return r.updateColumn(ctx, id, "account_status", string(status))
}

func (r *profileRepository) updateColumn(ctx context.Context, id, column, value string) error {
	res := r.db.WithContext(ctx).Model(&models.Profile{}).Where("id = ?", id).Update(column, value)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// EachBatch walks all profiles in batches
func (r *profileRepository) EachBatch(ctx context.Context, batchSize int, fn func([]*models.Profile) error) error {
	var batch []*models.Profile
	res := r.db.WithContext(ctx).
		Select("id", "email", "role", "account_status").
		FindInBatches(&batch, batchSize, func(tx *gorm.DB, _ int) error {
			return fn(batch)
		})
	return translate(res.Error)
}
