package config

import (
	"context"
	"errors"

	"coinvest-api/internal/adapters/persistence/models"
	"coinvest-api/internal/core/domain"
	"coinvest-api/internal/pkg/password"
	"coinvest-api/internal/pkg/refcode"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const devAdminPassword = "admin123456"

// Seeder handles database seeding
type Seeder struct {
	db  *gorm.DB
	cfg *Config
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB, cfg *Config) *Seeder {
	return &Seeder{db: db, cfg: cfg}
}

// Run executes all seeders
func (s *Seeder) Run(ctx context.Context) error {
	logrus.Info("🌱 Running database seeders...")

	if err := s.seedPlans(ctx); err != nil {
		return err
	}

	if s.cfg.IsDev() && s.cfg.Identity.Provider == IdentityLocal {
		if err := s.seedAdmin(ctx); err != nil {
			logrus.WithError(err).Warn("⚠️ Admin seeder skipped")
		}
	}

	logrus.Info("✅ Database seeding completed")
	return nil
}

// DefaultPlans returns the plans offered on a fresh install
func DefaultPlans() []models.InvestmentPlan {
	return []models.InvestmentPlan{
		{
			Name:         "Starter",
			Description:  "Entry plan with a short lock-up",
			MinAmount:    decimal.NewFromInt(100),
			MaxAmount:    decimal.NewFromInt(999),
			ROIPercent:   decimal.NewFromFloat(5),
			DurationDays: 30,
			IsActive:     true,
		},
		{
			Name:         "Growth",
			Description:  "Balanced plan for mid-size positions",
			MinAmount:    decimal.NewFromInt(1000),
			MaxAmount:    decimal.NewFromInt(9999),
			ROIPercent:   decimal.NewFromFloat(12.5),
			DurationDays: 90,
			IsActive:     true,
		},
		{
			Name:         "Premium",
			Description:  "Long-term plan with the highest return",
			MinAmount:    decimal.NewFromInt(10000),
			MaxAmount:    decimal.NewFromInt(100000),
			ROIPercent:   decimal.NewFromFloat(30),
			DurationDays: 180,
			IsActive:     true,
		},
	}
}

// seedPlans inserts default plans when the table is empty
func (s *Seeder) seedPlans(ctx context.Context) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.InvestmentPlan{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	plans := DefaultPlans()
	if err := s.db.WithContext(ctx).Create(&plans).Error; err != nil {
		return err
	}

	logrus.WithField("count", len(plans)).Info("✅ Investment plans seeded")
	return nil
}

// seedAdmin creates a local admin for development
func (s *Seeder) seedAdmin(ctx context.Context) error {
	var existing models.Profile
	err := s.db.WithContext(ctx).Where("email = ?", s.cfg.Seed.AdminEmail).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	pass := s.cfg.Seed.AdminPassword
	if pass == "" {
		pass = devAdminPassword
	}
	hash, err := password.Hash(pass)
	if err != nil {
		return err
	}

	admin := &models.Profile{
		ID:            uuid.NewString(),
		Email:         s.cfg.Seed.AdminEmail,
		FullName:      "Platform Admin",
		Role:          string(domain.RoleAdmin),
		AccountStatus: string(domain.AccountActive),
		ReferralCode:  refcode.Generate(),
		PasswordHash:  hash,
	}
	if err := s.db.WithContext(ctx).Create(admin).Error; err != nil {
		return err
	}

	logrus.WithField("email", admin.Email).Info("✅ Admin user created")
	return nil
}
