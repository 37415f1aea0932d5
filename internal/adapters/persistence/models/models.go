package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ============================================================
// Identity mirror
// ============================================================

// Profile represents profiles table.
// The role and account_status columns are the canonical authorization source.
type Profile struct {
	ID             string          `gorm:"primaryKey;size:36" json:"id"`
	Email          string          `gorm:"uniqueIndex;size:255;not null" json:"email"`
	FullName       string          `gorm:"size:100" json:"full_name"`
	Role           string          `gorm:"size:20;not null;default:'user';index" json:"role"`
	AccountStatus  string          `gorm:"size:20;not null;default:'active'" json:"account_status"`
	AccountBalance decimal.Decimal `gorm:"type:decimal(20,8);not null;default:0" json:"account_balance"`
	TotalDeposited decimal.Decimal `gorm:"type:decimal(20,8);not null;default:0" json:"total_deposited"`
	TotalWithdrawn decimal.Decimal `gorm:"type:decimal(20,8);not null;default:0" json:"total_withdrawn"`
	ReferralCode   string          `gorm:"uniqueIndex;size:16;not null" json:"referral_code"`
	ReferredBy     *string         `gorm:"size:36;index" json:"referred_by"`
	PasswordHash   string          `gorm:"size:255" json:"-"` // local identity mode only
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Profile) TableName() string {
	return "profiles"
}

// ProfileResponse DTO
type ProfileResponse struct {
	ID             string          `json:"id"`
	Email          string          `json:"email"`
	FullName       string          `json:"full_name"`
	Role           string          `json:"role"`
	AccountStatus  string          `json:"account_status"`
	AccountBalance decimal.Decimal `json:"account_balance"`
	TotalDeposited decimal.Decimal `json:"total_deposited"`
	TotalWithdrawn decimal.Decimal `json:"total_withdrawn"`
	ReferralCode   string          `json:"referral_code"`
	CreatedAt      time.Time       `json:"created_at"`
}

func (p *Profile) ToResponse() *ProfileResponse {
	return &ProfileResponse{
		ID:             p.ID,
		Email:          p.Email,
		FullName:       p.FullName,
		Role:           p.Role,
		AccountStatus:  p.AccountStatus,
		AccountBalance: p.AccountBalance,
		TotalDeposited: p.TotalDeposited,
		TotalWithdrawn: p.TotalWithdrawn,
		ReferralCode:   p.ReferralCode,
		CreatedAt:      p.CreatedAt,
	}
}

// ============================================================
// Investment tables
// ============================================================

// InvestmentPlan represents investment_plans table
type InvestmentPlan struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	Name         string          `gorm:"size:100;not null" json:"name"`
	Description  string          `gorm:"type:text" json:"description"`
	MinAmount    decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"min_amount"`
	MaxAmount    decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"max_amount"`
	ROIPercent   decimal.Decimal `gorm:"column:roi_percent;type:decimal(6,2);not null" json:"roi_percent"`
	DurationDays int             `gorm:"not null" json:"duration_days"`
	IsActive     bool            `gorm:"default:true" json:"is_active"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt    gorm.DeletedAt  `gorm:"index" json:"-"`
}

func (InvestmentPlan) TableName() string {
	return "investment_plans"
}

// UserInvestment represents user_investments table
type UserInvestment struct {
	ID             string          `gorm:"primaryKey;size:36" json:"id"`
	UserID         string          `gorm:"size:36;not null;index" json:"user_id"`
	PlanID         uint            `gorm:"not null" json:"plan_id"`
	Amount         decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"amount"`
	ExpectedReturn decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"expected_return"`
	Status         string          `gorm:"size:20;not null;default:'active'" json:"status"`
	StartDate      time.Time       `gorm:"not null" json:"start_date"`
	EndDate        time.Time       `gorm:"not null" json:"end_date"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`

	// Relations
	Plan *InvestmentPlan `gorm:"foreignKey:PlanID" json:"plan,omitempty"`
}

func (UserInvestment) TableName() string {
	return "user_investments"
}

// Investment status
const (
	InvestmentActive    = "active"
	InvestmentCompleted = "completed"
)

// Referral represents referrals table
type Referral struct {
	ID          string          `gorm:"primaryKey;size:36" json:"id"`
	ReferrerID  string          `gorm:"size:36;not null;index" json:"referrer_id"`
	ReferredID  string          `gorm:"size:36;not null;uniqueIndex" json:"referred_id"`
	BonusAmount decimal.Decimal `gorm:"type:decimal(20,8);not null;default:0" json:"bonus_amount"`
	Status      string          `gorm:"size:20;not null;default:'pending'" json:"status"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`

	// Relations
	Referred *Profile `gorm:"foreignKey:ReferredID" json:"referred,omitempty"`
}

func (Referral) TableName() string {
	return "referrals"
}

// ============================================================
// Monetary requests & ledger
// ============================================================

// DepositRequest represents deposit_requests table
type DepositRequest struct {
	ID          string          `gorm:"primaryKey;size:36" json:"id"`
	UserID      string          `gorm:"size:36;not null;index" json:"user_id"`
	Amount      decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"amount"`
	Currency    string          `gorm:"size:10;not null" json:"currency"`
	TxHash      string          `gorm:"size:128" json:"tx_hash"`
	Status      string          `gorm:"size:20;not null;default:'pending';index" json:"status"`
	ProcessedBy *string         `gorm:"size:36" json:"processed_by"`
	ProcessedAt *time.Time      `json:"processed_at"`
	CreatedAt   time.Time       `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`

	// Relations
	User *Profile `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (DepositRequest) TableName() string {
	return "deposit_requests"
}

// WithdrawalRequest represents withdrawal_requests table
type WithdrawalRequest struct {
	ID            string          `gorm:"primaryKey;size:36" json:"id"`
	UserID        string          `gorm:"size:36;not null;index" json:"user_id"`
	Amount        decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"amount"`
	Currency      string          `gorm:"size:10;not null" json:"currency"`
	WalletAddress string          `gorm:"size:128;not null" json:"wallet_address"`
	Status        string          `gorm:"size:20;not null;default:'pending';index" json:"status"`
	ProcessedBy   *string         `gorm:"size:36" json:"processed_by"`
	ProcessedAt   *time.Time      `json:"processed_at"`
	CreatedAt     time.Time       `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`

	// Relations
	User *Profile `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (WithdrawalRequest) TableName() string {
	return "withdrawal_requests"
}

// Transaction represents the append-only transactions ledger
type Transaction struct {
	ID          string          `gorm:"primaryKey;size:36" json:"id"`
	UserID      string          `gorm:"size:36;not null;index" json:"user_id"`
	Type        string          `gorm:"size:20;not null" json:"type"`
	Amount      decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"amount"`
	Description string          `gorm:"type:text" json:"description"`
	ReferenceID string          `gorm:"size:36;not null;uniqueIndex" json:"reference_id"`
	CreatedAt   time.Time       `gorm:"autoCreateTime;index" json:"created_at"`
}

func (Transaction) TableName() string {
	return "transactions"
}

// Transaction types
const (
	TxTypeDeposit    = "deposit"
	TxTypeWithdrawal = "withdrawal"
)

// ============================================================
// Auto Migration
// ============================================================

// AutoMigrate runs auto migration for all tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Profile{},
		&InvestmentPlan{},
		&UserInvestment{},
		&Referral{},
		&DepositRequest{},
		&WithdrawalRequest{},
		&Transaction{},
	)
}
