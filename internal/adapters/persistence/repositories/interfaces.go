package repositories

import (
	"context"
	"time"

	"coinvest-api/internal/adapters/persistence/models"
	"coinvest-api/internal/core/domain"
)

// ProfileRepository defines profile repository interface
type ProfileRepository interface {
	Create(ctx context.Context, profile *models.Profile) error
	GetByID(ctx context.Context, id string) (*models.Profile, error)
	GetByEmail(ctx context.Context, email string) (*models.Profile, error)
	GetByReferralCode(ctx context.Context, code string) (*models.Profile, error)
	List(ctx context.Context, offset, limit int) ([]*models.Profile, int64, error)
	ListByRole(ctx context.Context, role domain.Role) ([]*models.Profile, error)
	UpdateRole(ctx context.Context, id string, role domain.Role) error
	UpdateStatus(ctx context.Context, id string, status domain.AccountStatus) error
	// EachBatch walks every profile in id order, batchSize rows at a time
	EachBatch(ctx context.Context, batchSize int, fn func([]*models.Profile) error) error
}

// PlanRepository defines investment plan repository interface
type PlanRepository interface {
	ListActive(ctx context.Context) ([]*models.InvestmentPlan, error)
}

// InvestmentRepository defines user investment repository interface
type InvestmentRepository interface {
	ListByUser(ctx context.Context, userID string) ([]*models.UserInvestment, error)
	CountActiveByUser(ctx context.Context, userID string) (int64, error)
}

// ReferralRepository defines referral repository interface
type ReferralRepository interface {
	Create(ctx context.Context, referral *models.Referral) error
	ListByReferrer(ctx context.Context, referrerID string) ([]*models.Referral, error)
}

// TransactionRepository defines read access to the ledger
type TransactionRepository interface {
	ListByUser(ctx context.Context, userID string, offset, limit int) ([]*models.Transaction, int64, error)
	RecentByUser(ctx context.Context, userID string, n int) ([]*models.Transaction, error)
}

// DecisionCommand asks the store to settle one pending request
type DecisionCommand struct {
	Kind      domain.RequestKind
	RequestID string
	AdminID   string
	Approve   bool
	At        time.Time
}

// MonetaryRepository defines deposit/withdrawal request storage.
// Decide is the only path that moves money.
type MonetaryRepository interface {
	CreateDeposit(ctx context.Context, req *models.DepositRequest) error
	CreateWithdrawal(ctx context.Context, req *models.WithdrawalRequest) error
	ListDeposits(ctx context.Context, status string, offset, limit int) ([]*models.DepositRequest, int64, error)
	ListWithdrawals(ctx context.Context, status string, offset, limit int) ([]*models.WithdrawalRequest, int64, error)
	Decide(ctx context.Context, cmd DecisionCommand) (*domain.Decision, error)
}
