package handlers

import (
	"context"

	"coinvest-api/internal/adapters/persistence/models"
	"coinvest-api/internal/core/domain"
	"coinvest-api/internal/core/services"
	"coinvest-api/internal/pkg/pagination"
)

// Use cases consumed by the handlers; implemented by the services package

type Approver interface {
	ApproveWithdrawal(ctx context.Context, id string, admin *domain.Principal) (*domain.Decision, error)
	RejectWithdrawal(ctx context.Context, id string, admin *domain.Principal) (*domain.Decision, error)
	ConfirmDeposit(ctx context.Context, id string, admin *domain.Principal) (*domain.Decision, error)
	RejectDeposit(ctx context.Context, id string, admin *domain.Principal) (*domain.Decision, error)
}

type Querier interface {
	ListPlans(ctx context.Context) ([]*models.InvestmentPlan, error)
	ListInvestments(ctx context.Context, p *domain.Principal) ([]*models.UserInvestment, error)
	Referrals(ctx context.Context, p *domain.Principal) (*services.ReferralSummary, error)
	ListTransactions(ctx context.Context, p *domain.Principal, params *pagination.Params) ([]*models.Transaction, *pagination.Meta, error)
	ListDeposits(ctx context.Context, admin *domain.Principal, params *pagination.Params) ([]*models.DepositRequest, *pagination.Meta, error)
	ListWithdrawals(ctx context.Context, admin *domain.Principal, params *pagination.Params) ([]*models.WithdrawalRequest, *pagination.Meta, error)
	Dashboard(ctx context.Context, p *domain.Principal) (*services.Dashboard, error)
}

type RoleManager interface {
	GrantAdmin(ctx context.Context, actor *domain.Principal, email string) (*services.RoleChange, error)
	RevokeAdmin(ctx context.Context, actor *domain.Principal, email string) (*services.RoleChange, error)
	ListAdmins(ctx context.Context, actor *domain.Principal) ([]services.AdminSummary, error)
	SyncRoles(ctx context.Context, actor *domain.Principal) (*services.SyncReport, error)
}

type AccountManager interface {
	Onboard(ctx context.Context, userID, email string, input *services.OnboardInput) (*models.Profile, bool, error)
	RequestDeposit(ctx context.Context, p *domain.Principal, input *services.DepositInput) (*models.DepositRequest, error)
	RequestWithdrawal(ctx context.Context, p *domain.Principal, input *services.WithdrawalInput) (*models.WithdrawalRequest, error)
	ListUsers(ctx context.Context, admin *domain.Principal, params *pagination.Params) ([]*models.ProfileResponse, *pagination.Meta, error)
	SetAccountStatus(ctx context.Context, admin *domain.Principal, userID string, status domain.AccountStatus) error
}

type LoginService interface {
	Login(ctx context.Context, input *services.LoginInput) (*services.LoginResult, error)
}
