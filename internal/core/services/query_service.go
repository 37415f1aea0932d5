package services

import (
	"context"
	"errors"
	"fmt"

	"coinvest-api/internal/adapters/persistence/models"
	"coinvest-api/internal/adapters/persistence/repositories"
	"coinvest-api/internal/core/domain"
	"coinvest-api/internal/pkg/pagination"

	"github.com/shopspring/decimal"
)

const dashboardRecentLimit = 10

// QueryService serves read-only listings
type QueryService struct {
	profiles     repositories.ProfileRepository
	plans        repositories.PlanRepository
	investments  repositories.InvestmentRepository
	referrals    repositories.ReferralRepository
	transactions repositories.TransactionRepository
	monetary     repositories.MonetaryRepository
}

// NewQueryService creates a new query service
func NewQueryService(
	profiles repositories.ProfileRepository,
	plans repositories.PlanRepository,
	investments repositories.InvestmentRepository,
	referrals repositories.ReferralRepository,
	transactions repositories.TransactionRepository,
	monetary repositories.MonetaryRepository,
) *QueryService {
	return &QueryService{
		profiles:     profiles,
		plans:        plans,
		investments:  investments,
		referrals:    referrals,
		transactions: transactions,
		monetary:     monetary,
	}
}

// ReferralSummary is the caller's referral code and referred users
type ReferralSummary struct {
	ReferralCode string             `json:"referral_code"`
	Referrals    []*models.Referral `json:"referrals"`
}

// Dashboard is the caller's account overview
type Dashboard struct {
	Profile           *models.ProfileResponse `json:"profile"`
	AccountBalance    decimal.Decimal         `json:"account_balance"`
	TotalDeposited    decimal.Decimal         `json:"total_deposited"`
	TotalWithdrawn    decimal.Decimal         `json:"total_withdrawn"`
	ActiveInvestments int64                   `json:"active_investments"`
	RecentActivity    []*models.Transaction   `json:"recent_transactions"`
}

// ListPlans lists active investment plans ordered by minimum amount
func (s *QueryService) ListPlans(ctx context.Context) ([]*models.InvestmentPlan, error) {
	return s.plans.ListActive(ctx)
}

// ListInvestments lists the caller's own investments
func (s *QueryService) ListInvestments(ctx context.Context, p *domain.Principal) ([]*models.UserInvestment, error) {
	if err := Authorize(p, domain.RoleUser); err != nil {
		return nil, err
	}
	return s.investments.ListByUser(ctx, p.ID)
}

// Referrals returns the caller's referral code and the users they referred
func (s *QueryService) Referrals(ctx context.Context, p *domain.Principal) (*ReferralSummary, error) {
	if err := Authorize(p, domain.RoleUser); err != nil {
		return nil, err
	}

	profile, err := s.profiles.GetByID(ctx, p.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("profile: %w", domain.ErrNotFound)
		}
		return nil, err
	}

	referrals, err := s.referrals.ListByReferrer(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	return &ReferralSummary{ReferralCode: profile.ReferralCode, Referrals: referrals}, nil
}

// ListTransactions lists the caller's ledger entries
func (s *QueryService) ListTransactions(ctx context.Context, p *domain.Principal, params *pagination.Params) ([]*models.Transaction, *pagination.Meta, error) {
	if err := Authorize(p, domain.RoleUser); err != nil {
		return nil, nil, err
	}

	items, total, err := s.transactions.ListByUser(ctx, p.ID, params.Offset, params.Limit)
	if err != nil {
		return nil, nil, err
	}
	return items, pagination.GetMeta(params, total), nil
}

// ListDeposits lists deposit requests for admins, newest first
func (s *QueryService) ListDeposits(ctx context.Context, admin *domain.Principal, params *pagination.Params) ([]*models.DepositRequest, *pagination.Meta, error) {
	if err := Authorize(admin, domain.RoleAdmin); err != nil {
		return nil, nil, err
	}
	if err := validateStatusFilter(domain.KindDeposit, params.Status); err != nil {
		return nil, nil, err
	}

	items, total, err := s.monetary.ListDeposits(ctx, params.Status, params.Offset, params.Limit)
	if err != nil {
		return nil, nil, err
	}
	return items, pagination.GetMeta(params, total), nil
}

// ListWithdrawals lists withdrawal requests for admins, newest first
func (s *QueryService) ListWithdrawals(ctx context.Context, admin *domain.Principal, params *pagination.Params) ([]*models.WithdrawalRequest, *pagination.Meta, error) {
	if err := Authorize(admin, domain.RoleAdmin); err != nil {
		return nil, nil, err
	}
	if err := validateStatusFilter(domain.KindWithdrawal, params.Status); err != nil {
		return nil, nil, err
	}

	items, total, err := s.monetary.ListWithdrawals(ctx, params.Status, params.Offset, params.Limit)
	if err != nil {
		return nil, nil, err
	}
	return items, pagination.GetMeta(params, total), nil
}

// Dashboard builds the caller's account overview
func (s *QueryService) Dashboard(ctx context.Context, p *domain.Principal) (*Dashboard, error) {
	if err := Authorize(p, domain.RoleUser); err != nil {
		return nil, err
	}

	profile, err := s.profiles.GetByID(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	active, err := s.investments.CountActiveByUser(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	recent, err := s.transactions.RecentByUser(ctx, p.ID, dashboardRecentLimit)
	if err != nil {
		return nil, err
	}

	return &Dashboard{
		Profile:           profile.ToResponse(),
		AccountBalance:    profile.AccountBalance,
		TotalDeposited:    profile.TotalDeposited,
		TotalWithdrawn:    profile.TotalWithdrawn,
		ActiveInvestments: active,
		RecentActivity:    recent,
	}, nil
}

func validateStatusFilter(kind domain.RequestKind, status string) error {
	switch domain.RequestStatus(status) {
	case "", domain.StatusPending, domain.StatusRejected, kind.ApprovedStatus():
		return nil
	}
	return domain.Validationf("invalid status filter %q", status)
}
