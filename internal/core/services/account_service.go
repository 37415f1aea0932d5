package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"coinvest-api/internal/adapters/persistence/models"
	"coinvest-api/internal/adapters/persistence/repositories"
	"coinvest-api/internal/core/domain"
	"coinvest-api/internal/pkg/pagination"
	"coinvest-api/internal/pkg/refcode"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// AccountService handles profile onboarding, user-submitted requests and account status
type AccountService struct {
	profiles    repositories.ProfileRepository
	referrals   repositories.ReferralRepository
	monetary    repositories.MonetaryRepository
	invalidator PrincipalInvalidator
}

// NewAccountService creates a new account service
func NewAccountService(
	profiles repositories.ProfileRepository,
	referrals repositories.ReferralRepository,
	monetary repositories.MonetaryRepository,
	invalidator PrincipalInvalidator,
) *AccountService {
	return &AccountService{
		profiles:    profiles,
		referrals:   referrals,
		monetary:    monetary,
		invalidator: invalidator,
	}
}

// OnboardInput represents onboarding input
type OnboardInput struct {
	FullName     string `json:"full_name"`
	ReferralCode string `json:"referral_code"`
}

// DepositInput represents a new deposit request
type DepositInput struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
	TxHash   string          `json:"tx_hash"`
}

// WithdrawalInput represents a new withdrawal request
type WithdrawalInput struct {
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	WalletAddress string          `json:"wallet_address"`
}

// Onboard creates the caller's profile on first login.
// It returns the existing profile and created=false when one is already there.
func (s *AccountService) Onboard(ctx context.Context, userID, email string, input *OnboardInput) (*models.Profile, bool, error) {
	if userID == "" || email == "" {
		return nil, false, domain.ErrUnauthenticated
	}

	// 1. Existing profile
	existing, err := s.profiles.GetByID(ctx, userID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, false, err
	}

	// 2. Resolve referrer
	var referrer *models.Profile
	if code := refcode.Normalize(input.ReferralCode); code != "" {
		referrer, err = s.profiles.GetByReferralCode(ctx, code)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, false, domain.Validationf("unknown referral code %q", code)
			}
			return nil, false, err
		}
	}

	// 3. Create profile
	profile := &models.Profile{
		ID:            userID,
		Email:         strings.ToLower(strings.TrimSpace(email)),
		FullName:      strings.TrimSpace(input.FullName),
		Role:          string(domain.RoleUser),
		AccountStatus: string(domain.AccountActive),
		ReferralCode:  refcode.Generate(),
	}
	if referrer != nil {
		profile.ReferredBy = &referrer.ID
	}
	if err := s.profiles.Create(ctx, profile); err != nil {
		return nil, false, err
	}

	// 4. Record referral
	if referrer != nil {
		referral := &models.Referral{
			ID:          uuid.NewString(),
			ReferrerID:  referrer.ID,
			ReferredID:  profile.ID,
			BonusAmount: decimal.Zero,
			Status:      "pending",
		}
		if err := s.referrals.Create(ctx, referral); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"referrer_id": referrer.ID,
				"referred_id": profile.ID,
			}).Error("failed to record referral")
		}
	}

	logrus.WithFields(logrus.Fields{
		"user_id":  profile.ID,
		"referred": referrer != nil,
	}).Info("✅ Profile onboarded")

	return profile, true, nil
}

// RequestDeposit files a pending deposit request for the caller
func (s *AccountService) RequestDeposit(ctx context.Context, p *domain.Principal, input *DepositInput) (*models.DepositRequest, error) {
	if err := Authorize(p, domain.RoleUser); err != nil {
		return nil, err
	}
	if err := validateAmount(input.Amount); err != nil {
		return nil, err
	}
	currency, err := normalizeCurrency(input.Currency)
	if err != nil {
		return nil, err
	}

	req := &models.DepositRequest{
		ID:       uuid.NewString(),
		UserID:   p.ID,
		Amount:   input.Amount,
		Currency: currency,
		TxHash:   strings.TrimSpace(input.TxHash),
		Status:   string(domain.StatusPending),
	}
	if err := s.monetary.CreateDeposit(ctx, req); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"request_id": req.ID,
		"user_id":    p.ID,
		"amount":     req.Amount.String(),
	}).Info("deposit requested")
	return req, nil
}

// RequestWithdrawal files a pending withdrawal request for the caller.
// The balance is checked here as a courtesy and again at approval.
func (s *AccountService) RequestWithdrawal(ctx context.Context, p *domain.Principal, input *WithdrawalInput) (*models.WithdrawalRequest, error) {
	if err := Authorize(p, domain.RoleUser); err != nil {
		return nil, err
	}
	if err := validateAmount(input.Amount); err != nil {
		return nil, err
	}
	currency, err := normalizeCurrency(input.Currency)
	if err != nil {
		return nil, err
	}
	wallet := strings.TrimSpace(input.WalletAddress)
	if wallet == "" {
		return nil, domain.Validationf("wallet_address is required")
	}

	profile, err := s.profiles.GetByID(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	if profile.AccountBalance.LessThan(input.Amount) {
		return nil, domain.ErrInsufficientFunds
	}

	req := &models.WithdrawalRequest{
		ID:            uuid.NewString(),
		UserID:        p.ID,
		Amount:        input.Amount,
		Currency:      currency,
		WalletAddress: wallet,
		Status:        string(domain.StatusPending),
	}
	if err := s.monetary.CreateWithdrawal(ctx, req); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"request_id": req.ID,
		"user_id":    p.ID,
		"amount":     req.Amount.String(),
	}).Info("withdrawal requested")
	return req, nil
}

// ListUsers lists profiles for admins
func (s *AccountService) ListUsers(ctx context.Context, admin *domain.Principal, params *pagination.Params) ([]*models.ProfileResponse, *pagination.Meta, error) {
	if err := Authorize(admin, domain.RoleAdmin); err != nil {
		return nil, nil, err
	}

	profiles, total, err := s.profiles.List(ctx, params.Offset, params.Limit)
	if err != nil {
		return nil, nil, err
	}

	items := make([]*models.ProfileResponse, 0, len(profiles))
	for _, p := range profiles {
		items = append(items, p.ToResponse())
	}
	return items, pagination.GetMeta(params, total), nil
}

// SetAccountStatus activates or deactivates a profile
func (s *AccountService) SetAccountStatus(ctx context.Context, admin *domain.Principal, userID string, status domain.AccountStatus) error {
	if err := Authorize(admin, domain.RoleAdmin); err != nil {
		return err
	}
	if status != domain.AccountActive && status != domain.AccountInactive {
		return domain.Validationf("invalid account status %q", status)
	}
	if status == domain.AccountInactive && userID == admin.ID {
		return fmt.Errorf("%w: cannot deactivate your own account", domain.ErrCannotRemoveSelf)
	}

	if err := s.profiles.UpdateStatus(ctx, userID, status); err != nil {
		return err
	}
	s.invalidator.Invalidate(ctx, userID)

	logrus.WithFields(logrus.Fields{
		"actor_id":  admin.ID,
		"target_id": userID,
		"status":    status,
	}).Info("account status changed")
	return nil
}

// Amounts are stored as decimal(20,8)
const amountScale = 8

var maxAmount = decimal.New(1, 12)

// validateAmount rejects values the amount columns would round or overflow
func validateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return domain.Validationf("amount must be greater than zero")
	}
	if !amount.Equal(amount.Round(amountScale)) {
		return domain.Validationf("amount supports at most %d decimal places", amountScale)
	}
	if amount.GreaterThanOrEqual(maxAmount) {
		return domain.Validationf("amount must be less than %s", maxAmount.String())
	}
	return nil
}

func normalizeCurrency(c string) (string, error) {
	c = strings.ToUpper(strings.TrimSpace(c))
	if c == "" || len(c) > 10 {
		return "", domain.Validationf("currency is required (max 10 characters)")
	}
	return c, nil
}
