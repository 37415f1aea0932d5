package services

import (
	"context"
	"errors"
	"strings"

	"coinvest-api/internal/adapters/persistence/repositories"
	"coinvest-api/internal/core/domain"
	"coinvest-api/internal/pkg/jwt"
	"coinvest-api/internal/pkg/password"

	"github.com/sirupsen/logrus"
)

// AuthService issues access tokens in local identity mode
type AuthService struct {
	profiles   repositories.ProfileRepository
	secret     string
	issuer     string
	expiryMins int
}

// NewAuthService creates a new auth service
func NewAuthService(profiles repositories.ProfileRepository, secret, issuer string, expiryMins int) *AuthService {
	return &AuthService{
		profiles:   profiles,
		secret:     secret,
		issuer:     issuer,
		expiryMins: expiryMins,
	}
}

// LoginInput represents login input
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult is the issued token and the principal it represents
type LoginResult struct {
	AccessToken string            `json:"access_token"`
	ExpiresIn   int               `json:"expires_in"`
	Principal   *domain.Principal `json:"user"`
}

// Login authenticates email and password against the profile's bcrypt hash
func (s *AuthService) Login(ctx context.Context, input *LoginInput) (*LoginResult, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || input.Password == "" {
		return nil, domain.Validationf("email and password are required")
	}

	// 1. Find profile
	profile, err := s.profiles.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	// 2. Verify password
	if !password.Verify(input.Password, profile.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}

	// 3. Check if account is active
	if profile.AccountStatus == string(domain.AccountInactive) {
		return nil, domain.ErrAccountInactive
	}

	// 4. Issue token
	token, err := jwt.GenerateAccessToken(profile.ID, profile.Email, profile.Role, s.secret, s.issuer, s.expiryMins)
	if err != nil {
		return nil, err
	}

	logrus.WithField("user_id", profile.ID).Info("✅ User logged in")

	return &LoginResult{
		AccessToken: token,
		ExpiresIn:   s.expiryMins * 60,
		Principal: &domain.Principal{
			ID:            profile.ID,
			Email:         profile.Email,
			Role:          domain.ParseRole(profile.Role),
			AccountStatus: domain.AccountStatus(profile.AccountStatus),
		},
	}, nil
}
