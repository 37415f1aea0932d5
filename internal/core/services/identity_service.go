package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"coinvest-api/internal/adapters/persistence/repositories"
	"coinvest-api/internal/core/domain"
	"coinvest-api/internal/pkg/jwt"
	"coinvest-api/internal/pkg/metrics"

	"github.com/sirupsen/logrus"
)

// IdentityService authenticates bearer tokens and resolves principals.
// The profiles row is the only role source; token role claims are ignored.
type IdentityService struct {
	profiles repositories.ProfileRepository
	cache    PrincipalCache
	ttl      time.Duration
	secret   string
	metrics  *metrics.Metrics
}

// NewIdentityService creates a new identity service
func NewIdentityService(
	profiles repositories.ProfileRepository,
	cache PrincipalCache,
	ttl time.Duration,
	secret string,
	m *metrics.Metrics,
) *IdentityService {
	return &IdentityService{
		profiles: profiles,
		cache:    cache,
		ttl:      ttl,
		secret:   secret,
		metrics:  m,
	}
}

// VerifyToken checks the token signature and expiry without touching the store
func (s *IdentityService) VerifyToken(token string) (*jwt.Claims, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: access token required", domain.ErrUnauthenticated)
	}

	claims, err := jwt.ValidateAccessToken(token, s.secret)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: access token expired", domain.ErrUnauthenticated)
		}
		return nil, fmt.Errorf("%w: invalid access token", domain.ErrUnauthenticated)
	}
	return claims, nil
}

// Authenticate validates a token and returns the active principal behind it
func (s *IdentityService) Authenticate(ctx context.Context, token string) (*domain.Principal, error) {
	claims, err := s.VerifyToken(token)
	if err != nil {
		return nil, err
	}

	principal, err := s.Resolve(ctx, claims.UserID())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: no profile for token subject", domain.ErrUnauthenticated)
		}
		return nil, err
	}

	if !principal.IsActive() {
		return nil, domain.ErrAccountInactive
	}
	return principal, nil
}

// Resolve returns the principal for a user id, read-through the cache
func (s *IdentityService) Resolve(ctx context.Context, userID string) (*domain.Principal, error) {
	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, userID)
		if err != nil {
			logrus.WithError(err).WithField("user_id", userID).Warn("principal cache read failed")
		} else if ok {
			s.metrics.CacheResult(true)
			return cached, nil
		}
		s.metrics.CacheResult(false)
	}

	profile, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrUnavailable) {
			return nil, err
		}
		// fail closed
		return nil, fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	}

	principal := &domain.Principal{
		ID:            profile.ID,
		Email:         profile.Email,
		Role:          domain.ParseRole(profile.Role),
		AccountStatus: domain.AccountStatus(profile.AccountStatus),
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, principal, s.ttl); err != nil {
			logrus.WithError(err).WithField("user_id", userID).Warn("principal cache write failed")
		}
	}
	return principal, nil
}

// Invalidate drops the cached principal so the next request re-reads the profile
func (s *IdentityService) Invalidate(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, userID); err != nil {
		logrus.WithError(err).WithField("user_id", userID).Error("principal cache invalidation failed")
	}
}

// Authorize checks that a principal may act with the required role
func (s *IdentityService) Authorize(principal *domain.Principal, required domain.Role) error {
	return Authorize(principal, required)
}

// Authorize checks that a principal may act with the required role
func Authorize(principal *domain.Principal, required domain.Role) error {
	if principal == nil {
		return domain.ErrUnauthenticated
	}
	if !principal.IsActive() {
		return domain.ErrAccountInactive
	}
	if required == domain.RoleAdmin && !principal.IsAdmin() {
		return domain.ErrAdminRequired
	}
	return nil
}
