package identity

import (
	"context"

	"coinvest-api/internal/core/domain"

	"github.com/sirupsen/logrus"
)

// LocalProvider is used when this service issues its own tokens.
// Roles live only in the profiles table, so there is nothing to mirror.
type LocalProvider struct{}

// NewLocalProvider creates a local identity provider
func NewLocalProvider() *LocalProvider {
	return &LocalProvider{}
}

// Name returns the provider name
func (LocalProvider) Name() string {
	return "local"
}

// SetRole only logs the change
func (LocalProvider) SetRole(_ context.Context, userID string, role domain.Role) error {
	logrus.WithFields(logrus.Fields{"user_id": userID, "role": role}).Debug("local identity provider: role mirror skipped")
	return nil
}
