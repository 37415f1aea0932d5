package repositories

import (
	"context"
	"errors"
	"fmt"

	"coinvest-api/internal/core/domain"

	"gorm.io/gorm"
)

// translate maps driver/gorm errors onto the domain taxonomy
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domain.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", domain.ErrConflict, err)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	}
	return err
}
