package repositories

import (
	"context"
	"errors"
	"fmt"

	"coinvest-api/internal/adapters/persistence/models"
	"coinvest-api/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type monetaryRepository struct {
	db *gorm.DB
}

// NewMonetaryRepository creates a new deposit/withdrawal repository
func NewMonetaryRepository(db *gorm.DB) MonetaryRepository {
	return &monetaryRepository{db: db}
}

// CreateDeposit stores a new pending deposit request
func (r *monetaryRepository) CreateDeposit(ctx context.Context, req *models.DepositRequest) error {
	return translate(r.db.WithContext(ctx).Create(req).Error)
}

// CreateWithdrawal stores a new pending withdrawal request
func (r *monetaryRepository) CreateWithdrawal(ctx context.Context, req *models.WithdrawalRequest) error {
	return translate(r.db.WithContext(ctx).Create(req).Error)
}

// ListDeposits lists deposit requests newest first, optionally filtered by status
func (r *monetaryRepository) ListDeposits(ctx context.Context, status string, offset, limit int) ([]*models.DepositRequest, int64, error) {
	var items []*models.DepositRequest
	total, err := r.list(ctx, &models.DepositRequest{}, &items, status, offset, limit)
	return items, total, err
}

// ListWithdrawals lists withdrawal requests newest first, optionally filtered by status
func (r *monetaryRepository) ListWithdrawals(ctx context.Context, status string, offset, limit int) ([]*models.WithdrawalRequest, int64, error) {
	var items []*models.WithdrawalRequest
	total, err := r.list(ctx, &models.WithdrawalRequest{}, &items, status, offset, limit)
	return items, total, err
}

func (r *monetaryRepository) list(ctx context.Context, model, dest interface{}, status string, offset, limit int) (int64, error) {
	filter := func(db *gorm.DB) *gorm.DB {
		if status != "" {
			return db.Where("status = ?", status)
		}
		return db
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(model).Scopes(filter).Count(&total).Error; err != nil {
		return 0, translate(err)
	}

	err := r.db.WithContext(ctx).
		Scopes(filter).
		Preload("User", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "email", "full_name")
		}).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(dest).Error
	return total, translate(err)
}

// lockedRequest is the subset of a request row the decision needs
type lockedRequest struct {
	ID     string
	UserID string
	Amount decimal.Decimal
	Status domain.RequestStatus
}

func requestModel(kind domain.RequestKind) interface{} {
	if kind == domain.KindDeposit {
		return &models.DepositRequest{}
	}
	return &models.WithdrawalRequest{}
}

// lockRequest reads the request row with SELECT ... FOR UPDATE
func lockRequest(tx *gorm.DB, kind domain.RequestKind, id string) (*lockedRequest, error) {
	locked := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id)

	switch kind {
	case domain.KindDeposit:
		var d models.DepositRequest
		if err := locked.Take(&d).Error; err != nil {
			return nil, translate(err)
		}
		return &lockedRequest{ID: d.ID, UserID: d.UserID, Amount: d.Amount, Status: domain.RequestStatus(d.Status)}, nil
	case domain.KindWithdrawal:
		var w models.WithdrawalRequest
		if err := locked.Take(&w).Error; err != nil {
			return nil, translate(err)
		}
		return &lockedRequest{ID: w.ID, UserID: w.UserID, Amount: w.Amount, Status: domain.RequestStatus(w.Status)}, nil
	}
	return nil, domain.Validationf("unknown request kind %q", kind)
}

// Decide settles a pending request inside one transaction.
//
// Order of operations: lock request, require pending, re-check the acting
// admin, lock the owner's profile, verify funds, flip the status with a
// pending guard, move the balance with a funds guard, append the ledger row.
// Any failure rolls the whole unit back.
func (r *monetaryRepository) Decide(ctx context.Context, cmd DecisionCommand) (*domain.Decision, error) {
	var decision *domain.Decision

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		req, err := lockRequest(tx, cmd.Kind, cmd.RequestID)
		if err != nil {
			return err
		}
		if req.Status != domain.StatusPending {
			return domain.ErrInvalidState
		}

		if err := requireAdmin(tx, cmd.AdminID); err != nil {
			return err
		}

		target := domain.StatusRejected
		if cmd.Approve {
			target = cmd.Kind.ApprovedStatus()
		}

		var profile models.Profile
		if cmd.Approve {
			err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Select("id", "account_balance").
				Where("id = ?", req.UserID).
				Take(&profile).Error
			if err != nil {
				return translate(err)
			}
			if cmd.Kind == domain.KindWithdrawal && profile.AccountBalance.LessThan(req.Amount) {
				return domain.ErrInsufficientFunds
			}
		}

		res := tx.Model(requestModel(cmd.Kind)).
			Where("id = ? AND status = ?", req.ID, string(domain.StatusPending)).
			Updates(map[string]interface{}{
				"status":       string(target),
				"processed_by": cmd.AdminID,
				"processed_at": cmd.At,
			})
		if res.Error != nil {
			return translate(res.Error)
		}
		if res.RowsAffected == 0 {
			return domain.ErrInvalidState
		}

		decision = &domain.Decision{
			Kind:        cmd.Kind,
			RequestID:   req.ID,
			UserID:      req.UserID,
			Amount:      req.Amount,
			Status:      target,
			ProcessedBy: cmd.AdminID,
			ProcessedAt: cmd.At,
		}
		if !cmd.Approve {
			return nil
		}

		balance, err := moveFunds(tx, cmd.Kind, req, profile.AccountBalance)
		if err != nil {
			return err
		}
		decision.BalanceAfter = &balance

		entry := &models.Transaction{
			ID:          uuid.NewString(),
			UserID:      req.UserID,
			Type:        string(cmd.Kind),
			Amount:      req.Amount,
			Description: ledgerDescription(cmd.Kind, req.ID),
			ReferenceID: req.ID,
			CreatedAt:   cmd.At,
		}
		return translate(tx.Create(entry).Error)
	})
	if err != nil {
		return nil, err
	}

	return decision, nil
}

// requireAdmin re-reads the acting admin inside the transaction
func requireAdmin(tx *gorm.DB, adminID string) error {
	var admin models.Profile
	err := tx.Select("id", "role", "account_status").Where("id = ?", adminID).Take(&admin).Error
	if err != nil {
		err = translate(err)
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrAdminRequired
		}
		return err
	}
	if domain.ParseRole(admin.Role) != domain.RoleAdmin || admin.AccountStatus == string(domain.AccountInactive) {
		return domain.ErrAdminRequired
	}
	return nil
}

// moveFunds applies the balance change with a guarded UPDATE
func moveFunds(tx *gorm.DB, kind domain.RequestKind, req *lockedRequest, current decimal.Decimal) (decimal.Decimal, error) {
	q := tx.Model(&models.Profile{}).Where("id = ?", req.UserID)

	var updates map[string]interface{}
	var after decimal.Decimal
	switch kind {
	case domain.KindWithdrawal:
		q = q.Where("account_balance >= ?", req.Amount)
		updates = map[string]interface{}{
			"account_balance": gorm.Expr("account_balance - ?", req.Amount),
			"total_withdrawn": gorm.Expr("total_withdrawn + ?", req.Amount),
		}
		after = current.Sub(req.Amount)
	default:
		updates = map[string]interface{}{
			"account_balance": gorm.Expr("account_balance + ?", req.Amount),
			"total_deposited": gorm.Expr("total_deposited + ?", req.Amount),
		}
		after = current.Add(req.Amount)
	}

	res := q.Updates(updates)
	if res.Error != nil {
		return decimal.Zero, translate(res.Error)
	}
	if res.RowsAffected == 0 {
		if kind == domain.KindWithdrawal {
			return decimal.Zero, domain.ErrInsufficientFunds
		}
		return decimal.Zero, domain.ErrNotFound
	}
	return after, nil
}

func ledgerDescription(kind domain.RequestKind, requestID string) string {
	if kind == domain.KindDeposit {
		return fmt.Sprintf("Deposit confirmed (request %s)", requestID)
	}
	return fmt.Sprintf("Withdrawal approved (request %s)", requestID)
}
