package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"coinvest-api/internal/adapters/persistence/repositories"
	"coinvest-api/internal/core/domain"
	"coinvest-api/internal/pkg/metrics"

	"github.com/sirupsen/logrus"
)

// ApprovalService adjudicates pending deposit and withdrawal requests
type ApprovalService struct {
	monetary repositories.MonetaryRepository
	metrics  *metrics.Metrics
	now      func() time.Time
}

// NewApprovalService creates a new approval service
func NewApprovalService(monetary repositories.MonetaryRepository, m *metrics.Metrics) *ApprovalService {
	return &ApprovalService{
		monetary: monetary,
		metrics:  m,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// ApproveWithdrawal approves a pending withdrawal and debits the owner's balance
func (s *ApprovalService) ApproveWithdrawal(ctx context.Context, id string, admin *domain.Principal) (*domain.Decision, error) {
	return s.decide(ctx, domain.KindWithdrawal, id, admin, true)
}

// RejectWithdrawal rejects a pending withdrawal; no money moves
func (s *ApprovalService) RejectWithdrawal(ctx context.Context, id string, admin *domain.Principal) (*domain.Decision, error) {
	return s.decide(ctx, domain.KindWithdrawal, id, admin, false)
}

// ConfirmDeposit confirms a pending deposit and credits the owner's balance
func (s *ApprovalService) ConfirmDeposit(ctx context.Context, id string, admin *domain.Principal) (*domain.Decision, error) {
	return s.decide(ctx, domain.KindDeposit, id, admin, true)
}

// RejectDeposit rejects a pending deposit; no money moves
func (s *ApprovalService) RejectDeposit(ctx context.Context, id string, admin *domain.Principal) (*domain.Decision, error) {
	return s.decide(ctx, domain.KindDeposit, id, admin, false)
}

func (s *ApprovalService) decide(ctx context.Context, kind domain.RequestKind, id string, admin *domain.Principal, approve bool) (*domain.Decision, error) {
	if err := Authorize(admin, domain.RoleAdmin); err != nil {
		return nil, err
	}

	id = strings.TrimSpace(id)
	if id == "" {
		return nil, domain.Validationf("request id is required")
	}

	start := time.Now()
	decision, err := s.monetary.Decide(ctx, repositories.DecisionCommand{
		Kind:      kind,
		RequestID: id,
		AdminID:   admin.ID,
		Approve:   approve,
		At:        s.now(),
	})

	outcome := decisionOutcome(decision, err)
	s.metrics.ObserveDecision(string(kind), outcome, time.Since(start))

	entry := logrus.WithFields(logrus.Fields{
		"kind":       kind,
		"request_id": id,
		"admin_id":   admin.ID,
		"approve":    approve,
		"outcome":    outcome,
	})

	if err != nil {
		if outcome == "error" {
			entry.WithError(err).Error("monetary decision failed")
		} else {
			entry.Info("monetary decision refused")
		}
		return nil, fmt.Errorf("%s %s %s: %w", verb(kind, approve), kind, id, err)
	}

	if decision.BalanceAfter != nil {
		entry = entry.WithField("balance_after", decision.BalanceAfter.String())
	}
	entry.WithFields(logrus.Fields{
		"user_id": decision.UserID,
		"amount":  decision.Amount.String(),
	}).Info("monetary decision recorded")

	return decision, nil
}

func verb(kind domain.RequestKind, approve bool) string {
	switch {
	case !approve:
		return "reject"
	case kind == domain.KindDeposit:
		return "confirm"
	default:
		return "approve"
	}
}

// decisionOutcome labels a decision result for metrics and logs
func decisionOutcome(d *domain.Decision, err error) string {
	switch {
	case err == nil && d != nil:
		return string(d.Status)
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, domain.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, domain.ErrForbidden):
		return "forbidden"
	case errors.Is(err, domain.ErrUnavailable):
		return "unavailable"
	}
	return "error"
}
