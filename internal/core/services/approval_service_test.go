package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"coinvest-api/internal/core/domain"
	"coinvest-api/internal/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type approvalFixture struct {
	store   *fakeStore
	svc     *ApprovalService
	admin   *domain.Principal
	metrics *metrics.Metrics
}

func newApprovalFixture(t *testing.T) *approvalFixture {
	t.Helper()
	store := newFakeStore()
	admin := store.addProfile("admin-1", domain.RoleAdmin, 0)
	m := metrics.New(prometheus.NewRegistry())
	return &approvalFixture{
		store:   store,
		svc:     NewApprovalService(fakeMonetary{store}, m),
		admin:   principalFor(admin),
		metrics: m,
	}
}

func TestApproveWithdrawalDebitsBalance(t *testing.T) {
	f := newApprovalFixture(t)
	f.store.addProfile("u-1", domain.RoleUser, 500)
	f.store.addWithdrawal("w-1", "u-1", 100)

	decision, err := f.svc.ApproveWithdrawal(context.Background(), "w-1", f.admin)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusApproved, decision.Status)
	assert.Equal(t, "admin-1", decision.ProcessedBy)
	assert.True(t, decision.BalanceAfter.Equal(decimal.NewFromInt(400)))

	owner := f.store.profile("u-1")
	assert.True(t, owner.AccountBalance.Equal(decimal.NewFromInt(400)))
	assert.True(t, owner.TotalWithdrawn.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, 1, f.store.ledgerFor("w-1"))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Decisions.WithLabelValues("withdrawal", "approved")))
}

func TestApproveWithdrawalTwiceIsRefused(t *testing.T) {
	f := newApprovalFixture(t)
	f.store.addProfile("u-1", domain.RoleUser, 500)
	f.store.addWithdrawal("w-1", "u-1", 100)

	_, err := f.svc.ApproveWithdrawal(context.Background(), "w-1", f.admin)
	require.NoError(t, err)

	_, err = f.svc.ApproveWithdrawal(context.Background(), "w-1", f.admin)
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	owner := f.store.profile("u-1")
	assert.True(t, owner.AccountBalance.Equal(decimal.NewFromInt(400)))
	assert.Equal(t, 1, f.store.ledgerFor("w-1"))
}

func TestRejectThenApproveIsRefused(t *testing.T) {
	f := newApprovalFixture(t)
	f.store.addProfile("u-1", domain.RoleUser, 500)
	f.store.addWithdrawal("w-1", "u-1", 100)

	decision, err := f.svc.RejectWithdrawal(context.Background(), "w-1", f.admin)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, decision.Status)
	assert.Nil(t, decision.BalanceAfter)

	_, err = f.svc.ApproveWithdrawal(context.Background(), "w-1", f.admin)
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	_, err = f.svc.RejectWithdrawal(context.Background(), "w-1", f.admin)
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	owner := f.store.profile("u-1")
	assert.True(t, owner.AccountBalance.Equal(decimal.NewFromInt(500)))
	assert.Equal(t, 0, f.store.ledgerFor("w-1"))
}

func TestApproveWithdrawalInsufficientFunds(t *testing.T) {
	f := newApprovalFixture(t)
	f.store.addProfile("u-1", domain.RoleUser, 50)
	f.store.addWithdrawal("w-1", "u-1", 100)

	_, err := f.svc.ApproveWithdrawal(context.Background(), "w-1", f.admin)
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)

	owner := f.store.profile("u-1")
	assert.True(t, owner.AccountBalance.Equal(decimal.NewFromInt(50)))
	assert.Equal(t, 0, f.store.ledgerFor("w-1"))

	// still pending, so it can be rejected
	_, err = f.svc.RejectWithdrawal(context.Background(), "w-1", f.admin)
	assert.NoError(t, err)
}

func TestApprovalRequiresAdmin(t *testing.T) {
	f := newApprovalFixture(t)
	user := f.store.addProfile("u-1", domain.RoleUser, 500)
	f.store.addWithdrawal("w-1", "u-1", 100)

	_, err := f.svc.ApproveWithdrawal(context.Background(), "w-1", principalFor(user))
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.svc.ApproveWithdrawal(context.Background(), "w-1", nil)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	assert.True(t, f.store.profile("u-1").AccountBalance.Equal(decimal.NewFromInt(500)))
}

func TestApprovalRechecksAdminInStore(t *testing.T) {
	f := newApprovalFixture(t)
	f.store.addProfile("u-1", domain.RoleUser, 500)
	f.store.addWithdrawal("w-1", "u-1", 100)

	// principal was resolved as admin, then demoted before the decision
	require.NoError(t, fakeProfiles{f.store}.UpdateRole(context.Background(), "admin-1", domain.RoleUser))

	_, err := f.svc.ApproveWithdrawal(context.Background(), "w-1", f.admin)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.Equal(t, 0, f.store.ledgerFor("w-1"))
}

func TestApprovalNotFoundAndValidation(t *testing.T) {
	f := newApprovalFixture(t)

	_, err := f.svc.ApproveWithdrawal(context.Background(), "missing", f.admin)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.svc.ConfirmDeposit(context.Background(), "  ", f.admin)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestConfirmDepositCreditsBalance(t *testing.T) {
	f := newApprovalFixture(t)
	f.store.addProfile("u-1", domain.RoleUser, 10)
	f.store.addDeposit("d-1", "u-1", 250)

	decision, err := f.svc.ConfirmDeposit(context.Background(), "d-1", f.admin)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, decision.Status)

	owner := f.store.profile("u-1")
	assert.True(t, owner.AccountBalance.Equal(decimal.NewFromInt(260)))
	assert.True(t, owner.TotalDeposited.Equal(decimal.NewFromInt(250)))
	assert.Equal(t, 1, f.store.ledgerFor("d-1"))

	_, err = f.svc.RejectDeposit(context.Background(), "d-1", f.admin)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestRejectDepositLeavesBalance(t *testing.T) {
	f := newApprovalFixture(t)
	f.store.addProfile("u-1", domain.RoleUser, 10)
	f.store.addDeposit("d-1", "u-1", 250)

	_, err := f.svc.RejectDeposit(context.Background(), "d-1", f.admin)
	require.NoError(t, err)
	assert.True(t, f.store.profile("u-1").AccountBalance.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, 0, f.store.ledgerFor("d-1"))
}

func TestConcurrentApprovalsSettleOnce(t *testing.T) {
	f := newApprovalFixture(t)
	f.store.addProfile("u-1", domain.RoleUser, 100)
	f.store.addWithdrawal("w-1", "u-1", 100)

	const workers = 16
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(approve bool) {
			defer wg.Done()
			var err error
			if approve {
				_, err = f.svc.ApproveWithdrawal(context.Background(), "w-1", f.admin)
			} else {
				_, err = f.svc.RejectWithdrawal(context.Background(), "w-1", f.admin)
			}
			errs <- err
		}(i%2 == 0)
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, errors.Is(err, domain.ErrInvalidState), err.Error())
	}
	assert.Equal(t, 1, succeeded)

	owner := f.store.profile("u-1")
	assert.False(t, owner.AccountBalance.IsNegative())
	assert.LessOrEqual(t, f.store.ledgerFor("w-1"), 1)
}
