package routes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"coinvest-api/internal/adapters/http/handlers"
	"coinvest-api/internal/adapters/persistence/models"
	"coinvest-api/internal/config"
	"coinvest-api/internal/core/domain"
	"coinvest-api/internal/core/services"
	"coinvest-api/internal/pkg/jwt"
	"coinvest-api/internal/pkg/pagination"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubAuth maps bearer tokens to principals
type stubAuth struct {
	principals map[string]*domain.Principal
	err        error
}

func (a *stubAuth) VerifyToken(token string) (*jwt.Claims, error) {
	if token == "" {
		return nil, domain.ErrUnauthenticated
	}
	return &jwt.Claims{
		Email:            token + "@example.com",
		RegisteredClaims: gojwt.RegisteredClaims{Subject: token},
	}, nil
}

func (a *stubAuth) Authenticate(_ context.Context, token string) (*domain.Principal, error) {
	if a.err != nil {
		return nil, a.err
	}
	p, ok := a.principals[token]
	if !ok {
		return nil, domain.ErrUnauthenticated
	}
	return p, nil
}

type stubApprover struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (s *stubApprover) record(op, id string, admin *domain.Principal) (*domain.Decision, error) {
	s.mu.Lock()
	s.calls = append(s.calls, op+":"+id)
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Decision{RequestID: id, ProcessedBy: admin.ID}, nil
}

func (s *stubApprover) ApproveWithdrawal(_ context.Context, id string, admin *domain.Principal) (*domain.Decision, error) {
	return s.record("approve-withdrawal", id, admin)
}

func (s *stubApprover) RejectWithdrawal(_ context.Context, id string, admin *domain.Principal) (*domain.Decision, error) {
	return s.record("reject-withdrawal", id, admin)
}

func (s *stubApprover) ConfirmDeposit(_ context.Context, id string, admin *domain.Principal) (*domain.Decision, error) {
	return s.record("confirm-deposit", id, admin)
}

func (s *stubApprover) RejectDeposit(_ context.Context, id string, admin *domain.Principal) (*domain.Decision, error) {
	return s.record("reject-deposit", id, admin)
}

type stubQuerier struct{}

func (stubQuerier) ListPlans(context.Context) ([]*models.InvestmentPlan, error) {
	return []*models.InvestmentPlan{{ID: 1, Name: "Starter", MinAmount: decimal.NewFromInt(100)}}, nil
}

func (stubQuerier) ListInvestments(context.Context, *domain.Principal) ([]*models.UserInvestment, error) {
	return []*models.UserInvestment{}, nil
}

func (stubQuerier) Referrals(_ context.Context, p *domain.Principal) (*services.ReferralSummary, error) {
	return &services.ReferralSummary{ReferralCode: "CODE" + strings.ToUpper(p.ID), Referrals: []*models.Referral{}}, nil
}

func (stubQuerier) ListTransactions(_ context.Context, _ *domain.Principal, params *pagination.Params) ([]*models.Transaction, *pagination.Meta, error) {
	return []*models.Transaction{}, pagination.GetMeta(params, 0), nil
}

func (stubQuerier) ListDeposits(_ context.Context, _ *domain.Principal, params *pagination.Params) ([]*models.DepositRequest, *pagination.Meta, error) {
	return []*models.DepositRequest{{ID: "d-1", Status: string(domain.StatusPending)}}, pagination.GetMeta(params, 1), nil
}

func (stubQuerier) ListWithdrawals(_ context.Context, _ *domain.Principal, params *pagination.Params) ([]*models.WithdrawalRequest, *pagination.Meta, error) {
	if params.Status != "" && params.Status != string(domain.StatusPending) {
		return nil, nil, domain.Validationf("invalid status filter %q", params.Status)
	}
	return []*models.WithdrawalRequest{{ID: "w-1", Status: string(domain.StatusPending)}}, pagination.GetMeta(params, 1), nil
}

func (stubQuerier) Dashboard(_ context.Context, p *domain.Principal) (*services.Dashboard, error) {
	return &services.Dashboard{AccountBalance: decimal.NewFromInt(250)}, nil
}

type stubRoles struct {
	synced int
}

func (s *stubRoles) GrantAdmin(_ context.Context, _ *domain.Principal, email string) (*services.RoleChange, error) {
	return &services.RoleChange{Email: email, Role: domain.RoleAdmin, Mirrored: true}, nil
}

func (s *stubRoles) RevokeAdmin(_ context.Context, actor *domain.Principal, email string) (*services.RoleChange, error) {
	if email == actor.Email {
		return nil, domain.ErrCannotRemoveSelf
	}
	return &services.RoleChange{Email: email, Role: domain.RoleUser, Mirrored: true}, nil
}

func (s *stubRoles) ListAdmins(context.Context, *domain.Principal) ([]services.AdminSummary, error) {
	return []services.AdminSummary{{ID: "admin-1", Email: "admin@example.com"}}, nil
}

func (s *stubRoles) SyncRoles(context.Context, *domain.Principal) (*services.SyncReport, error) {
	return &services.SyncReport{Synced: s.synced}, nil
}

type stubAccounts struct {
	onboarded map[string]bool
}

func (s *stubAccounts) Onboard(_ context.Context, userID, email string, input *services.OnboardInput) (*models.Profile, bool, error) {
	created := !s.onboarded[userID]
	s.onboarded[userID] = true
	return &models.Profile{ID: userID, Email: email, FullName: input.FullName, Role: "user"}, created, nil
}

func (s *stubAccounts) RequestDeposit(_ context.Context, p *domain.Principal, input *services.DepositInput) (*models.DepositRequest, error) {
	if !input.Amount.IsPositive() {
		return nil, domain.Validationf("amount must be greater than zero")
	}
	return &models.DepositRequest{ID: "d-new", UserID: p.ID, Amount: input.Amount, Status: "pending"}, nil
}

func (s *stubAccounts) RequestWithdrawal(_ context.Context, p *domain.Principal, input *services.WithdrawalInput) (*models.WithdrawalRequest, error) {
	return nil, domain.ErrInsufficientFunds
}

func (s *stubAccounts) ListUsers(_ context.Context, _ *domain.Principal, params *pagination.Params) ([]*models.ProfileResponse, *pagination.Meta, error) {
	return []*models.ProfileResponse{}, pagination.GetMeta(params, 0), nil
}

func (s *stubAccounts) SetAccountStatus(_ context.Context, admin *domain.Principal, userID string, status domain.AccountStatus) error {
	if status == domain.AccountInactive && userID == admin.ID {
		return fmt.Errorf("%w: cannot deactivate your own account", domain.ErrCannotRemoveSelf)
	}
	return nil
}

type stubLogin struct{}

func (stubLogin) Login(_ context.Context, input *services.LoginInput) (*services.LoginResult, error) {
	if input.Password != "secret123" {
		return nil, domain.ErrInvalidCredentials
	}
	return &services.LoginResult{AccessToken: "tok", ExpiresIn: 3600}, nil
}

type testEnv struct {
	app      *fiber.App
	approver *stubApprover
	auth     *stubAuth
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := &config.Config{AppMode: "dev"}
	cfg.JWT.AccessTokenMins = 60
	cfg.Identity.Provider = config.IdentityLocal

	auth := &stubAuth{principals: map[string]*domain.Principal{
		"admin-token": {ID: "admin-1", Email: "admin@example.com", Role: domain.RoleAdmin, AccountStatus: domain.AccountActive},
		"user-token":  {ID: "user-1", Email: "user@example.com", Role: domain.RoleUser, AccountStatus: domain.AccountActive},
	}}
	approver := &stubApprover{}
	query := stubQuerier{}

	h := Handlers{
		Health:    handlers.NewHealthHandler(nil),
		Auth:      handlers.NewAuthHandler(stubLogin{}, cfg),
		Portfolio: handlers.NewPortfolioHandler(query),
		Account:   handlers.NewAccountHandler(&stubAccounts{onboarded: map[string]bool{}}),
		Admin:     handlers.NewAdminHandler(approver, query, &stubRoles{synced: 3}),
	}

	app := fiber.New()
	Mount(app.Group("/api/v1"), h, auth, cfg, nil)

	return &testEnv{app: app, approver: approver, auth: auth}
}

func (e *testEnv) do(t *testing.T, method, path, token, body string) (*http.Response, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	out := map[string]interface{}{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp, out
}

func TestAdminRoutesRequireAuthentication(t *testing.T) {
	env := newTestEnv(t)

	paths := []struct{ method, path string }{
		{"GET", "/api/v1/admin/deposits"},
		{"GET", "/api/v1/admin/withdrawals"},
		{"POST", "/api/v1/admin/withdrawals/w-1/approve"},
		{"POST", "/api/v1/admin/deposits/d-1/confirm"},
		{"GET", "/api/v1/admin/manage-admins"},
		{"POST", "/api/v1/admin/manage-admins/sync"},
	}
	for _, p := range paths {
		resp, body := env.do(t, p.method, p.path, "", "")
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode, p.path)
		assert.Equal(t, false, body["success"], p.path)
	}
	assert.Empty(t, env.approver.calls)
}

func TestAdminRoutesRejectNonAdmin(t *testing.T) {
	env := newTestEnv(t)

	resp, _ := env.do(t, "POST", "/api/v1/admin/withdrawals/w-1/approve", "user-token", "")
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, _ = env.do(t, "GET", "/api/v1/admin/manage-admins", "user-token", "")
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	assert.Empty(t, env.approver.calls)
}

func TestInactiveAccountIsForbidden(t *testing.T) {
	env := newTestEnv(t)
	env.auth.err = domain.ErrAccountInactive

	resp, body := env.do(t, "GET", "/api/v1/investments", "user-token", "")
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.Contains(t, body["error"], "inactive")
}

func TestIdentityStoreOutageFailsClosed(t *testing.T) {
	env := newTestEnv(t)
	env.auth.err = fmt.Errorf("resolve principal: %w", domain.ErrUnavailable)

	resp, _ := env.do(t, "POST", "/api/v1/admin/withdrawals/w-1/approve", "admin-token", "")
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
	assert.Empty(t, env.approver.calls)
}

func TestApproveWithdrawalStatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"approved", nil, fiber.StatusOK},
		{"missing", fmt.Errorf("withdrawal w-1: %w", domain.ErrNotFound), fiber.StatusNotFound},
		{"already processed", domain.ErrInvalidState, fiber.StatusConflict},
		{"insufficient funds", domain.ErrInsufficientFunds, fiber.StatusUnprocessableEntity},
		{"demoted admin", domain.ErrAdminRequired, fiber.StatusForbidden},
		{"timeout", domain.ErrUnavailable, fiber.StatusServiceUnavailable},
		{"unknown", errors.New("deadlock detected"), fiber.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.approver.err = tc.err

			resp, body := env.do(t, "POST", "/api/v1/admin/withdrawals/w-1/approve", "admin-token", "")
			assert.Equal(t, tc.status, resp.StatusCode)
			assert.Equal(t, []string{"approve-withdrawal:w-1"}, env.approver.calls)

			if tc.err == nil {
				assert.Equal(t, true, body["success"])
				assert.Equal(t, "Withdrawal approved", body["message"])
			} else {
				assert.Equal(t, false, body["success"])
			}
			if tc.status == fiber.StatusInternalServerError {
				assert.NotContains(t, body["error"], "deadlock")
			}
		})
	}
}

func TestDecisionRoutesDispatch(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{
		"/api/v1/admin/withdrawals/w-2/reject",
		"/api/v1/admin/deposits/d-1/confirm",
		"/api/v1/admin/deposits/d-2/reject",
	} {
		resp, body := env.do(t, "POST", path, "admin-token", "")
		assert.Equal(t, fiber.StatusOK, resp.StatusCode, path)
		assert.Equal(t, true, body["success"], path)
		assert.NotEmpty(t, body["message"], path)
	}

	assert.Equal(t, []string{
		"reject-withdrawal:w-2",
		"confirm-deposit:d-1",
		"reject-deposit:d-2",
	}, env.approver.calls)
}

func TestAdminListsIncludeMeta(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.do(t, "GET", "/api/v1/admin/withdrawals?page=1&limit=10", "admin-token", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])
	assert.Len(t, body["withdrawals"], 1)
	meta, ok := body["meta"].(map[string]interface{})
	require.True(t, ok)
	assert.EqualValues(t, 10, meta["limit"])
	assert.EqualValues(t, 1, meta["total"])

	resp, body = env.do(t, "GET", "/api/v1/admin/deposits", "admin-token", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Len(t, body["deposits"], 1)

	resp, _ = env.do(t, "GET", "/api/v1/admin/withdrawals?status=bogus", "admin-token", "")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestManageAdmins(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.do(t, "GET", "/api/v1/admin/manage-admins", "admin-token", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Len(t, body["admins"], 1)

	resp, body = env.do(t, "POST", "/api/v1/admin/manage-admins/add", "admin-token", `{"email":"new@example.com"}`)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body["message"], "new@example.com")

	resp, _ = env.do(t, "POST", "/api/v1/admin/manage-admins/remove", "admin-token", `{"email":"admin@example.com"}`)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = env.do(t, "POST", "/api/v1/admin/manage-admins/remove", "admin-token", `not json`)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, body = env.do(t, "POST", "/api/v1/admin/manage-admins/sync", "admin-token", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 3, body["synced"])
}

func TestDeactivateSelfIsRejected(t *testing.T) {
	env := newTestEnv(t)

	resp, _ := env.do(t, "POST", "/api/v1/admin/users/admin-1/deactivate", "admin-token", "")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = env.do(t, "POST", "/api/v1/admin/users/user-1/deactivate", "admin-token", "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestPublicPlans(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.do(t, "GET", "/api/v1/plans", "", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Len(t, body["plans"], 1)
	assert.Contains(t, resp.Header.Get(fiber.HeaderCacheControl), "max-age=300")
}

func TestUserRoutes(t *testing.T) {
	env := newTestEnv(t)

	resp, _ := env.do(t, "GET", "/api/v1/investments", "", "")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp, body := env.do(t, "GET", "/api/v1/referrals", "user-token", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "CODEUSER-1", body["referral_code"])
	assert.NotNil(t, body["referrals"])

	resp, body = env.do(t, "GET", "/api/v1/dashboard", "user-token", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "no-store", resp.Header.Get(fiber.HeaderCacheControl))
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "250", data["account_balance"])

	resp, body = env.do(t, "POST", "/api/v1/deposits", "user-token", `{"amount":"50.5","currency":"usdt"}`)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	assert.Equal(t, true, body["success"])

	resp, _ = env.do(t, "POST", "/api/v1/deposits", "user-token", `{"amount":"0","currency":"usdt"}`)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = env.do(t, "POST", "/api/v1/withdrawals", "user-token", `{"amount":"1000","currency":"usdt","wallet_address":"0xabc"}`)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)

	resp, body = env.do(t, "GET", "/api/v1/transactions", "user-token", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.NotNil(t, body["meta"])
}

func TestOnboardingNeedsOnlyAToken(t *testing.T) {
	env := newTestEnv(t)

	resp, _ := env.do(t, "POST", "/api/v1/onboarding", "", `{"full_name":"New User"}`)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	// "fresh-user" has no profile yet, so Authenticate would fail
	resp, body := env.do(t, "POST", "/api/v1/onboarding", "fresh-user", `{"full_name":"New User"}`)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "fresh-user@example.com", data["email"])

	resp, _ = env.do(t, "POST", "/api/v1/onboarding", "fresh-user", `{"full_name":"New User"}`)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestLocalLoginSetsCookie(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.do(t, "POST", "/api/v1/auth/login", "", `{"email":"admin@example.com","password":"secret123"}`)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])

	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == "access_token" {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.Equal(t, "tok", cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, 3600, cookie.MaxAge)

	resp, _ = env.do(t, "POST", "/api/v1/auth/login", "", `{"email":"admin@example.com","password":"wrong"}`)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestCookieTokenAuthenticates(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest("GET", "/api/v1/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: "user-token"})

	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestLogoutClearsCookie(t *testing.T) {
	env := newTestEnv(t)

	resp, _ := env.do(t, "POST", "/api/v1/auth/logout", "", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	found := false
	for _, c := range resp.Cookies() {
		if c.Name == "access_token" {
			found = true
			assert.Empty(t, c.Value)
		}
	}
	assert.True(t, found)
}
