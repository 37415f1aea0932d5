package handlers

import (
	"coinvest-api/internal/adapters/http/middleware"
	"coinvest-api/internal/core/domain"
	"coinvest-api/internal/core/services"
	"coinvest-api/internal/pkg/pagination"
	"coinvest-api/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AccountHandler handles onboarding, user requests and account status
type AccountHandler struct {
	accounts AccountManager
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(accounts AccountManager) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

// Onboard creates the caller's profile on first login
// @Summary Onboard
// @Description Create the caller's profile; optionally link a referrer by referral code
// @Tags Account
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.OnboardInput true "Onboarding data"
// @Success 200 {object} response.Response
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /onboarding [post]
func (h *AccountHandler) Onboard(c *fiber.Ctx) error {
	claims := middleware.CurrentClaims(c)
	if claims == nil {
		return response.Unauthorized(c, "Unauthorized")
	}

	var input services.OnboardInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	profile, created, err := h.accounts.Onboard(c.UserContext(), claims.UserID(), claims.Email, &input)
	if err != nil {
		return response.FromError(c, err)
	}

	if created {
		return response.Created(c, "Profile created", profile.ToResponse())
	}
	return response.Success(c, "Profile already exists", profile.ToResponse())
}

// RequestDeposit files a pending deposit request
// @Summary Request deposit
// @Tags Account
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.DepositInput true "Deposit data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /deposits [post]
func (h *AccountHandler) RequestDeposit(c *fiber.Ctx) error {
	var input services.DepositInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	req, err := h.accounts.RequestDeposit(c.UserContext(), middleware.CurrentPrincipal(c), &input)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, "Deposit request submitted", req)
}

// RequestWithdrawal files a pending withdrawal request
// @Summary Request withdrawal
// @Tags Account
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.WithdrawalInput true "Withdrawal data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /withdrawals [post]
func (h *AccountHandler) RequestWithdrawal(c *fiber.Ctx) error {
	var input services.WithdrawalInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	req, err := h.accounts.RequestWithdrawal(c.UserContext(), middleware.CurrentPrincipal(c), &input)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, "Withdrawal request submitted", req)
}

// ListUsers lists profiles
// @Summary List users
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /admin/users [get]
func (h *AccountHandler) ListUsers(c *fiber.Ctx) error {
	users, meta, err := h.accounts.ListUsers(c.UserContext(), middleware.CurrentPrincipal(c), pagination.GetParams(c))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.List(c, "users", users, fiber.Map{"meta": meta})
}

// Activate reactivates an account
// @Summary Activate user
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/users/{id}/activate [post]
func (h *AccountHandler) Activate(c *fiber.Ctx) error {
	return h.setStatus(c, domain.AccountActive, "User activated")
}

// Deactivate blocks an account
// @Summary Deactivate user
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/users/{id}/deactivate [post]
func (h *AccountHandler) Deactivate(c *fiber.Ctx) error {
	return h.setStatus(c, domain.AccountInactive, "User deactivated")
}

func (h *AccountHandler) setStatus(c *fiber.Ctx, status domain.AccountStatus, message string) error {
	err := h.accounts.SetAccountStatus(c.UserContext(), middleware.CurrentPrincipal(c), c.Params("id"), status)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, message, nil)
}
