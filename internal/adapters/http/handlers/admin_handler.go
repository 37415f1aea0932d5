package handlers

import (
	"context"
	"fmt"
	"strings"

	"coinvest-api/internal/adapters/http/middleware"
	"coinvest-api/internal/core/domain"
	"coinvest-api/internal/pkg/pagination"
	"coinvest-api/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AdminHandler handles the deposit/withdrawal review queue and admin roles
type AdminHandler struct {
	approvals Approver
	query     Querier
	roles     RoleManager
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(approvals Approver, query Querier, roles RoleManager) *AdminHandler {
	return &AdminHandler{
		approvals: approvals,
		query:     query,
		roles:     roles,
	}
}

// EmailRequest is the body of the role management endpoints
type EmailRequest struct {
	Email string `json:"email"`
}

type decideFunc func(ctx context.Context, id string, admin *domain.Principal) (*domain.Decision, error)

// ListDeposits lists deposit requests newest first
// @Summary List deposit requests
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Param status query string false "pending, confirmed or rejected"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /admin/deposits [get]
func (h *AdminHandler) ListDeposits(c *fiber.Ctx) error {
	items, meta, err := h.query.ListDeposits(c.UserContext(), middleware.CurrentPrincipal(c), pagination.GetParams(c))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.List(c, "deposits", items, fiber.Map{"meta": meta})
}

// ListWithdrawals lists withdrawal requests newest first
// @Summary List withdrawal requests
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Param status query string false "pending, approved or rejected"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /admin/withdrawals [get]
func (h *AdminHandler) ListWithdrawals(c *fiber.Ctx) error {
	items, meta, err := h.query.ListWithdrawals(c.UserContext(), middleware.CurrentPrincipal(c), pagination.GetParams(c))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.List(c, "withdrawals", items, fiber.Map{"meta": meta})
}

// ApproveWithdrawal approves a pending withdrawal and debits the balance
// @Summary Approve withdrawal
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Withdrawal request ID"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /admin/withdrawals/{id}/approve [post]
func (h *AdminHandler) ApproveWithdrawal(c *fiber.Ctx) error {
	return h.decide(c, h.approvals.ApproveWithdrawal, "Withdrawal approved")
}

// RejectWithdrawal rejects a pending withdrawal
// @Summary Reject withdrawal
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Withdrawal request ID"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /admin/withdrawals/{id}/reject [post]
func (h *AdminHandler) RejectWithdrawal(c *fiber.Ctx) error {
	return h.decide(c, h.approvals.RejectWithdrawal, "Withdrawal rejected")
}

// ConfirmDeposit confirms a pending deposit and credits the balance
// @Summary Confirm deposit
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Deposit request ID"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /admin/deposits/{id}/confirm [post]
func (h *AdminHandler) ConfirmDeposit(c *fiber.Ctx) error {
	return h.decide(c, h.approvals.ConfirmDeposit, "Deposit confirmed")
}

// RejectDeposit rejects a pending deposit
// @Summary Reject deposit
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Deposit request ID"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /admin/deposits/{id}/reject [post]
func (h *AdminHandler) RejectDeposit(c *fiber.Ctx) error {
	return h.decide(c, h.approvals.RejectDeposit, "Deposit rejected")
}

func (h *AdminHandler) decide(c *fiber.Ctx, fn decideFunc, message string) error {
	if _, err := fn(c.UserContext(), c.Params("id"), middleware.CurrentPrincipal(c)); err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, message, nil)
}

// ListAdmins lists admins
// @Summary List admins
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /admin/manage-admins [get]
func (h *AdminHandler) ListAdmins(c *fiber.Ctx) error {
	admins, err := h.roles.ListAdmins(c.UserContext(), middleware.CurrentPrincipal(c))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.List(c, "admins", admins, nil)
}

// AddAdmin grants the admin role by email
// @Summary Grant admin role
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body EmailRequest true "Target email"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /admin/manage-admins/add [post]
func (h *AdminHandler) AddAdmin(c *fiber.Ctx) error {
	var req EmailRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	change, err := h.roles.GrantAdmin(c.UserContext(), middleware.CurrentPrincipal(c), strings.TrimSpace(req.Email))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, fmt.Sprintf("%s is now an admin", change.Email), change)
}

// RemoveAdmin revokes the admin role by email
// @Summary Revoke admin role
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body EmailRequest true "Target email"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /admin/manage-admins/remove [post]
func (h *AdminHandler) RemoveAdmin(c *fiber.Ctx) error {
	var req EmailRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	change, err := h.roles.RevokeAdmin(c.UserContext(), middleware.CurrentPrincipal(c), strings.TrimSpace(req.Email))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, fmt.Sprintf("%s is no longer an admin", change.Email), change)
}

// SyncRoles mirrors every profile role to the identity provider
// @Summary Sync roles
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /admin/manage-admins/sync [post]
func (h *AdminHandler) SyncRoles(c *fiber.Ctx) error {
	report, err := h.roles.SyncRoles(c.UserContext(), middleware.CurrentPrincipal(c))
	if err != nil {
		return response.FromError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": fmt.Sprintf("Synced %d roles (%d failed)", report.Synced, report.Failed),
		"synced":  report.Synced,
		"failed":  report.Failed,
	})
}
