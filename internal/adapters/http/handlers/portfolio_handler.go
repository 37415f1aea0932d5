package handlers

import (
	"coinvest-api/internal/adapters/http/middleware"
	"coinvest-api/internal/pkg/pagination"
	"coinvest-api/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// PortfolioHandler serves plans, investments, referrals and the dashboard
type PortfolioHandler struct {
	query Querier
}

// NewPortfolioHandler creates a new portfolio handler
func NewPortfolioHandler(query Querier) *PortfolioHandler {
	return &PortfolioHandler{query: query}
}

// ListPlans lists active investment plans
// @Summary List investment plans
// @Description Active plans ordered by minimum amount
// @Tags Plans
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} response.Response
// @Router /plans [get]
func (h *PortfolioHandler) ListPlans(c *fiber.Ctx) error {
	plans, err := h.query.ListPlans(c.UserContext())
	if err != nil {
		return response.FromError(c, err)
	}
	return response.List(c, "plans", plans, nil)
}

// ListInvestments lists the caller's investments
// @Summary List my investments
// @Tags Investments
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} response.Response
// @Router /investments [get]
func (h *PortfolioHandler) ListInvestments(c *fiber.Ctx) error {
	items, err := h.query.ListInvestments(c.UserContext(), middleware.CurrentPrincipal(c))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.List(c, "investments", items, nil)
}

// Referrals returns the caller's referral code and referred users
// @Summary My referrals
// @Tags Referrals
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /referrals [get]
func (h *PortfolioHandler) Referrals(c *fiber.Ctx) error {
	summary, err := h.query.Referrals(c.UserContext(), middleware.CurrentPrincipal(c))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.List(c, "referrals", summary.Referrals, fiber.Map{
		"referral_code": summary.ReferralCode,
	})
}

// Dashboard returns the caller's account overview
// @Summary Dashboard
// @Description Balance, totals, active investment count and recent transactions
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /dashboard [get]
func (h *PortfolioHandler) Dashboard(c *fiber.Ctx) error {
	dashboard, err := h.query.Dashboard(c.UserContext(), middleware.CurrentPrincipal(c))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Dashboard retrieved successfully", dashboard)
}

// ListTransactions lists the caller's ledger entries
// @Summary My transactions
// @Tags Transactions
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} response.Response
// @Router /transactions [get]
func (h *PortfolioHandler) ListTransactions(c *fiber.Ctx) error {
	items, meta, err := h.query.ListTransactions(c.UserContext(), middleware.CurrentPrincipal(c), pagination.GetParams(c))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.List(c, "transactions", items, fiber.Map{"meta": meta})
}
