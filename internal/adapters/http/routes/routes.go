package routes

import (
	"time"

	"coinvest-api/internal/adapters/http/handlers"
	"coinvest-api/internal/adapters/http/middleware"
	"coinvest-api/internal/adapters/persistence/repositories"
	"coinvest-api/internal/config"
	"coinvest-api/internal/core/services"
	"coinvest-api/internal/pkg/metrics"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

// Dependencies are the long-lived collaborators built in main
type Dependencies struct {
	DB      *gorm.DB
	Config  *config.Config
	Cache   services.PrincipalCache
	IdP     services.IdentityProvider
	Metrics *metrics.Metrics
	Storage fiber.Storage
}

// Handlers groups the HTTP handlers mounted by Mount
type Handlers struct {
	Health    *handlers.HealthHandler
	Auth      *handlers.AuthHandler
	Portfolio *handlers.PortfolioHandler
	Account   *handlers.AccountHandler
	Admin     *handlers.AdminHandler
}

// Setup builds repositories, services and handlers and mounts every route.
// It returns the role service so main can schedule the sync job.
func Setup(app *fiber.App, deps Dependencies) *services.RoleService {
	db, cfg := deps.DB, deps.Config

	// Initialize repositories
	profileRepo := repositories.NewProfileRepository(db)
	planRepo := repositories.NewPlanRepository(db)
	investmentRepo := repositories.NewInvestmentRepository(db)
	referralRepo := repositories.NewReferralRepository(db)
	transactionRepo := repositories.NewTransactionRepository(db)
	monetaryRepo := repositories.NewMonetaryRepository(db)

	// Initialize services
	identityService := services.NewIdentityService(profileRepo, deps.Cache, cfg.Cache.PrincipalTTL, cfg.JWT.Secret, deps.Metrics)
	authService := services.NewAuthService(profileRepo, cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.AccessTokenMins)
	approvalService := services.NewApprovalService(monetaryRepo, deps.Metrics)
	queryService := services.NewQueryService(profileRepo, planRepo, investmentRepo, referralRepo, transactionRepo, monetaryRepo)
	roleService := services.NewRoleService(profileRepo, deps.IdP, identityService, deps.Metrics)
	accountService := services.NewAccountService(profileRepo, referralRepo, monetaryRepo, identityService)

	// Initialize handlers
	h := Handlers{
		Health:    handlers.NewHealthHandler(db),
		Auth:      handlers.NewAuthHandler(authService, cfg),
		Portfolio: handlers.NewPortfolioHandler(queryService),
		Account:   handlers.NewAccountHandler(accountService),
		Admin:     handlers.NewAdminHandler(approvalService, queryService, roleService),
	}

	// Health check & root routes
	app.Get("/", h.Health.Root)
	app.Get("/health", h.Health.HealthCheck)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// Prometheus metrics
	if deps.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(deps.Metrics.Registry, promhttp.HandlerOpts{})))
	}

	Mount(app.Group("/api/v1"), h, identityService, cfg, deps.Storage)

	return roleService
}

// Mount configures API v1 routes on router
func Mount(router fiber.Router, h Handlers, auth middleware.Authenticator, cfg *config.Config, storage fiber.Storage) {
	router.Get("/", h.Health.APIInfo)

	authLimiter := middleware.AuthRateLimiter(storage)
	strictLimiter := middleware.StrictRateLimiter(storage)
	requireUser := middleware.AuthMiddleware(auth)

	// Public routes
	router.Get("/plans", middleware.CacheControl(5*time.Minute), h.Portfolio.ListPlans)

	// Auth routes
	authRoutes := router.Group("/auth")
	if cfg.Identity.Provider == config.IdentityLocal {
		authRoutes.Post("/login", authLimiter, h.Auth.Login)
	}
	authRoutes.Post("/logout", h.Auth.Logout)
	authRoutes.Get("/me", requireUser, h.Auth.Me)

	// Onboarding only needs a valid token; the profile does not exist yet
	router.Post("/onboarding", authLimiter, middleware.RequireToken(auth), h.Account.Onboard)

	// Authenticated user routes
	router.Get("/dashboard", requireUser, middleware.NoStore(), h.Portfolio.Dashboard)
	router.Get("/investments", requireUser, h.Portfolio.ListInvestments)
	router.Get("/referrals", requireUser, h.Portfolio.Referrals)
	router.Get("/transactions", requireUser, middleware.NoStore(), h.Portfolio.ListTransactions)
	router.Post("/deposits", requireUser, h.Account.RequestDeposit)
	router.Post("/withdrawals", requireUser, h.Account.RequestWithdrawal)

	// Admin routes
	admin := router.Group("/admin")
	admin.Use(requireUser, middleware.AdminOnly(), middleware.NoStore())

	admin.Get("/deposits", h.Admin.ListDeposits)
	admin.Post("/deposits/:id/confirm", strictLimiter, h.Admin.ConfirmDeposit)
	admin.Post("/deposits/:id/reject", strictLimiter, h.Admin.RejectDeposit)

	admin.Get("/withdrawals", h.Admin.ListWithdrawals)
	admin.Post("/withdrawals/:id/approve", strictLimiter, h.Admin.ApproveWithdrawal)
	admin.Post("/withdrawals/:id/reject", strictLimiter, h.Admin.RejectWithdrawal)

	admin.Get("/manage-admins", h.Admin.ListAdmins)
	admin.Post("/manage-admins/add", h.Admin.AddAdmin)
	admin.Post("/manage-admins/remove", h.Admin.RemoveAdmin)
	admin.Post("/manage-admins/sync", h.Admin.SyncRoles)

	admin.Get("/users", h.Account.ListUsers)
	admin.Post("/users/:id/activate", h.Account.Activate)
	admin.Post("/users/:id/deactivate", h.Account.Deactivate)
}
