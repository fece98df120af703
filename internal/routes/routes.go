// Package routes wires repositories, services and handlers together and
// registers every HTTP route.
package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"ledgerd/internal/handlers"
	"ledgerd/internal/metrics"
	"ledgerd/internal/middleware"
	"ledgerd/internal/repositories"
	"ledgerd/internal/services/account"
	"ledgerd/internal/services/accountstate"
	"ledgerd/internal/services/approval"
	"ledgerd/internal/services/auth"
	"ledgerd/internal/services/fees"
	"ledgerd/internal/services/risk"
	"ledgerd/internal/services/transaction"
	"ledgerd/internal/services/validation"
)

// SetupRoutes builds the full service graph and registers all routes. The
// returned sweeper and event stream are started and drained by the caller
// once the app is listening.
func SetupRoutes(app *fiber.App, db *gorm.DB) (*approval.Sweeper, *approval.ChannelPublisher) {
	// Repositories
	accountRepo := repositories.NewAccountRepository(db)
	transactionRepo := repositories.NewTransactionRepository(db)
	userRepo := repositories.NewUserRepository(db)
	approvalRepo := repositories.NewApprovalRepository(db)

	// Services
	authService := auth.NewService(userRepo)
	stateService := accountstate.NewService(accountRepo)
	accountService := account.NewService(accountRepo, stateService)

	scorer := risk.NewService()
	feeSelector := fees.NewSelector()
	chain := validation.NewChain(scorer, transactionRepo, transactionRepo, repositories.CacheService)

	events := approval.NewChannelPublisher(128)
	approvalService := approval.NewService(approvalRepo, transactionRepo).
		WithPublisher(metrics.EventPublisher{Next: events})

	transactionService := transaction.NewService(accountRepo, transactionRepo, userRepo, chain, feeSelector).
		WithApprovals(approvalService).
		WithOutflowInvalidator(repositories.CacheService).
		WithMetrics(metrics.Collector{})

	// Late binding: approvals resume transactions through the finalizer.
	approvalService.WithFinalizer(transactionService)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	accountHandler := handlers.NewAccountHandler(accountService, authService)
	transactionHandler := handlers.NewTransactionHandler(transactionService)
	approvalHandler := handlers.NewApprovalHandler(approvalService, authService)

	authMiddleware := middleware.NewAuthMiddleware(authService)

	// Operational endpoints
	app.Get("/health", handlers.HealthCheck)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Public endpoints
	api := app.Group("/api")
	api.Post("/register", authHandler.Register)
	api.Post("/login", authHandler.Login)
	api.Post("/refresh", authHandler.Refresh)

	// Authenticated endpoints
	authenticated := api.Group("/", authMiddleware.Handler)
	authenticated.Post("/logout", authHandler.Logout)
	authenticated.Post("/change-password", authHandler.ChangePassword)

	accounts := authenticated.Group("/accounts")
	accounts.Post("/", accountHandler.Create)
	accounts.Get("/", accountHandler.ListMine)
	accounts.Get("/:id", accountHandler.Get)
	accounts.Post("/:id/attach", accountHandler.AttachToGroup)
	accounts.Get("/:id/transactions", transactionHandler.ListByAccount)
	accounts.Get("/:id/state-history", middleware.RequireStaff(), accountHandler.StateHistory)
	accounts.Post("/:id/state", middleware.RequireStaff(), accountHandler.Transition)

	transactions := authenticated.Group("/transactions")
	transactions.Post("/", transactionHandler.Submit)
	transactions.Get("/:reference", transactionHandler.Get)

	approvals := authenticated.Group("/approvals", middleware.RequireStaff())
	approvals.Get("/pending", approvalHandler.ListPending)
	approvals.Post("/:id/approve", approvalHandler.Approve)
	approvals.Post("/:id/reject", approvalHandler.Reject)
	approvals.Post("/:id/escalate", approvalHandler.Escalate)
	approvals.Post("/:id/cancel", approvalHandler.Cancel)

	// Customers may cancel their own pending transactions through the
	// approval cancel endpoint; grant it outside the staff group too.
	authenticated.Post("/my-approvals/:id/cancel", approvalHandler.Cancel)

	return approval.NewSweeper(approvalService, approvalRepo), events
}
