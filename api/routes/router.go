package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/canteen-coupons/api/controllers"
	"github.com/angelmondragon/canteen-coupons/api/middleware"
	"github.com/angelmondragon/canteen-coupons/internal/auth"
	"github.com/angelmondragon/canteen-coupons/internal/contractors"
	"github.com/angelmondragon/canteen-coupons/internal/coupons"
	"github.com/angelmondragon/canteen-coupons/internal/employees"
	"github.com/angelmondragon/canteen-coupons/internal/insights"
	"github.com/angelmondragon/canteen-coupons/internal/menus"
	"github.com/angelmondragon/canteen-coupons/internal/notifications"
	"github.com/angelmondragon/canteen-coupons/internal/reports"
	"github.com/angelmondragon/canteen-coupons/pkg/config"
	"github.com/angelmondragon/canteen-coupons/pkg/enums"
	"github.com/angelmondragon/canteen-coupons/pkg/logger"
	"github.com/angelmondragon/canteen-coupons/pkg/metrics"
	pkgredis "github.com/angelmondragon/canteen-coupons/pkg/redis"
)

// Dependencies groups everything the router wires into handlers.
type Dependencies struct {
	DB            controllers.Pinger
	Redis         *pkgredis.Client
	Gatherer      prometheus.Gatherer
	HTTPMetrics   *metrics.HTTPMetrics
	Auth          auth.Service
	Employees     employees.Service
	Contractors   contractors.Service
	Coupons       coupons.Service
	Notifications notifications.Service
	Menus         menus.Service
	Reports       reports.Service
	Insights      insights.Service
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.CORS(cfg.CORS),
		middleware.Metrics(deps.HTTPMetrics),
		middleware.Logging(logg),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginIDLimit,
	)

	ready := map[string]controllers.Pinger{"db": deps.DB}
	if deps.Redis != nil {
		ready["redis"] = deps.Redis
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, ready))
	})
	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	var limiter middleware.RateLimiterStore
	var windowLimiter middleware.WindowLimiter
	var idempotency pkgredis.IdempotencyStore
	if deps.Redis != nil {
		limiter = deps.Redis
		windowLimiter = deps.Redis
		idempotency = deps.Redis
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(loginPolicy, limiter, logg)).Post("/login", controllers.AuthLogin(deps.Auth, logg))
			r.Group(func(r chi.Router) {
				r.Use(middleware.Auth(deps.Auth, logg), middleware.RequireAuthenticated(logg))
				r.Post("/logout", controllers.AuthLogout(deps.Auth, logg))
				r.Get("/me", controllers.AuthMe(deps.Auth, logg))
				r.Post("/change-password", controllers.AuthChangePassword(deps.Auth, logg))
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(
				middleware.Auth(deps.Auth, logg),
				middleware.RequireAuthenticated(logg),
				middleware.Idempotency(idempotency, logg),
			)

			// Any logged-in account.
			r.Get("/menus/today", controllers.TodayMenu(deps.Menus, logg))
			r.Get("/menus/{date}", controllers.GetMenu(deps.Menus, logg))
			r.Get("/menus", controllers.ListMenus(deps.Menus, logg))
			r.Get("/coupons/{couponID}/qr", controllers.CouponQRCode(deps.Coupons, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdmin(logg))

				r.Route("/employees", func(r chi.Router) {
					r.Get("/", controllers.ListEmployees(deps.Employees, logg))
					r.Post("/", controllers.CreateEmployee(deps.Employees, logg))
					r.Get("/{employeeID}", controllers.GetEmployee(deps.Employees, logg))
					r.Put("/{employeeID}", controllers.UpdateEmployee(deps.Employees, logg))
					r.Delete("/{employeeID}", controllers.DeleteEmployee(deps.Employees, logg))
					r.Post("/{employeeID}/toggle-status", controllers.ToggleEmployeeStatus(deps.Employees, logg))
					r.Delete("/{employeeID}/coupons/last-batch", controllers.RemoveLastBatch(deps.Coupons, logg))
				})

				r.Route("/contractors", func(r chi.Router) {
					r.Get("/", controllers.ListContractors(deps.Contractors, logg))
					r.Get("/business-names", controllers.ContractorBusinessNames(deps.Contractors, logg))
					r.Post("/", controllers.CreateContractor(deps.Contractors, logg))
					r.Get("/{contractorID}", controllers.GetContractor(deps.Contractors, logg))
					r.Put("/{contractorID}", controllers.UpdateContractor(deps.Contractors, logg))
					r.Delete("/{contractorID}", controllers.DeleteContractor(deps.Contractors, logg))
				})

				r.Get("/coupons", controllers.ListCoupons(deps.Coupons, logg))
				r.Post("/coupons/employee-batch", controllers.IssueEmployeeBatch(deps.Coupons, logg))
				r.Post("/coupons/contractor-batch", controllers.IssueContractorBatch(deps.Coupons, logg))
				r.Delete("/coupons/{couponID}", controllers.DeleteCoupon(deps.Coupons, logg))

				r.Get("/reports/overview", controllers.AdminOverview(deps.Reports, logg))
				r.With(middleware.AccountRateLimit("insights", windowLimiter, cfg.Insights.RateLimit, cfg.Insights.RateWindow, logg)).
					Post("/insights", controllers.AskInsights(deps.Insights, logg))
			})

			r.With(middleware.RequireSuperAdmin(cfg.Ledger.SuperAdminID, logg)).
				Get("/settings", controllers.Settings(cfg, deps.Employees, deps.Contractors, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireEmployeeRole(logg, enums.EmployeeRoleAdmin, enums.EmployeeRoleCanteenManager))
				r.Post("/coupons/redeem", controllers.RedeemCoupon(deps.Coupons, logg))
				r.Get("/reports/canteen", controllers.CanteenStats(deps.Reports, logg))
				r.Put("/menus/{date}", controllers.UpsertMenu(deps.Menus, logg))
			})

			r.Route("/contractor", func(r chi.Router) {
				r.Use(middleware.RequireContractor(logg))
				r.Get("/pool", controllers.ContractorPool(deps.Coupons, logg))
				r.Post("/assign", controllers.ContractorAssign(deps.Coupons, logg))
				r.Get("/employees", controllers.ContractorEmployees(deps.Employees, logg))
			})

			r.Route("/me", func(r chi.Router) {
				r.Use(middleware.RequireEmployee(logg))
				r.Get("/dashboard", controllers.EmployeeDashboard(deps.Reports, logg))
				r.Post("/guest-passes", controllers.GenerateGuestPass(deps.Coupons, logg))
				r.Get("/notifications", controllers.ListNotifications(deps.Notifications, logg))
				r.Post("/notifications/{notificationID}/read", controllers.MarkNotificationRead(deps.Notifications, logg))
				r.Post("/notifications/read-all", controllers.MarkAllNotificationsRead(deps.Notifications, logg))
			})
		})
	})

	return r
}
