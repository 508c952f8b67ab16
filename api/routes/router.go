package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/medimitra/medimitra-backend/api/controllers"
	ordercontrollers "github.com/medimitra/medimitra-backend/api/controllers/orders"
	"github.com/medimitra/medimitra-backend/api/middleware"
	"github.com/medimitra/medimitra-backend/internal/auth"
	"github.com/medimitra/medimitra-backend/internal/inventory"
	"github.com/medimitra/medimitra-backend/internal/notifications"
	"github.com/medimitra/medimitra-backend/internal/orders"
	"github.com/medimitra/medimitra-backend/internal/reminders"
	"github.com/medimitra/medimitra-backend/internal/suppliers"
	"github.com/medimitra/medimitra-backend/pkg/config"
	"github.com/medimitra/medimitra-backend/pkg/enums"
	"github.com/medimitra/medimitra-backend/pkg/logger"
	"github.com/medimitra/medimitra-backend/pkg/redis"
)

// Services groups the domain services exposed over HTTP.
type Services struct {
	Auth          auth.Service
	Orders        orders.Service
	Inventory     inventory.Service
	Suppliers     suppliers.Service
	Notifications notifications.Service
	Reminders     reminders.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	redisClient *redis.Client,
	services Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS),
	)

	authPolicy := middleware.NewRateLimitPolicy("auth", cfg.RateLimit.AuthWindow, 0, cfg.RateLimit.AuthIPLimit)

	readiness := map[string]controllers.Pinger{"db": dbP}
	if redisClient != nil {
		readiness["redis"] = redisClient
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				if redisClient != nil {
					r.Use(middleware.RateLimit(authPolicy, redisClient, logg))
				}
				r.Post("/register", controllers.AuthRegister(services.Auth, logg))
				r.Post("/login", controllers.AuthLogin(services.Auth, logg))
			})
			r.With(middleware.Auth(cfg.JWT, logg)).Get("/me", controllers.AuthMe(services.Auth, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			mountProtected(r, cfg, logg, redisClient, services)
		})
	})

	return r
}

func mountProtected(r chi.Router, cfg *config.Config, logg *logger.Logger, redisClient *redis.Client, services Services) {
	orderPolicy := middleware.NewRateLimitPolicy(
		"orders",
		cfg.RateLimit.OrderWindow,
		cfg.RateLimit.OrderUserLimit,
		cfg.RateLimit.OrderIPLimit,
	)

	if cfg.FeatureFlags.Idempotency && redisClient != nil {
		r.Use(middleware.Idempotency(redisClient, logg))
	}
	admin := middleware.RequireRole(logg, enums.UserRoleAdmin)

	r.With(admin).Post("/admin/users", controllers.AdminCreateUser(services.Auth, logg))

	r.Route("/orders", func(r chi.Router) {
		if redisClient != nil {
			r.With(middleware.RateLimit(orderPolicy, redisClient, logg)).Post("/", ordercontrollers.Create(services.Orders, logg))
		} else {
			r.Post("/", ordercontrollers.Create(services.Orders, logg))
		}
		r.Get("/", ordercontrollers.List(services.Orders, logg))
		r.With(admin).Get("/analytics", ordercontrollers.Analytics(services.Orders, logg))
		r.Get("/{id}", ordercontrollers.Detail(services.Orders, logg))
		r.With(admin).Patch("/{id}/approve", ordercontrollers.Approve(services.Orders, logg))
		r.With(admin).Patch("/{id}/reject", ordercontrollers.Reject(services.Orders, logg))
		r.With(admin).Patch("/{id}/status", ordercontrollers.UpdateStatus(services.Orders, logg))
		r.Patch("/{id}/cancel", ordercontrollers.Cancel(services.Orders, logg))
	})

	r.Route("/inventory", func(r chi.Router) {
		r.Get("/", controllers.InventoryList(services.Inventory, logg))
		r.Get("/alerts/low-stock", controllers.InventoryLowStock(services.Inventory, logg))
		r.Get("/alerts/expiring", controllers.InventoryExpiring(services.Inventory, logg))
		r.Get("/alerts/expired", controllers.InventoryExpired(services.Inventory, logg))
		r.Get("/{id}", controllers.InventoryDetail(services.Inventory, logg))

		r.Group(func(r chi.Router) {
			r.Use(admin)
			r.Post("/", controllers.InventoryCreate(services.Inventory, logg))
			r.Patch("/{id}", controllers.InventoryUpdate(services.Inventory, logg))
			r.Patch("/{id}/stock", controllers.InventoryAdjustStock(services.Inventory, logg))
		})
	})

	r.Route("/suppliers", func(r chi.Router) {
		r.Get("/", controllers.SupplierList(services.Suppliers, logg))
		r.Get("/{id}", controllers.SupplierDetail(services.Suppliers, logg))
		r.With(admin).Post("/", controllers.SupplierCreate(services.Suppliers, logg))
		r.With(admin).Patch("/{id}", controllers.SupplierUpdate(services.Suppliers, logg))
	})

	r.Route("/notifications", func(r chi.Router) {
		r.Get("/", controllers.ListNotifications(services.Notifications, logg))
		r.Post("/read-all", controllers.MarkAllNotificationsRead(services.Notifications, logg))
		r.Post("/{notificationId}/read", controllers.MarkNotificationRead(services.Notifications, logg))
	})

	r.Route("/reminders", func(r chi.Router) {
		r.Post("/", controllers.CreateReminder(services.Reminders, logg))
		r.Get("/", controllers.ListReminders(services.Reminders, logg))
		r.Patch("/{id}/deactivate", controllers.DeactivateReminder(services.Reminders, logg))
	})
}
