package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mateoquiros/vendaria-backend/api/controllers"
	"github.com/mateoquiros/vendaria-backend/api/middleware"
	"github.com/mateoquiros/vendaria-backend/internal/balances"
	"github.com/mateoquiros/vendaria-backend/internal/cryptoaddrs"
	"github.com/mateoquiros/vendaria-backend/internal/notifications"
	orderssvc "github.com/mateoquiros/vendaria-backend/internal/orders"
	"github.com/mateoquiros/vendaria-backend/internal/products"
	"github.com/mateoquiros/vendaria-backend/internal/settlement"
	"github.com/mateoquiros/vendaria-backend/internal/users"
	"github.com/mateoquiros/vendaria-backend/pkg/config"
	"github.com/mateoquiros/vendaria-backend/pkg/enums"
	"github.com/mateoquiros/vendaria-backend/pkg/logger"
	"github.com/mateoquiros/vendaria-backend/pkg/metrics"
	pkgredis "github.com/mateoquiros/vendaria-backend/pkg/redis"
)

// Deps carries everything the HTTP surface needs.
type Deps struct {
	Config          *config.Config
	Logger          *logger.Logger
	DB              controllers.Pinger
	Redis           *pkgredis.Client
	Orders          orderssvc.Service
	Settlement      settlement.Service
	Balances        balances.Service
	Products        products.Service
	CryptoAddresses cryptoaddrs.Service
	Users           users.Service
	Notifications   notifications.Service
	Metrics         *metrics.CommerceMetrics
	Registry        *prometheus.Registry
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"database": deps.DB,
			"redis":    deps.Redis,
		}))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(deps.Redis, logg))

		r.Post("/checkout", controllers.Checkout(deps.Orders, deps.Metrics, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.ListMyOrders(deps.Orders, logg))
			r.Get("/{orderID}", controllers.GetOrder(deps.Orders, logg))
			r.Post("/{orderID}/payment-sent", controllers.MarkPaymentSent(deps.Settlement, logg))
			r.Post("/{orderID}/cancel", controllers.CancelOrder(deps.Settlement, logg))
			r.With(middleware.RequireRole(string(enums.ActorRoleSeller), logg)).
				Post("/{orderID}/status", controllers.UpdateOrderStatus(deps.Settlement, deps.Metrics, logg))
		})

		r.Route("/shop", func(r chi.Router) {
			r.Use(middleware.RequireRole(string(enums.ActorRoleSeller), logg))
			r.Get("/orders", controllers.ListShopOrders(deps.Orders, logg))
			r.Get("/inventory", controllers.ListShopInventory(deps.Products, logg))
		})

		r.Route("/balance", func(r chi.Router) {
			r.Get("/", controllers.GetBalance(deps.Balances, logg))
			r.Get("/history", controllers.BalanceHistory(deps.Balances, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(deps.Notifications, logg))
			r.Post("/{notificationID}/read", controllers.MarkNotificationRead(deps.Notifications, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(deps.Notifications, logg))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(string(enums.ActorRoleAdmin), logg))

			r.Route("/orders", func(r chi.Router) {
				r.Post("/{orderID}/approve-payment", controllers.ApprovePayment(deps.Settlement, deps.Metrics, logg))
				r.Post("/{orderID}/status", controllers.UpdateOrderStatus(deps.Settlement, deps.Metrics, logg))
				r.Post("/{orderID}/cancel", controllers.CancelOrder(deps.Settlement, logg))
				r.Post("/{orderID}/refund", controllers.RefundOrder(deps.Settlement, deps.Metrics, logg))
				r.Put("/{orderID}/notes", controllers.SetAdminNotes(deps.Orders, logg))
				r.Get("/{orderID}/transitions", controllers.OrderTransitions(deps.Settlement, logg))
			})

			r.Route("/crypto-addresses", func(r chi.Router) {
				r.Get("/", controllers.ListCryptoAddresses(deps.CryptoAddresses, logg))
				r.Post("/", controllers.CreateCryptoAddress(deps.CryptoAddresses, logg))
				r.Put("/{addressID}/active", controllers.SetCryptoAddressActive(deps.CryptoAddresses, logg))
			})

			r.Put("/users/{userID}/selling", controllers.SetSellingPermission(deps.Users, logg))
		})
	})

	return r
}
