package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/naritchaphan/talad-backend/api/controllers"
	"github.com/naritchaphan/talad-backend/api/middleware"
	"github.com/naritchaphan/talad-backend/internal/activity"
	"github.com/naritchaphan/talad-backend/internal/auth"
	cartsvc "github.com/naritchaphan/talad-backend/internal/cart"
	checkoutsvc "github.com/naritchaphan/talad-backend/internal/checkout"
	ordersvc "github.com/naritchaphan/talad-backend/internal/orders"
	paymentsvc "github.com/naritchaphan/talad-backend/internal/payments"
	productsvc "github.com/naritchaphan/talad-backend/internal/products"
	settingsvc "github.com/naritchaphan/talad-backend/internal/settings"
	"github.com/naritchaphan/talad-backend/pkg/auth/session"
	"github.com/naritchaphan/talad-backend/pkg/config"
	"github.com/naritchaphan/talad-backend/pkg/db"
	"github.com/naritchaphan/talad-backend/pkg/enums"
	"github.com/naritchaphan/talad-backend/pkg/logger"
	"github.com/naritchaphan/talad-backend/pkg/redis"
	"github.com/naritchaphan/talad-backend/pkg/storage/gcs"
)

type sessionManager interface {
	session.AccessSessionChecker
	Rotate(context.Context, string, string) (string, string, error)
	Revoke(context.Context, string) error
}

// Params bundles everything the router mounts.
type Params struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       db.Pinger
	Redis    *redis.Client
	GCS      gcs.Pinger
	Sessions sessionManager

	Auth     auth.Service
	Products productsvc.Service
	Cart     cartsvc.Service
	Checkout checkoutsvc.Service
	Orders   ordersvc.Service
	Payments paymentsvc.Service
	Settings settingsvc.Service
	Activity *activity.Repository
}

// NewRouter mounts the full HTTP surface: public storefront, customer
// API, and admin back office.
func NewRouter(p Params) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.DB, p.Redis, p.GCS))
	})

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
		r.Get("/settings", controllers.PublicSettings(p.Settings, logg))
		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductList(p.Products, logg))
			r.Get("/categories", controllers.ProductCategories(p.Products, logg))
			r.Get("/{productId}", controllers.ProductDetail(p.Products, logg))
		})
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(
			middleware.AuthRateLimit(registerPolicy, p.Redis, logg),
			middleware.Idempotency(p.Redis, logg),
		).Post("/register", controllers.AuthRegister(p.Auth, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, p.Redis, logg)).Post("/login", controllers.AuthLogin(p.Auth, logg))
		r.Post("/logout", controllers.AuthLogout(p.Sessions, cfg.JWT, logg))
		r.Post("/refresh", controllers.AuthRefresh(p.Sessions, cfg.JWT, logg))
	})

	r.Route("/api/v1/admin/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, p.Redis, logg)).Post("/login", controllers.AdminAuthLogin(p.Auth, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, p.Sessions, logg))
		r.Use(middleware.Idempotency(p.Redis, logg))

		r.Get("/ping", controllers.PrivatePing())

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(p.Cart, logg))
			r.Put("/", controllers.CartPut(p.Cart, logg))
			r.Delete("/", controllers.CartClear(p.Cart, logg))
			r.Delete("/items/{productId}", controllers.CartRemoveItem(p.Cart, logg))
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Post("/", controllers.Checkout(p.Checkout, logg))
			r.Post("/quote", controllers.CheckoutQuote(p.Checkout, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrderList(p.Orders, logg))
			r.Get("/{orderId}", controllers.OrderDetail(p.Orders, logg))
			r.Post("/{orderId}/cancel", controllers.OrderCancel(p.Orders, logg))
			r.Post("/{orderId}/slip", controllers.OrderAttachSlip(p.Payments, logg))
			r.Post("/{orderId}/verify", controllers.OrderVerifyPayment(p.Payments, logg))
		})

		r.Post("/payments/presign", controllers.PaymentsPresign(p.Payments, logg))

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(enums.UserRoleAdmin.String(), logg))

			r.Get("/ping", controllers.AdminPing())

			r.Route("/products", func(r chi.Router) {
				r.Get("/", controllers.AdminProductList(p.Products, logg))
				r.Post("/", controllers.AdminProductCreate(p.Products, logg))
				r.Get("/{productId}", controllers.AdminProductDetail(p.Products, logg))
				r.Patch("/{productId}", controllers.AdminProductUpdate(p.Products, logg))
				r.Delete("/{productId}", controllers.AdminProductDelete(p.Products, logg))
				r.Post("/{productId}/restore", controllers.AdminProductRestore(p.Products, logg))
				r.Post("/{productId}/stock", controllers.AdminProductStock(p.Products, logg))
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.AdminOrderList(p.Orders, logg))
				r.Get("/export", controllers.AdminOrderExport(p.Orders, logg))
				r.Get("/{orderId}", controllers.AdminOrderDetail(p.Orders, logg))
				r.Post("/{orderId}/status", controllers.AdminOrderStatus(p.Orders, logg))
				r.Post("/{orderId}/verify-payment", controllers.AdminVerifyPayment(p.Payments, logg))
			})

			r.Route("/settings", func(r chi.Router) {
				r.Get("/", controllers.AdminSettings(p.Settings, logg))
				r.Put("/", controllers.AdminSettingsUpdate(p.Settings, logg))
			})

			r.Get("/activity", controllers.AdminActivityList(p.Activity, logg))
		})
	})

	return r
}
