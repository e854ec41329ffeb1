package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/netstore-backend/api/controllers"
	"github.com/angelmondragon/netstore-backend/api/middleware"
	"github.com/angelmondragon/netstore-backend/internal/address"
	"github.com/angelmondragon/netstore-backend/internal/admin"
	"github.com/angelmondragon/netstore-backend/internal/auth"
	"github.com/angelmondragon/netstore-backend/internal/cart"
	"github.com/angelmondragon/netstore-backend/internal/catalog"
	"github.com/angelmondragon/netstore-backend/internal/discounts"
	"github.com/angelmondragon/netstore-backend/internal/orders"
	"github.com/angelmondragon/netstore-backend/internal/paymentmethods"
	"github.com/angelmondragon/netstore-backend/internal/products"
	"github.com/angelmondragon/netstore-backend/internal/reviews"
	"github.com/angelmondragon/netstore-backend/internal/shippingmethods"
	"github.com/angelmondragon/netstore-backend/internal/users"
	"github.com/angelmondragon/netstore-backend/pkg/auth/session"
	"github.com/angelmondragon/netstore-backend/pkg/config"
	"github.com/angelmondragon/netstore-backend/pkg/enums"
	"github.com/angelmondragon/netstore-backend/pkg/logger"
	"github.com/angelmondragon/netstore-backend/pkg/metrics"
	pkgredis "github.com/angelmondragon/netstore-backend/pkg/redis"
)

// RedisStore is the slice of the redis client the HTTP layer needs.
type RedisStore interface {
	pkgredis.IdempotencyStore
	Ping(ctx context.Context) error
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// Dependencies carries everything the router hands to middleware and
// controllers. Nil services answer 500 from their controllers.
type Dependencies struct {
	DB       controllers.Pinger
	Redis    RedisStore
	Sessions session.AccessSessionChecker
	Gatherer prometheus.Gatherer
	HTTP     *metrics.HTTPMetrics

	Auth            auth.Service
	Users           users.Service
	Addresses       address.Service
	PaymentMethods  paymentmethods.Service
	ShippingMethods shippingmethods.Service
	Catalog         catalog.Service
	Products        products.Service
	Cart            cart.Service
	Discounts       discounts.Service
	Orders          orders.Service
	Reviews         reviews.Service
	Admin           admin.Service
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		chimw.RealIP,
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(deps.HTTP),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)

	limits := cfg.AuthRateLimit
	loginRule := middleware.ThrottleRule{Scope: "login", Window: limits.LoginWindow, PerIP: limits.LoginIPLimit, PerAccount: limits.LoginEmailLimit}
	registerRule := middleware.ThrottleRule{Scope: "register", Window: limits.RegisterWindow, PerIP: limits.RegisterIPLimit, PerAccount: limits.RegisterEmailLimit}
	googleRule := middleware.ThrottleRule{Scope: "google", Window: limits.GoogleWindow, PerIP: limits.GoogleIPLimit}

	var (
		rateStore        interface{ FixedWindowAllow(context.Context, string, int64, time.Duration) (bool, int64, error) }
		idempotencyStore pkgredis.IdempotencyStore
	)
	readiness := map[string]controllers.Pinger{"db": deps.DB}
	if deps.Redis != nil {
		rateStore = deps.Redis
		idempotencyStore = deps.Redis
		readiness["redis"] = deps.Redis
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness))
	})

	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		// public
		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.Throttle(registerRule, rateStore, logg)).Post("/register", controllers.AuthRegister(deps.Auth, logg))
			r.With(middleware.Throttle(loginRule, rateStore, logg)).Post("/login", controllers.AuthLogin(deps.Auth, logg))
			r.With(middleware.Throttle(googleRule, rateStore, logg)).Post("/google", controllers.AuthGoogle(deps.Auth, logg))
			r.Post("/refresh", controllers.AuthRefresh(deps.Auth, logg))
			r.With(middleware.Auth(cfg.JWT, deps.Sessions, logg)).Post("/logout", controllers.AuthLogout(deps.Auth, logg))
		})

		r.Get("/products", controllers.ProductList(deps.Products, logg))
		r.Get("/products/{slug}", controllers.ProductDetail(deps.Products, logg))
		r.Get("/products/{productId}/reviews", controllers.ProductReviews(deps.Reviews, logg))
		r.Get("/categories", controllers.CategoryList(deps.Catalog, logg))
		r.Get("/categories/{categoryId}", controllers.CategoryDetail(deps.Catalog, logg))
		r.Get("/brands", controllers.BrandList(deps.Catalog, logg))
		r.Get("/shipping-methods", controllers.ShippingMethodList(deps.ShippingMethods, logg))
		r.Post("/discounts/validate", controllers.DiscountValidate(deps.Discounts, logg))

		// authenticated
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
			r.Use(middleware.Idempotency(idempotencyStore, cfg.Eventing.OrderIdempotencyTTL, logg))

			r.Route("/users/me", func(r chi.Router) {
				r.Get("/", controllers.UserProfile(deps.Users, logg))
				r.Patch("/", controllers.UserUpdateProfile(deps.Users, logg))
				r.Post("/password", controllers.UserChangePassword(deps.Users, logg))

				r.Get("/addresses", controllers.AddressList(deps.Addresses, logg))
				r.Post("/addresses", controllers.AddressCreate(deps.Addresses, logg))
				r.Put("/addresses/{addressId}", controllers.AddressUpdate(deps.Addresses, logg))
				r.Delete("/addresses/{addressId}", controllers.AddressDelete(deps.Addresses, logg))

				r.Get("/payment-methods", controllers.PaymentMethodList(deps.PaymentMethods, logg))
				r.Post("/payment-methods", controllers.PaymentMethodCreate(deps.PaymentMethods, logg))
				r.Patch("/payment-methods/{paymentMethodId}/default", controllers.PaymentMethodSetDefault(deps.PaymentMethods, logg))
				r.Delete("/payment-methods/{paymentMethodId}", controllers.PaymentMethodDelete(deps.PaymentMethods, logg))
			})

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartFetch(deps.Cart, logg))
				r.Delete("/", controllers.CartClear(deps.Cart, logg))
				r.Post("/items", controllers.CartAddItem(deps.Cart, logg))
				r.Patch("/items/{itemId}", controllers.CartUpdateItem(deps.Cart, logg))
				r.Delete("/items/{itemId}", controllers.CartRemoveItem(deps.Cart, logg))
			})

			r.Route("/orders", func(r chi.Router) {
				r.Post("/", controllers.OrderPlace(deps.Orders, logg))
				r.Get("/", controllers.OrderList(deps.Orders, logg))
				r.Get("/{orderId}", controllers.OrderDetail(deps.Orders, logg))
				r.Post("/{orderId}/cancel", controllers.OrderCancel(deps.Orders, logg))
			})

			r.Post("/reviews", controllers.ReviewCreate(deps.Reviews, logg))
			r.Get("/reviews/me", controllers.ReviewListMine(deps.Reviews, logg))
		})

		// admin
		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
			r.Use(middleware.RequireRole(enums.RoleAdmin, logg))

			r.Get("/dashboard", controllers.AdminDashboard(deps.Admin, logg))

			r.Get("/users", controllers.AdminUserList(deps.Admin, logg))
			r.Patch("/users/{userId}/toggle-status", controllers.AdminUserToggleStatus(deps.Admin, logg))

			r.Get("/reviews", controllers.AdminReviewList(deps.Reviews, logg))
			r.Patch("/reviews/{reviewId}/approve", controllers.AdminReviewApprove(deps.Reviews, logg))
			r.Delete("/reviews/{reviewId}", controllers.AdminReviewDelete(deps.Reviews, logg))

			r.Get("/orders", controllers.AdminOrderList(deps.Orders, logg))
			r.Get("/orders/{orderId}", controllers.AdminOrderDetail(deps.Orders, logg))
			r.Patch("/orders/{orderId}/status", controllers.AdminOrderUpdateStatus(deps.Orders, logg))

			r.Post("/products", controllers.AdminProductCreate(deps.Products, logg))
			r.Get("/products/{productId}", controllers.AdminProductDetail(deps.Products, logg))
			r.Put("/products/{productId}", controllers.AdminProductUpdate(deps.Products, logg))
			r.Delete("/products/{productId}", controllers.AdminProductDelete(deps.Products, logg))
			r.Post("/products/{productId}/items", controllers.AdminProductItemCreate(deps.Products, logg))
			r.Put("/product-items/{itemId}", controllers.AdminProductItemUpdate(deps.Products, logg))

			r.Post("/categories", controllers.AdminCategoryCreate(deps.Catalog, logg))
			r.Put("/categories/{categoryId}", controllers.AdminCategoryUpdate(deps.Catalog, logg))
			r.Delete("/categories/{categoryId}", controllers.AdminCategoryDelete(deps.Catalog, logg))

			r.Post("/brands", controllers.AdminBrandCreate(deps.Catalog, logg))
			r.Put("/brands/{brandId}", controllers.AdminBrandUpdate(deps.Catalog, logg))
			r.Delete("/brands/{brandId}", controllers.AdminBrandDelete(deps.Catalog, logg))

			r.Get("/shipping-methods", controllers.AdminShippingMethodList(deps.ShippingMethods, logg))
			r.Post("/shipping-methods", controllers.AdminShippingMethodCreate(deps.ShippingMethods, logg))
			r.Put("/shipping-methods/{shippingMethodId}", controllers.AdminShippingMethodUpdate(deps.ShippingMethods, logg))
			r.Delete("/shipping-methods/{shippingMethodId}", controllers.AdminShippingMethodDelete(deps.ShippingMethods, logg))

			r.Get("/discounts", controllers.AdminDiscountList(deps.Discounts, logg))
			r.Post("/discounts", controllers.AdminDiscountCreate(deps.Discounts, logg))
			r.Get("/discounts/{discountId}", controllers.AdminDiscountDetail(deps.Discounts, logg))
			r.Put("/discounts/{discountId}", controllers.AdminDiscountUpdate(deps.Discounts, logg))
			r.Delete("/discounts/{discountId}", controllers.AdminDiscountDelete(deps.Discounts, logg))
		})
	})

	return r
}
