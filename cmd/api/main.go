package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/netstore-backend/api/routes"
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
	"github.com/angelmondragon/netstore-backend/pkg/auth/google"
	"github.com/angelmondragon/netstore-backend/pkg/auth/session"
	"github.com/angelmondragon/netstore-backend/pkg/config"
	"github.com/angelmondragon/netstore-backend/pkg/db"
	"github.com/angelmondragon/netstore-backend/pkg/instance"
	"github.com/angelmondragon/netstore-backend/pkg/logger"
	"github.com/angelmondragon/netstore-backend/pkg/metrics"
	"github.com/angelmondragon/netstore-backend/pkg/migrate"
	"github.com/angelmondragon/netstore-backend/pkg/outbox"
	"github.com/angelmondragon/netstore-backend/pkg/redis"
	"github.com/angelmondragon/netstore-backend/pkg/security"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	cfg.Service.Kind = "api"

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	httpMetrics := metrics.NewHTTPMetrics(reg)
	orderMetrics := metrics.NewOrderMetrics(reg)

	gormDB := dbClient.DB()
	hasher := security.NewHasher(cfg.Password)
	usersRepo := users.NewRepository(gormDB)
	cartRepo := cart.NewRepository(gormDB)
	discountsRepo := discounts.NewRepository(gormDB)

	authParams := auth.ServiceParams{
		UserRepo:       usersRepo,
		SessionManager: sessionManager,
		Hasher:         hasher,
		JWTConfig:      cfg.JWT,
		Logger:         logg,
	}
	if cfg.GoogleOAuth.ClientID != "" {
		verifier, err := google.NewIDTokenVerifier(context.Background(), cfg.GoogleOAuth.ClientID)
		if err != nil {
			logg.Error(context.Background(), "failed to create google verifier", err)
			os.Exit(1)
		}
		authParams.GoogleVerifier = verifier
	}
	authService, err := auth.NewService(authParams)
	must(logg, "auth service", err)

	usersService, err := users.NewService(usersRepo, hasher)
	must(logg, "users service", err)
	addressService, err := address.NewService(address.NewRepository(gormDB), dbClient)
	must(logg, "address service", err)
	paymentMethodsService, err := paymentmethods.NewService(paymentmethods.NewRepository(gormDB), dbClient)
	must(logg, "payment methods service", err)
	shippingService, err := shippingmethods.NewService(shippingmethods.NewRepository(gormDB))
	must(logg, "shipping methods service", err)
	catalogService, err := catalog.NewService(catalog.ServiceParams{
		Repo:     catalog.NewRepository(gormDB),
		Cache:    redisClient,
		CacheTTL: cfg.Catalog.CacheTTL,
		Logger:   logg,
	})
	must(logg, "catalog service", err)
	productsService, err := products.NewService(products.NewRepository(gormDB), dbClient)
	must(logg, "products service", err)
	cartService, err := cart.NewService(cartRepo, dbClient)
	must(logg, "cart service", err)
	discountsService, err := discounts.NewService(discountsRepo, nil)
	must(logg, "discounts service", err)
	ordersService, err := orders.NewService(orders.ServiceParams{
		Repo:      orders.NewRepository(gormDB),
		Carts:     cartRepo,
		Discounts: discountsRepo,
		Tx:        dbClient,
		Outbox:    outbox.NewService(outbox.NewRepository(gormDB), logg),
		Metrics:   orderMetrics,
		Logger:    logg,
	})
	must(logg, "orders service", err)
	reviewsService, err := reviews.NewService(reviews.NewRepository(gormDB), nil)
	must(logg, "reviews service", err)
	adminService, err := admin.NewService(admin.NewRepository(gormDB), usersRepo, sessionManager, logg, nil)
	must(logg, "admin service", err)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := instance.GetID()
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, routes.Dependencies{
			DB:              dbClient,
			Redis:           redisClient,
			Sessions:        sessionManager,
			Gatherer:        reg,
			HTTP:            httpMetrics,
			Auth:            authService,
			Users:           usersService,
			Addresses:       addressService,
			PaymentMethods:  paymentMethodsService,
			ShippingMethods: shippingService,
			Catalog:         catalogService,
			Products:        productsService,
			Cart:            cartService,
			Discounts:       discountsService,
			Orders:          ordersService,
			Reviews:         reviewsService,
			Admin:           adminService,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-sigCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "api server stopped")
}

func must(logg *logger.Logger, component string, err error) {
	if err == nil {
		return
	}
	logg.Error(context.Background(), "failed to create "+component, err)
	os.Exit(1)
}
