package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/adiwicaksana/tanisubur-backend/api/routes"
	"github.com/adiwicaksana/tanisubur-backend/internal/auth"
	"github.com/adiwicaksana/tanisubur-backend/internal/cart"
	"github.com/adiwicaksana/tanisubur-backend/internal/chat"
	"github.com/adiwicaksana/tanisubur-backend/internal/ppn"
	"github.com/adiwicaksana/tanisubur-backend/internal/products"
	"github.com/adiwicaksana/tanisubur-backend/internal/reports"
	"github.com/adiwicaksana/tanisubur-backend/internal/shipping"
	"github.com/adiwicaksana/tanisubur-backend/internal/transactions"
	"github.com/adiwicaksana/tanisubur-backend/internal/users"
	"github.com/adiwicaksana/tanisubur-backend/pkg/auth/session"
	"github.com/adiwicaksana/tanisubur-backend/pkg/config"
	"github.com/adiwicaksana/tanisubur-backend/pkg/db"
	"github.com/adiwicaksana/tanisubur-backend/pkg/logger"
	"github.com/adiwicaksana/tanisubur-backend/pkg/midtrans"
	"github.com/adiwicaksana/tanisubur-backend/pkg/migrate"
	"github.com/adiwicaksana/tanisubur-backend/pkg/outbox"
	"github.com/adiwicaksana/tanisubur-backend/pkg/redis"
)

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

	redisClient, err := redis.New(context.Background(), cfg.Redis)
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

	usersRepo := users.NewRepository(dbClient.DB())
	usersService, err := users.NewService(usersRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create users service", err)
		os.Exit(1)
	}

	authService, err := auth.NewService(usersRepo, sessionManager, cfg.JWT, cfg.Password)
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	productsRepo := products.NewRepository(dbClient.DB())
	productsService, err := products.NewService(productsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create products service", err)
		os.Exit(1)
	}

	cartService, err := cart.NewService(cart.NewRepository(dbClient.DB()), productsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	ppnService, err := ppn.NewService(ppn.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create ppn service", err)
		os.Exit(1)
	}

	shippingClient, err := shipping.NewClient(cfg.Shipping, cfg.Company.FlatShippingFee)
	if err != nil {
		logg.Error(context.Background(), "failed to create shipping client", err)
		os.Exit(1)
	}
	gateway, err := midtrans.NewGateway(cfg.Midtrans)
	if err != nil {
		logg.Error(context.Background(), "failed to create payment gateway", err)
		os.Exit(1)
	}

	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	transactionsService, err := transactions.NewService(
		transactions.NewRepository(dbClient.DB()),
		dbClient,
		outboxService,
		gateway,
		ppnService,
		cartService,
		redisClient,
		logg,
		cfg.Company,
		cfg.Midtrans,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create transactions service", err)
		os.Exit(1)
	}

	reportsService, err := reports.NewService(dbClient.DB())
	if err != nil {
		logg.Error(context.Background(), "failed to create reports service", err)
		os.Exit(1)
	}

	chatService, err := chat.NewService(chat.NewRepository(dbClient.DB()), dbClient, outboxService)
	if err != nil {
		logg.Error(context.Background(), "failed to create chat service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:       cfg,
			Logger:       logg,
			DB:           dbClient,
			Redis:        redisClient,
			Sessions:     sessionManager,
			Registry:     prometheus.NewRegistry(),
			Auth:         authService,
			Users:        usersService,
			Products:     productsService,
			Cart:         cartService,
			Transactions: transactionsService,
			PPN:          ppnService,
			Shipping:     shippingClient,
			Reports:      reportsService,
			Chat:         chatService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
