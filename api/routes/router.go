package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/adiwicaksana/tanisubur-backend/api/controllers"
	webhookcontrollers "github.com/adiwicaksana/tanisubur-backend/api/controllers/webhooks"
	"github.com/adiwicaksana/tanisubur-backend/api/middleware"
	internalauth "github.com/adiwicaksana/tanisubur-backend/internal/auth"
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
	"github.com/adiwicaksana/tanisubur-backend/pkg/enums"
	"github.com/adiwicaksana/tanisubur-backend/pkg/logger"
	"github.com/adiwicaksana/tanisubur-backend/pkg/metrics"
	"github.com/adiwicaksana/tanisubur-backend/pkg/redis"
)

// Deps bundles everything the HTTP surface needs. Nil optional members are
// tolerated; nil required ones will surface as 500s on the affected routes.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       db.Pinger
	Redis    *redis.Client
	Sessions session.AccessSessionChecker
	Registry *prometheus.Registry

	Auth         internalauth.Service
	Users        users.Service
	Products     products.Service
	Cart         cart.Service
	Transactions transactions.Service
	PPN          ppn.Service
	Shipping     shipping.Lookup
	Reports      reports.Service
	Chat         chat.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.Company.ClientURL),
	)

	if deps.Registry != nil {
		httpMetrics := metrics.NewHTTPMetrics(deps.Registry)
		r.Use(httpMetrics.Middleware)
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Registry))
	}

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
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, deps.Redis))
	})

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/midtrans", webhookcontrollers.MidtransNotification(deps.Transactions, logg))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(registerPolicy, deps.Redis, logg)).Post("/register", controllers.AuthRegister(deps.Auth, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)).Post("/login", controllers.AuthLogin(deps.Auth, logg))
		r.Post("/refresh", controllers.AuthRefresh(deps.Auth, logg))
		r.Post("/logout", controllers.AuthLogout(deps.Auth, cfg.JWT, logg))
	})

	// Public catalog and delivery lookups.
	r.Route("/api/v1/catalog", func(r chi.Router) {
		r.Get("/product-types", controllers.ListProductTypes(deps.Products, logg))
		r.Get("/packagings", controllers.ListPackagings(deps.Products, logg))
		r.Get("/products", controllers.ListProducts(deps.Products, logg))
		r.Get("/products/{productId}", controllers.GetProduct(deps.Products, logg))
	})
	r.Route("/api/v1/shipping", func(r chi.Router) {
		r.Get("/provinces", controllers.ShippingProvinces(deps.Shipping, logg))
		r.Get("/cities", controllers.ShippingCities(deps.Shipping, logg))
		r.Get("/cost", controllers.ShippingCost(deps.Shipping, logg))
	})
	r.Get("/api/v1/ppn", controllers.GetPPN(deps.PPN, logg))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))

		r.Route("/me", func(r chi.Router) {
			r.Get("/", controllers.Me(deps.Users, logg))
			r.Patch("/", controllers.UpdateProfile(deps.Users, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.GetCart(deps.Cart, logg))
			r.Put("/items", controllers.SetCartItem(deps.Cart, logg))
			r.Delete("/items/{variantId}", controllers.RemoveCartItem(deps.Cart, logg))
			r.Delete("/", controllers.ClearCart(deps.Cart, logg))
		})

		r.Route("/transactions", func(r chi.Router) {
			r.Post("/", controllers.CreateTransaction(deps.Transactions, logg))
			r.Get("/", controllers.ListMyTransactions(deps.Transactions, logg))
			r.Get("/{transactionId}", controllers.GetTransaction(deps.Transactions, logg))
			r.Post("/{transactionId}/cancel", controllers.CancelTransaction(deps.Transactions, logg))
		})

		r.Route("/chat", func(r chi.Router) {
			r.Get("/room", controllers.GetChatRoom(deps.Chat, logg))
			r.Post("/messages", controllers.SendChatMessage(deps.Chat, logg))
			r.Get("/rooms/{roomId}/messages", controllers.ListChatMessages(deps.Chat, logg))
			r.Post("/rooms/{roomId}/read", controllers.MarkChatRead(deps.Chat, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
		r.Use(middleware.RequireRole(enums.UserRoleAdmin.String(), logg))

		r.Route("/catalog", func(r chi.Router) {
			r.Post("/product-types", controllers.CreateProductType(deps.Products, logg))
			r.Delete("/product-types/{typeId}", controllers.DeleteProductType(deps.Products, logg))
			r.Post("/packagings", controllers.CreatePackaging(deps.Products, logg))
			r.Delete("/packagings/{packagingId}", controllers.DeletePackaging(deps.Products, logg))
			r.Post("/products", controllers.CreateProduct(deps.Products, logg))
			r.Patch("/products/{productId}", controllers.UpdateProduct(deps.Products, logg))
			r.Delete("/products/{productId}", controllers.DeleteProduct(deps.Products, logg))
			r.Post("/products/{productId}/variants", controllers.AddVariant(deps.Products, logg))
			r.Patch("/variants/{variantId}", controllers.UpdateVariant(deps.Products, logg))
			r.Delete("/variants/{variantId}", controllers.DeleteVariant(deps.Products, logg))
		})

		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", controllers.ListTransactions(deps.Transactions, logg))
			r.Get("/{transactionId}", controllers.GetTransaction(deps.Transactions, logg))
			r.Patch("/{transactionId}/status", controllers.UpdateTransactionStatus(deps.Transactions, logg))
			r.Post("/{transactionId}/cancel", controllers.CancelTransaction(deps.Transactions, logg))
		})

		r.Route("/ppn", func(r chi.Router) {
			r.Post("/", controllers.SetPPN(deps.PPN, logg))
			r.Get("/history", controllers.PPNHistory(deps.PPN, logg))
		})

		r.Route("/reports", func(r chi.Router) {
			r.Get("/sales", controllers.SalesSummaryReport(deps.Reports, logg))
			r.Get("/status-breakdown", controllers.StatusBreakdownReport(deps.Reports, logg))
			r.Get("/top-variants", controllers.TopVariantsReport(deps.Reports, logg))
		})

		r.Route("/chat", func(r chi.Router) {
			r.Get("/rooms", controllers.ListChatRooms(deps.Chat, logg))
			r.Post("/messages", controllers.SendChatMessage(deps.Chat, logg))
			r.Get("/rooms/{roomId}/messages", controllers.ListChatMessages(deps.Chat, logg))
			r.Post("/rooms/{roomId}/read", controllers.MarkChatRead(deps.Chat, logg))
		})
	})

	return r
}
