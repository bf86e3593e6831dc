package api

import (
	"net/http"
	"time"

	"github.com/cartai/ledger/internal/api/handler"
	"github.com/cartai/ledger/internal/api/middleware"
	"github.com/cartai/ledger/internal/api/spec"
	"github.com/cartai/ledger/internal/config"
	"github.com/cartai/ledger/internal/domain"
	"github.com/cartai/ledger/internal/idempotency"
	"github.com/cartai/ledger/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
)

// Services bundles the ledger operations exposed over HTTP.
type Services struct {
	Accounts    *service.AccountService
	Catalog     *service.CatalogService
	Payments    *service.PaymentService
	Withdrawals *service.WithdrawalService
	Referrals   *service.ReferralService
	Promos      *service.PromoService
	FreeYield   *service.FreeYieldService
	Games       *service.GameService
}

// Infra carries the shared infrastructure the HTTP layer depends on. Redis may be nil.
type Infra struct {
	DB          handler.Pinger
	Redis       redis.Cmdable
	Idempotency *idempotency.Store
	Tokens      *middleware.Tokens
	Identity    handler.IdentityVerifier
}

type Router struct {
	cfg    *config.Config
	logger *zap.Logger
	infra  Infra
	svc    Services
}

func NewRouter(cfg *config.Config, logger *zap.Logger, infra Infra, svc Services) *Router {
	return &Router{cfg: cfg, logger: logger, infra: infra, svc: svc}
}

func (api *Router) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.AccessLog(api.logger))
	r.Use(middleware.Recover(api.logger))
	r.Use(middleware.Metrics)

	authHandler := handler.NewAuthHandler(api.svc.Accounts, api.infra.Identity, api.infra.Tokens)
	accountHandler := handler.NewAccountHandler(api.svc.Accounts)
	catalogHandler := handler.NewCatalogHandler(api.svc.Catalog)
	paymentHandler := handler.NewPaymentHandler(api.svc.Payments)
	withdrawalHandler := handler.NewWithdrawalHandler(api.svc.Withdrawals)
	referralHandler := handler.NewReferralHandler(api.svc.Referrals)
	promoHandler := handler.NewPromoHandler(api.svc.Promos)
	freeYieldHandler := handler.NewFreeYieldHandler(api.svc.FreeYield)
	gameHandler := handler.NewGameHandler(api.svc.Games)
	healthHandler := handler.NewHealthHandler(api.infra.DB, api.infra.Redis)

	idem := middleware.NewIdempotency(api.infra.Idempotency, api.logger).Require

	r.Get("/healthz", healthHandler.Live)
	r.Get("/readyz", healthHandler.Ready)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/openapi.yaml", spec.OpenAPIHandler())
	r.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/docs/index.html", http.StatusMovedPermanently)
	})
	r.Get("/docs/*", httpSwagger.Handler(httpSwagger.URL("/openapi.yaml")))

	r.Group(func(r chi.Router) {
		r.Use(middleware.PublicRateLimiter(api.cfg.PublicRateLimitRPS))
		r.Post("/v1/auth/login", authHandler.Login)
		r.Post("/v1/accounts", authHandler.Register)
		r.Get("/v1/catalog", catalogHandler.List)
	})

	r.Group(func(r chi.Router) {
		r.Use(api.infra.Tokens.Authenticate)
		r.Use(middleware.AccountRateLimiter(api.cfg.AuthRateLimitRPS))

		r.Get("/v1/accounts/{id}", accountHandler.GetSummary)
		r.Get("/v1/accounts/{id}/statement", accountHandler.GetStatement)
		r.Put("/v1/me/withdrawal-destination", withdrawalHandler.BindDestination)

		r.Post("/v1/payments", paymentHandler.Create)
		r.Get("/v1/payments", paymentHandler.ListMine)
		r.Post("/v1/payments/{id}/reference", paymentHandler.SubmitReference)

		r.With(idem).Post("/v1/withdrawals", withdrawalHandler.Request)
		r.Get("/v1/withdrawals", withdrawalHandler.History)

		r.With(idem).Post("/v1/referrals/redeem", referralHandler.Redeem)
		r.Get("/v1/referrals", referralHandler.List)
		r.With(idem).Post("/v1/promo-codes/redeem", promoHandler.Redeem)

		r.Get("/v1/free-yield", freeYieldHandler.Status)
		r.Post("/v1/free-yield/activate", freeYieldHandler.Activate)
		r.With(idem).Post("/v1/free-yield/claim", freeYieldHandler.Claim)

		r.Post("/v1/games", gameHandler.Start)
		r.Get("/v1/games/{id}", gameHandler.Get)
		r.Post("/v1/games/{id}/moves", gameHandler.Move)
		r.Post("/v1/games/{id}/pass", gameHandler.Pass)

		r.Route("/v1/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(domain.RoleAdmin))

			r.Get("/accounts", accountHandler.ListAccounts)
			r.With(idem).Post("/accounts/{id}/adjustments", accountHandler.AdjustBalance)
			r.Put("/accounts/{id}/role", accountHandler.SetRole)

			r.Get("/payments", paymentHandler.ListPending)
			r.With(idem).Post("/payments/{id}/approve", paymentHandler.Approve)
			r.With(idem).Post("/payments/{id}/reject", paymentHandler.Reject)

			r.Get("/withdrawals", withdrawalHandler.ListPending)
			r.With(idem).Post("/withdrawals/{id}/approve", withdrawalHandler.Approve)
			r.With(idem).Post("/withdrawals/{id}/reject", withdrawalHandler.Reject)

			r.Get("/promo-codes", promoHandler.List)
			r.Post("/promo-codes", promoHandler.Create)
		})
	})

	return r
}

// Server wraps the router with the timeouts used in production.
func (api *Router) Server() *http.Server {
	return &http.Server{
		Addr:              ":" + api.cfg.HTTPPort,
		Handler:           api.Routes(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
