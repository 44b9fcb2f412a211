package http

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
	"github.com/kreditkeliling/kupon-backend-go/internal/handler/http/middleware"
	"github.com/kreditkeliling/kupon-backend-go/internal/pkg/authz"
	"github.com/kreditkeliling/kupon-backend-go/internal/pkg/jwt"
)

type RouterConfig struct {
	AppEnv         string
	Version        string
	AllowedOrigins []string
	LogLevel       slog.Level
	// RateLimit is nil when rate limiting is disabled.
	RateLimit func(http.Handler) http.Handler
}

type Handlers struct {
	Commission CommissionHandler
	Agent      AgentHandler
	Report     ReportHandler
	Expense    ExpenseHandler
	Event      EventHandler
}

func NewRouter(cfg RouterConfig, JWTService jwt.Service, authorizer *authz.Authorizer, h Handlers) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(cfg.AppEnv != "production")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "kupon-backend"),
		slog.String("version", cfg.Version),
		slog.String("env", cfg.AppEnv),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  cfg.LogLevel,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	if cfg.RateLimit != nil {
		r.Use(cfg.RateLimit)
	}

	read := func(object string) func(http.Handler) http.Handler {
		return middleware.Authorize(authorizer, object, authz.ActionRead)
	}
	write := func(object string) func(http.Handler) http.Handler {
		return middleware.Authorize(authorizer, object, authz.ActionWrite)
	}

	r.Route("/api/v1", func(r chi.Router) {

		// SSE authenticates through a short-lived query token
		r.Get("/events", h.Event.Stream)

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired)
			r.Use(chiMiddleware.AllowContentType("application/json"))

			r.With(read(authz.ObjectReports)).Post("/events/token", h.Event.GetSSEToken)

			r.Route("/commission-tiers", func(r chi.Router) {
				r.With(read(authz.ObjectTiers)).Get("/", h.Commission.ListTiers)
				r.With(read(authz.ObjectTiers)).Get("/check", h.Commission.CheckTiers)

				r.Group(func(r chi.Router) {
					r.Use(write(authz.ObjectTiers))
					r.Post("/", h.Commission.CreateTier)
					r.Put("/{id}", h.Commission.UpdateTier)
					r.Delete("/{id}", h.Commission.DeleteTier)
				})
			})

			r.Route("/agents", func(r chi.Router) {
				r.With(read(authz.ObjectAgents)).Get("/", h.Agent.List)

				r.Route("/{id}", func(r chi.Router) {
					r.With(read(authz.ObjectAgents)).Get("/", h.Agent.Get)
					r.With(write(authz.ObjectAgents)).Put("/commission-settings", h.Agent.UpdateCommissionSettings)

					r.Route("/commissions", func(r chi.Router) {
						r.Group(func(r chi.Router) {
							r.Use(read(authz.ObjectCommissions))
							r.Get("/unpaid", h.Commission.ListUnpaid)
							r.Get("/paid", h.Commission.ListPaid)
							r.Get("/summary", h.Commission.Summary)
						})

						r.Group(func(r chi.Router) {
							r.Use(write(authz.ObjectCommissions))
							r.Post("/payments", h.Commission.PayOne)
							r.Post("/payments/bulk", h.Commission.PayAll)
							r.Delete("/payments/{paymentID}", h.Commission.DeletePayment)
						})
					})
				})
			})

			r.Route("/reports", func(r chi.Router) {
				r.Group(func(r chi.Router) {
					r.Use(read(authz.ObjectReports))
					r.Get("/performance", h.Report.GetAgentPerformance)
					r.Get("/monthly", h.Report.GetMonthlyRollup)
					r.Get("/yearly", h.Report.GetYearlySummary)
					r.Get("/yearly/target", h.Report.GetYearlyTarget)
				})
				r.With(write(authz.ObjectReports)).Put("/yearly/{year}/target", h.Report.SetYearlyTarget)
			})

			r.Route("/expenses", func(r chi.Router) {
				r.With(read(authz.ObjectExpenses)).Get("/", h.Expense.List)

				r.Group(func(r chi.Router) {
					r.Use(write(authz.ObjectExpenses))
					r.Post("/", h.Expense.Create)
					r.Delete("/{id}", h.Expense.Delete)
				})
			})
		})
	})
	return r
}
