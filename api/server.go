/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     Request logging
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for the dashboard frontend

ROUTE GROUPS:
  /api/health                 Liveness
  /api/owners/{ownerID}/*     Everything owned by one user
  /api/scenarios/*            Demo scenarios

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/serve.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)

		r.Route("/owners/{ownerID}", func(r chi.Router) {
			r.Route("/events", func(r chi.Router) {
				r.Get("/upcoming", h.Upcoming)
				r.Post("/{eventID}/confirm", h.ConfirmEvent)
				r.Post("/{eventID}/skip", h.SkipEvent)
			})

			r.Route("/rules", func(r chi.Router) {
				r.Get("/", h.ListRules)
				r.Post("/", h.CreateRule)
				r.Get("/{ruleID}", h.GetRule)
				r.Put("/{ruleID}", h.UpdateRule)
				r.Delete("/{ruleID}", h.DeleteRule)
			})

			r.Route("/income", func(r chi.Router) {
				r.Get("/", h.GetIncome)
				r.Put("/", h.ConfigureIncome)
				r.Get("/pending", h.IncomePending)
				r.Get("/summary", h.IncomeSummary)
				r.Post("/events/{eventID}/confirm", h.ConfirmIncome)
				r.Post("/events/{eventID}/skip", h.SkipIncome)
			})

			r.Route("/bills", func(r chi.Router) {
				r.Get("/", h.ListBills)
				r.Post("/", h.CreateBill)
				r.Get("/pending", h.BillsPending)
				r.Get("/summary", h.BillsSummary)
				r.Put("/{ruleID}", h.UpdateBill)
				r.Delete("/{ruleID}", h.RemoveBill)
				r.Post("/events/{eventID}/pay", h.PayBill)
				r.Post("/events/{eventID}/skip", h.SkipBill)
			})

			r.Route("/accounts", func(r chi.Router) {
				r.Get("/", h.ListAccounts)
				r.Post("/", h.CreateAccount)
			})

			r.Get("/transactions", h.ListTransactions)
		})

		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
		})
	})

	return r
}
