package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	custommiddleware "github.com/mmeshcher/gym-pos/internal/middleware"
)

// SetupRouter настраивает HTTP-маршруты и middleware POS-сервиса.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(custommiddleware.RequestID)
	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.Logger(h.logger))
	if h.metrics != nil {
		r.Use(h.metrics.Middleware)
		r.Method(http.MethodGet, "/metrics", h.metrics.Handler())
	}

	r.Get("/healthz", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Use(h.authMiddleware.Middleware)
		ownerOnly := custommiddleware.RequireRole(custommiddleware.RoleGymOwner)

		r.Route("/pos", func(r chi.Router) {
			r.Post("/transactions", h.CreatePosTransaction)
			r.Get("/transactions", h.ListPosTransactions)
			r.Get("/transactions/{id}", h.GetPosTransaction)
			r.Patch("/transactions/{id}", h.UpdatePosTransaction)
			r.Get("/stats", h.GetPosStats)

			r.Get("/discounts", h.ListDiscounts)
			r.Get("/discounts/{id}", h.GetDiscount)
			r.With(ownerOnly).Post("/discounts", h.CreateDiscount)
			r.With(ownerOnly).Patch("/discounts/{id}", h.UpdateDiscount)
			r.With(ownerOnly).Delete("/discounts/{id}", h.DeleteDiscount)
		})

		r.Route("/wallets", func(r chi.Router) {
			r.Get("/", h.ListWallets)
			r.Get("/{type}/transactions", h.ListWalletTransactions)
			r.Get("/{type}/reconcile", h.ReconcileWallet)

			r.Group(func(r chi.Router) {
				r.Use(ownerOnly)

				r.Post("/", h.OpenWallet)
				r.Post("/{type}/topup", h.TopUp)
				r.Post("/{type}/withdraw", h.Withdraw)
				r.Post("/{type}/adjust", h.Adjust)
			})
		})

		r.Get("/invoices", h.ListGymInvoices)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		h.writeError(w, http.StatusNotFound, http.StatusText(http.StatusNotFound))
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		h.writeError(w, http.StatusMethodNotAllowed, http.StatusText(http.StatusMethodNotAllowed))
	})

	return r
}
