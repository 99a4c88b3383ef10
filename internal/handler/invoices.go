package handler

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmeshcher/gym-pos/internal/model"
	"github.com/mmeshcher/gym-pos/internal/validation"
)

type invoicesResponse struct {
	Month    int                `json:"month"`
	Year     int                `json:"year"`
	Total    decimal.Decimal    `json:"total"`
	Invoices []model.GymInvoice `json:"invoices"`
}

// ListGymInvoices возвращает платформенные комиссии зала за месяц.
func (h *Handler) ListGymInvoices(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}

	month, year, err := validation.ParsePeriod(r.URL.Query(), time.Now().In(h.location))
	if err != nil {
		h.fail(w, r, "list gym invoices", err)
		return
	}

	invoices, err := h.service.ListGymInvoices(r.Context(), id.GymID, month, year)
	if err != nil {
		h.fail(w, r, "list gym invoices", err)
		return
	}

	total := decimal.Zero
	for _, inv := range invoices {
		total = total.Add(inv.Fee)
	}

	h.writeJSON(w, http.StatusOK, invoicesResponse{
		Month:    month,
		Year:     year,
		Total:    total,
		Invoices: invoices,
	})
}
