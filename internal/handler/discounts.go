package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mmeshcher/gym-pos/internal/model"
	"github.com/mmeshcher/gym-pos/internal/service"
	"github.com/mmeshcher/gym-pos/internal/validation"
)

// CreateDiscount создаёт скидку зала.
func (h *Handler) CreateDiscount(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}

	var in service.DiscountInput
	if err := decodeJSON(r, &in); err != nil {
		h.badRequest(w, "malformed request body")
		return
	}

	d, err := h.service.CreateDiscount(r.Context(), id.GymID, in)
	if err != nil {
		h.fail(w, r, "create discount", err)
		return
	}

	h.logger.Info("discount created",
		zap.String("gymID", id.GymID),
		zap.String("discountID", d.ID),
		zap.String("code", d.Code),
	)
	h.writeJSON(w, http.StatusCreated, d)
}

// ListDiscounts возвращает страницу скидок зала.
func (h *Handler) ListDiscounts(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	page, limit, err := validation.ParsePagination(q)
	if err != nil {
		h.fail(w, r, "list discounts", err)
		return
	}

	f := model.DiscountFilter{
		Type:   model.DiscountType(q.Get("type")),
		Search: q.Get("search"),
		Page:   page,
		Limit:  limit,
	}
	if f.Type != "" && !f.Type.Valid() {
		h.badRequest(w, "invalid type")
		return
	}
	if f.IsActive, err = validation.ParseBool(q.Get("isActive")); err != nil {
		h.badRequest(w, "invalid isActive")
		return
	}

	res, total, err := h.service.ListDiscounts(r.Context(), id.GymID, f)
	if err != nil {
		h.fail(w, r, "list discounts", err)
		return
	}

	h.writeJSON(w, http.StatusOK, listResponse{Data: res, Meta: model.NewPage(total, page, limit)})
}

// GetDiscount возвращает скидку зала.
func (h *Handler) GetDiscount(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}

	discountID := chi.URLParam(r, "id")
	if !validation.IsValidID(discountID) {
		h.badRequest(w, "invalid discount id")
		return
	}

	d, err := h.service.GetDiscount(r.Context(), id.GymID, discountID)
	if err != nil {
		h.fail(w, r, "get discount", err)
		return
	}

	h.writeJSON(w, http.StatusOK, d)
}

// UpdateDiscount частично изменяет скидку зала.
func (h *Handler) UpdateDiscount(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}

	discountID := chi.URLParam(r, "id")
	if !validation.IsValidID(discountID) {
		h.badRequest(w, "invalid discount id")
		return
	}

	var p service.DiscountPatch
	if err := decodeJSON(r, &p); err != nil {
		h.badRequest(w, "malformed request body")
		return
	}

	d, err := h.service.UpdateDiscount(r.Context(), id.GymID, discountID, p)
	if err != nil {
		h.fail(w, r, "update discount", err)
		return
	}

	h.writeJSON(w, http.StatusOK, d)
}

// DeleteDiscount отключает скидку зала.
func (h *Handler) DeleteDiscount(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}

	discountID := chi.URLParam(r, "id")
	if !validation.IsValidID(discountID) {
		h.badRequest(w, "invalid discount id")
		return
	}

	if err := h.service.DisableDiscount(r.Context(), id.GymID, discountID); err != nil {
		h.fail(w, r, "disable discount", err)
		return
	}

	h.logger.Info("discount disabled",
		zap.String("gymID", id.GymID),
		zap.String("discountID", discountID),
	)
	w.WriteHeader(http.StatusNoContent)
}
