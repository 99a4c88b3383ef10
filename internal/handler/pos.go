package handler

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mmeshcher/gym-pos/internal/billing"
	"github.com/mmeshcher/gym-pos/internal/model"
	"github.com/mmeshcher/gym-pos/internal/service"
	"github.com/mmeshcher/gym-pos/internal/validation"
)

// CreatePosTransaction проводит продажу на кассе.
func (h *Handler) CreatePosTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}

	var req service.CreatePosTransactionRequest
	if err := decodeJSON(r, &req); err != nil {
		h.badRequest(w, "malformed request body")
		return
	}

	if len(req.Items) == 0 {
		h.badRequest(w, "items must not be empty")
		return
	}
	for _, it := range req.Items {
		if !validation.IsValidID(it.ProductID) || it.Quantity < 1 || it.Quantity > billing.MaxQuantity {
			h.badRequest(w, fmt.Sprintf("each item needs a valid productId and quantity in [1, %d]", billing.MaxQuantity))
			return
		}
	}
	if req.MemberID != nil && !validation.IsValidID(*req.MemberID) {
		h.badRequest(w, "invalid memberId")
		return
	}
	if req.DiscountID != nil && !validation.IsValidID(*req.DiscountID) {
		h.badRequest(w, "invalid discountId")
		return
	}

	trx, err := h.service.CreatePosTransaction(r.Context(), id.GymID, id.StaffID, req)
	if err != nil {
		h.metrics.ObserveSettlement(settlementOutcome(err))
		h.fail(w, r, "create pos transaction", err)
		return
	}
	h.metrics.ObserveSettlement("success")

	h.writeJSON(w, http.StatusCreated, trx)
}

func settlementOutcome(err error) string {
	status, _ := errorStatus(err)
	switch {
	case status == http.StatusConflict:
		return "conflict"
	case status >= http.StatusInternalServerError:
		return "error"
	}
	return "rejected"
}

// ListPosTransactions возвращает страницу кассовых операций зала.
func (h *Handler) ListPosTransactions(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	page, limit, err := validation.ParsePagination(q)
	if err != nil {
		h.fail(w, r, "list pos transactions", err)
		return
	}

	f := model.PosTransactionFilter{
		Status:   model.PosStatus(q.Get("status")),
		MemberID: q.Get("memberId"),
		Page:     page,
		Limit:    limit,
	}
	if f.Status != "" && !f.Status.Valid() {
		h.badRequest(w, "invalid status")
		return
	}
	if f.StartDate, err = validation.ParseDate(q.Get("startDate"), h.location); err != nil {
		h.fail(w, r, "list pos transactions", err)
		return
	}
	if f.EndDate, err = validation.ParseDate(q.Get("endDate"), h.location); err != nil {
		h.fail(w, r, "list pos transactions", err)
		return
	}

	res, total, err := h.service.ListPosTransactions(r.Context(), id.GymID, f)
	if err != nil {
		h.fail(w, r, "list pos transactions", err)
		return
	}

	h.writeJSON(w, http.StatusOK, listResponse{Data: res, Meta: model.NewPage(total, page, limit)})
}

// GetPosTransaction возвращает кассовую операцию зала.
func (h *Handler) GetPosTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}

	trxID := chi.URLParam(r, "id")
	if !validation.IsValidID(trxID) {
		h.badRequest(w, "invalid transaction id")
		return
	}

	trx, err := h.service.GetPosTransaction(r.Context(), id.GymID, trxID)
	if err != nil {
		h.fail(w, r, "get pos transaction", err)
		return
	}

	h.writeJSON(w, http.StatusOK, trx)
}

type updatePosTransactionRequest struct {
	Status *model.PosStatus `json:"status,omitempty"`
	Notes  *string          `json:"notes,omitempty"`
}

// UpdatePosTransaction меняет статус или заметку кассовой операции.
func (h *Handler) UpdatePosTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}

	trxID := chi.URLParam(r, "id")
	if !validation.IsValidID(trxID) {
		h.badRequest(w, "invalid transaction id")
		return
	}

	var req updatePosTransactionRequest
	if err := decodeJSON(r, &req); err != nil {
		h.badRequest(w, "malformed request body")
		return
	}
	if req.Status == nil && req.Notes == nil {
		h.badRequest(w, "nothing to update")
		return
	}

	trx, err := h.service.UpdatePosTransaction(r.Context(), id.GymID, trxID, req.Status, req.Notes)
	if err != nil {
		h.fail(w, r, "update pos transaction", err)
		return
	}

	h.logger.Info("pos transaction updated",
		zap.String("transactionID", trx.ID),
		zap.String("status", string(trx.Status)),
		zap.String("staffID", id.StaffID),
	)
	h.writeJSON(w, http.StatusOK, trx)
}

// GetPosStats возвращает агрегаты кассы зала.
func (h *Handler) GetPosStats(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}

	stats, err := h.service.GetPosStats(r.Context(), id.GymID)
	if err != nil {
		h.fail(w, r, "get pos stats", err)
		return
	}

	h.writeJSON(w, http.StatusOK, stats)
}
