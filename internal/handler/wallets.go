package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mmeshcher/gym-pos/internal/model"
	"github.com/mmeshcher/gym-pos/internal/validation"
)

// ListWallets возвращает кошельки зала.
func (h *Handler) ListWallets(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}

	wallets, err := h.service.ListWallets(r.Context(), id.GymID)
	if err != nil {
		h.fail(w, r, "list wallets", err)
		return
	}

	h.writeJSON(w, http.StatusOK, wallets)
}

type openWalletRequest struct {
	WalletType     model.WalletType `json:"walletType"`
	InitialBalance decimal.Decimal  `json:"initialBalance"`
}

// OpenWallet создаёт кошелёк зала указанного типа.
func (h *Handler) OpenWallet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}

	var req openWalletRequest
	if err := decodeJSON(r, &req); err != nil {
		h.badRequest(w, "malformed request body")
		return
	}
	if !req.WalletType.Valid() {
		h.badRequest(w, "invalid walletType")
		return
	}

	wallet, err := h.service.OpenWallet(r.Context(), id.GymID, req.WalletType, req.InitialBalance)
	if err != nil {
		h.fail(w, r, "open wallet", err)
		return
	}

	h.writeJSON(w, http.StatusCreated, wallet)
}

// walletType читает тип кошелька из пути запроса.
func (h *Handler) walletType(w http.ResponseWriter, r *http.Request) (model.WalletType, bool) {
	t := model.WalletType(chi.URLParam(r, "type"))
	if !t.Valid() {
		h.badRequest(w, "invalid wallet type")
		return "", false
	}
	return t, true
}

// ListWalletTransactions возвращает страницу журнала кошелька.
func (h *Handler) ListWalletTransactions(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}
	walletType, ok := h.walletType(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	page, limit, err := validation.ParsePagination(q)
	if err != nil {
		h.fail(w, r, "list wallet transactions", err)
		return
	}

	f := model.WalletTransactionFilter{
		Type:  model.TransactionType(q.Get("type")),
		Page:  page,
		Limit: limit,
	}
	if f.Type != "" && !f.Type.Valid() {
		h.badRequest(w, "invalid type")
		return
	}

	entries, total, err := h.service.ListWalletTransactions(r.Context(), id.GymID, walletType, f)
	if err != nil {
		h.fail(w, r, "list wallet transactions", err)
		return
	}

	h.writeJSON(w, http.StatusOK, listResponse{Data: entries, Meta: model.NewPage(total, page, limit)})
}

// ReconcileWallet сверяет баланс кошелька с журналом.
func (h *Handler) ReconcileWallet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}
	walletType, ok := h.walletType(w, r)
	if !ok {
		return
	}

	rec, err := h.service.ReconcileWallet(r.Context(), id.GymID, walletType)
	if err != nil {
		h.fail(w, r, "reconcile wallet", err)
		return
	}

	h.writeJSON(w, http.StatusOK, rec)
}

type walletOperationRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description,omitempty"`
}

type walletOperation func(ctx context.Context, gymID string, walletType model.WalletType, amount decimal.Decimal, description string) (*model.WalletTransaction, error)

// walletOperationHandler оборачивает ручную проводку по кошельку в HTTP-обработчик.
func (h *Handler) walletOperationHandler(name string, op walletOperation) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := h.identity(w, r)
		if !ok {
			return
		}
		walletType, ok := h.walletType(w, r)
		if !ok {
			return
		}

		var req walletOperationRequest
		if err := decodeJSON(r, &req); err != nil {
			h.badRequest(w, "malformed request body")
			return
		}

		entry, err := op(r.Context(), id.GymID, walletType, req.Amount, req.Description)
		if err != nil {
			h.fail(w, r, name, err)
			return
		}

		h.logger.Info("wallet "+name,
			zap.String("gymID", id.GymID),
			zap.String("walletType", string(walletType)),
			zap.String("amount", entry.Amount.String()),
			zap.String("staffID", id.StaffID),
		)
		h.writeJSON(w, http.StatusCreated, entry)
	}
}

// TopUp зачисляет сумму на кошелёк.
func (h *Handler) TopUp(w http.ResponseWriter, r *http.Request) {
	h.walletOperationHandler("top-up", h.service.TopUp)(w, r)
}

// Withdraw выводит сумму с кошелька с удержанием комиссии.
func (h *Handler) Withdraw(w http.ResponseWriter, r *http.Request) {
	h.walletOperationHandler("withdrawal", h.service.Withdraw)(w, r)
}

// Adjust корректирует баланс кошелька.
func (h *Handler) Adjust(w http.ResponseWriter, r *http.Request) {
	h.walletOperationHandler("adjustment", h.service.Adjust)(w, r)
}
