// Package handler содержит HTTP-обработчики API POS-сервиса спортзалов.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mmeshcher/gym-pos/internal/billing"
	"github.com/mmeshcher/gym-pos/internal/middleware"
	"github.com/mmeshcher/gym-pos/internal/model"
	"github.com/mmeshcher/gym-pos/internal/repository"
	"github.com/mmeshcher/gym-pos/internal/service"
	"github.com/mmeshcher/gym-pos/internal/validation"
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	Ping(ctx context.Context) error

	CreatePosTransaction(ctx context.Context, gymID, staffID string, req service.CreatePosTransactionRequest) (*model.PosTransaction, error)
	GetPosTransaction(ctx context.Context, gymID, id string) (*model.PosTransaction, error)
	ListPosTransactions(ctx context.Context, gymID string, f model.PosTransactionFilter) ([]model.PosTransaction, int64, error)
	UpdatePosTransaction(ctx context.Context, gymID, id string, status *model.PosStatus, notes *string) (*model.PosTransaction, error)
	GetPosStats(ctx context.Context, gymID string) (*model.PosStats, error)

	CreateDiscount(ctx context.Context, gymID string, in service.DiscountInput) (*model.Discount, error)
	GetDiscount(ctx context.Context, gymID, id string) (*model.Discount, error)
	ListDiscounts(ctx context.Context, gymID string, f model.DiscountFilter) ([]model.Discount, int64, error)
	UpdateDiscount(ctx context.Context, gymID, id string, p service.DiscountPatch) (*model.Discount, error)
	DisableDiscount(ctx context.Context, gymID, id string) error

	ListWallets(ctx context.Context, gymID string) ([]model.Wallet, error)
	OpenWallet(ctx context.Context, gymID string, walletType model.WalletType, initialBalance decimal.Decimal) (*model.Wallet, error)
	ListWalletTransactions(ctx context.Context, gymID string, walletType model.WalletType, f model.WalletTransactionFilter) ([]model.WalletTransaction, int64, error)
	ReconcileWallet(ctx context.Context, gymID string, walletType model.WalletType) (*model.Reconciliation, error)
	TopUp(ctx context.Context, gymID string, walletType model.WalletType, amount decimal.Decimal, description string) (*model.WalletTransaction, error)
	Withdraw(ctx context.Context, gymID string, walletType model.WalletType, amount decimal.Decimal, description string) (*model.WalletTransaction, error)
	Adjust(ctx context.Context, gymID string, walletType model.WalletType, amount decimal.Decimal, description string) (*model.WalletTransaction, error)

	ListGymInvoices(ctx context.Context, gymID string, month, year int) ([]model.GymInvoice, error)
}

// Handler реализует HTTP-обработчики API POS-сервиса.
type Handler struct {
	service        Service
	logger         *zap.Logger
	authMiddleware *middleware.AuthMiddleware
	metrics        *middleware.Metrics
	location       *time.Location
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
// Даты без часового пояса в запросах трактуются в loc.
func NewHandler(s Service, logger *zap.Logger, auth *middleware.AuthMiddleware, metrics *middleware.Metrics, loc *time.Location) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{
		service:        s,
		logger:         logger,
		authMiddleware: auth,
		metrics:        metrics,
		location:       loc,
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

type listResponse struct {
	Data any        `json:"data"`
	Meta model.Page `json:"meta"`
}

// errorStatus сопоставляет доменные ошибки с HTTP-статусами.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, billing.ErrInvalidLineItems):
		return http.StatusBadRequest, "invalid line items"
	case errors.Is(err, model.ErrUnknownPaymentMethod):
		return http.StatusBadRequest, "unknown payment method"
	case errors.Is(err, repository.ErrDiscountNotFound), errors.Is(err, billing.ErrDiscountInactive):
		return http.StatusNotFound, "discount not found or not valid"
	case errors.Is(err, billing.ErrDiscountExpired):
		return http.StatusBadRequest, "discount expired or not yet valid"
	case errors.Is(err, billing.ErrDiscountMinimumNotMet):
		return http.StatusBadRequest, "minimum purchase for discount not met"
	case errors.Is(err, billing.ErrUnknownDiscountType):
		return http.StatusUnprocessableEntity, "discount has unknown type"
	case errors.Is(err, repository.ErrDiscountUsageExhausted):
		return http.StatusConflict, "discount usage limit reached"
	case errors.Is(err, repository.ErrDiscountCodeExists):
		return http.StatusConflict, "discount code already exists"
	case errors.Is(err, repository.ErrMemberNotFound):
		return http.StatusNotFound, "member not found"
	case errors.Is(err, repository.ErrTransactionNotFound):
		return http.StatusNotFound, "transaction not found"
	case errors.Is(err, repository.ErrWalletNotFound):
		return http.StatusNotFound, "wallet not found"
	case errors.Is(err, service.ErrWalletInactive):
		return http.StatusConflict, "wallet is not active"
	case errors.Is(err, repository.ErrConcurrentBalanceConflict):
		return http.StatusConflict, "wallet balance changed concurrently, retry the request"
	case errors.Is(err, service.ErrInsufficientBalance):
		return http.StatusPaymentRequired, "insufficient wallet balance"
	case errors.Is(err, service.ErrInvalidDiscount):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, validation.ErrInvalidPagination),
		errors.Is(err, validation.ErrInvalidPeriod),
		errors.Is(err, validation.ErrInvalidDate):
		return http.StatusBadRequest, err.Error()
	}
	return http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("encode response error", zap.Error(err))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, errorResponse{Error: msg})
}

// fail переводит ошибку сервиса в ответ. Неизвестные ошибки пишутся в журнал.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, msg := errorStatus(err)
	if status == http.StatusInternalServerError {
		h.logger.Error(op+" error",
			zap.Error(err),
			zap.String("requestID", middleware.GetRequestID(r.Context())),
		)
	}
	h.writeError(w, status, msg)
}

func (h *Handler) badRequest(w http.ResponseWriter, msg string) {
	h.writeError(w, http.StatusBadRequest, msg)
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// identity возвращает сотрудника из контекста. Маршруты под авторизацией всегда его содержат.
func (h *Handler) identity(w http.ResponseWriter, r *http.Request) (middleware.Identity, bool) {
	id, ok := middleware.GetIdentityFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
	}
	return id, ok
}

// Health проверяет доступность базы данных.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Ping(r.Context()); err != nil {
		h.logger.Warn("health check failed", zap.Error(err))
		h.writeError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
