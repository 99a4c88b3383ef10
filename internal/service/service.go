// Package service реализует бизнес-логику POS-сервиса спортзалов.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mmeshcher/gym-pos/internal/model"
	"github.com/mmeshcher/gym-pos/internal/repository"
)

var (
	// ErrWalletInactive возвращается при проводке по отключённому кошельку.
	ErrWalletInactive = errors.New("wallet is not active")
	// ErrInsufficientBalance возвращается при списании суммы больше баланса кошелька.
	ErrInsufficientBalance = errors.New("insufficient wallet balance")
	// ErrInvalidAmount возвращается для неположительной или нулевой суммы проводки.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrInvalidDiscount возвращается для некорректных параметров скидки.
	ErrInvalidDiscount = errors.New("invalid discount")
	// ErrInvalidStatus возвращается для неизвестного статуса кассовой операции.
	ErrInvalidStatus = errors.New("invalid transaction status")
)

// Repository описывает контракт доступа к данным, используемый сервисом.
type Repository interface {
	Close() error
	Ping(ctx context.Context) error
	WithinTx(ctx context.Context, fn func(repository.TxStore) error) error

	GetPosTransaction(ctx context.Context, gymID, id string) (*model.PosTransaction, error)
	ListPosTransactions(ctx context.Context, gymID string, f model.PosTransactionFilter) ([]model.PosTransaction, int64, error)
	UpdatePosTransaction(ctx context.Context, gymID, id string, status *model.PosStatus, notes *string) (*model.PosTransaction, error)
	GetPosStats(ctx context.Context, gymID string) (*model.PosStats, error)
	ListGymInvoices(ctx context.Context, gymID string, month, year int) ([]model.GymInvoice, error)

	CreateDiscount(ctx context.Context, d *model.Discount) error
	GetDiscount(ctx context.Context, gymID, id string) (*model.Discount, error)
	ListDiscounts(ctx context.Context, gymID string, f model.DiscountFilter) ([]model.Discount, int64, error)
	UpdateDiscount(ctx context.Context, d *model.Discount) error
	DisableDiscount(ctx context.Context, gymID, id string) error

	ListWallets(ctx context.Context, gymID string) ([]model.Wallet, error)
	GetWallet(ctx context.Context, gymID string, walletType model.WalletType) (*model.Wallet, error)
	OpenWallet(ctx context.Context, gymID string, walletType model.WalletType, initialBalance decimal.Decimal) (*model.Wallet, error)
	ListWalletTransactions(ctx context.Context, walletID string, f model.WalletTransactionFilter) ([]model.WalletTransaction, int64, error)
	LedgerSum(ctx context.Context, walletID string) (decimal.Decimal, error)
	ResetTodayIncome(ctx context.Context) (int64, error)
}

// Options задаёт денежные параметры и часовой пояс сервиса.
type Options struct {
	PlatformFee          decimal.Decimal
	InvoiceExtraMonth    bool
	WithdrawalFeePercent decimal.Decimal
	Location             *time.Location
	Now                  func() time.Time
}

// Service содержит бизнес-логику кассы, скидок и кошельков.
type Service struct {
	repo   Repository
	logger *zap.Logger
	opts   Options
}

// NewService создаёт новый сервис с указанным репозиторием.
func NewService(repo Repository, logger *zap.Logger, opts Options) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		repo:   repo,
		logger: logger,
		opts:   opts,
	}
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}

// Ping проверяет доступность хранилища.
func (s *Service) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

func (s *Service) now() time.Time {
	return s.opts.Now().In(s.opts.Location)
}
