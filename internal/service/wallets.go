package service

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mmeshcher/gym-pos/internal/model"
)

// ListWallets возвращает кошельки зала.
func (s *Service) ListWallets(ctx context.Context, gymID string) ([]model.Wallet, error) {
	wallets, err := s.repo.ListWallets(ctx, gymID)
	if err != nil {
		return nil, err
	}
	if wallets == nil {
		wallets = []model.Wallet{}
	}
	return wallets, nil
}

// OpenWallet создаёт кошелёк зала. Повторный вызов возвращает уже существующий кошелёк.
func (s *Service) OpenWallet(ctx context.Context, gymID string, walletType model.WalletType, initialBalance decimal.Decimal) (*model.Wallet, error) {
	if initialBalance.IsNegative() {
		return nil, ErrInvalidAmount
	}
	w, err := s.repo.OpenWallet(ctx, gymID, walletType, initialBalance)
	if err != nil {
		return nil, err
	}
	s.logger.Info("wallet opened",
		zap.String("gymID", gymID),
		zap.String("walletType", string(walletType)),
	)
	return w, nil
}

// ListWalletTransactions возвращает страницу журнала кошелька.
func (s *Service) ListWalletTransactions(ctx context.Context, gymID string, walletType model.WalletType, f model.WalletTransactionFilter) ([]model.WalletTransaction, int64, error) {
	w, err := s.repo.GetWallet(ctx, gymID, walletType)
	if err != nil {
		return nil, 0, err
	}
	entries, total, err := s.repo.ListWalletTransactions(ctx, w.ID, f)
	if err != nil {
		return nil, 0, err
	}
	if entries == nil {
		entries = []model.WalletTransaction{}
	}
	return entries, total, nil
}

// ReconcileWallet сверяет баланс кошелька с суммой журнала.
func (s *Service) ReconcileWallet(ctx context.Context, gymID string, walletType model.WalletType) (*model.Reconciliation, error) {
	w, err := s.repo.GetWallet(ctx, gymID, walletType)
	if err != nil {
		return nil, err
	}
	sum, err := s.repo.LedgerSum(ctx, w.ID)
	if err != nil {
		return nil, err
	}

	expected := w.InitialBalance.Add(sum)
	diff := w.CurrentBalance.Sub(expected)
	rec := &model.Reconciliation{
		WalletID:        w.ID,
		CurrentBalance:  w.CurrentBalance,
		ExpectedBalance: expected,
		Difference:      diff,
		Consistent:      diff.IsZero(),
	}
	if !rec.Consistent {
		s.logger.Warn("wallet balance drift",
			zap.String("walletID", w.ID),
			zap.String("difference", diff.String()),
		)
	}
	return rec, nil
}
