package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmeshcher/gym-pos/internal/model"
	"github.com/mmeshcher/gym-pos/internal/repository"
)

var hundred = decimal.NewFromInt(100)

// ledgerEntry описывает одну проводку по кошельку. amount всегда положителен,
// кроме корректировки, где знак задаёт направление.
type ledgerEntry struct {
	kind        model.TransactionType
	amount      decimal.Decimal
	fee         decimal.Decimal
	description string
	refType     model.ReferenceType
	refID       *string
	at          time.Time
}

// post блокирует кошелёк, применяет приращения и дописывает запись журнала.
// Вызывается только внутри WithinTx.
func (s *Service) post(ctx context.Context, tx repository.TxStore, gymID string, walletType model.WalletType, e ledgerEntry) (*model.WalletTransaction, error) {
	w, err := tx.FindWalletForUpdate(ctx, gymID, walletType)
	if err != nil {
		return nil, err
	}
	if !w.IsActive {
		return nil, fmt.Errorf("%w: %s", ErrWalletInactive, walletType)
	}

	var (
		delta  model.WalletDelta
		signed decimal.Decimal
		net    decimal.Decimal
	)

	switch e.kind {
	case model.TransactionTypeIncome:
		delta = model.WalletDelta{Balance: e.amount, Income: e.amount, TodayIncome: e.amount}
		signed, net = e.amount, e.amount
	case model.TransactionTypeWithdrawal:
		if w.CurrentBalance.LessThan(e.amount) {
			return nil, ErrInsufficientBalance
		}
		delta = model.WalletDelta{Balance: e.amount.Neg(), Withdrawals: e.amount, Fees: e.fee}
		signed, net = e.amount.Neg(), e.amount.Sub(e.fee)
	case model.TransactionTypeAdjustment:
		if w.CurrentBalance.Add(e.amount).IsNegative() {
			return nil, ErrInsufficientBalance
		}
		delta = model.WalletDelta{Balance: e.amount}
		signed, net = e.amount, e.amount
	default:
		return nil, fmt.Errorf("unsupported ledger entry type %q", e.kind)
	}

	if err := tx.ApplyWalletDelta(ctx, w.ID, w.CurrentBalance, delta); err != nil {
		return nil, err
	}

	entry := &model.WalletTransaction{
		WalletID:      w.ID,
		Type:          e.kind,
		Amount:        signed,
		FeeAmount:     e.fee,
		NetAmount:     net,
		Description:   e.description,
		ReferenceType: e.refType,
		ReferenceID:   e.refID,
		ProcessedAt:   e.at,
	}
	if err := tx.AppendWalletTransaction(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// TopUp зачисляет сумму на кошелёк вручную.
func (s *Service) TopUp(ctx context.Context, gymID string, walletType model.WalletType, amount decimal.Decimal, description string) (*model.WalletTransaction, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	return s.postManual(ctx, gymID, walletType, ledgerEntry{
		kind:        model.TransactionTypeIncome,
		amount:      amount,
		description: description,
	})
}

// Withdraw списывает сумму с кошелька, удерживая комиссию за вывод.
func (s *Service) Withdraw(ctx context.Context, gymID string, walletType model.WalletType, amount decimal.Decimal, description string) (*model.WalletTransaction, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	fee := amount.Mul(s.opts.WithdrawalFeePercent).Div(hundred).Round(2)
	return s.postManual(ctx, gymID, walletType, ledgerEntry{
		kind:        model.TransactionTypeWithdrawal,
		amount:      amount,
		fee:         fee,
		description: description,
	})
}

// Adjust корректирует баланс на сумму со знаком.
func (s *Service) Adjust(ctx context.Context, gymID string, walletType model.WalletType, amount decimal.Decimal, description string) (*model.WalletTransaction, error) {
	if amount.IsZero() {
		return nil, ErrInvalidAmount
	}
	return s.postManual(ctx, gymID, walletType, ledgerEntry{
		kind:        model.TransactionTypeAdjustment,
		amount:      amount,
		description: description,
	})
}

func (s *Service) postManual(ctx context.Context, gymID string, walletType model.WalletType, e ledgerEntry) (*model.WalletTransaction, error) {
	e.refType = model.ReferenceTypeManual
	e.at = s.now()

	var entry *model.WalletTransaction
	err := s.repo.WithinTx(ctx, func(tx repository.TxStore) error {
		var err error
		entry, err = s.post(ctx, tx, gymID, walletType, e)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}
