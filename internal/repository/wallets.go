package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/mmeshcher/gym-pos/internal/model"
)

const walletColumns = `id, gym_id, wallet_type, initial_balance, current_balance, total_income,
	total_withdrawals, total_fees, today_income, is_active, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanWallet(row scanner) (*model.Wallet, error) {
	var (
		w          model.Wallet
		walletType string
	)
	err := row.Scan(&w.ID, &w.GymID, &walletType, &w.InitialBalance, &w.CurrentBalance, &w.TotalIncome,
		&w.TotalWithdrawals, &w.TotalFees, &w.TodayIncome, &w.IsActive, &w.UpdatedAt)
	if err != nil {
		return nil, err
	}
	w.Type = model.WalletType(walletType)
	return &w, nil
}

// ListWallets возвращает все кошельки зала.
func (r *PostgresRepository) ListWallets(ctx context.Context, gymID string) ([]model.Wallet, error) {
	var res []model.Wallet
	err := r.withRetry(ctx, func() error {
		res = nil
		rows, err := r.pool.Query(ctx,
			`SELECT `+walletColumns+` FROM wallets WHERE gym_id = $1 ORDER BY wallet_type`,
			gymID,
		)
		if err != nil {
			return fmt.Errorf("select wallets: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			w, err := scanWallet(rows)
			if err != nil {
				return fmt.Errorf("scan wallet: %w", err)
			}
			res = append(res, *w)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// GetWallet возвращает кошелёк зала указанного типа без блокировки.
func (r *PostgresRepository) GetWallet(ctx context.Context, gymID string, walletType model.WalletType) (*model.Wallet, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+walletColumns+` FROM wallets WHERE gym_id = $1 AND wallet_type = $2`,
		gymID, string(walletType),
	)
	w, err := scanWallet(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("select wallet: %w", err)
	}
	return w, nil
}

// OpenWallet создаёт кошелёк зала указанного типа, если его ещё нет, и возвращает его.
func (r *PostgresRepository) OpenWallet(ctx context.Context, gymID string, walletType model.WalletType, initialBalance decimal.Decimal) (*model.Wallet, error) {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO wallets (id, gym_id, wallet_type, initial_balance, current_balance)
		 VALUES ($1, $2, $3, $4, $4)
		 ON CONFLICT (gym_id, wallet_type) DO NOTHING`,
		uuid.NewString(), gymID, string(walletType), initialBalance,
	)
	if err != nil {
		return nil, fmt.Errorf("insert wallet: %w", err)
	}
	return r.GetWallet(ctx, gymID, walletType)
}

// ListWalletTransactions возвращает страницу журнала кошелька, начиная с последних записей.
func (r *PostgresRepository) ListWalletTransactions(ctx context.Context, walletID string, f model.WalletTransactionFilter) ([]model.WalletTransaction, int64, error) {
	var (
		res   []model.WalletTransaction
		total int64
	)

	err := r.withRetry(ctx, func() error {
		res = nil
		err := r.pool.QueryRow(ctx,
			`SELECT count(*) FROM wallet_transactions
			 WHERE wallet_id = $1 AND ($2 = '' OR transaction_type = $2)`,
			walletID, string(f.Type),
		).Scan(&total)
		if err != nil {
			return fmt.Errorf("count wallet transactions: %w", err)
		}

		rows, err := r.pool.Query(ctx,
			`SELECT id, wallet_id, transaction_type, amount, fee_amount, net_amount, description,
			        reference_type, reference_id, processed_at
			 FROM wallet_transactions
			 WHERE wallet_id = $1 AND ($2 = '' OR transaction_type = $2)
			 ORDER BY processed_at DESC
			 LIMIT $3 OFFSET $4`,
			walletID, string(f.Type), f.Limit, (f.Page-1)*f.Limit,
		)
		if err != nil {
			return fmt.Errorf("select wallet transactions: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var (
				e       model.WalletTransaction
				trxType string
				refType string
			)
			if err := rows.Scan(&e.ID, &e.WalletID, &trxType, &e.Amount, &e.FeeAmount, &e.NetAmount,
				&e.Description, &refType, &e.ReferenceID, &e.ProcessedAt); err != nil {
				return fmt.Errorf("scan wallet transaction: %w", err)
			}
			e.Type = model.TransactionType(trxType)
			e.ReferenceType = model.ReferenceType(refType)
			res = append(res, e)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, 0, err
	}

	return res, total, nil
}

// LedgerSum возвращает сумму всех проводок кошелька со знаком.
func (r *PostgresRepository) LedgerSum(ctx context.Context, walletID string) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := r.withRetry(ctx, func() error {
		return r.pool.QueryRow(ctx,
			`SELECT COALESCE(SUM(amount), 0) FROM wallet_transactions WHERE wallet_id = $1`,
			walletID,
		).Scan(&sum)
	})
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum wallet ledger: %w", err)
	}
	return sum, nil
}

// ResetTodayIncome обнуляет дневную выручку всех кошельков.
func (r *PostgresRepository) ResetTodayIncome(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE wallets SET today_income = 0 WHERE today_income <> 0`)
	if err != nil {
		return 0, fmt.Errorf("reset today income: %w", err)
	}
	return tag.RowsAffected(), nil
}
