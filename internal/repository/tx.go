package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/mmeshcher/gym-pos/internal/model"
)

// TxStore описывает операции, которые выполняются внутри одной транзакции БД.
type TxStore interface {
	CheckMember(ctx context.Context, gymID, memberID string) error
	FindProductsByIDs(ctx context.Context, gymID string, ids []string) ([]model.Product, error)
	FindDiscount(ctx context.Context, gymID, discountID string) (*model.Discount, error)
	IncrementDiscountUsage(ctx context.Context, discountID string) error
	InsertPosTransaction(ctx context.Context, trx *model.PosTransaction) error
	InsertPosTransactionItems(ctx context.Context, items []model.PosTransactionItem) error
	FindWalletForUpdate(ctx context.Context, gymID string, walletType model.WalletType) (*model.Wallet, error)
	ApplyWalletDelta(ctx context.Context, walletID string, expectedBalance decimal.Decimal, delta model.WalletDelta) error
	AppendWalletTransaction(ctx context.Context, entry *model.WalletTransaction) error
	AppendGymInvoices(ctx context.Context, invoices []model.GymInvoice) error
}

type pgTxStore struct {
	tx pgx.Tx
}

func (s *pgTxStore) CheckMember(ctx context.Context, gymID, memberID string) error {
	var dummy int
	err := s.tx.QueryRow(ctx,
		`SELECT 1 FROM members WHERE id = $1 AND gym_id = $2`,
		memberID, gymID,
	).Scan(&dummy)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrMemberNotFound
		}
		return fmt.Errorf("select member: %w", err)
	}
	return nil
}

func (s *pgTxStore) FindProductsByIDs(ctx context.Context, gymID string, ids []string) ([]model.Product, error) {
	rows, err := s.tx.Query(ctx,
		`SELECT id, gym_id, name, category, price, duration, capacity
		 FROM products
		 WHERE gym_id = $1 AND id = ANY($2)`,
		gymID, ids,
	)
	if err != nil {
		return nil, fmt.Errorf("select products: %w", err)
	}
	defer rows.Close()

	var res []model.Product
	for rows.Next() {
		var (
			p        model.Product
			category string
		)
		if err := rows.Scan(&p.ID, &p.GymID, &p.Name, &category, &p.Price, &p.Duration, &p.Capacity); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		p.Category = model.ProductCategory(category)
		res = append(res, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

func (s *pgTxStore) FindDiscount(ctx context.Context, gymID, discountID string) (*model.Discount, error) {
	return getDiscount(ctx, s.tx, gymID, discountID)
}

// IncrementDiscountUsage увеличивает счётчик одним UPDATE, не превышая лимит использований.
func (s *pgTxStore) IncrementDiscountUsage(ctx context.Context, discountID string) error {
	tag, err := s.tx.Exec(ctx,
		`UPDATE discounts
		 SET used_count = used_count + 1
		 WHERE id = $1 AND (usage_limit IS NULL OR used_count < usage_limit)`,
		discountID,
	)
	if err != nil {
		return fmt.Errorf("increment discount usage: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDiscountUsageExhausted
	}
	return nil
}

func (s *pgTxStore) InsertPosTransaction(ctx context.Context, trx *model.PosTransaction) error {
	if trx.ID == "" {
		trx.ID = uuid.NewString()
	}
	if trx.CreatedAt.IsZero() {
		trx.CreatedAt = time.Now()
	}

	_, err := s.tx.Exec(ctx,
		`INSERT INTO pos_transactions
		 (id, gym_id, staff_id, member_id, discount_id, subtotal, discount_amount, total, payment_method, status, notes, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		trx.ID, trx.GymID, trx.StaffID, trx.MemberID, trx.DiscountID,
		trx.Subtotal, trx.DiscountAmount, trx.Total,
		string(trx.PaymentMethod), string(trx.Status), trx.Notes, trx.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert pos transaction: %w", err)
	}
	return nil
}

func (s *pgTxStore) InsertPosTransactionItems(ctx context.Context, items []model.PosTransactionItem) error {
	batch := &pgx.Batch{}
	for i := range items {
		it := &items[i]
		if it.ID == "" {
			it.ID = uuid.NewString()
		}
		batch.Queue(
			`INSERT INTO pos_transaction_items
			 (id, transaction_id, product_id, name, category, price, quantity, subtotal, start_date, end_date)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			it.ID, it.TransactionID, it.ProductID, it.Name, string(it.Category),
			it.Price, it.Quantity, it.Subtotal, it.StartDate, it.EndDate,
		)
	}

	if err := s.tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert pos transaction items: %w", err)
	}
	return nil
}

// FindWalletForUpdate читает кошелёк и блокирует его строку до конца транзакции.
func (s *pgTxStore) FindWalletForUpdate(ctx context.Context, gymID string, walletType model.WalletType) (*model.Wallet, error) {
	row := s.tx.QueryRow(ctx,
		`SELECT `+walletColumns+`
		 FROM wallets
		 WHERE gym_id = $1 AND wallet_type = $2
		 FOR UPDATE`,
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

// ApplyWalletDelta применяет приращения атомарно на стороне БД.
// Если баланс отличается от прочитанного ранее, возвращается ErrConcurrentBalanceConflict.
func (s *pgTxStore) ApplyWalletDelta(ctx context.Context, walletID string, expectedBalance decimal.Decimal, delta model.WalletDelta) error {
	tag, err := s.tx.Exec(ctx,
		`UPDATE wallets
		 SET current_balance   = current_balance + $3,
		     total_income      = total_income + $4,
		     total_withdrawals = total_withdrawals + $5,
		     total_fees        = total_fees + $6,
		     today_income      = today_income + $7,
		     updated_at        = now()
		 WHERE id = $1 AND current_balance = $2`,
		walletID, expectedBalance,
		delta.Balance, delta.Income, delta.Withdrawals, delta.Fees, delta.TodayIncome,
	)
	if err != nil {
		return fmt.Errorf("update wallet: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrConcurrentBalanceConflict
	}
	return nil
}

func (s *pgTxStore) AppendWalletTransaction(ctx context.Context, entry *model.WalletTransaction) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.ProcessedAt.IsZero() {
		entry.ProcessedAt = time.Now()
	}

	_, err := s.tx.Exec(ctx,
		`INSERT INTO wallet_transactions
		 (id, wallet_id, transaction_type, amount, fee_amount, net_amount, description, reference_type, reference_id, processed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		entry.ID, entry.WalletID, string(entry.Type), entry.Amount, entry.FeeAmount, entry.NetAmount,
		entry.Description, string(entry.ReferenceType), entry.ReferenceID, entry.ProcessedAt,
	)
	if err != nil {
		return fmt.Errorf("insert wallet transaction: %w", err)
	}
	return nil
}

func (s *pgTxStore) AppendGymInvoices(ctx context.Context, invoices []model.GymInvoice) error {
	if len(invoices) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for i := range invoices {
		inv := &invoices[i]
		if inv.ID == "" {
			inv.ID = uuid.NewString()
		}
		batch.Queue(
			`INSERT INTO gym_invoices (id, gym_id, transaction_id, fee, transaction_date, month, year)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			inv.ID, inv.GymID, inv.TransactionID, inv.Fee, inv.TransactionDate, inv.Month, inv.Year,
		)
	}

	if err := s.tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert gym invoices: %w", err)
	}
	return nil
}
