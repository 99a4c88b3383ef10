package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/gym-pos/internal/model"
)

const posTransactionColumns = `id, gym_id, staff_id, member_id, discount_id, subtotal, discount_amount, total,
	payment_method, status, notes, created_at`

func scanPosTransaction(row scanner) (*model.PosTransaction, error) {
	var (
		t      model.PosTransaction
		method string
		status string
	)
	err := row.Scan(&t.ID, &t.GymID, &t.StaffID, &t.MemberID, &t.DiscountID, &t.Subtotal, &t.DiscountAmount,
		&t.Total, &method, &status, &t.Notes, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	t.PaymentMethod = model.PaymentMethod(method)
	t.Status = model.PosStatus(status)
	return &t, nil
}

// loadItems загружает позиции для переданных операций и раскладывает их по родителям.
func loadItems(ctx context.Context, q querier, trxs []*model.PosTransaction) error {
	if len(trxs) == 0 {
		return nil
	}

	ids := make([]string, 0, len(trxs))
	byID := make(map[string]*model.PosTransaction, len(trxs))
	for _, t := range trxs {
		ids = append(ids, t.ID)
		byID[t.ID] = t
		t.Items = []model.PosTransactionItem{}
	}

	rows, err := q.Query(ctx,
		`SELECT id, transaction_id, product_id, name, category, price, quantity, subtotal, start_date, end_date
		 FROM pos_transaction_items
		 WHERE transaction_id = ANY($1)
		 ORDER BY transaction_id, id`,
		ids,
	)
	if err != nil {
		return fmt.Errorf("select pos transaction items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			it       model.PosTransactionItem
			category string
		)
		if err := rows.Scan(&it.ID, &it.TransactionID, &it.ProductID, &it.Name, &category, &it.Price,
			&it.Quantity, &it.Subtotal, &it.StartDate, &it.EndDate); err != nil {
			return fmt.Errorf("scan pos transaction item: %w", err)
		}
		it.Category = model.ProductCategory(category)
		if parent, ok := byID[it.TransactionID]; ok {
			parent.Items = append(parent.Items, it)
		}
	}

	return rows.Err()
}

// GetPosTransaction возвращает кассовую операцию зала вместе с позициями.
func (r *PostgresRepository) GetPosTransaction(ctx context.Context, gymID, id string) (*model.PosTransaction, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+posTransactionColumns+` FROM pos_transactions WHERE id = $1 AND gym_id = $2`,
		id, gymID,
	)
	t, err := scanPosTransaction(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("select pos transaction: %w", err)
	}

	if err := loadItems(ctx, r.pool, []*model.PosTransaction{t}); err != nil {
		return nil, err
	}
	return t, nil
}

// ListPosTransactions возвращает страницу кассовых операций зала, начиная с последних.
func (r *PostgresRepository) ListPosTransactions(ctx context.Context, gymID string, f model.PosTransactionFilter) ([]model.PosTransaction, int64, error) {
	const where = `WHERE gym_id = $1
		 AND ($2 = '' OR status = $2)
		 AND ($3 = '' OR member_id = $3)
		 AND ($4::timestamptz IS NULL OR created_at >= $4)
		 AND ($5::timestamptz IS NULL OR created_at <= $5)`

	var (
		res   []model.PosTransaction
		total int64
	)

	err := r.withRetry(ctx, func() error {
		err := r.pool.QueryRow(ctx, `SELECT count(*) FROM pos_transactions `+where,
			gymID, string(f.Status), f.MemberID, f.StartDate, f.EndDate,
		).Scan(&total)
		if err != nil {
			return fmt.Errorf("count pos transactions: %w", err)
		}

		rows, err := r.pool.Query(ctx,
			`SELECT `+posTransactionColumns+` FROM pos_transactions `+where+`
			 ORDER BY created_at DESC
			 LIMIT $6 OFFSET $7`,
			gymID, string(f.Status), f.MemberID, f.StartDate, f.EndDate, f.Limit, (f.Page-1)*f.Limit,
		)
		if err != nil {
			return fmt.Errorf("select pos transactions: %w", err)
		}
		defer rows.Close()

		var page []*model.PosTransaction
		for rows.Next() {
			t, err := scanPosTransaction(rows)
			if err != nil {
				return fmt.Errorf("scan pos transaction: %w", err)
			}
			page = append(page, t)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("rows error: %w", err)
		}
		rows.Close()

		if err := loadItems(ctx, r.pool, page); err != nil {
			return err
		}

		res = make([]model.PosTransaction, 0, len(page))
		for _, t := range page {
			res = append(res, *t)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	return res, total, nil
}

// UpdatePosTransaction меняет статус и/или заметку операции. Суммы и позиции неизменны.
func (r *PostgresRepository) UpdatePosTransaction(ctx context.Context, gymID, id string, status *model.PosStatus, notes *string) (*model.PosTransaction, error) {
	var statusArg *string
	if status != nil {
		s := string(*status)
		statusArg = &s
	}

	tag, err := r.pool.Exec(ctx,
		`UPDATE pos_transactions
		 SET status = COALESCE($3, status), notes = COALESCE($4, notes)
		 WHERE id = $1 AND gym_id = $2`,
		id, gymID, statusArg, notes,
	)
	if err != nil {
		return nil, fmt.Errorf("update pos transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrTransactionNotFound
	}

	return r.GetPosTransaction(ctx, gymID, id)
}

// GetPosStats возвращает агрегаты кассы зала.
func (r *PostgresRepository) GetPosStats(ctx context.Context, gymID string) (*model.PosStats, error) {
	var stats model.PosStats
	err := r.withRetry(ctx, func() error {
		err := r.pool.QueryRow(ctx,
			`SELECT count(*), COALESCE(SUM(total), 0) FROM pos_transactions WHERE gym_id = $1`,
			gymID,
		).Scan(&stats.TotalTransactions, &stats.TotalRevenue)
		if err != nil {
			return fmt.Errorf("aggregate pos transactions: %w", err)
		}

		err = r.pool.QueryRow(ctx,
			`SELECT count(*), COALESCE(SUM(used_count), 0) FROM discounts WHERE gym_id = $1`,
			gymID,
		).Scan(&stats.TotalDiscounts, &stats.TotalDiscountUsage)
		if err != nil {
			return fmt.Errorf("aggregate discounts: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// ListGymInvoices возвращает записи платформенной комиссии зала за месяц.
func (r *PostgresRepository) ListGymInvoices(ctx context.Context, gymID string, month, year int) ([]model.GymInvoice, error) {
	var res []model.GymInvoice
	err := r.withRetry(ctx, func() error {
		res = nil
		rows, err := r.pool.Query(ctx,
			`SELECT id, gym_id, transaction_id, fee, transaction_date, month, year
			 FROM gym_invoices
			 WHERE gym_id = $1 AND month = $2 AND year = $3
			 ORDER BY transaction_date`,
			gymID, month, year,
		)
		if err != nil {
			return fmt.Errorf("select gym invoices: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var inv model.GymInvoice
			if err := rows.Scan(&inv.ID, &inv.GymID, &inv.TransactionID, &inv.Fee, &inv.TransactionDate,
				&inv.Month, &inv.Year); err != nil {
				return fmt.Errorf("scan gym invoice: %w", err)
			}
			res = append(res, inv)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}
