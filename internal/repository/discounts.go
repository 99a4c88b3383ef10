package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/gym-pos/internal/model"
)

const discountColumns = `id, gym_id, code, name, type, value, min_purchase, max_discount,
	valid_from, valid_until, usage_limit, used_count, is_active, created_at`

func scanDiscount(row scanner) (*model.Discount, error) {
	var (
		d     model.Discount
		dType string
	)
	err := row.Scan(&d.ID, &d.GymID, &d.Code, &d.Name, &dType, &d.Value, &d.MinPurchase, &d.MaxDiscount,
		&d.ValidFrom, &d.ValidUntil, &d.UsageLimit, &d.UsedCount, &d.IsActive, &d.CreatedAt)
	if err != nil {
		return nil, err
	}
	d.Type = model.DiscountType(dType)
	return &d, nil
}

func getDiscount(ctx context.Context, q querier, gymID, id string) (*model.Discount, error) {
	row := q.QueryRow(ctx,
		`SELECT `+discountColumns+` FROM discounts WHERE id = $1 AND gym_id = $2`,
		id, gymID,
	)
	d, err := scanDiscount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDiscountNotFound
		}
		return nil, fmt.Errorf("select discount: %w", err)
	}
	return d, nil
}

// CreateDiscount сохраняет новую скидку. Код скидки уникален в пределах зала.
func (r *PostgresRepository) CreateDiscount(ctx context.Context, d *model.Discount) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}

	err := r.pool.QueryRow(ctx,
		`INSERT INTO discounts
		 (id, gym_id, code, name, type, value, min_purchase, max_discount, valid_from, valid_until, usage_limit, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 RETURNING used_count, created_at`,
		d.ID, d.GymID, d.Code, d.Name, string(d.Type), d.Value, d.MinPurchase, d.MaxDiscount,
		d.ValidFrom, d.ValidUntil, d.UsageLimit, d.IsActive,
	).Scan(&d.UsedCount, &d.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrDiscountCodeExists, d.Code)
		}
		return fmt.Errorf("insert discount: %w", err)
	}
	return nil
}

// GetDiscount возвращает скидку зала по идентификатору.
func (r *PostgresRepository) GetDiscount(ctx context.Context, gymID, id string) (*model.Discount, error) {
	return getDiscount(ctx, r.pool, gymID, id)
}

// ListDiscounts возвращает страницу скидок зала.
func (r *PostgresRepository) ListDiscounts(ctx context.Context, gymID string, f model.DiscountFilter) ([]model.Discount, int64, error) {
	const where = `WHERE gym_id = $1
		 AND ($2 = '' OR type = $2)
		 AND ($3::boolean IS NULL OR is_active = $3)
		 AND ($4 = '' OR code ILIKE '%' || $4 || '%' OR name ILIKE '%' || $4 || '%')`

	var (
		res   []model.Discount
		total int64
	)

	err := r.withRetry(ctx, func() error {
		res = nil
		err := r.pool.QueryRow(ctx, `SELECT count(*) FROM discounts `+where,
			gymID, string(f.Type), f.IsActive, f.Search,
		).Scan(&total)
		if err != nil {
			return fmt.Errorf("count discounts: %w", err)
		}

		rows, err := r.pool.Query(ctx,
			`SELECT `+discountColumns+` FROM discounts `+where+`
			 ORDER BY created_at DESC
			 LIMIT $5 OFFSET $6`,
			gymID, string(f.Type), f.IsActive, f.Search, f.Limit, (f.Page-1)*f.Limit,
		)
		if err != nil {
			return fmt.Errorf("select discounts: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			d, err := scanDiscount(rows)
			if err != nil {
				return fmt.Errorf("scan discount: %w", err)
			}
			res = append(res, *d)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, 0, err
	}

	return res, total, nil
}

// UpdateDiscount перезаписывает изменяемые поля скидки. Счётчик использований не меняется.
func (r *PostgresRepository) UpdateDiscount(ctx context.Context, d *model.Discount) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE discounts
		 SET code = $3, name = $4, type = $5, value = $6, min_purchase = $7, max_discount = $8,
		     valid_from = $9, valid_until = $10, usage_limit = $11, is_active = $12
		 WHERE id = $1 AND gym_id = $2`,
		d.ID, d.GymID, d.Code, d.Name, string(d.Type), d.Value, d.MinPurchase, d.MaxDiscount,
		d.ValidFrom, d.ValidUntil, d.UsageLimit, d.IsActive,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrDiscountCodeExists, d.Code)
		}
		return fmt.Errorf("update discount: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDiscountNotFound
	}
	return nil
}

// DisableDiscount отключает скидку. Строки скидок никогда не удаляются.
func (r *PostgresRepository) DisableDiscount(ctx context.Context, gymID, id string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE discounts SET is_active = FALSE WHERE id = $1 AND gym_id = $2`,
		id, gymID,
	)
	if err != nil {
		return fmt.Errorf("disable discount: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDiscountNotFound
	}
	return nil
}
