package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mmeshcher/gym-pos/internal/billing"
	"github.com/mmeshcher/gym-pos/internal/model"
	"github.com/mmeshcher/gym-pos/internal/repository"
)

// CreatePosTransactionRequest описывает запрос на продажу.
type CreatePosTransactionRequest struct {
	MemberID      *string             `json:"memberId,omitempty"`
	Items         []billing.LineItem  `json:"items"`
	DiscountID    *string             `json:"discountId,omitempty"`
	PaymentMethod model.PaymentMethod `json:"paymentMethod"`
	Notes         string              `json:"notes,omitempty"`
}

// CreatePosTransaction проводит продажу целиком в одной транзакции БД:
// позиции, скидка, операция, зачисление в кошелёк и платформенные комиссии.
// Повтор не выполняется: при ошибке не сохраняется ничего.
func (s *Service) CreatePosTransaction(ctx context.Context, gymID, staffID string, req CreatePosTransactionRequest) (*model.PosTransaction, error) {
	walletType, err := req.PaymentMethod.WalletType()
	if err != nil {
		return nil, err
	}

	now := s.now()
	var result *model.PosTransaction

	err = s.repo.WithinTx(ctx, func(tx repository.TxStore) error {
		if req.MemberID != nil {
			if err := tx.CheckMember(ctx, gymID, *req.MemberID); err != nil {
				return err
			}
		}

		products, err := tx.FindProductsByIDs(ctx, gymID, productIDs(req.Items))
		if err != nil {
			return err
		}

		lines, subtotal, err := billing.ResolveLines(req.Items, products, now)
		if err != nil {
			return err
		}

		var discount *model.Discount
		discountAmount := decimal.Zero
		if req.DiscountID != nil {
			discount, err = tx.FindDiscount(ctx, gymID, *req.DiscountID)
			if err != nil {
				return err
			}
			discountAmount, err = billing.DiscountAmount(discount, subtotal, now)
			if err != nil {
				return err
			}
		}

		trx := &model.PosTransaction{
			GymID:          gymID,
			StaffID:        staffID,
			MemberID:       req.MemberID,
			Subtotal:       subtotal,
			DiscountAmount: discountAmount,
			Total:          subtotal.Sub(discountAmount),
			PaymentMethod:  req.PaymentMethod,
			Status:         model.PosStatusCompleted,
			Notes:          req.Notes,
			CreatedAt:      now,
		}
		if discount != nil {
			trx.DiscountID = &discount.ID
		}

		if err := tx.InsertPosTransaction(ctx, trx); err != nil {
			return err
		}

		for i := range lines {
			lines[i].TransactionID = trx.ID
		}
		if err := tx.InsertPosTransactionItems(ctx, lines); err != nil {
			return err
		}
		trx.Items = lines

		if discount != nil {
			if err := tx.IncrementDiscountUsage(ctx, discount.ID); err != nil {
				return err
			}
		}

		ref := trx.ID
		_, err = s.post(ctx, tx, gymID, walletType, ledgerEntry{
			kind:        model.TransactionTypeIncome,
			amount:      trx.Total,
			description: fmt.Sprintf("POS transaction %s", trx.ID),
			refType:     model.ReferenceTypePosTransaction,
			refID:       &ref,
			at:          now,
		})
		if err != nil {
			return err
		}

		invoices := billing.InvoiceSchedule(gymID, lines, now, billing.ScheduleOptions{
			Fee:        s.opts.PlatformFee,
			ExtraMonth: s.opts.InvoiceExtraMonth,
		})
		for i := range invoices {
			invoices[i].TransactionID = &ref
		}
		if err := tx.AppendGymInvoices(ctx, invoices); err != nil {
			return err
		}

		result = trx
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("pos transaction settled",
		zap.String("gymID", gymID),
		zap.String("transactionID", result.ID),
		zap.String("total", result.Total.String()),
		zap.String("paymentMethod", string(result.PaymentMethod)),
	)

	return result, nil
}

func productIDs(items []billing.LineItem) []string {
	seen := make(map[string]struct{}, len(items))
	ids := make([]string, 0, len(items))
	for _, it := range items {
		if _, ok := seen[it.ProductID]; ok {
			continue
		}
		seen[it.ProductID] = struct{}{}
		ids = append(ids, it.ProductID)
	}
	return ids
}
