// Package billing содержит денежные правила кассы: расчёт позиций, скидок и графика комиссий.
package billing

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmeshcher/gym-pos/internal/model"
)

var (
	// ErrInvalidLineItems возвращается, если позиции продажи пусты, некорректны или ссылаются на неизвестные товары.
	ErrInvalidLineItems = errors.New("invalid line items")
	// ErrDiscountInactive возвращается для отключённой скидки.
	ErrDiscountInactive = errors.New("discount is not active")
	// ErrDiscountExpired возвращается, если текущее время вне окна действия скидки.
	ErrDiscountExpired = errors.New("discount is outside its validity window")
	// ErrDiscountMinimumNotMet возвращается, если сумма покупки меньше минимальной для скидки.
	ErrDiscountMinimumNotMet = errors.New("discount minimum purchase not met")
	// ErrUnknownDiscountType возвращается для скидки с неизвестным типом.
	ErrUnknownDiscountType = errors.New("unknown discount type")
)

var hundred = decimal.NewFromInt(100)

const (
	// MaxQuantity ограничивает количество в одной позиции продажи.
	MaxQuantity   = 1000
	// MaxAccessDays ограничивает срок доступа, продаваемый одной позицией.
	MaxAccessDays = 3660
)

// LineItem описывает запрошенную позицию продажи.
type LineItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// ResolveLines сопоставляет позиции с товарами зала и возвращает снимки позиций и подытог.
// Для товаров с длительностью проставляются даты начала и окончания доступа.
func ResolveLines(items []LineItem, products []model.Product, now time.Time) ([]model.PosTransactionItem, decimal.Decimal, error) {
	if len(items) == 0 {
		return nil, decimal.Zero, ErrInvalidLineItems
	}

	byID := make(map[string]model.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	requested := make(map[string]struct{}, len(items))
	for _, it := range items {
		if it.Quantity < 1 || it.Quantity > MaxQuantity {
			return nil, decimal.Zero, ErrInvalidLineItems
		}
		requested[it.ProductID] = struct{}{}
	}
	if len(byID) != len(requested) {
		return nil, decimal.Zero, ErrInvalidLineItems
	}

	subtotal := decimal.Zero
	lines := make([]model.PosTransactionItem, 0, len(items))
	for _, it := range items {
		p, ok := byID[it.ProductID]
		if !ok {
			return nil, decimal.Zero, ErrInvalidLineItems
		}

		lineTotal := p.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
		line := model.PosTransactionItem{
			ProductID: p.ID,
			Name:      p.Name,
			Category:  p.Category,
			Price:     p.Price,
			Quantity:  it.Quantity,
			Subtotal:  lineTotal,
		}
		if p.Duration != nil && *p.Duration > 0 {
			days := *p.Duration * it.Quantity
			if *p.Duration > MaxAccessDays || days > MaxAccessDays {
				return nil, decimal.Zero, ErrInvalidLineItems
			}
			start := now
			end := now.AddDate(0, 0, days)
			line.StartDate = &start
			line.EndDate = &end
		}

		subtotal = subtotal.Add(lineTotal)
		lines = append(lines, line)
	}

	return lines, subtotal, nil
}

// DiscountAmount проверяет применимость скидки и возвращает сумму скидки для подытога.
// Результат всегда в пределах [0, subtotal].
func DiscountAmount(d *model.Discount, subtotal decimal.Decimal, now time.Time) (decimal.Decimal, error) {
	if !d.IsActive {
		return decimal.Zero, ErrDiscountInactive
	}
	if d.ValidFrom != nil && now.Before(*d.ValidFrom) {
		return decimal.Zero, ErrDiscountExpired
	}
	if d.ValidUntil != nil && now.After(*d.ValidUntil) {
		return decimal.Zero, ErrDiscountExpired
	}
	if d.MinPurchase != nil && subtotal.LessThan(*d.MinPurchase) {
		return decimal.Zero, ErrDiscountMinimumNotMet
	}

	var amount decimal.Decimal
	switch d.Type {
	case model.DiscountTypePercentage:
		amount = subtotal.Mul(d.Value).Div(hundred).Round(2)
		if d.MaxDiscount != nil && amount.GreaterThan(*d.MaxDiscount) {
			amount = *d.MaxDiscount
		}
	case model.DiscountTypeFixed:
		amount = decimal.Min(d.Value, subtotal)
	default:
		return decimal.Zero, ErrUnknownDiscountType
	}

	if amount.IsNegative() {
		return decimal.Zero, nil
	}
	if amount.GreaterThan(subtotal) {
		return subtotal, nil
	}
	return amount, nil
}
