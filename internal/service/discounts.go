package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmeshcher/gym-pos/internal/model"
)

// DiscountInput описывает создание скидки.
type DiscountInput struct {
	Code        string             `json:"code"`
	Name        string             `json:"name"`
	Type        model.DiscountType `json:"type"`
	Value       decimal.Decimal    `json:"value"`
	MinPurchase *decimal.Decimal   `json:"minPurchase,omitempty"`
	MaxDiscount *decimal.Decimal   `json:"maxDiscount,omitempty"`
	ValidFrom   *time.Time         `json:"validFrom,omitempty"`
	ValidUntil  *time.Time         `json:"validUntil,omitempty"`
	UsageLimit  *int               `json:"usageLimit,omitempty"`
	IsActive    *bool              `json:"isActive,omitempty"`
}

// DiscountPatch описывает частичное изменение скидки. Пустые поля не меняются.
type DiscountPatch struct {
	Code        *string             `json:"code,omitempty"`
	Name        *string             `json:"name,omitempty"`
	Type        *model.DiscountType `json:"type,omitempty"`
	Value       *decimal.Decimal    `json:"value,omitempty"`
	MinPurchase *decimal.Decimal    `json:"minPurchase,omitempty"`
	MaxDiscount *decimal.Decimal    `json:"maxDiscount,omitempty"`
	ValidFrom   *time.Time          `json:"validFrom,omitempty"`
	ValidUntil  *time.Time          `json:"validUntil,omitempty"`
	UsageLimit  *int                `json:"usageLimit,omitempty"`
	IsActive    *bool               `json:"isActive,omitempty"`
}

// CreateDiscount создаёт скидку зала.
func (s *Service) CreateDiscount(ctx context.Context, gymID string, in DiscountInput) (*model.Discount, error) {
	d := &model.Discount{
		GymID:       gymID,
		Code:        strings.TrimSpace(in.Code),
		Name:        strings.TrimSpace(in.Name),
		Type:        in.Type,
		Value:       in.Value,
		MinPurchase: in.MinPurchase,
		MaxDiscount: in.MaxDiscount,
		ValidFrom:   in.ValidFrom,
		ValidUntil:  in.ValidUntil,
		UsageLimit:  in.UsageLimit,
		IsActive:    true,
	}
	if in.IsActive != nil {
		d.IsActive = *in.IsActive
	}

	if err := validateDiscount(d); err != nil {
		return nil, err
	}
	if err := s.repo.CreateDiscount(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// GetDiscount возвращает скидку зала.
func (s *Service) GetDiscount(ctx context.Context, gymID, id string) (*model.Discount, error) {
	return s.repo.GetDiscount(ctx, gymID, id)
}

// ListDiscounts возвращает страницу скидок зала.
func (s *Service) ListDiscounts(ctx context.Context, gymID string, f model.DiscountFilter) ([]model.Discount, int64, error) {
	res, total, err := s.repo.ListDiscounts(ctx, gymID, f)
	if err != nil {
		return nil, 0, err
	}
	if res == nil {
		res = []model.Discount{}
	}
	return res, total, nil
}

// UpdateDiscount применяет частичное изменение к скидке зала.
func (s *Service) UpdateDiscount(ctx context.Context, gymID, id string, p DiscountPatch) (*model.Discount, error) {
	d, err := s.repo.GetDiscount(ctx, gymID, id)
	if err != nil {
		return nil, err
	}

	if p.Code != nil {
		d.Code = strings.TrimSpace(*p.Code)
	}
	if p.Name != nil {
		d.Name = strings.TrimSpace(*p.Name)
	}
	if p.Type != nil {
		d.Type = *p.Type
	}
	if p.Value != nil {
		d.Value = *p.Value
	}
	if p.MinPurchase != nil {
		d.MinPurchase = p.MinPurchase
	}
	if p.MaxDiscount != nil {
		d.MaxDiscount = p.MaxDiscount
	}
	if p.ValidFrom != nil {
		d.ValidFrom = p.ValidFrom
	}
	if p.ValidUntil != nil {
		d.ValidUntil = p.ValidUntil
	}
	if p.UsageLimit != nil {
		d.UsageLimit = p.UsageLimit
	}
	if p.IsActive != nil {
		d.IsActive = *p.IsActive
	}

	if err := validateDiscount(d); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateDiscount(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// DisableDiscount отключает скидку зала.
func (s *Service) DisableDiscount(ctx context.Context, gymID, id string) error {
	return s.repo.DisableDiscount(ctx, gymID, id)
}

func validateDiscount(d *model.Discount) error {
	switch {
	case d.Code == "":
		return fmt.Errorf("%w: code is required", ErrInvalidDiscount)
	case d.Name == "":
		return fmt.Errorf("%w: name is required", ErrInvalidDiscount)
	case !d.Type.Valid():
		return fmt.Errorf("%w: unknown type %q", ErrInvalidDiscount, d.Type)
	case !d.Value.IsPositive():
		return fmt.Errorf("%w: value must be positive", ErrInvalidDiscount)
	case d.Type == model.DiscountTypePercentage && d.Value.GreaterThan(hundred):
		return fmt.Errorf("%w: percentage must not exceed 100", ErrInvalidDiscount)
	case d.MinPurchase != nil && d.MinPurchase.IsNegative():
		return fmt.Errorf("%w: minPurchase must not be negative", ErrInvalidDiscount)
	case d.MaxDiscount != nil && !d.MaxDiscount.IsPositive():
		return fmt.Errorf("%w: maxDiscount must be positive", ErrInvalidDiscount)
	case d.ValidFrom != nil && d.ValidUntil != nil && d.ValidUntil.Before(*d.ValidFrom):
		return fmt.Errorf("%w: validUntil is before validFrom", ErrInvalidDiscount)
	case d.UsageLimit != nil && *d.UsageLimit < 1:
		return fmt.Errorf("%w: usageLimit must be at least 1", ErrInvalidDiscount)
	}
	return nil
}
