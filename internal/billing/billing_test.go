package billing

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/gym-pos/internal/model"
)

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func decPtr(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func intPtr(v int) *int { return &v }

func TestResolveLines(t *testing.T) {
	now := time.Date(2026, time.January, 20, 10, 0, 0, 0, time.UTC)
	products := []model.Product{
		{ID: "p-retail", Name: "Protein bar", Category: model.ProductCategoryRetail, Price: dec(100000)},
		{ID: "p-member", Name: "Monthly pass", Category: model.ProductCategoryMembership, Price: dec(300000), Duration: intPtr(30)},
		{ID: "p-trial", Name: "Free trial", Category: model.ProductCategoryMembership, Price: dec(0), Duration: intPtr(30)},
	}

	tests := []struct {
		name         string
		items        []LineItem
		products     []model.Product
		wantSubtotal string
		wantErr      error
	}{
		{
			name:         "single retail line",
			items:        []LineItem{{ProductID: "p-retail", Quantity: 2}},
			products:     products[:1],
			wantSubtotal: "200000",
		},
		{
			name:         "mixed lines",
			items:        []LineItem{{ProductID: "p-retail", Quantity: 1}, {ProductID: "p-member", Quantity: 2}},
			products:     products[:2],
			wantSubtotal: "700000",
		},
		{
			name:     "empty items",
			items:    nil,
			products: products,
			wantErr:  ErrInvalidLineItems,
		},
		{
			name:     "unknown product",
			items:    []LineItem{{ProductID: "p-retail", Quantity: 1}, {ProductID: "p-missing", Quantity: 1}},
			products: products[:1],
			wantErr:  ErrInvalidLineItems,
		},
		{
			name:     "zero quantity",
			items:    []LineItem{{ProductID: "p-retail", Quantity: 0}},
			products: products[:1],
			wantErr:  ErrInvalidLineItems,
		},
		{
			name:     "quantity above limit",
			items:    []LineItem{{ProductID: "p-retail", Quantity: MaxQuantity + 1}},
			products: products[:1],
			wantErr:  ErrInvalidLineItems,
		},
		{
			name:     "huge quantity of free duration product",
			items:    []LineItem{{ProductID: "p-trial", Quantity: math.MaxInt/30 + 1}},
			products: products[2:],
			wantErr:  ErrInvalidLineItems,
		},
		{
			name:     "access span above limit",
			items:    []LineItem{{ProductID: "p-member", Quantity: 200}},
			products: products[1:2],
			wantErr:  ErrInvalidLineItems,
		},
		{
			name:         "quantity at limit",
			items:        []LineItem{{ProductID: "p-retail", Quantity: MaxQuantity}},
			products:     products[:1],
			wantSubtotal: "100000000",
		},
		{
			name:         "repeated product counted once for resolution",
			items:        []LineItem{{ProductID: "p-retail", Quantity: 1}, {ProductID: "p-retail", Quantity: 3}},
			products:     products[:1],
			wantSubtotal: "400000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines, subtotal, err := ResolveLines(tt.items, tt.products, now)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSubtotal, subtotal.String())

			sum := decimal.Zero
			for _, l := range lines {
				sum = sum.Add(l.Subtotal)
			}
			assert.True(t, sum.Equal(subtotal), "sum of line subtotals must equal subtotal")
		})
	}
}

func TestResolveLines_DurationDates(t *testing.T) {
	now := time.Date(2026, time.January, 20, 10, 0, 0, 0, time.UTC)
	products := []model.Product{
		{ID: "p-member", Name: "Monthly pass", Category: model.ProductCategoryMembership, Price: dec(300000), Duration: intPtr(30)},
	}

	lines, _, err := ResolveLines([]LineItem{{ProductID: "p-member", Quantity: 2}}, products, now)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	require.NotNil(t, lines[0].StartDate)
	require.NotNil(t, lines[0].EndDate)

	assert.Equal(t, now, *lines[0].StartDate)
	assert.Equal(t, time.Date(2026, time.March, 21, 10, 0, 0, 0, time.UTC), *lines[0].EndDate)
}

func TestDiscountAmount(t *testing.T) {
	now := time.Date(2026, time.January, 20, 10, 0, 0, 0, time.UTC)
	yesterday := now.Add(-24 * time.Hour)
	tomorrow := now.Add(24 * time.Hour)

	tests := []struct {
		name       string
		discount   model.Discount
		subtotal   int64
		wantAmount string
		wantErr    error
	}{
		{
			name:       "percentage clamped to max discount",
			discount:   model.Discount{Type: model.DiscountTypePercentage, Value: dec(20), MaxDiscount: decPtr(30000), IsActive: true},
			subtotal:   200000,
			wantAmount: "30000",
		},
		{
			name:       "percentage under max discount",
			discount:   model.Discount{Type: model.DiscountTypePercentage, Value: dec(10), MaxDiscount: decPtr(30000), IsActive: true},
			subtotal:   200000,
			wantAmount: "20000",
		},
		{
			name:       "fixed clamped to subtotal",
			discount:   model.Discount{Type: model.DiscountTypeFixed, Value: dec(500000), IsActive: true},
			subtotal:   200000,
			wantAmount: "200000",
		},
		{
			name:       "fixed below subtotal",
			discount:   model.Discount{Type: model.DiscountTypeFixed, Value: dec(25000), IsActive: true},
			subtotal:   200000,
			wantAmount: "25000",
		},
		{
			name:     "minimum purchase not met",
			discount: model.Discount{Type: model.DiscountTypeFixed, Value: dec(10000), MinPurchase: decPtr(300000), IsActive: true},
			subtotal: 200000,
			wantErr:  ErrDiscountMinimumNotMet,
		},
		{
			name:     "inactive",
			discount: model.Discount{Type: model.DiscountTypeFixed, Value: dec(10000)},
			subtotal: 200000,
			wantErr:  ErrDiscountInactive,
		},
		{
			name:     "not yet valid",
			discount: model.Discount{Type: model.DiscountTypeFixed, Value: dec(10000), ValidFrom: &tomorrow, IsActive: true},
			subtotal: 200000,
			wantErr:  ErrDiscountExpired,
		},
		{
			name:     "expired",
			discount: model.Discount{Type: model.DiscountTypeFixed, Value: dec(10000), ValidUntil: &yesterday, IsActive: true},
			subtotal: 200000,
			wantErr:  ErrDiscountExpired,
		},
		{
			name:       "inside window",
			discount:   model.Discount{Type: model.DiscountTypeFixed, Value: dec(10000), ValidFrom: &yesterday, ValidUntil: &tomorrow, IsActive: true},
			subtotal:   200000,
			wantAmount: "10000",
		},
		{
			name:     "unknown type",
			discount: model.Discount{Type: "bogo", Value: dec(1), IsActive: true},
			subtotal: 200000,
			wantErr:  ErrUnknownDiscountType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subtotal := dec(tt.subtotal)
			amount, err := DiscountAmount(&tt.discount, subtotal, now)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantAmount, amount.String())

			total := subtotal.Sub(amount)
			assert.False(t, amount.IsNegative())
			assert.False(t, total.IsNegative())
			if tt.discount.MaxDiscount != nil {
				assert.True(t, amount.LessThanOrEqual(*tt.discount.MaxDiscount))
			}
		})
	}
}
