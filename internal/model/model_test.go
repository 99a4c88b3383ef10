package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymentMethodWalletType(t *testing.T) {
	tests := []struct {
		method PaymentMethod
		want   WalletType
	}{
		{PaymentMethodCash, WalletTypeCash},
		{PaymentMethodCard, WalletTypeCard},
		{PaymentMethodQRIS, WalletTypeQRIS},
		{PaymentMethodTransfer, WalletTypeBankTransfer},
	}

	for _, tt := range tests {
		t.Run(string(tt.method), func(t *testing.T) {
			got, err := tt.method.WalletType()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.True(t, got.Valid())
		})
	}

	for _, m := range []PaymentMethod{"", "bank_transfer", "crypto", "CASH"} {
		_, err := m.WalletType()
		assert.ErrorIs(t, err, ErrUnknownPaymentMethod, "method %q", m)
	}
}

func TestEnumsValid(t *testing.T) {
	assert.True(t, DiscountTypePercentage.Valid())
	assert.False(t, DiscountType("bogo").Valid())
	assert.True(t, PosStatusRefunded.Valid())
	assert.False(t, PosStatus("void").Valid())
	assert.True(t, TransactionTypeAdjustment.Valid())
	assert.False(t, TransactionType("refund").Valid())
	assert.False(t, WalletType("transfer").Valid())
}

func TestNewPage(t *testing.T) {
	assert.Equal(t, Page{Total: 0, Page: 1, Limit: 10, TotalPages: 0}, NewPage(0, 1, 10))
	assert.Equal(t, Page{Total: 10, Page: 1, Limit: 10, TotalPages: 1}, NewPage(10, 1, 10))
	assert.Equal(t, Page{Total: 21, Page: 3, Limit: 10, TotalPages: 3}, NewPage(21, 3, 10))
	assert.Equal(t, int64(0), NewPage(5, 1, 0).TotalPages)
}
