// Package model содержит доменные сущности POS-сервиса спортзалов.
package model

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ProductCategory описывает категорию товара или услуги.
type ProductCategory string

const (
	ProductCategoryMembership ProductCategory = "membership"
	ProductCategoryClass      ProductCategory = "class"
	ProductCategoryRetail     ProductCategory = "retail"
)

// Product описывает товар или услугу зала. Цена неизменна после продажи.
type Product struct {
	ID       string          `json:"id"`
	GymID    string          `json:"gymId"`
	Name     string          `json:"name"`
	Category ProductCategory `json:"category"`
	Price    decimal.Decimal `json:"price"`
	Duration *int            `json:"duration,omitempty"`
	Capacity *int            `json:"capacity,omitempty"`
}

// DiscountType описывает способ расчёта скидки.
type DiscountType string

const (
	DiscountTypePercentage DiscountType = "percentage"
	DiscountTypeFixed      DiscountType = "fixed"
)

// Valid сообщает, является ли тип скидки известным.
func (t DiscountType) Valid() bool {
	return t == DiscountTypePercentage || t == DiscountTypeFixed
}

// Discount описывает промо-правило зала. Скидки не удаляются, а отключаются.
type Discount struct {
	ID          string           `json:"id"`
	GymID       string           `json:"gymId"`
	Code        string           `json:"code"`
	Name        string           `json:"name"`
	Type        DiscountType     `json:"type"`
	Value       decimal.Decimal  `json:"value"`
	MinPurchase *decimal.Decimal `json:"minPurchase,omitempty"`
	MaxDiscount *decimal.Decimal `json:"maxDiscount,omitempty"`
	ValidFrom   *time.Time       `json:"validFrom,omitempty"`
	ValidUntil  *time.Time       `json:"validUntil,omitempty"`
	UsageLimit  *int             `json:"usageLimit,omitempty"`
	UsedCount   int              `json:"usedCount"`
	IsActive    bool             `json:"isActive"`
	CreatedAt   time.Time        `json:"createdAt"`
}

// DiscountFilter задаёт выборку скидок зала.
type DiscountFilter struct {
	Type     DiscountType
	IsActive *bool
	Search   string
	Page     int
	Limit    int
}

// PaymentMethod описывает способ оплаты на кассе.
type PaymentMethod string

const (
	PaymentMethodCash     PaymentMethod = "cash"
	PaymentMethodCard     PaymentMethod = "card"
	PaymentMethodQRIS     PaymentMethod = "qris"
	PaymentMethodTransfer PaymentMethod = "transfer"
)

// ErrUnknownPaymentMethod возвращается для способа оплаты без соответствующего кошелька.
var ErrUnknownPaymentMethod = errors.New("unknown payment method")

// WalletType возвращает тип кошелька, в который зачисляется оплата.
func (m PaymentMethod) WalletType() (WalletType, error) {
	switch m {
	case PaymentMethodCash:
		return WalletTypeCash, nil
	case PaymentMethodCard:
		return WalletTypeCard, nil
	case PaymentMethodQRIS:
		return WalletTypeQRIS, nil
	case PaymentMethodTransfer:
		return WalletTypeBankTransfer, nil
	}
	return "", ErrUnknownPaymentMethod
}

// PosStatus описывает статус кассовой операции.
type PosStatus string

const (
	PosStatusPending   PosStatus = "pending"
	PosStatusCompleted PosStatus = "completed"
	PosStatusCancelled PosStatus = "cancelled"
	PosStatusRefunded  PosStatus = "refunded"
)

// Valid сообщает, является ли статус известным.
func (s PosStatus) Valid() bool {
	switch s {
	case PosStatusPending, PosStatusCompleted, PosStatusCancelled, PosStatusRefunded:
		return true
	}
	return false
}

// PosTransaction описывает одну продажу на кассе.
// Инвариант: Total = Subtotal - DiscountAmount, Subtotal = сумма Items[i].Subtotal.
type PosTransaction struct {
	ID             string               `json:"id"`
	GymID          string               `json:"gymId"`
	StaffID        string               `json:"staffId"`
	MemberID       *string              `json:"memberId,omitempty"`
	DiscountID     *string              `json:"discountId,omitempty"`
	Subtotal       decimal.Decimal      `json:"subtotal"`
	DiscountAmount decimal.Decimal      `json:"discountAmount"`
	Total          decimal.Decimal      `json:"total"`
	PaymentMethod  PaymentMethod        `json:"paymentMethod"`
	Status         PosStatus            `json:"status"`
	Notes          string               `json:"notes,omitempty"`
	CreatedAt      time.Time            `json:"createdAt"`
	Items          []PosTransactionItem `json:"items"`
}

// PosTransactionItem хранит снимок товара на момент продажи.
type PosTransactionItem struct {
	ID            string          `json:"id"`
	TransactionID string          `json:"transactionId"`
	ProductID     string          `json:"productId"`
	Name          string          `json:"name"`
	Category      ProductCategory `json:"category"`
	Price         decimal.Decimal `json:"price"`
	Quantity      int             `json:"quantity"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	StartDate     *time.Time      `json:"startDate,omitempty"`
	EndDate       *time.Time      `json:"endDate,omitempty"`
}

// PosTransactionFilter задаёт выборку кассовых операций.
type PosTransactionFilter struct {
	Status    PosStatus
	MemberID  string
	StartDate *time.Time
	EndDate   *time.Time
	Page      int
	Limit     int
}

// PosStats содержит агрегированную статистику кассы зала.
type PosStats struct {
	TotalTransactions  int64           `json:"totalTransactions"`
	TotalRevenue       decimal.Decimal `json:"totalRevenue"`
	TotalDiscounts     int64           `json:"totalDiscounts"`
	TotalDiscountUsage int64           `json:"totalDiscountUsage"`
}

// WalletType описывает кошелёк зала по способу оплаты.
type WalletType string

const (
	WalletTypeCash         WalletType = "cash"
	WalletTypeCard         WalletType = "card"
	WalletTypeQRIS         WalletType = "qris"
	WalletTypeBankTransfer WalletType = "bank_transfer"
)

// Valid сообщает, является ли тип кошелька известным.
func (t WalletType) Valid() bool {
	switch t {
	case WalletTypeCash, WalletTypeCard, WalletTypeQRIS, WalletTypeBankTransfer:
		return true
	}
	return false
}

// Wallet хранит текущий баланс одного кошелька зала.
type Wallet struct {
	ID               string          `json:"id"`
	GymID            string          `json:"gymId"`
	Type             WalletType      `json:"walletType"`
	InitialBalance   decimal.Decimal `json:"initialBalance"`
	CurrentBalance   decimal.Decimal `json:"currentBalance"`
	TotalIncome      decimal.Decimal `json:"totalIncome"`
	TotalWithdrawals decimal.Decimal `json:"totalWithdrawals"`
	TotalFees        decimal.Decimal `json:"totalFees"`
	TodayIncome      decimal.Decimal `json:"todayIncome"`
	IsActive         bool            `json:"isActive"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

// WalletDelta описывает приращения счётчиков кошелька в одной проводке.
type WalletDelta struct {
	Balance     decimal.Decimal
	Income      decimal.Decimal
	Withdrawals decimal.Decimal
	Fees        decimal.Decimal
	TodayIncome decimal.Decimal
}

// TransactionType описывает вид проводки по кошельку.
type TransactionType string

const (
	TransactionTypeIncome     TransactionType = "income"
	TransactionTypeWithdrawal TransactionType = "withdrawal"
	TransactionTypeFee        TransactionType = "fee"
	TransactionTypeAdjustment TransactionType = "adjustment"
)

// Valid сообщает, является ли вид проводки известным.
func (t TransactionType) Valid() bool {
	switch t {
	case TransactionTypeIncome, TransactionTypeWithdrawal, TransactionTypeFee, TransactionTypeAdjustment:
		return true
	}
	return false
}

// ReferenceType описывает источник проводки.
type ReferenceType string

const (
	ReferenceTypePosTransaction ReferenceType = "pos_transaction"
	ReferenceTypeManual         ReferenceType = "manual"
)

// WalletTransaction описывает неизменяемую запись журнала кошелька.
// Amount хранится со знаком: сумма всех Amount равна изменению баланса.
type WalletTransaction struct {
	ID            string          `json:"id"`
	WalletID      string          `json:"walletId"`
	Type          TransactionType `json:"transactionType"`
	Amount        decimal.Decimal `json:"amount"`
	FeeAmount     decimal.Decimal `json:"feeAmount"`
	NetAmount     decimal.Decimal `json:"netAmount"`
	Description   string          `json:"description,omitempty"`
	ReferenceType ReferenceType   `json:"referenceType"`
	ReferenceID   *string         `json:"referenceId,omitempty"`
	ProcessedAt   time.Time       `json:"processedAt"`
}

// WalletTransactionFilter задаёт выборку журнала кошелька.
type WalletTransactionFilter struct {
	Type  TransactionType
	Page  int
	Limit int
}

// Reconciliation сравнивает баланс кошелька с суммой его журнала.
type Reconciliation struct {
	WalletID        string          `json:"walletId"`
	CurrentBalance  decimal.Decimal `json:"currentBalance"`
	ExpectedBalance decimal.Decimal `json:"expectedBalance"`
	Difference      decimal.Decimal `json:"difference"`
	Consistent      bool            `json:"consistent"`
}

// GymInvoice описывает платформенную комиссию зала за месяц.
type GymInvoice struct {
	ID              string          `json:"id"`
	GymID           string          `json:"gymId"`
	TransactionID   *string         `json:"transactionId,omitempty"`
	Fee             decimal.Decimal `json:"fee"`
	TransactionDate time.Time       `json:"transactionDate"`
	Month           int             `json:"month"`
	Year            int             `json:"year"`
}

// Page описывает метаданные постраничной выдачи.
type Page struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int64 `json:"totalPages"`
}

// NewPage рассчитывает метаданные страницы.
func NewPage(total int64, page, limit int) Page {
	p := Page{Total: total, Page: page, Limit: limit}
	if limit > 0 {
		p.TotalPages = (total + int64(limit) - 1) / int64(limit)
	}
	return p
}
