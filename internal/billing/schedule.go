package billing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmeshcher/gym-pos/internal/model"
)

// MonthsBetween возвращает число календарных месяцев от start до end включительно.
// Начало и конец в одном месяце дают 1.
func MonthsBetween(start, end time.Time) int {
	return (end.Year()-start.Year())*12 + int(end.Month()) - int(start.Month()) + 1
}

// ScheduleOptions задаёт параметры графика платформенных комиссий.
type ScheduleOptions struct {
	Fee decimal.Decimal
	// ExtraMonth добавляет ещё одну запись сверх числа охваченных месяцев.
	ExtraMonth bool
}

// InvoiceSchedule строит записи комиссии по одной на каждый месяц,
// охваченный самой длинной позицией с длительностью. Без таких позиций записей нет.
func InvoiceSchedule(gymID string, lines []model.PosTransactionItem, now time.Time, opts ScheduleOptions) []model.GymInvoice {
	var longest time.Time
	found := false
	for _, l := range lines {
		if l.EndDate == nil {
			continue
		}
		if !found || l.EndDate.After(longest) {
			longest = *l.EndDate
			found = true
		}
	}
	if !found {
		return nil
	}

	months := MonthsBetween(now, longest)
	if months < 1 {
		return nil
	}
	if opts.ExtraMonth {
		months++
	}

	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	invoices := make([]model.GymInvoice, 0, months)
	for i := 0; i < months; i++ {
		period := first.AddDate(0, i, 0)
		invoices = append(invoices, model.GymInvoice{
			GymID:           gymID,
			Fee:             opts.Fee,
			TransactionDate: now,
			Month:           int(period.Month()),
			Year:            period.Year(),
		})
	}
	return invoices
}
