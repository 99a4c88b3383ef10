package service

import (
	"context"

	"github.com/mmeshcher/gym-pos/internal/model"
)

// GetPosTransaction возвращает кассовую операцию зала.
func (s *Service) GetPosTransaction(ctx context.Context, gymID, id string) (*model.PosTransaction, error) {
	return s.repo.GetPosTransaction(ctx, gymID, id)
}

// ListPosTransactions возвращает страницу кассовых операций зала.
func (s *Service) ListPosTransactions(ctx context.Context, gymID string, f model.PosTransactionFilter) ([]model.PosTransaction, int64, error) {
	res, total, err := s.repo.ListPosTransactions(ctx, gymID, f)
	if err != nil {
		return nil, 0, err
	}
	if res == nil {
		res = []model.PosTransaction{}
	}
	return res, total, nil
}

// UpdatePosTransaction меняет статус или заметку операции.
// Смена статуса не затрагивает кошельки, комиссии и счётчики скидок.
func (s *Service) UpdatePosTransaction(ctx context.Context, gymID, id string, status *model.PosStatus, notes *string) (*model.PosTransaction, error) {
	if status != nil && !status.Valid() {
		return nil, ErrInvalidStatus
	}
	return s.repo.UpdatePosTransaction(ctx, gymID, id, status, notes)
}

// GetPosStats возвращает агрегаты кассы зала.
func (s *Service) GetPosStats(ctx context.Context, gymID string) (*model.PosStats, error) {
	return s.repo.GetPosStats(ctx, gymID)
}

// ListGymInvoices возвращает платформенные комиссии зала за месяц.
func (s *Service) ListGymInvoices(ctx context.Context, gymID string, month, year int) ([]model.GymInvoice, error) {
	res, err := s.repo.ListGymInvoices(ctx, gymID, month, year)
	if err != nil {
		return nil, err
	}
	if res == nil {
		res = []model.GymInvoice{}
	}
	return res, nil
}
