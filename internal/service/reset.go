package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// StartDailyReset запускает фоновый процесс обнуления дневной выручки кошельков
// в полночь по часовому поясу сервиса.
func (s *Service) StartDailyReset(ctx context.Context) {
	go func() {
		for {
			wait := nextMidnight(s.now()).Sub(s.now())
			timer := time.NewTimer(wait)

			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}

			s.resetTodayIncome(ctx)
		}
	}()
}

func (s *Service) resetTodayIncome(ctx context.Context) {
	n, err := s.repo.ResetTodayIncome(ctx)
	if err != nil {
		s.logger.Error("failed to reset today income", zap.Error(err))
		return
	}
	s.logger.Info("today income reset", zap.Int64("wallets", n))
}

func nextMidnight(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, now.Location())
}
