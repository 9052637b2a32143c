package service

import (
	"time"

	"github.com/cokechen1108-source/crypto-pnl/internal/models"
)

// PnlService предоставляет агрегированную статистику PNL.
//
// Все агрегаты считаются на стороне БД по закрытым сделкам;
// открытые позиции в статистику не входят.
type PnlService struct {
	pnlRepo PnlRepositoryInterface
}

// NewPnlService создает новый экземпляр PnlService
func NewPnlService(pnlRepo PnlRepositoryInterface) *PnlService {
	return &PnlService{pnlRepo: pnlRepo}
}

// GetDailyPnl возвращает суточные агрегаты за период.
// from/to опциональны: nil означает без ограничения с соответствующей стороны.
func (s *PnlService) GetDailyPnl(accountID string, from, to *time.Time) ([]*models.DailyPnl, error) {
	if accountID == "" {
		return nil, ErrAccountIDRequired
	}
	return s.pnlRepo.GetDailyPnl(accountID, from, to)
}

// GetMonthlyPnl возвращает месячные агрегаты за период
func (s *PnlService) GetMonthlyPnl(accountID string, from, to *time.Time) ([]*models.MonthlyPnl, error) {
	if accountID == "" {
		return nil, ErrAccountIDRequired
	}
	return s.pnlRepo.GetMonthlyPnl(accountID, from, to)
}

// GetTotalPnl возвращает суммарную статистику аккаунта за все время
func (s *PnlService) GetTotalPnl(accountID string) (*models.TotalPnl, error) {
	if accountID == "" {
		return nil, ErrAccountIDRequired
	}
	return s.pnlRepo.GetTotalPnl(accountID)
}

// GetActivityDays возвращает дни (YYYY-MM-DD), в которые была активность.
// Используется фронтендом для подсветки календаря.
func (s *PnlService) GetActivityDays(accountID string) ([]string, error) {
	if accountID == "" {
		return nil, ErrAccountIDRequired
	}
	return s.pnlRepo.GetActivityDays(accountID)
}
