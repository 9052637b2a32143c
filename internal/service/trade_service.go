package service

import (
	"errors"
	"time"

	"github.com/cokechen1108-source/crypto-pnl/internal/models"
	"github.com/cokechen1108-source/crypto-pnl/internal/repository"
	"github.com/cokechen1108-source/crypto-pnl/pkg/utils"
)

// Ошибки сервиса сделок
var (
	ErrAccountIDRequired = errors.New("account_id is required")
	ErrInvalidDay        = errors.New("day must be in YYYY-MM-DD format")
)

// Пределы пагинации
const (
	defaultPageSize = 50
	maxPageSize     = 1000
)

// TradeService предоставляет чтение восстановленных сделок.
//
// Сделки никогда не изменяются через этот сервис: единственный способ
// их записать - полная перестройка координатором.
type TradeService struct {
	tradeRepo TradeRepositoryInterface
}

// NewTradeService создает новый экземпляр TradeService
func NewTradeService(tradeRepo TradeRepositoryInterface) *TradeService {
	return &TradeService{tradeRepo: tradeRepo}
}

// ListTradesRequest представляет параметры выборки сделок
type ListTradesRequest struct {
	AccountID string `json:"account_id"`
	Symbol    string `json:"symbol,omitempty"`
	// Day фильтрует сделки, затронувшие календарный день (вход ИЛИ выход),
	// формат YYYY-MM-DD, UTC
	Day      string `json:"day,omitempty"`
	Page     int    `json:"page,omitempty"`
	PageSize int    `json:"page_size,omitempty"`
}

// TradePage - страница сделок с общим количеством для пагинации
type TradePage struct {
	Trades   []*models.Trade `json:"trades"`
	Total    int             `json:"total"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
}

// ListTrades возвращает страницу сделок аккаунта, новые сначала.
//
// page нумеруется с 1; page_size по умолчанию 50, максимум 1000.
func (s *TradeService) ListTrades(req *ListTradesRequest) (*TradePage, error) {
	if req.AccountID == "" {
		return nil, ErrAccountIDRequired
	}

	page := req.Page
	if page < 1 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	filter := repository.TradeFilter{
		AccountID: req.AccountID,
		Symbol:    req.Symbol,
		Limit:     pageSize,
		Offset:    (page - 1) * pageSize,
	}

	if req.Day != "" {
		day, err := time.Parse("2006-01-02", req.Day)
		if err != nil {
			return nil, ErrInvalidDay
		}
		start := utils.GetDayStartFrom(day)
		end := utils.GetDayEndFrom(day)
		filter.DayStart = &start
		filter.DayEnd = &end
	}

	trades, err := s.tradeRepo.List(filter)
	if err != nil {
		return nil, err
	}

	total, err := s.tradeRepo.Count(filter)
	if err != nil {
		return nil, err
	}

	if trades == nil {
		trades = []*models.Trade{}
	}

	return &TradePage{
		Trades:   trades,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

// GetTrade возвращает сделку с ногами и привязками к сырым филлам
func (s *TradeService) GetTrade(id int64) (*models.Trade, error) {
	return s.tradeRepo.GetByID(id)
}
