package service

import (
	"context"
	"time"

	"github.com/cokechen1108-source/crypto-pnl/internal/models"
	"github.com/cokechen1108-source/crypto-pnl/internal/rebuild"
	"github.com/cokechen1108-source/crypto-pnl/internal/repository"
)

// AccountRepositoryInterface определяет интерфейс репозитория аккаунтов
type AccountRepositoryInterface interface {
	Create(account *models.ExchangeAccount) error
	GetByID(id string) (*models.ExchangeAccount, error)
	GetAll() ([]*models.ExchangeAccount, error)
	UpdateStatus(id, status string) error
	SetLastError(id, errMsg string) error
	Delete(id string) error
}

// ExecutionRepositoryInterface определяет интерфейс репозитория сырых филлов
type ExecutionRepositoryInterface interface {
	BatchInsert(execs []*models.RawExecution) (int64, error)
	ListByAccount(accountID, symbol string) ([]*models.RawExecution, error)
	LatestExecutedAt(accountID string) (*time.Time, error)
	Count(accountID string) (int, error)
}

// FundingRepositoryInterface определяет интерфейс репозитория фандинга
type FundingRepositoryInterface interface {
	BatchInsert(entries []*models.RawFunding) (int64, error)
	LatestFundingAt(accountID string) (*time.Time, error)
}

// TradeRepositoryInterface определяет интерфейс репозитория сделок
type TradeRepositoryInterface interface {
	List(filter repository.TradeFilter) ([]*models.Trade, error)
	Count(filter repository.TradeFilter) (int, error)
	GetByID(id int64) (*models.Trade, error)
}

// PnlRepositoryInterface определяет интерфейс репозитория агрегатов PNL
type PnlRepositoryInterface interface {
	GetDailyPnl(accountID string, from, to *time.Time) ([]*models.DailyPnl, error)
	GetMonthlyPnl(accountID string, from, to *time.Time) ([]*models.MonthlyPnl, error)
	GetTotalPnl(accountID string) (*models.TotalPnl, error)
	GetActivityDays(accountID string) ([]string, error)
}

// Проверяем, что реальные репозитории реализуют интерфейсы
var _ AccountRepositoryInterface = (*repository.AccountRepository)(nil)
var _ ExecutionRepositoryInterface = (*repository.ExecutionRepository)(nil)
var _ FundingRepositoryInterface = (*repository.FundingRepository)(nil)
var _ TradeRepositoryInterface = (*repository.TradeRepository)(nil)
var _ PnlRepositoryInterface = (*repository.PnlRepository)(nil)

// Rebuilder определяет интерфейс координатора перестройки сделок
type Rebuilder interface {
	Rebuild(ctx context.Context, accountID, symbol string, progress rebuild.Progress) (*rebuild.Result, error)
}

var _ Rebuilder = (*rebuild.Coordinator)(nil)

// ============ Интерфейсы сервисов для Dependency Injection ============

// AccountServiceInterface определяет интерфейс сервиса аккаунтов
type AccountServiceInterface interface {
	CreateAccount(req *CreateAccountRequest) (*models.ExchangeAccount, error)
	GetAccounts() ([]*models.ExchangeAccount, error)
	GetAccount(id string) (*models.ExchangeAccount, error)
	SetAccountStatus(id, status string) (*models.ExchangeAccount, error)
	DeleteAccount(id string) error
	Credentials(id string) (*models.Credentials, error)
	MarkSyncError(id string, cause error)
	MarkSynced(id string)
}

// TradeServiceInterface определяет интерфейс сервиса сделок
type TradeServiceInterface interface {
	ListTrades(req *ListTradesRequest) (*TradePage, error)
	GetTrade(id int64) (*models.Trade, error)
}

// PnlServiceInterface определяет интерфейс сервиса PNL-агрегатов
type PnlServiceInterface interface {
	GetDailyPnl(accountID string, from, to *time.Time) ([]*models.DailyPnl, error)
	GetMonthlyPnl(accountID string, from, to *time.Time) ([]*models.MonthlyPnl, error)
	GetTotalPnl(accountID string) (*models.TotalPnl, error)
	GetActivityDays(accountID string) ([]string, error)
}

// SyncServiceInterface определяет интерфейс сервиса синхронизации
type SyncServiceInterface interface {
	StartSync(accountID string) (*models.SyncJob, error)
	StartRebuild(accountID, symbol string) (*models.SyncJob, error)
	TestConnection(accountID string) error
	GetJob(jobID string) (*models.SyncJob, error)
}

// Проверяем, что реальные сервисы реализуют интерфейсы
var _ AccountServiceInterface = (*AccountService)(nil)
var _ TradeServiceInterface = (*TradeService)(nil)
var _ PnlServiceInterface = (*PnlService)(nil)
var _ SyncServiceInterface = (*SyncService)(nil)
