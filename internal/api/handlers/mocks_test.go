package handlers

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cokechen1108-source/crypto-pnl/internal/models"
	"github.com/cokechen1108-source/crypto-pnl/internal/repository"
	"github.com/cokechen1108-source/crypto-pnl/internal/service"
)

// ErrMockDatabase имитирует сбой базы данных в тестах
var ErrMockDatabase = errors.New("mock database error")

// ============ Mock Account Service ============

// MockAccountService мок для AccountServiceInterface
type MockAccountService struct {
	accounts  map[string]*models.ExchangeAccount
	createErr error
	getErr    error
	deleteErr error
	mu        sync.RWMutex
}

// NewMockAccountService создает новый мок сервиса аккаунтов
func NewMockAccountService() *MockAccountService {
	return &MockAccountService{
		accounts: make(map[string]*models.ExchangeAccount),
	}
}

// SetError устанавливает ошибку для операции: create, get, delete
func (m *MockAccountService) SetError(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch op {
	case "create":
		m.createErr = err
	case "get":
		m.getErr = err
	case "delete":
		m.deleteErr = err
	}
}

func (m *MockAccountService) CreateAccount(req *service.CreateAccountRequest) (*models.ExchangeAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.createErr != nil {
		return nil, m.createErr
	}

	account := &models.ExchangeAccount{
		ID:        uuid.NewString(),
		Label:     req.Label,
		Exchange:  req.Exchange,
		Status:    models.AccountStatusActive,
		CreatedAt: time.Now(),
	}
	m.accounts[account.ID] = account
	return account, nil
}

func (m *MockAccountService) GetAccounts() ([]*models.ExchangeAccount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.getErr != nil {
		return nil, m.getErr
	}

	result := make([]*models.ExchangeAccount, 0, len(m.accounts))
	for _, a := range m.accounts {
		result = append(result, a)
	}
	return result, nil
}

func (m *MockAccountService) GetAccount(id string) (*models.ExchangeAccount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.getErr != nil {
		return nil, m.getErr
	}

	account, ok := m.accounts[id]
	if !ok {
		return nil, repository.ErrAccountNotFound
	}
	return account, nil
}

func (m *MockAccountService) SetAccountStatus(id, status string) (*models.ExchangeAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if status != models.AccountStatusActive && status != models.AccountStatusDisabled {
		return nil, service.ErrInvalidStatus
	}

	account, ok := m.accounts[id]
	if !ok {
		return nil, repository.ErrAccountNotFound
	}
	account.Status = status
	return account, nil
}

func (m *MockAccountService) DeleteAccount(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.deleteErr != nil {
		return m.deleteErr
	}

	if _, ok := m.accounts[id]; !ok {
		return repository.ErrAccountNotFound
	}
	delete(m.accounts, id)
	return nil
}

func (m *MockAccountService) Credentials(id string) (*models.Credentials, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	account, ok := m.accounts[id]
	if !ok {
		return nil, repository.ErrAccountNotFound
	}
	return &models.Credentials{Exchange: account.Exchange}, nil
}

func (m *MockAccountService) MarkSyncError(id string, cause error) {}

func (m *MockAccountService) MarkSynced(id string) {}

// ============ Mock Trade Service ============

// MockTradeService мок для TradeServiceInterface
type MockTradeService struct {
	page    *service.TradePage
	trades  map[int64]*models.Trade
	listErr error
	getErr  error
	lastReq *service.ListTradesRequest
	mu      sync.RWMutex
}

// NewMockTradeService создает новый мок сервиса сделок
func NewMockTradeService() *MockTradeService {
	return &MockTradeService{
		page:   &service.TradePage{Trades: []*models.Trade{}, Page: 1, PageSize: 50},
		trades: make(map[int64]*models.Trade),
	}
}

// SetError устанавливает ошибку для операции: list, get
func (m *MockTradeService) SetError(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch op {
	case "list":
		m.listErr = err
	case "get":
		m.getErr = err
	}
}

// SetPage задает страницу, возвращаемую ListTrades
func (m *MockTradeService) SetPage(page *service.TradePage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.page = page
}

// AddTrade добавляет сделку для GetTrade
func (m *MockTradeService) AddTrade(trade *models.Trade) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trades[trade.ID] = trade
}

// LastRequest возвращает последний запрос ListTrades
func (m *MockTradeService) LastRequest() *service.ListTradesRequest {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastReq
}

func (m *MockTradeService) ListTrades(req *service.ListTradesRequest) (*service.TradePage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastReq = req
	if m.listErr != nil {
		return nil, m.listErr
	}
	if req.AccountID == "" {
		return nil, service.ErrAccountIDRequired
	}
	return m.page, nil
}

func (m *MockTradeService) GetTrade(id int64) (*models.Trade, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.getErr != nil {
		return nil, m.getErr
	}

	trade, ok := m.trades[id]
	if !ok {
		return nil, repository.ErrTradeNotFound
	}
	return trade, nil
}

// ============ Mock Pnl Service ============

// MockPnlService мок для PnlServiceInterface
type MockPnlService struct {
	daily   []*models.DailyPnl
	monthly []*models.MonthlyPnl
	total   *models.TotalPnl
	days    []string
	err     error
	mu      sync.RWMutex
}

// NewMockPnlService создает новый мок сервиса PnL
func NewMockPnlService() *MockPnlService {
	return &MockPnlService{
		total: &models.TotalPnl{},
	}
}

// SetError устанавливает ошибку для всех операций
func (m *MockPnlService) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// SetDaily задает дневные корзины
func (m *MockPnlService) SetDaily(daily []*models.DailyPnl) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.daily = daily
}

// SetDays задает даты активности
func (m *MockPnlService) SetDays(days []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.days = days
}

func (m *MockPnlService) check(accountID string) error {
	if m.err != nil {
		return m.err
	}
	if accountID == "" {
		return service.ErrAccountIDRequired
	}
	return nil
}

func (m *MockPnlService) GetDailyPnl(accountID string, from, to *time.Time) ([]*models.DailyPnl, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.check(accountID); err != nil {
		return nil, err
	}
	return m.daily, nil
}

func (m *MockPnlService) GetMonthlyPnl(accountID string, from, to *time.Time) ([]*models.MonthlyPnl, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.check(accountID); err != nil {
		return nil, err
	}
	return m.monthly, nil
}

func (m *MockPnlService) GetTotalPnl(accountID string) (*models.TotalPnl, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.check(accountID); err != nil {
		return nil, err
	}
	return m.total, nil
}

func (m *MockPnlService) GetActivityDays(accountID string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.check(accountID); err != nil {
		return nil, err
	}
	return m.days, nil
}

// ============ Mock Sync Service ============

// MockSyncService мок для SyncServiceInterface
type MockSyncService struct {
	jobs     map[string]*models.SyncJob
	startErr error
	testErr  error
	mu       sync.RWMutex
}

// NewMockSyncService создает новый мок сервиса синхронизации
func NewMockSyncService() *MockSyncService {
	return &MockSyncService{
		jobs: make(map[string]*models.SyncJob),
	}
}

// SetStartError устанавливает ошибку запуска задач
func (m *MockSyncService) SetStartError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startErr = err
}

// SetTestError устанавливает результат TestConnection
func (m *MockSyncService) SetTestError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.testErr = err
}

func (m *MockSyncService) start(accountID, phase string) (*models.SyncJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.startErr != nil {
		return nil, m.startErr
	}

	job := &models.SyncJob{
		JobID:     uuid.NewString(),
		AccountID: accountID,
		Status:    models.SyncStatusQueued,
		Phase:     phase,
		StartedAt: time.Now(),
	}
	m.jobs[job.JobID] = job
	return job, nil
}

func (m *MockSyncService) StartSync(accountID string) (*models.SyncJob, error) {
	return m.start(accountID, "fetch")
}

func (m *MockSyncService) StartRebuild(accountID, symbol string) (*models.SyncJob, error) {
	return m.start(accountID, "rebuild")
}

func (m *MockSyncService) TestConnection(accountID string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.testErr
}

func (m *MockSyncService) GetJob(jobID string) (*models.SyncJob, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	job, ok := m.jobs[jobID]
	if !ok {
		return nil, service.ErrJobNotFound
	}
	return job, nil
}

// Проверяем соответствие моков интерфейсам сервисов
var _ service.AccountServiceInterface = (*MockAccountService)(nil)
var _ service.TradeServiceInterface = (*MockTradeService)(nil)
var _ service.PnlServiceInterface = (*MockPnlService)(nil)
var _ service.SyncServiceInterface = (*MockSyncService)(nil)
