package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cokechen1108-source/crypto-pnl/internal/exchange"
	"github.com/cokechen1108-source/crypto-pnl/internal/models"
	"github.com/cokechen1108-source/crypto-pnl/internal/rebuild"
	"github.com/cokechen1108-source/crypto-pnl/internal/repository"
)

// ErrMockDatabase - ошибка, которую мокам велят возвращать
var ErrMockDatabase = errors.New("mock database error")

// ============ Mock AccountRepository ============

type MockAccountRepository struct {
	accounts  map[string]*models.ExchangeAccount
	createErr error
	getErr    error
	deleteErr error

	lastError  string
	lastStatus string
}

func NewMockAccountRepository() *MockAccountRepository {
	return &MockAccountRepository{
		accounts: make(map[string]*models.ExchangeAccount),
	}
}

func (m *MockAccountRepository) Create(account *models.ExchangeAccount) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.accounts[account.ID] = account
	return nil
}

func (m *MockAccountRepository) GetByID(id string) (*models.ExchangeAccount, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if account, ok := m.accounts[id]; ok {
		return account, nil
	}
	return nil, repository.ErrAccountNotFound
}

func (m *MockAccountRepository) GetAll() ([]*models.ExchangeAccount, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	result := make([]*models.ExchangeAccount, 0, len(m.accounts))
	for _, a := range m.accounts {
		result = append(result, a)
	}
	return result, nil
}

func (m *MockAccountRepository) UpdateStatus(id, status string) error {
	if account, ok := m.accounts[id]; ok {
		account.Status = status
		m.lastStatus = status
		return nil
	}
	return repository.ErrAccountNotFound
}

func (m *MockAccountRepository) SetLastError(id, errMsg string) error {
	if account, ok := m.accounts[id]; ok {
		account.Status = models.AccountStatusError
		account.LastError = errMsg
		m.lastError = errMsg
		return nil
	}
	return repository.ErrAccountNotFound
}

func (m *MockAccountRepository) Delete(id string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if _, ok := m.accounts[id]; !ok {
		return repository.ErrAccountNotFound
	}
	delete(m.accounts, id)
	return nil
}

// ============ Mock ExecutionRepository ============

type MockExecutionRepository struct {
	execs     []*models.RawExecution
	insertErr error
	listErr   error
	latest    *time.Time
}

func NewMockExecutionRepository() *MockExecutionRepository {
	return &MockExecutionRepository{}
}

func (m *MockExecutionRepository) BatchInsert(execs []*models.RawExecution) (int64, error) {
	if m.insertErr != nil {
		return 0, m.insertErr
	}
	m.execs = append(m.execs, execs...)
	return int64(len(execs)), nil
}

func (m *MockExecutionRepository) ListByAccount(accountID, symbol string) ([]*models.RawExecution, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.execs, nil
}

func (m *MockExecutionRepository) LatestExecutedAt(accountID string) (*time.Time, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.latest, nil
}

func (m *MockExecutionRepository) Count(accountID string) (int, error) {
	return len(m.execs), nil
}

// ============ Mock FundingRepository ============

type MockFundingRepository struct {
	entries   []*models.RawFunding
	insertErr error
	latest    *time.Time
}

func NewMockFundingRepository() *MockFundingRepository {
	return &MockFundingRepository{}
}

func (m *MockFundingRepository) BatchInsert(entries []*models.RawFunding) (int64, error) {
	if m.insertErr != nil {
		return 0, m.insertErr
	}
	m.entries = append(m.entries, entries...)
	return int64(len(entries)), nil
}

func (m *MockFundingRepository) LatestFundingAt(accountID string) (*time.Time, error) {
	return m.latest, nil
}

// ============ Mock TradeRepository ============

type MockTradeRepository struct {
	trades     []*models.Trade
	listErr    error
	countErr   error
	lastFilter repository.TradeFilter
}

func NewMockTradeRepository() *MockTradeRepository {
	return &MockTradeRepository{}
}

func (m *MockTradeRepository) List(filter repository.TradeFilter) ([]*models.Trade, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	m.lastFilter = filter
	return m.trades, nil
}

func (m *MockTradeRepository) Count(filter repository.TradeFilter) (int, error) {
	if m.countErr != nil {
		return 0, m.countErr
	}
	return len(m.trades), nil
}

func (m *MockTradeRepository) GetByID(id int64) (*models.Trade, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	for _, trade := range m.trades {
		if trade.ID == id {
			return trade, nil
		}
	}
	return nil, repository.ErrTradeNotFound
}

// ============ Mock PnlRepository ============

type MockPnlRepository struct {
	daily   []*models.DailyPnl
	monthly []*models.MonthlyPnl
	total   *models.TotalPnl
	days    []string
	err     error
}

func NewMockPnlRepository() *MockPnlRepository {
	return &MockPnlRepository{}
}

func (m *MockPnlRepository) GetDailyPnl(accountID string, from, to *time.Time) ([]*models.DailyPnl, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.daily, nil
}

func (m *MockPnlRepository) GetMonthlyPnl(accountID string, from, to *time.Time) ([]*models.MonthlyPnl, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.monthly, nil
}

func (m *MockPnlRepository) GetTotalPnl(accountID string) (*models.TotalPnl, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.total, nil
}

func (m *MockPnlRepository) GetActivityDays(accountID string) ([]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.days, nil
}

// ============ Mock Rebuilder ============

type MockRebuilder struct {
	result  *rebuild.Result
	err     error
	calls   int
	symbols []string // символы, о которых сообщать через progress
}

func NewMockRebuilder() *MockRebuilder {
	return &MockRebuilder{result: &rebuild.Result{}}
}

func (m *MockRebuilder) Rebuild(ctx context.Context, accountID, symbol string, progress rebuild.Progress) (*rebuild.Result, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if progress != nil {
		for i, sym := range m.symbols {
			progress(i+1, len(m.symbols), sym)
		}
	}
	return m.result, nil
}

// ============ Mock HistorySource ============

type MockHistorySource struct {
	name       string
	execs      []*models.RawExecution
	funding    []*models.RawFunding
	execErr    error
	fundingErr error
	closed     bool
}

func NewMockHistorySource() *MockHistorySource {
	return &MockHistorySource{name: "mock"}
}

func (m *MockHistorySource) Name() string { return m.name }

func (m *MockHistorySource) FetchExecutions(ctx context.Context, since time.Time, symbols []string) ([]*models.RawExecution, error) {
	if m.execErr != nil {
		return nil, m.execErr
	}
	return m.execs, nil
}

func (m *MockHistorySource) FetchFunding(ctx context.Context, since time.Time) ([]*models.RawFunding, error) {
	if m.fundingErr != nil {
		return nil, m.fundingErr
	}
	return m.funding, nil
}

func (m *MockHistorySource) Close() error {
	m.closed = true
	return nil
}

var _ exchange.HistorySource = (*MockHistorySource)(nil)

// ============ Mock SyncBroadcaster ============

type MockBroadcaster struct {
	mu       sync.Mutex
	progress []models.SyncJob
	done     []models.SyncJob
}

func NewMockBroadcaster() *MockBroadcaster {
	return &MockBroadcaster{}
}

func (m *MockBroadcaster) BroadcastSyncProgress(job *models.SyncJob) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.progress = append(m.progress, *job)
}

func (m *MockBroadcaster) BroadcastSyncDone(job *models.SyncJob) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.done = append(m.done, *job)
}

func (m *MockBroadcaster) DoneCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.done)
}

func (m *MockBroadcaster) ProgressCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.progress)
}

func (m *MockBroadcaster) LastDone() *models.SyncJob {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.done) == 0 {
		return nil
	}
	job := m.done[len(m.done)-1]
	return &job
}
