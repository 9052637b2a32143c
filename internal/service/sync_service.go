package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cokechen1108-source/crypto-pnl/internal/exchange"
	"github.com/cokechen1108-source/crypto-pnl/internal/models"
)

// Ошибки сервиса синхронизации
var (
	ErrSyncAlreadyRunning = errors.New("sync is already running for this account")
	ErrAccountDisabled    = errors.New("account is disabled")
	ErrJobNotFound        = errors.New("sync job not found")
)

// Фазы задачи синхронизации
const (
	PhaseFetch   = "fetch"
	PhaseRebuild = "rebuild"
)

// Если у аккаунта еще нет данных, история запрашивается на два года назад
const defaultLookback = 2 * 365 * 24 * time.Hour

// Потолок на один прогон: выкачивание истории + перестройка
const syncTimeout = 30 * time.Minute

// Потолок на пробный запрос при проверке ключей
const testConnectionTimeout = 15 * time.Second

// Доля прогресса, отводимая фазе выкачивания; остаток - перестройке
const fetchProgressShare = 40

// SyncBroadcaster - интерфейс для отправки обновлений задач через WebSocket
type SyncBroadcaster interface {
	BroadcastSyncProgress(job *models.SyncJob)
	BroadcastSyncDone(job *models.SyncJob)
}

// SourceFactory создает источник истории по расшифрованным ключам.
// В тестах подменяется на фабрику фейковых источников.
type SourceFactory func(accountID string, creds models.Credentials) (exchange.HistorySource, error)

// SyncService управляет фоновыми задачами синхронизации.
//
// Один прогон для аккаунта:
// 1. Выкачать новые филлы и фандинг с биржи (инкрементально, от последней
//    известной записи)
// 2. Дописать их в неизменяемые таблицы сырых данных
// 3. Полностью перестроить сделки аккаунта координатором
//
// Задачи живут в памяти процесса. На один аккаунт одновременно допускается
// одна задача; сами аккаунты синхронизируются независимо.
type SyncService struct {
	accounts    AccountServiceInterface
	execRepo    ExecutionRepositoryInterface
	fundingRepo FundingRepositoryInterface
	rebuilder   Rebuilder
	newSource   SourceFactory
	hub         SyncBroadcaster // может быть nil
	logger      *zap.Logger

	mu      sync.RWMutex
	jobs    map[string]*models.SyncJob
	running map[string]bool // account_id -> есть активная задача
}

// NewSyncService создает новый экземпляр SyncService.
// sourceFactory == nil означает реальные биржевые источники.
func NewSyncService(
	accounts AccountServiceInterface,
	execRepo ExecutionRepositoryInterface,
	fundingRepo FundingRepositoryInterface,
	rebuilder Rebuilder,
	sourceFactory SourceFactory,
	logger *zap.Logger,
) *SyncService {
	if sourceFactory == nil {
		sourceFactory = exchange.NewSource
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SyncService{
		accounts:    accounts,
		execRepo:    execRepo,
		fundingRepo: fundingRepo,
		rebuilder:   rebuilder,
		newSource:   sourceFactory,
		logger:      logger,
		jobs:        make(map[string]*models.SyncJob),
		running:     make(map[string]bool),
	}
}

// SetBroadcaster устанавливает WebSocket hub для отправки прогресса.
// Вызывается после инициализации Hub в main.go.
func (s *SyncService) SetBroadcaster(hub SyncBroadcaster) {
	s.hub = hub
}

// StartSync запускает фоновую синхронизацию аккаунта.
// Возвращает снимок созданной задачи; дальнейший прогресс доступен
// через GetJob или WebSocket.
func (s *SyncService) StartSync(accountID string) (*models.SyncJob, error) {
	account, err := s.accounts.GetAccount(accountID)
	if err != nil {
		return nil, err
	}
	if account.Status == models.AccountStatusDisabled {
		return nil, ErrAccountDisabled
	}

	job, err := s.newJob(account, PhaseFetch)
	if err != nil {
		return nil, err
	}

	go s.runSync(job.JobID, account)

	return job, nil
}

// StartRebuild запускает перестройку сделок без обращения к бирже.
// Пустой symbol означает все символы аккаунта.
func (s *SyncService) StartRebuild(accountID, symbol string) (*models.SyncJob, error) {
	account, err := s.accounts.GetAccount(accountID)
	if err != nil {
		return nil, err
	}

	job, err := s.newJob(account, PhaseRebuild)
	if err != nil {
		return nil, err
	}

	go s.runRebuild(job.JobID, account, symbol)

	return job, nil
}

// TestConnection проверяет, что сохраненные ключи аккаунта принимаются
// биржей. Делает один дешевый аутентифицированный запрос (история фандинга
// за последние сутки) и ничего не сохраняет.
func (s *SyncService) TestConnection(accountID string) error {
	account, err := s.accounts.GetAccount(accountID)
	if err != nil {
		return err
	}

	creds, err := s.accounts.Credentials(account.ID)
	if err != nil {
		return err
	}

	source, err := s.newSource(account.ID, *creds)
	if err != nil {
		return err
	}
	defer source.Close()

	ctx, cancel := context.WithTimeout(context.Background(), testConnectionTimeout)
	defer cancel()

	_, err = source.FetchFunding(ctx, time.Now().UTC().Add(-24*time.Hour))
	return err
}

// GetJob возвращает снимок задачи по идентификатору
func (s *SyncService) GetJob(jobID string) (*models.SyncJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return nil, ErrJobNotFound
	}
	snapshot := *job
	return &snapshot, nil
}

// newJob регистрирует задачу, гарантируя не более одной активной на аккаунт
func (s *SyncService) newJob(account *models.ExchangeAccount, phase string) (*models.SyncJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running[account.ID] {
		return nil, ErrSyncAlreadyRunning
	}
	s.running[account.ID] = true

	job := &models.SyncJob{
		JobID:     uuid.NewString(),
		AccountID: account.ID,
		Exchange:  account.Exchange,
		Status:    models.SyncStatusQueued,
		Phase:     phase,
		StartedAt: time.Now().UTC(),
	}
	s.jobs[job.JobID] = job

	snapshot := *job
	return &snapshot, nil
}

// runSync выполняет полный прогон: выкачивание и перестройка
func (s *SyncService) runSync(jobID string, account *models.ExchangeAccount) {
	ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
	defer cancel()

	s.update(jobID, func(job *models.SyncJob) {
		job.Status = models.SyncStatusRunning
		job.Phase = PhaseFetch
	})

	result := models.SyncResult{}

	creds, err := s.accounts.Credentials(account.ID)
	if err != nil {
		s.fail(jobID, account.ID, err)
		return
	}

	source, err := s.newSource(account.ID, *creds)
	if err != nil {
		s.fail(jobID, account.ID, err)
		return
	}
	defer source.Close()

	// Филлы: инкрементально от последней известной записи
	execSince, err := s.sinceOrDefault(s.execRepo.LatestExecutedAt(account.ID))
	if err != nil {
		s.fail(jobID, account.ID, err)
		return
	}

	execs, err := source.FetchExecutions(ctx, execSince, nil)
	if err != nil {
		s.fail(jobID, account.ID, err)
		return
	}

	result.ExecutionsInserted, err = s.execRepo.BatchInsert(execs)
	if err != nil {
		s.fail(jobID, account.ID, err)
		return
	}

	s.update(jobID, func(job *models.SyncJob) {
		job.Progress = fetchProgressShare / 2
	})

	// Фандинг: отдельный инкрементальный курсор
	fundingSince, err := s.sinceOrDefault(s.fundingRepo.LatestFundingAt(account.ID))
	if err != nil {
		s.fail(jobID, account.ID, err)
		return
	}

	funding, err := source.FetchFunding(ctx, fundingSince)
	if err != nil {
		s.fail(jobID, account.ID, err)
		return
	}

	result.FundingInserted, err = s.fundingRepo.BatchInsert(funding)
	if err != nil {
		s.fail(jobID, account.ID, err)
		return
	}

	s.update(jobID, func(job *models.SyncJob) {
		job.Progress = fetchProgressShare
		job.Phase = PhaseRebuild
	})

	rebuilt, err := s.rebuilder.Rebuild(ctx, account.ID, "", s.progressFunc(jobID, fetchProgressShare))
	if err != nil {
		s.fail(jobID, account.ID, err)
		return
	}
	result.TradesCreated = rebuilt.TradesCreated

	s.succeed(jobID, account.ID, &result)

	s.logger.Info("sync finished",
		zap.String("account_id", account.ID),
		zap.Int64("executions_inserted", result.ExecutionsInserted),
		zap.Int64("funding_inserted", result.FundingInserted),
		zap.Int("trades_created", result.TradesCreated),
	)
}

// runRebuild выполняет только перестройку сделок
func (s *SyncService) runRebuild(jobID string, account *models.ExchangeAccount, symbol string) {
	ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
	defer cancel()

	s.update(jobID, func(job *models.SyncJob) {
		job.Status = models.SyncStatusRunning
	})

	rebuilt, err := s.rebuilder.Rebuild(ctx, account.ID, symbol, s.progressFunc(jobID, 0))
	if err != nil {
		s.fail(jobID, account.ID, err)
		return
	}

	s.succeed(jobID, account.ID, &models.SyncResult{TradesCreated: rebuilt.TradesCreated})
}

// sinceOrDefault превращает последнюю известную запись в нижнюю границу
// выборки; при пустой истории отступает на defaultLookback назад
func (s *SyncService) sinceOrDefault(latest *time.Time, err error) (time.Time, error) {
	if err != nil {
		return time.Time{}, err
	}
	if latest != nil {
		return *latest, nil
	}
	return time.Now().UTC().Add(-defaultLookback), nil
}

// progressFunc возвращает callback для координатора, транслирующий
// прогресс по символам в проценты задачи начиная с base
func (s *SyncService) progressFunc(jobID string, base int) func(completed, total int, symbol string) {
	return func(completed, total int, symbol string) {
		s.update(jobID, func(job *models.SyncJob) {
			job.TotalSymbols = total
			job.CompletedSymbols = completed
			job.Message = symbol
			if total > 0 {
				job.Progress = base + (100-base)*completed/total
			}
		})
	}
}

// update мутирует задачу под локом и рассылает её снимок подписчикам
func (s *SyncService) update(jobID string, fn func(job *models.SyncJob)) {
	s.mu.Lock()
	job, ok := s.jobs[jobID]
	if !ok {
		s.mu.Unlock()
		return
	}
	fn(job)
	snapshot := *job
	s.mu.Unlock()

	if s.hub != nil {
		s.hub.BroadcastSyncProgress(&snapshot)
	}
}

// succeed завершает задачу успехом
func (s *SyncService) succeed(jobID, accountID string, result *models.SyncResult) {
	now := time.Now().UTC()

	s.mu.Lock()
	job, ok := s.jobs[jobID]
	var snapshot models.SyncJob
	if ok {
		job.Status = models.SyncStatusSuccess
		job.Progress = 100
		job.Message = ""
		job.Result = result
		job.EndedAt = &now
		snapshot = *job
	}
	delete(s.running, accountID)
	s.mu.Unlock()

	s.accounts.MarkSynced(accountID)

	if ok && s.hub != nil {
		s.hub.BroadcastSyncDone(&snapshot)
	}
}

// fail завершает задачу ошибкой и помечает аккаунт проблемным
func (s *SyncService) fail(jobID, accountID string, cause error) {
	now := time.Now().UTC()

	s.mu.Lock()
	job, ok := s.jobs[jobID]
	var snapshot models.SyncJob
	if ok {
		job.Status = models.SyncStatusError
		job.Error = cause.Error()
		job.EndedAt = &now
		snapshot = *job
	}
	delete(s.running, accountID)
	s.mu.Unlock()

	s.accounts.MarkSyncError(accountID, cause)

	s.logger.Error("sync failed",
		zap.String("account_id", accountID),
		zap.Error(cause),
	)

	if ok && s.hub != nil {
		s.hub.BroadcastSyncDone(&snapshot)
	}
}
