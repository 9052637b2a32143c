// Package rebuild реализует полную перестройку нормализованных сделок
// аккаунта: wipe-and-recompute поверх текущего содержимого хранилища
// сырых филлов.
package rebuild

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cokechen1108-source/crypto-pnl/internal/matching"
	"github.com/cokechen1108-source/crypto-pnl/internal/models"
	"github.com/cokechen1108-source/crypto-pnl/internal/repository"
)

// Progress - колбэк прогресса на гранулярности группы символов.
// Прогресс чисто информационный: транзакция остаётся all-or-nothing
// независимо от того, сколько групп уже отрапортовано.
type Progress func(completed, total int, symbol string)

// Result - итог перестройки
type Result struct {
	TradesCreated int `json:"trades_created"`
}

// Coordinator оркестрирует цикл перестройки: загрузка филлов, прогон
// движка по группам символов, транзакционная замена сделок, атрибуция
// фандинга. Шаги удаления и записи - одна атомарная единица: сбой в
// любом месте откатывает всё, прежние строки остаются нетронутыми.
type Coordinator struct {
	db          *sql.DB
	execRepo    *repository.ExecutionRepository
	fundingRepo *repository.FundingRepository
	tradeRepo   *repository.TradeRepository
	engine      *matching.Engine
	logger      *zap.Logger

	// Перестройки одного аккаунта сериализуются: delete-then-recreate
	// небезопасен при чередовании двух конкурентных прогонов
	locks sync.Map // accountID -> *sync.Mutex
}

// NewCoordinator создает новый координатор перестройки
func NewCoordinator(
	db *sql.DB,
	execRepo *repository.ExecutionRepository,
	fundingRepo *repository.FundingRepository,
	tradeRepo *repository.TradeRepository,
	logger *zap.Logger,
) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		db:          db,
		execRepo:    execRepo,
		fundingRepo: fundingRepo,
		tradeRepo:   tradeRepo,
		engine:      matching.NewEngine(logger),
		logger:      logger,
	}
}

// Rebuild перестраивает сделки аккаунта. Пустой symbol - весь аккаунт.
// После успешного вызова персистентные Trade/Leg/Execution строки в
// границах scope - ровно результат прогона движка по текущим филлам,
// независимо от того, что лежало там раньше. Повторный вызов без
// изменения филлов даёт идентичные агрегаты (идемпотентность).
func (c *Coordinator) Rebuild(ctx context.Context, accountID, symbol string, progress Progress) (*Result, error) {
	lock := c.accountLock(accountID)
	lock.Lock()
	defer lock.Unlock()

	started := time.Now()
	result, err := c.rebuildLocked(ctx, accountID, symbol, progress)
	RebuildDuration.Observe(time.Since(started).Seconds())
	if err != nil {
		RebuildsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	RebuildsTotal.WithLabelValues("success").Inc()
	TradesCreated.Add(float64(result.TradesCreated))
	return result, nil
}

func (c *Coordinator) rebuildLocked(ctx context.Context, accountID, symbol string, progress Progress) (*Result, error) {
	execs, err := c.execRepo.ListByAccount(accountID, symbol)
	if err != nil {
		return nil, fmt.Errorf("load raw executions: %w", err)
	}
	ExecutionsProcessed.Add(float64(len(execs)))

	// Журнал фандинга читается до открытия транзакции и суммируется в
	// памяти. Фандинг - уточнение, а не критичное для PnL значение:
	// ошибка чтения деградирует до нуля, но не прерывает перестройку.
	allocator := c.loadFunding(accountID, symbol)

	symbols, groups := groupBySymbol(execs)

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin rebuild transaction: %w", err)
	}
	defer tx.Rollback()

	txTrades := c.tradeRepo.WithTx(tx)
	if err := txTrades.DeleteByScope(accountID, symbol); err != nil {
		return nil, fmt.Errorf("delete previous trades: %w", err)
	}

	created := 0
	for i, sym := range symbols {
		for _, draft := range c.engine.Match(sym, groups[sym]) {
			trade := buildTrade(accountID, draft)
			if err := txTrades.Create(trade); err != nil {
				return nil, fmt.Errorf("persist trade for %s: %w", sym, err)
			}
			// Фандинг - отдельный патч в той же транзакции, только для
			// закрытых сделок и только при ненулевой сумме
			if trade.Status == models.TradeStatusClosed && trade.ExitTime != nil {
				funding := allocator.Allocate(trade.Symbol, trade.EntryTime, *trade.ExitTime)
				if !funding.IsZero() {
					if err := txTrades.UpdateFundingTotal(trade.ID, funding); err != nil {
						return nil, fmt.Errorf("patch funding total: %w", err)
					}
					trade.FundingTotal = funding
				}
			}
			created++
		}
		SymbolGroupsProcessed.Inc()
		if progress != nil {
			progress(i+1, len(symbols), sym)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit rebuild transaction: %w", err)
	}

	c.logger.Info("rebuild finished",
		zap.String("account_id", accountID),
		zap.String("symbol", symbol),
		zap.Int("executions", len(execs)),
		zap.Int("symbols", len(symbols)),
		zap.Int("trades_created", created),
	)

	return &Result{TradesCreated: created}, nil
}

// loadFunding загружает журнал фандинга; при ошибке - пустой аллокатор
func (c *Coordinator) loadFunding(accountID, symbol string) *FundingAllocator {
	ledger, err := c.fundingRepo.ListByAccount(accountID, symbol)
	if err != nil {
		c.logger.Warn("funding ledger unavailable, funding totals default to zero",
			zap.String("account_id", accountID),
			zap.Error(err),
		)
		return NewFundingAllocator(nil)
	}
	return NewFundingAllocator(ledger)
}

// accountLock возвращает мьютекс аккаунта, создавая его при первом обращении
func (c *Coordinator) accountLock(accountID string) *sync.Mutex {
	actual, _ := c.locks.LoadOrStore(accountID, &sync.Mutex{})
	return actual.(*sync.Mutex)
}

// groupBySymbol разбивает упорядоченный поток на группы по символам,
// сохраняя внутри группы исходный порядок, а между группами - порядок
// первого появления символа (для стабильного прогресса)
func groupBySymbol(execs []*models.RawExecution) ([]string, map[string][]*models.RawExecution) {
	var symbols []string
	groups := make(map[string][]*models.RawExecution)
	for _, exec := range execs {
		if _, seen := groups[exec.Symbol]; !seen {
			symbols = append(symbols, exec.Symbol)
		}
		groups[exec.Symbol] = append(groups[exec.Symbol], exec)
	}
	return symbols, groups
}

// buildTrade превращает результат движка в персистентную сделку
func buildTrade(accountID string, draft *matching.Result) *models.Trade {
	trade := &models.Trade{
		AccountID:   accountID,
		Symbol:      draft.Symbol,
		Side:        draft.Side,
		Status:      draft.Status,
		EntryTime:   draft.EntryTime,
		ExitTime:    draft.ExitTime,
		EntryPrice:  draft.EntryPrice,
		ExitPrice:   draft.ExitPrice,
		Size:        draft.Size,
		RealizedPnl: draft.RealizedPnl,
		FeeTotal:    draft.FeeTotal,
	}

	if draft.Status == models.TradeStatusClosed && draft.ExitTime != nil {
		seconds := int64(draft.ExitTime.Sub(draft.EntryTime).Seconds())
		if seconds < 0 {
			seconds = 0
		}
		trade.DurationSeconds = &seconds
	}

	for i := range draft.Legs {
		leg := draft.Legs[i]
		trade.Legs = append(trade.Legs, &models.TradeLeg{
			Side:        leg.Side,
			Size:        leg.Size,
			EntryPrice:  leg.EntryPrice,
			ExitPrice:   leg.ExitPrice,
			EntryTime:   leg.EntryTime,
			ExitTime:    leg.ExitTime,
			RealizedPnl: leg.RealizedPnl,
			FeeTotal:    leg.FeeTotal,
		})
	}
	for i := range draft.Allocations {
		alloc := draft.Allocations[i]
		trade.Executions = append(trade.Executions, &models.TradeExecution{
			RawExecutionID: alloc.RawExecutionID,
			Side:           alloc.Side,
			Price:          alloc.Price,
			Amount:         alloc.Amount,
			Fee:            alloc.Fee,
			FeeCurrency:    alloc.FeeCurrency,
			ExecutedAt:     alloc.ExecutedAt,
		})
	}

	return trade
}
