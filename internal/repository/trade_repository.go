package repository

import (
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cokechen1108-source/crypto-pnl/internal/models"
)

// Ошибки репозитория сделок
var (
	ErrTradeNotFound = errors.New("trade not found")
)

// executor - общий знаменатель *sql.DB и *sql.Tx. Позволяет координатору
// перестройки привязать delete+insert к одной транзакции, не меняя код
// запросов.
type executor interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

// TradeRepository - работа с таблицами trades, trade_legs, trade_executions
type TradeRepository struct {
	db executor
}

// NewTradeRepository создает новый экземпляр репозитория
func NewTradeRepository(db *sql.DB) *TradeRepository {
	return &TradeRepository{db: db}
}

// WithTx возвращает копию репозитория, выполняющую запросы в транзакции
func (r *TradeRepository) WithTx(tx *sql.Tx) *TradeRepository {
	return &TradeRepository{db: tx}
}

// DeleteByScope удаляет сделки аккаунта (и каскадно их ноги и аллокации
// через дочерние DELETE - без ON DELETE CASCADE порядок важен).
// Пустой symbol означает весь аккаунт.
func (r *TradeRepository) DeleteByScope(accountID, symbol string) error {
	scope := ` WHERE t.account_id = $1`
	args := []interface{}{accountID}
	if symbol != "" {
		scope += ` AND t.symbol = $2`
		args = append(args, symbol)
	}

	queries := []string{
		`DELETE FROM trade_executions USING trades t WHERE trade_executions.trade_id = t.id` + scopeAnd(scope),
		`DELETE FROM trade_legs USING trades t WHERE trade_legs.trade_id = t.id` + scopeAnd(scope),
		`DELETE FROM trades t` + scope,
	}
	for _, query := range queries {
		if _, err := r.db.Exec(query, args...); err != nil {
			return err
		}
	}
	return nil
}

// scopeAnd превращает " WHERE t.account_id ..." в " AND t.account_id ..."
// для запросов, где WHERE уже занят связью таблиц
func scopeAnd(scope string) string {
	return " AND" + scope[len(" WHERE"):]
}

// Create сохраняет сделку вместе с её ногами и аллокациями.
// Вызывается внутри транзакции перестройки.
func (r *TradeRepository) Create(trade *models.Trade) error {
	query := `
		INSERT INTO trades (account_id, symbol, side, status, entry_time, exit_time, entry_price, exit_price, size, realized_pnl, fee_total, funding_total, duration_seconds, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id`

	trade.CreatedAt = time.Now()

	err := r.db.QueryRow(
		query,
		trade.AccountID,
		trade.Symbol,
		trade.Side,
		trade.Status,
		trade.EntryTime,
		trade.ExitTime,
		trade.EntryPrice,
		trade.ExitPrice,
		trade.Size,
		trade.RealizedPnl,
		trade.FeeTotal,
		trade.FundingTotal,
		trade.DurationSeconds,
		trade.CreatedAt,
	).Scan(&trade.ID)
	if err != nil {
		return err
	}

	legQuery := `
		INSERT INTO trade_legs (trade_id, side, size, entry_price, exit_price, entry_time, exit_time, realized_pnl, fee_total, funding_total)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`
	for _, leg := range trade.Legs {
		leg.TradeID = trade.ID
		err := r.db.QueryRow(
			legQuery,
			leg.TradeID,
			leg.Side,
			leg.Size,
			leg.EntryPrice,
			leg.ExitPrice,
			leg.EntryTime,
			leg.ExitTime,
			leg.RealizedPnl,
			leg.FeeTotal,
			leg.FundingTotal,
		).Scan(&leg.ID)
		if err != nil {
			return err
		}
	}

	execQuery := `
		INSERT INTO trade_executions (trade_id, raw_execution_id, side, price, amount, fee, fee_currency, executed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`
	for _, alloc := range trade.Executions {
		alloc.TradeID = trade.ID
		err := r.db.QueryRow(
			execQuery,
			alloc.TradeID,
			alloc.RawExecutionID,
			alloc.Side,
			alloc.Price,
			alloc.Amount,
			alloc.Fee,
			alloc.FeeCurrency,
			alloc.ExecutedAt,
		).Scan(&alloc.ID)
		if err != nil {
			return err
		}
	}

	return nil
}

// TradeFilter - параметры выборки списка сделок
type TradeFilter struct {
	AccountID string
	Symbol    string     // пустой = все символы
	DayStart  *time.Time // границы локального дня, обе либо ни одной
	DayEnd    *time.Time
	Limit     int
	Offset    int
}

// List возвращает страницу сделок аккаунта, новые сначала.
// Фильтр по дню совпадает, если день затронут входом ИЛИ выходом.
func (r *TradeRepository) List(filter TradeFilter) ([]*models.Trade, error) {
	query := `
		SELECT id, account_id, symbol, side, status, entry_time, exit_time, entry_price, exit_price, size, realized_pnl, fee_total, funding_total, duration_seconds, created_at
		FROM trades
		WHERE account_id = $1`
	args := []interface{}{filter.AccountID}

	query, args = applyTradeFilter(query, args, filter)
	query += ` ORDER BY entry_time DESC, id DESC`

	args = append(args, filter.Limit)
	query += ` LIMIT $` + itoa(len(args))
	args = append(args, filter.Offset)
	query += ` OFFSET $` + itoa(len(args))

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trades []*models.Trade
	for rows.Next() {
		trade, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		trades = append(trades, trade)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return trades, nil
}

// Count возвращает общее количество сделок под фильтром (для пагинации)
func (r *TradeRepository) Count(filter TradeFilter) (int, error) {
	query := `SELECT COUNT(*) FROM trades WHERE account_id = $1`
	args := []interface{}{filter.AccountID}
	query, args = applyTradeFilter(query, args, filter)

	var count int
	if err := r.db.QueryRow(query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// GetByID возвращает сделку с ногами и аллокациями
func (r *TradeRepository) GetByID(id int64) (*models.Trade, error) {
	query := `
		SELECT id, account_id, symbol, side, status, entry_time, exit_time, entry_price, exit_price, size, realized_pnl, fee_total, funding_total, duration_seconds, created_at
		FROM trades
		WHERE id = $1`

	trade, err := scanTrade(r.db.QueryRow(query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTradeNotFound
		}
		return nil, err
	}

	legs, err := r.legsByTradeID(id)
	if err != nil {
		return nil, err
	}
	trade.Legs = legs

	execs, err := r.executionsByTradeID(id)
	if err != nil {
		return nil, err
	}
	trade.Executions = execs

	return trade, nil
}

// UpdateFundingTotal проставляет сделке суммарный фандинг
func (r *TradeRepository) UpdateFundingTotal(id int64, fundingTotal decimal.Decimal) error {
	query := `UPDATE trades SET funding_total = $1 WHERE id = $2`

	result, err := r.db.Exec(query, fundingTotal, id)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrTradeNotFound
	}
	return nil
}

// legsByTradeID возвращает ноги сделки по времени входа
func (r *TradeRepository) legsByTradeID(tradeID int64) ([]*models.TradeLeg, error) {
	query := `
		SELECT id, trade_id, side, size, entry_price, exit_price, entry_time, exit_time, realized_pnl, fee_total, funding_total
		FROM trade_legs
		WHERE trade_id = $1
		ORDER BY entry_time ASC, id ASC`

	rows, err := r.db.Query(query, tradeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var legs []*models.TradeLeg
	for rows.Next() {
		leg := &models.TradeLeg{}
		err := rows.Scan(
			&leg.ID,
			&leg.TradeID,
			&leg.Side,
			&leg.Size,
			&leg.EntryPrice,
			&leg.ExitPrice,
			&leg.EntryTime,
			&leg.ExitTime,
			&leg.RealizedPnl,
			&leg.FeeTotal,
			&leg.FundingTotal,
		)
		if err != nil {
			return nil, err
		}
		legs = append(legs, leg)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return legs, nil
}

// executionsByTradeID возвращает аллокации сделки по времени исполнения
func (r *TradeRepository) executionsByTradeID(tradeID int64) ([]*models.TradeExecution, error) {
	query := `
		SELECT id, trade_id, raw_execution_id, side, price, amount, fee, fee_currency, executed_at
		FROM trade_executions
		WHERE trade_id = $1
		ORDER BY executed_at ASC, id ASC`

	rows, err := r.db.Query(query, tradeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var execs []*models.TradeExecution
	for rows.Next() {
		alloc := &models.TradeExecution{}
		err := rows.Scan(
			&alloc.ID,
			&alloc.TradeID,
			&alloc.RawExecutionID,
			&alloc.Side,
			&alloc.Price,
			&alloc.Amount,
			&alloc.Fee,
			&alloc.FeeCurrency,
			&alloc.ExecutedAt,
		)
		if err != nil {
			return nil, err
		}
		execs = append(execs, alloc)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return execs, nil
}

// rowScanner покрывает *sql.Row и *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanTrade читает одну строку таблицы trades
func scanTrade(row rowScanner) (*models.Trade, error) {
	trade := &models.Trade{}
	err := row.Scan(
		&trade.ID,
		&trade.AccountID,
		&trade.Symbol,
		&trade.Side,
		&trade.Status,
		&trade.EntryTime,
		&trade.ExitTime,
		&trade.EntryPrice,
		&trade.ExitPrice,
		&trade.Size,
		&trade.RealizedPnl,
		&trade.FeeTotal,
		&trade.FundingTotal,
		&trade.DurationSeconds,
		&trade.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return trade, nil
}

// applyTradeFilter добавляет необязательные условия фильтра к запросу
func applyTradeFilter(query string, args []interface{}, filter TradeFilter) (string, []interface{}) {
	if filter.Symbol != "" {
		args = append(args, filter.Symbol)
		query += ` AND symbol = $` + itoa(len(args))
	}
	if filter.DayStart != nil && filter.DayEnd != nil {
		args = append(args, *filter.DayStart, *filter.DayEnd)
		from := itoa(len(args) - 1)
		to := itoa(len(args))
		query += ` AND ((entry_time >= $` + from + ` AND entry_time <= $` + to + `)` +
			` OR (exit_time >= $` + from + ` AND exit_time <= $` + to + `))`
	}
	return query, args
}

// itoa - короткое имя для номеров placeholder'ов
func itoa(n int) string {
	return strconv.Itoa(n)
}
