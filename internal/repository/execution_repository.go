package repository

import (
	"database/sql"
	"time"

	"github.com/cokechen1108-source/crypto-pnl/internal/models"
)

// ExecutionRepository - работа с таблицей raw_executions.
// Таблица append-only: филлы пишутся ингестией и никогда не меняются.
type ExecutionRepository struct {
	db *sql.DB
}

// NewExecutionRepository создает новый экземпляр репозитория
func NewExecutionRepository(db *sql.DB) *ExecutionRepository {
	return &ExecutionRepository{db: db}
}

// BatchInsert вставляет пачку филлов, молча пропуская дубликаты по
// (account_id, symbol, exchange_trade_id). Возвращает число вставленных.
func (r *ExecutionRepository) BatchInsert(execs []*models.RawExecution) (int64, error) {
	query := `
		INSERT INTO raw_executions (account_id, exchange_trade_id, symbol, market_type, side, price, amount, fee, fee_currency, order_id, executed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (account_id, symbol, exchange_trade_id) DO NOTHING`

	var inserted int64
	for _, exec := range execs {
		result, err := r.db.Exec(
			query,
			exec.AccountID,
			exec.ExchangeTradeID,
			exec.Symbol,
			exec.MarketType,
			exec.Side,
			exec.Price,
			exec.Amount,
			exec.Fee,
			exec.FeeCurrency,
			exec.OrderID,
			exec.ExecutedAt,
		)
		if err != nil {
			return inserted, err
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return inserted, err
		}
		inserted += rows
	}

	return inserted, nil
}

// ListByAccount возвращает филлы аккаунта в порядке сопоставления:
// executed_at ASC с tiebreak по id (порядок вставки). Порядок обязан
// быть детерминированным - от него зависит результат движка.
// Пустой symbol означает все символы аккаунта.
func (r *ExecutionRepository) ListByAccount(accountID, symbol string) ([]*models.RawExecution, error) {
	query := `
		SELECT id, account_id, exchange_trade_id, symbol, market_type, side, price, amount, fee, fee_currency, order_id, executed_at
		FROM raw_executions
		WHERE account_id = $1`
	args := []interface{}{accountID}

	if symbol != "" {
		query += ` AND symbol = $2`
		args = append(args, symbol)
	}
	query += ` ORDER BY executed_at ASC, id ASC`

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var execs []*models.RawExecution
	for rows.Next() {
		exec := &models.RawExecution{}
		err := rows.Scan(
			&exec.ID,
			&exec.AccountID,
			&exec.ExchangeTradeID,
			&exec.Symbol,
			&exec.MarketType,
			&exec.Side,
			&exec.Price,
			&exec.Amount,
			&exec.Fee,
			&exec.FeeCurrency,
			&exec.OrderID,
			&exec.ExecutedAt,
		)
		if err != nil {
			return nil, err
		}
		execs = append(execs, exec)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return execs, nil
}

// ExistingTradeIDs возвращает множество exchange_trade_id аккаунта.
// Используется ингестией для дедупликации перед вставкой.
func (r *ExecutionRepository) ExistingTradeIDs(accountID string) (map[string]struct{}, error) {
	query := `SELECT exchange_trade_id FROM raw_executions WHERE account_id = $1`

	rows, err := r.db.Query(query, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids[id] = struct{}{}
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return ids, nil
}

// LatestExecutedAt возвращает таймстамп последнего филла аккаунта.
// nil - филлов ещё нет. Ингестия берёт отсюда since для инкрементальной
// догрузки истории.
func (r *ExecutionRepository) LatestExecutedAt(accountID string) (*time.Time, error) {
	query := `SELECT MAX(executed_at) FROM raw_executions WHERE account_id = $1`

	var latest sql.NullTime
	if err := r.db.QueryRow(query, accountID).Scan(&latest); err != nil {
		return nil, err
	}
	if !latest.Valid {
		return nil, nil
	}
	return &latest.Time, nil
}

// Count возвращает количество филлов аккаунта
func (r *ExecutionRepository) Count(accountID string) (int, error) {
	query := `SELECT COUNT(*) FROM raw_executions WHERE account_id = $1`

	var count int
	if err := r.db.QueryRow(query, accountID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
