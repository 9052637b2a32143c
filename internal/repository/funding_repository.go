package repository

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cokechen1108-source/crypto-pnl/internal/models"
)

// FundingRepository - работа с таблицей raw_funding (журнал фандинга)
type FundingRepository struct {
	db *sql.DB
}

// NewFundingRepository создает новый экземпляр репозитория
func NewFundingRepository(db *sql.DB) *FundingRepository {
	return &FundingRepository{db: db}
}

// BatchInsert вставляет пачку записей фандинга. Возвращает число вставленных.
func (r *FundingRepository) BatchInsert(entries []*models.RawFunding) (int64, error) {
	query := `
		INSERT INTO raw_funding (account_id, symbol, funding_rate, funding_fee, funding_at)
		VALUES ($1, $2, $3, $4, $5)`

	var inserted int64
	for _, entry := range entries {
		result, err := r.db.Exec(
			query,
			entry.AccountID,
			entry.Symbol,
			entry.FundingRate,
			entry.FundingFee,
			entry.FundingAt,
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

// ListByAccount возвращает журнал фандинга аккаунта по возрастанию времени.
// Пустой symbol означает все символы. Координатор перестройки загружает
// журнал целиком один раз и дальше суммирует в памяти.
func (r *FundingRepository) ListByAccount(accountID, symbol string) ([]*models.RawFunding, error) {
	query := `
		SELECT id, account_id, symbol, funding_rate, funding_fee, funding_at
		FROM raw_funding
		WHERE account_id = $1`
	args := []interface{}{accountID}

	if symbol != "" {
		query += ` AND symbol = $2`
		args = append(args, symbol)
	}
	query += ` ORDER BY funding_at ASC, id ASC`

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*models.RawFunding
	for rows.Next() {
		entry := &models.RawFunding{}
		err := rows.Scan(
			&entry.ID,
			&entry.AccountID,
			&entry.Symbol,
			&entry.FundingRate,
			&entry.FundingFee,
			&entry.FundingAt,
		)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

// LatestFundingAt возвращает время последней записи фандинга аккаунта.
// nil, если журнал пуст.
func (r *FundingRepository) LatestFundingAt(accountID string) (*time.Time, error) {
	query := `SELECT MAX(funding_at) FROM raw_funding WHERE account_id = $1`

	var latest sql.NullTime
	if err := r.db.QueryRow(query, accountID).Scan(&latest); err != nil {
		return nil, err
	}
	if !latest.Valid {
		return nil, nil
	}
	t := latest.Time
	return &t, nil
}

// SumInRange возвращает сумму фандинга по символу за период включительно
func (r *FundingRepository) SumInRange(accountID, symbol string, from, to time.Time) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(funding_fee), 0)
		FROM raw_funding
		WHERE account_id = $1 AND symbol = $2 AND funding_at >= $3 AND funding_at <= $4`

	var total decimal.Decimal
	if err := r.db.QueryRow(query, accountID, symbol, from, to).Scan(&total); err != nil {
		return decimal.Zero, err
	}
	return total, nil
}
