package repository

import (
	"database/sql"
	"time"

	"github.com/cokechen1108-source/crypto-pnl/internal/models"
)

// PnlRepository - агрегирующие выборки для календаря PnL.
// Читает только закрытые сделки: открытая позиция не имеет
// реализованного результата.
type PnlRepository struct {
	db *sql.DB
}

// NewPnlRepository создает новый экземпляр репозитория
func NewPnlRepository(db *sql.DB) *PnlRepository {
	return &PnlRepository{db: db}
}

// GetDailyPnl возвращает дневные корзины PnL по exit_time.
// from/to необязательны (nil = без границы).
func (r *PnlRepository) GetDailyPnl(accountID string, from, to *time.Time) ([]*models.DailyPnl, error) {
	query := `
		SELECT to_char(date_trunc('day', exit_time), 'YYYY-MM-DD') AS date,
		       COALESCE(SUM(realized_pnl), 0),
		       COALESCE(SUM(fee_total), 0),
		       COALESCE(SUM(funding_total), 0),
		       COUNT(*)
		FROM trades
		WHERE account_id = $1 AND status = 'CLOSED' AND exit_time IS NOT NULL`
	args := []interface{}{accountID}

	if from != nil {
		args = append(args, *from)
		query += ` AND exit_time >= $` + itoa(len(args))
	}
	if to != nil {
		args = append(args, *to)
		query += ` AND exit_time <= $` + itoa(len(args))
	}
	query += `
		GROUP BY date_trunc('day', exit_time)
		ORDER BY date ASC`

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var buckets []*models.DailyPnl
	for rows.Next() {
		bucket := &models.DailyPnl{}
		if err := rows.Scan(&bucket.Date, &bucket.RealizedPnl, &bucket.FeeTotal, &bucket.FundingTotal, &bucket.TradeCount); err != nil {
			return nil, err
		}
		buckets = append(buckets, bucket)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return buckets, nil
}

// GetMonthlyPnl возвращает месячные корзины PnL по exit_time
func (r *PnlRepository) GetMonthlyPnl(accountID string, from, to *time.Time) ([]*models.MonthlyPnl, error) {
	query := `
		SELECT to_char(date_trunc('month', exit_time), 'YYYY-MM-DD') AS month,
		       COALESCE(SUM(realized_pnl), 0),
		       COALESCE(SUM(fee_total), 0),
		       COALESCE(SUM(funding_total), 0),
		       COUNT(*)
		FROM trades
		WHERE account_id = $1 AND status = 'CLOSED' AND exit_time IS NOT NULL`
	args := []interface{}{accountID}

	if from != nil {
		args = append(args, *from)
		query += ` AND exit_time >= $` + itoa(len(args))
	}
	if to != nil {
		args = append(args, *to)
		query += ` AND exit_time <= $` + itoa(len(args))
	}
	query += `
		GROUP BY date_trunc('month', exit_time)
		ORDER BY month ASC`

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var buckets []*models.MonthlyPnl
	for rows.Next() {
		bucket := &models.MonthlyPnl{}
		if err := rows.Scan(&bucket.Month, &bucket.RealizedPnl, &bucket.FeeTotal, &bucket.FundingTotal, &bucket.TradeCount); err != nil {
			return nil, err
		}
		buckets = append(buckets, bucket)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return buckets, nil
}

// GetTotalPnl возвращает накопленный результат по закрытым сделкам
func (r *PnlRepository) GetTotalPnl(accountID string) (*models.TotalPnl, error) {
	query := `
		SELECT COALESCE(SUM(realized_pnl), 0),
		       COALESCE(SUM(fee_total), 0),
		       COALESCE(SUM(funding_total), 0),
		       COUNT(*)
		FROM trades
		WHERE account_id = $1 AND status = 'CLOSED' AND exit_time IS NOT NULL`

	total := &models.TotalPnl{}
	err := r.db.QueryRow(query, accountID).Scan(&total.TotalRealizedPnl, &total.TotalFee, &total.TotalFunding, &total.TradeCount)
	if err != nil {
		return nil, err
	}
	return total, nil
}

// GetActivityDays возвращает отсортированный список дат, в которые
// была активность (вход или выход хотя бы одной сделки)
func (r *PnlRepository) GetActivityDays(accountID string) ([]string, error) {
	query := `
		SELECT DISTINCT day FROM (
			SELECT to_char(date_trunc('day', entry_time), 'YYYY-MM-DD') AS day
			FROM trades WHERE account_id = $1
			UNION
			SELECT to_char(date_trunc('day', exit_time), 'YYYY-MM-DD') AS day
			FROM trades WHERE account_id = $1 AND exit_time IS NOT NULL
		) days
		WHERE day IS NOT NULL
		ORDER BY day ASC`

	rows, err := r.db.Query(query, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var days []string
	for rows.Next() {
		var day string
		if err := rows.Scan(&day); err != nil {
			return nil, err
		}
		days = append(days, day)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return days, nil
}
