package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/cokechen1108-source/crypto-pnl/internal/models"
)

// Ошибки репозитория аккаунтов
var (
	ErrAccountNotFound = errors.New("exchange account not found")
)

// AccountRepository - работа с таблицей exchange_accounts
type AccountRepository struct {
	db *sql.DB
}

// NewAccountRepository создает новый экземпляр репозитория
func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// Create создает запись об аккаунте. API ключи уже зашифрованы сервисом.
func (r *AccountRepository) Create(account *models.ExchangeAccount) error {
	query := `
		INSERT INTO exchange_accounts (id, label, exchange, api_key_enc, api_secret_enc, api_passphrase_enc, status, last_error, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	now := time.Now()
	account.CreatedAt = now
	account.UpdatedAt = now

	_, err := r.db.Exec(
		query,
		account.ID,
		account.Label,
		account.Exchange,
		account.APIKey,
		account.APISecret,
		account.APIPassphrase,
		account.Status,
		account.LastError,
		account.CreatedAt,
		account.UpdatedAt,
	)
	return err
}

// GetByID возвращает аккаунт по ID
func (r *AccountRepository) GetByID(id string) (*models.ExchangeAccount, error) {
	query := `
		SELECT id, label, exchange, api_key_enc, api_secret_enc, api_passphrase_enc, status, last_error, created_at, updated_at
		FROM exchange_accounts
		WHERE id = $1`

	account := &models.ExchangeAccount{}
	err := r.db.QueryRow(query, id).Scan(
		&account.ID,
		&account.Label,
		&account.Exchange,
		&account.APIKey,
		&account.APISecret,
		&account.APIPassphrase,
		&account.Status,
		&account.LastError,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	return account, nil
}

// GetAll возвращает все аккаунты
func (r *AccountRepository) GetAll() ([]*models.ExchangeAccount, error) {
	query := `
		SELECT id, label, exchange, api_key_enc, api_secret_enc, api_passphrase_enc, status, last_error, created_at, updated_at
		FROM exchange_accounts
		ORDER BY created_at ASC`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []*models.ExchangeAccount
	for rows.Next() {
		account := &models.ExchangeAccount{}
		err := rows.Scan(
			&account.ID,
			&account.Label,
			&account.Exchange,
			&account.APIKey,
			&account.APISecret,
			&account.APIPassphrase,
			&account.Status,
			&account.LastError,
			&account.CreatedAt,
			&account.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return accounts, nil
}

// UpdateStatus обновляет статус аккаунта
func (r *AccountRepository) UpdateStatus(id, status string) error {
	query := `UPDATE exchange_accounts SET status = $1, updated_at = $2 WHERE id = $3`

	result, err := r.db.Exec(query, status, time.Now(), id)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// SetLastError сохраняет последнюю ошибку синхронизации аккаунта
func (r *AccountRepository) SetLastError(id, errMsg string) error {
	query := `UPDATE exchange_accounts SET last_error = $1, updated_at = $2 WHERE id = $3`

	result, err := r.db.Exec(query, errMsg, time.Now(), id)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// Delete удаляет аккаунт (каскадно удаляются филлы, фандинг и сделки)
func (r *AccountRepository) Delete(id string) error {
	query := `DELETE FROM exchange_accounts WHERE id = $1`

	result, err := r.db.Exec(query, id)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrAccountNotFound
	}
	return nil
}
