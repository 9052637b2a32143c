package models

import "time"

// Поддерживаемые биржи
const (
	ExchangeBybit   = "bybit"
	ExchangeBinance = "binance"
)

// Статусы аккаунта
const (
	AccountStatusActive   = "active"
	AccountStatusDisabled = "disabled"
	AccountStatusError    = "error"
)

// ExchangeAccount представляет биржевой аккаунт с API ключами
type ExchangeAccount struct {
	ID            string    `json:"id" db:"id"`
	Label         string    `json:"label" db:"label"`                   // произвольное имя аккаунта
	Exchange      string    `json:"exchange" db:"exchange"`             // bybit, binance
	APIKey        string    `json:"-" db:"api_key_enc"`                 // зашифрован AES-256-GCM, не возвращается в JSON
	APISecret     string    `json:"-" db:"api_secret_enc"`              // зашифрован
	APIPassphrase string    `json:"-" db:"api_passphrase_enc"`          // зашифрован, нужен не всем биржам
	Status        string    `json:"status" db:"status"`                 // active, disabled, error
	LastError     string    `json:"last_error,omitempty" db:"last_error"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// Credentials - расшифрованные API ключи аккаунта.
// Используются только слоем ингестии, никогда не сериализуются.
type Credentials struct {
	Exchange      string
	APIKey        string
	APISecret     string
	APIPassphrase string
}
