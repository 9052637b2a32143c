package repository

import "database/sql"

// Статементы создания схемы. NUMERIC для денег и размеров: инварианты
// сохранения количества/комиссий не переживают float-колонок.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS exchange_accounts (
		id UUID PRIMARY KEY,
		label VARCHAR(100) NOT NULL,
		exchange VARCHAR(20) NOT NULL,
		api_key_enc TEXT NOT NULL DEFAULT '',
		api_secret_enc TEXT NOT NULL DEFAULT '',
		api_passphrase_enc TEXT NOT NULL DEFAULT '',
		status VARCHAR(20) NOT NULL DEFAULT 'active',
		last_error TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS raw_executions (
		id BIGSERIAL PRIMARY KEY,
		account_id UUID NOT NULL REFERENCES exchange_accounts(id) ON DELETE CASCADE,
		exchange_trade_id VARCHAR(120) NOT NULL,
		symbol VARCHAR(40) NOT NULL,
		market_type VARCHAR(20) NOT NULL DEFAULT 'swap',
		side VARCHAR(4) NOT NULL,
		price NUMERIC(30, 12) NOT NULL,
		amount NUMERIC(30, 12) NOT NULL,
		fee NUMERIC(30, 12),
		fee_currency VARCHAR(20) NOT NULL DEFAULT '',
		order_id VARCHAR(120) NOT NULL DEFAULT '',
		executed_at TIMESTAMPTZ NOT NULL,
		UNIQUE (account_id, symbol, exchange_trade_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_raw_executions_account_time
		ON raw_executions (account_id, executed_at, id)`,
	`CREATE TABLE IF NOT EXISTS raw_funding (
		id BIGSERIAL PRIMARY KEY,
		account_id UUID NOT NULL REFERENCES exchange_accounts(id) ON DELETE CASCADE,
		symbol VARCHAR(40) NOT NULL,
		funding_rate NUMERIC(30, 12),
		funding_fee NUMERIC(30, 12) NOT NULL,
		funding_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_raw_funding_account_symbol_time
		ON raw_funding (account_id, symbol, funding_at)`,
	`CREATE TABLE IF NOT EXISTS trades (
		id BIGSERIAL PRIMARY KEY,
		account_id UUID NOT NULL REFERENCES exchange_accounts(id) ON DELETE CASCADE,
		symbol VARCHAR(40) NOT NULL,
		side VARCHAR(5) NOT NULL,
		status VARCHAR(6) NOT NULL,
		entry_time TIMESTAMPTZ NOT NULL,
		exit_time TIMESTAMPTZ,
		entry_price NUMERIC(30, 12) NOT NULL,
		exit_price NUMERIC(30, 12),
		size NUMERIC(30, 12) NOT NULL,
		realized_pnl NUMERIC(30, 12) NOT NULL DEFAULT 0,
		fee_total NUMERIC(30, 12) NOT NULL DEFAULT 0,
		funding_total NUMERIC(30, 12) NOT NULL DEFAULT 0,
		duration_seconds BIGINT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_trades_account_symbol
		ON trades (account_id, symbol, entry_time)`,
	`CREATE TABLE IF NOT EXISTS trade_legs (
		id BIGSERIAL PRIMARY KEY,
		trade_id BIGINT NOT NULL REFERENCES trades(id) ON DELETE CASCADE,
		side VARCHAR(5) NOT NULL,
		size NUMERIC(30, 12) NOT NULL,
		entry_price NUMERIC(30, 12) NOT NULL,
		exit_price NUMERIC(30, 12) NOT NULL,
		entry_time TIMESTAMPTZ NOT NULL,
		exit_time TIMESTAMPTZ NOT NULL,
		realized_pnl NUMERIC(30, 12) NOT NULL,
		fee_total NUMERIC(30, 12) NOT NULL,
		funding_total NUMERIC(30, 12) NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS trade_executions (
		id BIGSERIAL PRIMARY KEY,
		trade_id BIGINT NOT NULL REFERENCES trades(id) ON DELETE CASCADE,
		raw_execution_id BIGINT NOT NULL REFERENCES raw_executions(id) ON DELETE CASCADE,
		side VARCHAR(4) NOT NULL,
		price NUMERIC(30, 12) NOT NULL,
		amount NUMERIC(30, 12) NOT NULL,
		fee NUMERIC(30, 12),
		fee_currency VARCHAR(20) NOT NULL DEFAULT '',
		executed_at TIMESTAMPTZ NOT NULL
	)`,
}

// Migrate создает недостающие таблицы и индексы
func Migrate(db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
