package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Стороны логической сделки
const (
	TradeSideLong  = "LONG"
	TradeSideShort = "SHORT"
)

// Статусы сделки
const (
	TradeStatusOpen   = "OPEN"
	TradeStatusClosed = "CLOSED"
)

// Trade представляет логическую сделку (round-trip), восстановленную из
// потока сырых филлов: сколько открыто, по какой средневзвешенной цене,
// как закрывалось и какой реализованный PnL получился.
//
// Инварианты (поддерживаются движком сопоставления и перестройкой):
// - сумма Size всех ног + открытый Size сделки = всё количество,
//   когда-либо отнесённое к сделке;
// - сумма RealizedPnl ног = RealizedPnl сделки;
// - на (account, symbol) одновременно не более одной сделки в статусе OPEN.
type Trade struct {
	ID              int64               `json:"id" db:"id"`
	AccountID       string              `json:"account_id" db:"account_id"`
	Symbol          string              `json:"symbol" db:"symbol"`
	Side            string              `json:"side" db:"side"`     // LONG, SHORT
	Status          string              `json:"status" db:"status"` // OPEN, CLOSED
	EntryTime       time.Time           `json:"entry_time" db:"entry_time"`
	ExitTime        *time.Time          `json:"exit_time,omitempty" db:"exit_time"`
	EntryPrice      decimal.Decimal     `json:"entry_price" db:"entry_price"` // средневзвешенная по лотам
	ExitPrice       decimal.NullDecimal `json:"exit_price" db:"exit_price"`   // средневзвешенная по ногам
	Size            decimal.Decimal     `json:"size" db:"size"`               // оставшееся открытое количество
	RealizedPnl     decimal.Decimal     `json:"realized_pnl" db:"realized_pnl"`
	FeeTotal        decimal.Decimal     `json:"fee_total" db:"fee_total"`
	FundingTotal    decimal.Decimal     `json:"funding_total" db:"funding_total"`
	DurationSeconds *int64              `json:"duration_seconds,omitempty" db:"duration_seconds"`
	CreatedAt       time.Time           `json:"created_at" db:"created_at"`

	// Вложенные записи, заполняются только при выборке одной сделки
	Legs       []*TradeLeg       `json:"legs,omitempty"`
	Executions []*TradeExecution `json:"executions,omitempty"`
}

// TradeLeg представляет один FIFO-сегмент закрытия: часть позиции,
// сведённая с конкретным лотом входа. Неизменяема после создания.
type TradeLeg struct {
	ID           int64           `json:"id" db:"id"`
	TradeID      int64           `json:"trade_id" db:"trade_id"`
	Side         string          `json:"side" db:"side"`
	Size         decimal.Decimal `json:"size" db:"size"`
	EntryPrice   decimal.Decimal `json:"entry_price" db:"entry_price"`
	ExitPrice    decimal.Decimal `json:"exit_price" db:"exit_price"`
	EntryTime    time.Time       `json:"entry_time" db:"entry_time"`
	ExitTime     time.Time       `json:"exit_time" db:"exit_time"`
	RealizedPnl  decimal.Decimal `json:"realized_pnl" db:"realized_pnl"`
	FeeTotal     decimal.Decimal `json:"fee_total" db:"fee_total"`
	FundingTotal decimal.Decimal `json:"funding_total" db:"funding_total"`
}

// TradeExecution представляет долю одного сырого филла, отнесённую к
// конкретной сделке. При флипе позиции один RawExecution распадается на
// две такие записи в разных сделках; суммы amount и fee по всем долям
// равны исходным значениям филла.
type TradeExecution struct {
	ID             int64               `json:"id" db:"id"`
	TradeID        int64               `json:"trade_id" db:"trade_id"`
	RawExecutionID int64               `json:"raw_execution_id" db:"raw_execution_id"`
	Side           string              `json:"side" db:"side"`
	Price          decimal.Decimal     `json:"price" db:"price"`
	Amount         decimal.Decimal     `json:"amount" db:"amount"`
	Fee            decimal.NullDecimal `json:"fee" db:"fee"`
	FeeCurrency    string              `json:"fee_currency,omitempty" db:"fee_currency"`
	ExecutedAt     time.Time           `json:"executed_at" db:"executed_at"`
}
