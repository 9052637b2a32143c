package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Стороны исполнения (направление сделки на бирже)
const (
	ExecutionSideBuy  = "BUY"
	ExecutionSideSell = "SELL"
)

// Типы рынка
const (
	MarketTypeSwap   = "swap"
	MarketTypeFuture = "future"
	MarketTypeSpot   = "spot"
)

// RawExecution представляет один сырой филл (исполнение) с биржи.
// Запись неизменяемая и append-only: движок сопоставления позиций
// читает их строго в порядке executed_at ASC, id ASC (id - порядок
// вставки, детерминированный tiebreak при равных таймстампах).
type RawExecution struct {
	ID              int64               `json:"id" db:"id"`
	AccountID       string              `json:"account_id" db:"account_id"`
	ExchangeTradeID string              `json:"exchange_trade_id" db:"exchange_trade_id"` // уникален в рамках (account, symbol)
	Symbol          string              `json:"symbol" db:"symbol"`
	MarketType      string              `json:"market_type" db:"market_type"` // swap, future, spot
	Side            string              `json:"side" db:"side"`               // BUY, SELL
	Price           decimal.Decimal     `json:"price" db:"price"`
	Amount          decimal.Decimal     `json:"amount" db:"amount"`
	Fee             decimal.NullDecimal `json:"fee" db:"fee"`
	FeeCurrency     string              `json:"fee_currency,omitempty" db:"fee_currency"`
	OrderID         string              `json:"order_id,omitempty" db:"order_id"`
	ExecutedAt      time.Time           `json:"executed_at" db:"executed_at"`
}

// FeeValue возвращает комиссию или ноль, если комиссия не передана биржей
func (e *RawExecution) FeeValue() decimal.Decimal {
	if e.Fee.Valid {
		return e.Fee.Decimal
	}
	return decimal.Zero
}
