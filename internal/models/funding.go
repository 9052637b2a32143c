package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RawFunding представляет одну запись журнала фандинга (периодической
// платы за перенос позиции). Отрицательное значение - списание с аккаунта.
type RawFunding struct {
	ID          int64               `json:"id" db:"id"`
	AccountID   string              `json:"account_id" db:"account_id"`
	Symbol      string              `json:"symbol" db:"symbol"`
	FundingRate decimal.NullDecimal `json:"funding_rate" db:"funding_rate"`
	FundingFee  decimal.Decimal     `json:"funding_fee" db:"funding_fee"`
	FundingAt   time.Time           `json:"funding_at" db:"funding_at"`
}
