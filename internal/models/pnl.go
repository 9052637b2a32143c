package models

import "github.com/shopspring/decimal"

// DailyPnl - агрегированный результат за один календарный день.
// Учитываются только закрытые сделки, сгруппированные по дате exit_time.
type DailyPnl struct {
	Date         string          `json:"date"` // YYYY-MM-DD
	RealizedPnl  decimal.Decimal `json:"realized_pnl"`
	FeeTotal     decimal.Decimal `json:"fee_total"`
	FundingTotal decimal.Decimal `json:"funding_total"`
	TradeCount   int             `json:"trade_count"`
}

// MonthlyPnl - агрегированный результат за календарный месяц
type MonthlyPnl struct {
	Month        string          `json:"month"` // YYYY-MM-01
	RealizedPnl  decimal.Decimal `json:"realized_pnl"`
	FeeTotal     decimal.Decimal `json:"fee_total"`
	FundingTotal decimal.Decimal `json:"funding_total"`
	TradeCount   int             `json:"trade_count"`
}

// TotalPnl - накопленный результат по всем закрытым сделкам аккаунта
type TotalPnl struct {
	TotalRealizedPnl decimal.Decimal `json:"total_realized_pnl"`
	TotalFee         decimal.Decimal `json:"total_fee"`
	TotalFunding     decimal.Decimal `json:"total_funding"`
	TradeCount       int             `json:"trade_count"`
}
