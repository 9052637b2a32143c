package rebuild

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/cokechen1108-source/crypto-pnl/internal/models"
)

// FundingAllocator атрибутирует записи журнала фандинга закрытым сделкам
// по пересечению временных окон. Журнал загружается один раз на всю
// перестройку и суммируется в памяти: внутри транзакции записи сделок
// не остаётся ни одного запроса чтения, которому можно упасть.
//
// Открытые сделки аллокатор не обрабатывает - у них нет правой границы
// окна. Фандинг также никогда не раскладывается по отдельным ногам.
type FundingAllocator struct {
	bySymbol map[string][]*models.RawFunding
}

// NewFundingAllocator строит аллокатор из записей журнала.
// Записи ожидаются отсортированными по funding_at (так их отдаёт
// репозиторий), но корректность от этого не зависит.
func NewFundingAllocator(entries []*models.RawFunding) *FundingAllocator {
	bySymbol := make(map[string][]*models.RawFunding)
	for _, entry := range entries {
		bySymbol[entry.Symbol] = append(bySymbol[entry.Symbol], entry)
	}
	return &FundingAllocator{bySymbol: bySymbol}
}

// Allocate возвращает сумму фандинга символа в окне [entry, exit]
// включительно с обеих сторон
func (a *FundingAllocator) Allocate(symbol string, entry, exit time.Time) decimal.Decimal {
	total := decimal.Zero
	for _, item := range a.bySymbol[symbol] {
		if item.FundingAt.Before(entry) || item.FundingAt.After(exit) {
			continue
		}
		total = total.Add(item.FundingFee)
	}
	return total
}
