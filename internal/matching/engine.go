// Package matching восстанавливает логические сделки (round-trip) из
// хронологического потока сырых филлов одной пары (аккаунт, символ).
//
// Движок - чистое синхронное вычисление над упорядоченным списком в
// памяти: не блокируется, не держит внешних ресурсов и детерминирован
// при одинаковом порядке входа. Вся арифметика ведётся в точных
// десятичных числах; float запрещён, потому что дрейф округления на
// длинных историях нарушил бы законы сохранения количества и комиссий.
package matching

import (
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/cokechen1108-source/crypto-pnl/internal/models"
)

// Leg - один FIFO-сегмент закрытия: часть закрывающего исполнения,
// сведённая с конкретным лотом входа
type Leg struct {
	Side        string
	Size        decimal.Decimal
	EntryPrice  decimal.Decimal
	ExitPrice   decimal.Decimal
	EntryTime   time.Time
	ExitTime    time.Time
	RealizedPnl decimal.Decimal
	FeeTotal    decimal.Decimal
}

// Allocation - доля одного сырого филла, отнесённая к сделке.
// При флипе один филл даёт две аллокации в двух разных сделках.
type Allocation struct {
	RawExecutionID int64
	Side           string
	Price          decimal.Decimal
	Amount         decimal.Decimal
	Fee            decimal.NullDecimal
	FeeCurrency    string
	ExecutedAt     time.Time
}

// Result - готовая, ещё не сохранённая сделка с её ногами и аллокациями
type Result struct {
	Symbol      string
	Side        string
	Status      string
	EntryTime   time.Time
	ExitTime    *time.Time
	EntryPrice  decimal.Decimal
	ExitPrice   decimal.NullDecimal
	Size        decimal.Decimal
	RealizedPnl decimal.Decimal
	FeeTotal    decimal.Decimal
	Legs        []Leg
	Allocations []Allocation
}

// draft - строящаяся сделка: открытые лоты плюс накопленные итоги
type draft struct {
	symbol      string
	side        string
	entryTime   time.Time
	entryPrice  decimal.Decimal
	size        decimal.Decimal
	realizedPnl decimal.Decimal
	feeTotal    decimal.Decimal
	lots        *LotQueue
	legs        []Leg
	allocs      []Allocation
}

// state - явное состояние позиции: Flat либо Open(draft).
// Каждый переход (открытие, добор, сокращение, закрытие, флип) проходит
// через методы state, поэтому "забыли сбросить draft" исключено.
type state struct {
	current *draft
}

func (s *state) flat() bool { return s.current == nil }

func (s *state) open(d *draft) { s.current = d }

func (s *state) close() { s.current = nil }

// Engine - движок сопоставления позиций
type Engine struct {
	logger *zap.Logger
}

// NewEngine создает новый движок
func NewEngine(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{logger: logger}
}

// Match прогоняет упорядоченный поток филлов одного символа и возвращает
// восстановленные сделки: ноль и более CLOSED плюс не более одной
// завершающей OPEN. Вход обязан быть отсортирован по executed_at ASC с
// детерминированным tiebreak (порядок вставки); сортировку гарантирует
// репозиторий.
func (e *Engine) Match(symbol string, execs []*models.RawExecution) []*Result {
	var results []*Result
	var st state

	for _, exec := range execs {
		if !e.valid(exec) {
			continue
		}

		execSide := impliedSide(exec.Side)
		fee := exec.FeeValue()
		// Все частичные комиссии выводятся из этого отношения, а не
		// повторным делением уже округлённых частей
		feePerUnit := decimal.Zero
		if exec.Amount.IsPositive() {
			feePerUnit = fee.Div(exec.Amount)
		}

		// Flat: открываем новую сделку целиком из этого филла
		if st.flat() {
			st.open(newDraft(exec, execSide, exec.Amount, fee))
			continue
		}

		d := st.current

		// Филл в сторону позиции: добор
		if execSide == d.side {
			d.lots.PushBack(Lot{Size: exec.Amount, Price: exec.Price, EntryTime: exec.ExecutedAt})
			d.size = d.size.Add(exec.Amount)
			d.entryPrice = d.lots.WeightedPrice()
			d.feeTotal = d.feeTotal.Add(fee)
			d.allocs = append(d.allocs, newAllocation(exec, exec.Amount, fee))
			continue
		}

		// Встречный филл: сокращаем позицию, сводя с лотами FIFO
		remaining := exec.Amount
		for remaining.IsPositive() && d.lots.Len() > 0 {
			lot := d.lots.Front()
			matched := decimal.Min(lot.Size, remaining)
			matchedFee := feePerUnit.Mul(matched)

			var pnl decimal.Decimal
			if d.side == models.TradeSideLong {
				pnl = exec.Price.Sub(lot.Price).Mul(matched)
			} else {
				pnl = lot.Price.Sub(exec.Price).Mul(matched)
			}

			d.realizedPnl = d.realizedPnl.Add(pnl)
			d.feeTotal = d.feeTotal.Add(matchedFee)
			d.size = d.size.Sub(matched)

			d.legs = append(d.legs, Leg{
				Side:        d.side,
				Size:        matched,
				EntryPrice:  lot.Price,
				ExitPrice:   exec.Price,
				EntryTime:   lot.EntryTime,
				ExitTime:    exec.ExecutedAt,
				RealizedPnl: pnl,
				FeeTotal:    matchedFee,
			})
			d.allocs = append(d.allocs, newAllocation(exec, matched, matchedFee))

			lot.Size = lot.Size.Sub(matched)
			remaining = remaining.Sub(matched)
			if lot.Size.IsZero() {
				d.lots.PopFront()
			}
		}

		// Позиция закрыта полностью
		if d.size.IsZero() {
			results = append(results, d.finalize(exec.ExecutedAt))
			st.close()
		}

		// Флип: закрывающий филл оказался больше открытой позиции -
		// остаток сразу открывает сделку в противоположную сторону.
		// Один и тот же RawExecution получает аллокации в двух сделках.
		if remaining.IsPositive() {
			st.open(newDraft(exec, execSide, remaining, feePerUnit.Mul(remaining)))
		}
	}

	// Поток исчерпан, позиция осталась открытой - отдаём как OPEN
	if !st.flat() {
		results = append(results, st.current.asOpen())
	}

	return results
}

// valid отсекает повреждённые филлы. Ингестия не должна их записывать,
// но движок обязан быть защищён: пропуск с диагностикой, не фатал.
func (e *Engine) valid(exec *models.RawExecution) bool {
	if !exec.Amount.IsPositive() || !exec.Price.IsPositive() || exec.ExecutedAt.IsZero() {
		e.logger.Warn("skipping malformed execution",
			zap.Int64("raw_execution_id", exec.ID),
			zap.String("symbol", exec.Symbol),
			zap.String("price", exec.Price.String()),
			zap.String("amount", exec.Amount.String()),
			zap.Time("executed_at", exec.ExecutedAt),
		)
		return false
	}
	return true
}

// impliedSide переводит сторону исполнения в сторону позиции
func impliedSide(execSide string) string {
	if execSide == models.ExecutionSideBuy {
		return models.TradeSideLong
	}
	return models.TradeSideShort
}

// newDraft открывает новую строящуюся сделку из (части) филла
func newDraft(exec *models.RawExecution, side string, amount, fee decimal.Decimal) *draft {
	lots := NewLotQueue()
	lots.PushBack(Lot{Size: amount, Price: exec.Price, EntryTime: exec.ExecutedAt})
	return &draft{
		symbol:     exec.Symbol,
		side:       side,
		entryTime:  exec.ExecutedAt,
		entryPrice: exec.Price,
		size:       amount,
		feeTotal:   fee,
		lots:       lots,
		allocs:     []Allocation{newAllocation(exec, amount, fee)},
	}
}

// newAllocation строит аллокацию на часть филла с её долей комиссии
func newAllocation(exec *models.RawExecution, amount, fee decimal.Decimal) Allocation {
	alloc := Allocation{
		RawExecutionID: exec.ID,
		Side:           exec.Side,
		Price:          exec.Price,
		Amount:         amount,
		FeeCurrency:    exec.FeeCurrency,
		ExecutedAt:     exec.ExecutedAt,
	}
	if !fee.IsZero() {
		alloc.Fee = decimal.NullDecimal{Decimal: fee, Valid: true}
	}
	return alloc
}

// finalize закрывает сделку: цена выхода - средневзвешенная по ногам
func (d *draft) finalize(exitTime time.Time) *Result {
	r := d.asOpen()
	r.Status = models.TradeStatusClosed
	t := exitTime
	r.ExitTime = &t
	r.ExitPrice = decimal.NullDecimal{Decimal: weightedExitPrice(d.legs), Valid: len(d.legs) > 0}
	return r
}

// asOpen снимает снимок сделки в её текущем (открытом) состоянии
func (d *draft) asOpen() *Result {
	return &Result{
		Symbol:      d.symbol,
		Side:        d.side,
		Status:      models.TradeStatusOpen,
		EntryTime:   d.entryTime,
		EntryPrice:  d.entryPrice,
		Size:        d.size,
		RealizedPnl: d.realizedPnl,
		FeeTotal:    d.feeTotal,
		Legs:        d.legs,
		Allocations: d.allocs,
	}
}

// weightedExitPrice возвращает средневзвешенную по размеру цену выхода
func weightedExitPrice(legs []Leg) decimal.Decimal {
	totalSize := decimal.Zero
	totalValue := decimal.Zero
	for i := range legs {
		totalSize = totalSize.Add(legs[i].Size)
		totalValue = totalValue.Add(legs[i].ExitPrice.Mul(legs[i].Size))
	}
	if totalSize.IsZero() {
		return decimal.Zero
	}
	return totalValue.Div(totalSize)
}
