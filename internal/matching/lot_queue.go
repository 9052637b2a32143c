package matching

import (
	"time"

	"github.com/shopspring/decimal"
)

// Lot - слайс открытой позиции со своей ценой и временем входа.
// Создаётся при открытии или доборе позиции, потребляется строго FIFO
// при её сокращении и удаляется, когда размер доходит до нуля.
type Lot struct {
	Size      decimal.Decimal
	Price     decimal.Decimal
	EntryTime time.Time
}

// LotQueue - FIFO очередь лотов на кольцевом буфере.
//
// Очередь потребляется с головы при каждом закрывающем исполнении,
// поэтому PopFront обязан быть O(1): плоский слайс со сдвигом дал бы
// квадратичную стоимость на длинных историях филлов.
type LotQueue struct {
	buf  []Lot
	head int
	n    int
}

// NewLotQueue создает очередь с начальной ёмкостью
func NewLotQueue() *LotQueue {
	return &LotQueue{buf: make([]Lot, 8)}
}

// Len возвращает количество лотов в очереди
func (q *LotQueue) Len() int {
	return q.n
}

// PushBack добавляет лот в хвост очереди
func (q *LotQueue) PushBack(lot Lot) {
	if q.n == len(q.buf) {
		q.grow()
	}
	q.buf[(q.head+q.n)%len(q.buf)] = lot
	q.n++
}

// Front возвращает указатель на старейший лот.
// Лот мутируется на месте при частичном сведении.
// Возвращает nil для пустой очереди.
func (q *LotQueue) Front() *Lot {
	if q.n == 0 {
		return nil
	}
	return &q.buf[q.head]
}

// PopFront удаляет старейший лот
func (q *LotQueue) PopFront() {
	if q.n == 0 {
		return
	}
	q.buf[q.head] = Lot{}
	q.head = (q.head + 1) % len(q.buf)
	q.n--
}

// TotalSize возвращает сумму размеров всех лотов (открытое количество)
func (q *LotQueue) TotalSize() decimal.Decimal {
	total := decimal.Zero
	for i := 0; i < q.n; i++ {
		total = total.Add(q.buf[(q.head+i)%len(q.buf)].Size)
	}
	return total
}

// WeightedPrice возвращает средневзвешенную по размеру цену входа:
// Σ(price·size) / Σ(size). Пересчитывается целиком от текущих лотов,
// а не инкрементально, чтобы не накапливать ошибку многократных делений.
// Для пустой очереди возвращает ноль.
func (q *LotQueue) WeightedPrice() decimal.Decimal {
	totalSize := decimal.Zero
	totalCost := decimal.Zero
	for i := 0; i < q.n; i++ {
		lot := &q.buf[(q.head+i)%len(q.buf)]
		totalSize = totalSize.Add(lot.Size)
		totalCost = totalCost.Add(lot.Price.Mul(lot.Size))
	}
	if totalSize.IsZero() {
		return decimal.Zero
	}
	return totalCost.Div(totalSize)
}

// grow удваивает буфер, переукладывая элементы от головы
func (q *LotQueue) grow() {
	next := make([]Lot, len(q.buf)*2)
	for i := 0; i < q.n; i++ {
		next[i] = q.buf[(q.head+i)%len(q.buf)]
	}
	q.buf = next
	q.head = 0
}
