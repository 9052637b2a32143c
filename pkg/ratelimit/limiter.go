// Package ratelimit реализует token bucket лимитер для биржевых API.
//
// Загрузка истории - это сотни последовательных запросов; без лимитера
// биржа быстро отвечает 429 и баном по IP. Каждый источник держит свой
// лимитер, откалиброванный под лимиты конкретной биржи.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// RateLimiter - классический token bucket.
// Токены пополняются непрерывно со скоростью rate в секунду, всплески
// до burst запросов проходят без ожидания.
type RateLimiter struct {
	mu         sync.Mutex
	rate       float64 // токенов в секунду
	burst      float64 // размер ведра
	tokens     float64
	lastRefill time.Time
}

// New создает лимитер: rate запросов в секунду, всплеск до burst
func New(rate, burst float64) *RateLimiter {
	if rate <= 0 {
		rate = 1
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		rate:       rate,
		burst:      burst,
		tokens:     burst, // начинаем с полным ведром
		lastRefill: time.Now(),
	}
}

// refill пополняет токены на основе прошедшего времени.
// ВАЖНО: вызывается под lock'ом.
func (rl *RateLimiter) refill() {
	now := time.Now()
	elapsed := now.Sub(rl.lastRefill).Seconds()

	rl.tokens += elapsed * rl.rate
	if rl.tokens > rl.burst {
		rl.tokens = rl.burst
	}

	rl.lastRefill = now
}

// Wait блокирует до получения токена или отмены контекста
func (rl *RateLimiter) Wait(ctx context.Context) error {
	for {
		rl.mu.Lock()
		rl.refill()

		if rl.tokens >= 1 {
			rl.tokens--
			rl.mu.Unlock()
			return nil
		}

		// время до следующего токена
		waitTime := time.Duration((1 - rl.tokens) / rl.rate * float64(time.Second))
		rl.mu.Unlock()

		select {
		case <-time.After(waitTime):
			continue
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Allow проверяет доступность токена без блокировки
func (rl *RateLimiter) Allow() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.refill()

	if rl.tokens >= 1 {
		rl.tokens--
		return true
	}
	return false
}
