// Package jitter предоставляет экспоненциальные задержки со случайной добавкой,
// чтобы повторные запросы к внешним сервисам не шли синхронной волной.
package jitter

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// DefaultJitter — стандартный коэффициент джиттера (50%)
const DefaultJitter = 0.5

var (
	globalRand = rand.New(rand.NewSource(time.Now().UnixNano()))
	randMutex  sync.Mutex
)

// Duration возвращает продолжительность с применённым джиттером.
// Результат находится в диапазоне [d, d*(1+jitterFactor)].
func Duration(d time.Duration, jitterFactor float64) time.Duration {
	randMutex.Lock()
	jitter := globalRand.Float64() * jitterFactor * float64(d)
	randMutex.Unlock()
	return d + time.Duration(jitter)
}

// Backoff описывает политику повторов: base удваивается на каждой попытке, но не выше max.
type Backoff struct {
	Base   time.Duration
	Max    time.Duration
	Factor float64
}

// NewBackoff создаёт политику с коэффициентом DefaultJitter.
func NewBackoff(base, max time.Duration) Backoff {
	return Backoff{Base: base, Max: max, Factor: DefaultJitter}
}

// Delay возвращает задержку без джиттера для попытки attempt (нумерация с нуля).
func (b Backoff) Delay(attempt int) time.Duration {
	backoff := b.Base
	for i := 0; i < attempt; i++ {
		backoff *= 2
		if backoff >= b.Max {
			return b.Max
		}
	}
	return backoff
}

// Next возвращает задержку с джиттером для попытки attempt.
func (b Backoff) Next(attempt int) time.Duration {
	return Duration(b.Delay(attempt), b.Factor)
}

// Sleep ждёт Next(attempt) либо отмены контекста.
func (b Backoff) Sleep(ctx context.Context, attempt int) error {
	timer := time.NewTimer(b.Next(attempt))
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
