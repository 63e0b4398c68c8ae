// =================================
// File: internal/ratelimit/limiter.go
// =================================
package ratelimit

import (
	"fmt"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	basePenalty       = 30 * time.Second
	maxPenalty        = 10 * time.Minute
	penaltyMultiplier = 1.5
	violationTTL      = time.Hour
)

// Decision — результат проверки лимита.
type Decision struct {
	Allowed      bool
	Remaining    int
	BlockedUntil time.Time
}

type violationState struct {
	count  int
	lastAt time.Time
}

// Limiter — скользящее окно запросов per (identifier, endpoint) с
// эскалирующей автоблокировкой: первое нарушение только фиксируется,
// повторные блокируют на 30s*1.5^n, но не дольше десяти минут.
// Счётчик нарушений обнуляется через час тишины.
type Limiter struct {
	mu         sync.Mutex
	windows    map[string][]time.Time
	violations map[string]*violationState
	blocks     map[string]time.Time
	now        func() time.Time
	logger     *zap.Logger
}

// Option настраивает Limiter.
type Option func(*Limiter)

// WithClock подменяет источник времени (для тестов).
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// NewLimiter создаёт лимитер.
func NewLimiter(logger *zap.Logger, opts ...Option) *Limiter {
	l := &Limiter{
		windows:    make(map[string][]time.Time),
		violations: make(map[string]*violationState),
		blocks:     make(map[string]time.Time),
		now:        time.Now,
		logger:     logger.Named("ratelimit"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// CheckAndConsume проверяет лимит и, если запрос разрешён, потребляет
// один слот окна. Отказ слот не потребляет.
func (l *Limiter) CheckAndConsume(identifier, endpoint string, maxRequests int, window time.Duration) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	key := fmt.Sprintf("%s:%s", identifier, endpoint)

	// Действующая блокировка истекает ровно в записанный момент
	if until, ok := l.blocks[key]; ok {
		if now.Before(until) {
			return Decision{Allowed: false, BlockedUntil: until}
		}
		delete(l.blocks, key)
	}

	winKey := fmt.Sprintf("%s:%d", key, int64(window/time.Second))
	stamps := prune(l.windows[winKey], now.Add(-window))

	if len(stamps) >= maxRequests {
		l.windows[winKey] = stamps
		until := l.recordViolation(key, now)
		l.logger.Debug("Rate limit exceeded",
			zap.String("identifier", identifier),
			zap.String("endpoint", endpoint),
			zap.Time("blocked_until", until))
		return Decision{Allowed: false, BlockedUntil: until}
	}

	l.windows[winKey] = append(stamps, now)
	return Decision{Allowed: true, Remaining: maxRequests - len(stamps) - 1}
}

// recordViolation фиксирует нарушение и возвращает момент окончания
// блокировки (нулевое время, если это первое нарушение и блокировки нет).
func (l *Limiter) recordViolation(key string, now time.Time) time.Time {
	v, ok := l.violations[key]
	if !ok || now.Sub(v.lastAt) >= violationTTL {
		v = &violationState{}
		l.violations[key] = v
	}
	v.count++
	v.lastAt = now

	if v.count == 1 {
		return time.Time{}
	}

	penalty := time.Duration(float64(basePenalty) * math.Pow(penaltyMultiplier, float64(v.count-1)))
	if penalty > maxPenalty {
		penalty = maxPenalty
	}
	until := now.Add(penalty)
	l.blocks[key] = until
	return until
}

// Reset сбрасывает окна, нарушения и блокировки идентификатора.
func (l *Limiter) Reset(identifier string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	prefix := identifier + ":"
	for k := range l.windows {
		if len(k) > len(prefix) && k[:len(prefix)] == prefix {
			delete(l.windows, k)
		}
	}
	for k := range l.violations {
		if len(k) > len(prefix) && k[:len(prefix)] == prefix {
			delete(l.violations, k)
		}
	}
	for k := range l.blocks {
		if len(k) > len(prefix) && k[:len(prefix)] == prefix {
			delete(l.blocks, k)
		}
	}
}

func prune(stamps []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(stamps) && !stamps[i].After(cutoff) {
		i++
	}
	return stamps[i:]
}
