// =================================
// File: internal/graduation/lplock.go
// =================================
package graduation

import (
	"math/bits"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
)

// LpLock — замок на LP-позицию, созданную при градуации. Без vesting
// вся позиция доступна только после полного истечения срока; с vesting
// разблокировка линейная: available = total*elapsed/duration - unlocked.
type LpLock struct {
	Token          solana.PublicKey
	Total          uint64
	Unlocked       uint64
	LockStart      time.Time
	Duration       time.Duration
	VestingEnabled bool
	LastUnlockAt   time.Time
}

// Available возвращает количество LP-токенов, доступных к разблокировке
// в момент now.
func (l *LpLock) Available(now time.Time) uint64 {
	elapsed := now.Sub(l.LockStart)
	if elapsed <= 0 {
		return 0
	}

	if !l.VestingEnabled {
		if elapsed < l.Duration {
			return 0
		}
		return l.Total - l.Unlocked
	}

	if elapsed >= l.Duration {
		return l.Total - l.Unlocked
	}

	// Линейный vesting в 128-битной арифметике
	hi, lo := bits.Mul64(l.Total, uint64(elapsed))
	vested, _ := bits.Div64(hi, lo, uint64(l.Duration))
	if vested <= l.Unlocked {
		return 0
	}
	return vested - l.Unlocked
}

// LockBook хранит LP-замки всех градуировавших токенов.
type LockBook struct {
	mu     sync.RWMutex
	locks  map[solana.PublicKey]*LpLock
	logger *zap.Logger
}

// NewLockBook создаёт пустую книгу замков.
func NewLockBook(logger *zap.Logger) *LockBook {
	return &LockBook{
		locks:  make(map[solana.PublicKey]*LpLock),
		logger: logger.Named("lp_lock"),
	}
}

// Lock создаёт замок на amount LP-токенов.
func (b *LockBook) Lock(token solana.PublicKey, amount uint64, duration time.Duration,
	vesting bool, now time.Time) (*LpLock, error) {

	if duration <= 0 {
		return nil, ErrInvalidLockDuration
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	lock := &LpLock{
		Token:          token,
		Total:          amount,
		LockStart:      now,
		Duration:       duration,
		VestingEnabled: vesting,
	}
	b.locks[token] = lock

	b.logger.Info("LP tokens locked",
		zap.String("token", token.String()),
		zap.Uint64("amount", amount),
		zap.Duration("duration", duration),
		zap.Bool("vesting", vesting))
	return lock, nil
}

// Unlock разблокирует amount LP-токенов, если они уже доступны.
func (b *LockBook) Unlock(token solana.PublicKey, amount uint64, now time.Time) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	lock, ok := b.locks[token]
	if !ok {
		return ErrLockNotFound
	}

	available := lock.Available(now)
	if available == 0 {
		if !lock.VestingEnabled && now.Sub(lock.LockStart) < lock.Duration {
			return ErrLockNotExpired
		}
		return ErrNothingToUnlock
	}
	if amount > available {
		return ErrNothingToUnlock
	}

	lock.Unlocked += amount
	lock.LastUnlockAt = now

	b.logger.Info("LP tokens unlocked",
		zap.String("token", token.String()),
		zap.Uint64("amount", amount),
		zap.Uint64("remaining", lock.Total-lock.Unlocked))
	return nil
}

// Extend продлевает замок на additional. Сократить срок нельзя.
func (b *LockBook) Extend(token solana.PublicKey, additional time.Duration) error {
	if additional <= 0 {
		return ErrInvalidLockDuration
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	lock, ok := b.locks[token]
	if !ok {
		return ErrLockNotFound
	}

	lock.Duration += additional

	b.logger.Info("LP lock extended",
		zap.String("token", token.String()),
		zap.Duration("additional", additional),
		zap.Duration("total_duration", lock.Duration))
	return nil
}

// Get возвращает копию замка.
func (b *LockBook) Get(token solana.PublicKey) (LpLock, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	lock, ok := b.locks[token]
	if !ok {
		return LpLock{}, ErrLockNotFound
	}
	return *lock, nil
}
