// =================================
// File: internal/graduation/manager.go
// =================================
package graduation

import (
	"context"
	"math/big"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/pump-core/internal/events"
	"github.com/rovshanmuradov/pump-core/internal/ledger"
	"github.com/rovshanmuradov/pump-core/internal/platform"
)

// minimumLiquidity — LP-токены, сжигаемые навсегда при создании пула,
// защита от атак на пустой пул.
const minimumLiquidity = 1000

// DefaultLockDuration — срок замка LP-позиции после градуации.
const DefaultLockDuration = 30 * 24 * time.Hour

// Publisher — шина событий для TokenGraduated и LpTokensLocked.
type Publisher interface {
	Publish(event events.Event) error
}

// Manager выполняет одностороннюю миграцию Trading -> Graduating ->
// Graduated. Переход идемпотентен: повторный триггер на уже
// градуировавшем токене — тихий no-op, никогда не вторая миграция.
type Manager struct {
	registry *ledger.Registry
	platform *platform.Config
	locks    *LockBook
	bus      Publisher
	logger   *zap.Logger
	now      func() time.Time

	lockDuration time.Duration
	vesting      bool
}

// NewManager создаёт менеджер градуации.
func NewManager(registry *ledger.Registry, cfg *platform.Config, locks *LockBook,
	bus Publisher, logger *zap.Logger) *Manager {

	return &Manager{
		registry:     registry,
		platform:     cfg,
		locks:        locks,
		bus:          bus,
		logger:       logger.Named("graduation"),
		now:          time.Now,
		lockDuration: DefaultLockDuration,
	}
}

// WithClock подменяет источник времени (для тестов).
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

// WithLock настраивает срок замка и режим vesting.
func (m *Manager) WithLock(duration time.Duration, vesting bool) *Manager {
	m.lockDuration = duration
	m.vesting = vesting
	return m
}

// MaybeGraduate проверяет порог после сделки и при пересечении выполняет
// миграцию. Ниже порога и на градуировавшем токене — no-op без ошибки.
func (m *Manager) MaybeGraduate(ctx context.Context, mint solana.PublicKey) error {
	return m.graduate(ctx, mint, false)
}

// Graduate — явный запрос миграции (административный путь). Ниже порога
// возвращает ErrThresholdNotReached.
func (m *Manager) Graduate(ctx context.Context, mint solana.PublicKey) error {
	return m.graduate(ctx, mint, true)
}

func (m *Manager) graduate(ctx context.Context, mint solana.PublicKey, explicit bool) error {
	var (
		emitGraduated *events.TokenGraduatedEvent
		emitLocked    *events.LpTokensLockedEvent
	)

	err := m.registry.Update(mint, func(l *ledger.TokenLedger) error {
		// Идемпотентность: вторая миграция невозможна по построению —
		// флаг проверяется и выставляется под тем же замком
		if l.Graduated {
			return nil
		}

		marketCap, err := l.MarketCap()
		if err != nil {
			return err
		}
		if l.GraduationThreshold == 0 || marketCap < l.GraduationThreshold {
			if explicit {
				return ErrThresholdNotReached
			}
			return nil
		}

		now := m.now()
		price, err := l.SpotPrice()
		if err != nil {
			return err
		}

		// Graduating: комиссия за листинг удерживается из мигрируемой
		// ликвидности
		fee := m.platform.GraduationFee()
		if fee > l.SolReserves {
			fee = l.SolReserves
		}
		migrated := l.SolReserves - fee

		lpTokens := lpTokensFor(migrated, l.CurrentSupply)
		lock, err := m.locks.Lock(mint, lpTokens, m.lockDuration, m.vesting, now)
		if err != nil {
			return err
		}

		// Graduated: резерв кривой уходит в пул, леджер замораживается
		l.SolReserves = 0
		l.Graduated = true

		m.platform.AccrueFee(fee)

		emitGraduated = &events.TokenGraduatedEvent{
			BaseEvent:         events.NewBase(events.TokenGraduated),
			Token:             mint,
			FinalSupply:       l.CurrentSupply,
			FinalPrice:        price,
			MarketCap:         marketCap,
			MigratedLiquidity: migrated,
			GraduationFee:     fee,
		}
		emitLocked = &events.LpTokensLockedEvent{
			BaseEvent:      events.NewBase(events.LpTokensLocked),
			Token:          mint,
			Amount:         lock.Total,
			UnlockAt:       lock.LockStart.Add(lock.Duration),
			VestingEnabled: lock.VestingEnabled,
		}

		m.logger.Info("Token graduated",
			zap.String("mint", mint.String()),
			zap.Uint64("market_cap", marketCap),
			zap.Uint64("migrated_liquidity", migrated),
			zap.Uint64("graduation_fee", fee),
			zap.Uint64("lp_locked", lpTokens))
		return nil
	})
	if err != nil {
		return err
	}

	// События публикуются вне замка леджера
	if m.bus != nil && emitGraduated != nil {
		_ = m.bus.Publish(emitGraduated)
		_ = m.bus.Publish(emitLocked)
	}
	return nil
}

// lpTokensFor считает LP-позицию пула: sqrt(sol * tokens) за вычетом
// сжигаемого минимума.
func lpTokensFor(solAmount, tokenAmount uint64) uint64 {
	product := new(big.Int).SetUint64(solAmount)
	product.Mul(product, new(big.Int).SetUint64(tokenAmount))
	lp := product.Sqrt(product).Uint64()
	if lp <= minimumLiquidity {
		return 0
	}
	return lp - minimumLiquidity
}
