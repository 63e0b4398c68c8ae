// =================================
// File: internal/platform/config.go
// =================================
package platform

import (
	"fmt"
	"sync"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/pump-core/internal/events"
)

// Publisher — минимальный интерфейс шины событий, нужный платформе.
type Publisher interface {
	Publish(event events.Event) error
}

// TokenModerator выполняет модерацию конкретного токена. Реализуется
// реестром леджеров; интерфейс разрывает зависимость платформы от него.
type TokenModerator interface {
	SetTokenBan(mint solana.PublicKey, banned bool) error
	SetTokenPause(mint solana.PublicKey, paused bool) error
}

// Config — глобальное состояние платформы: полномочия, комиссии, флаги
// паузы, дефолтные параметры безопасности и счётчики за всё время жизни.
// Создаётся один раз; мутируется только привилегированными операциями,
// каждая из которых атомарна и публикует audit-событие.
type Config struct {
	mu sync.RWMutex

	authority solana.PublicKey
	treasury  solana.PublicKey

	feeRateBps    uint64
	graduationFee uint64
	security      SecurityParams

	emergencyPaused bool // останавливает вообще всё
	tradingPaused   bool // останавливает только торги

	// Счётчики за всё время жизни платформы
	totalTokensCreated uint64
	totalVolume        uint64
	totalTrades        uint64
	feesAccrued        uint64 // ещё не выведено в казну
	feesCollected      uint64 // выведено за всё время

	bus    Publisher
	logger *zap.Logger
}

// Options задают начальное состояние платформы.
type Options struct {
	Authority     solana.PublicKey
	Treasury      solana.PublicKey
	FeeRateBps    uint64
	GraduationFee uint64
	Security      SecurityParams
}

// New создаёт конфигурацию платформы.
func New(opts Options, bus Publisher, logger *zap.Logger) (*Config, error) {
	if opts.Authority.IsZero() || opts.Treasury.IsZero() {
		return nil, fmt.Errorf("platform: authority and treasury must be set")
	}
	if opts.FeeRateBps > MaxBps {
		return nil, ErrInvalidFeeRate
	}
	if err := opts.Security.Validate(); err != nil {
		return nil, err
	}

	return &Config{
		authority:     opts.Authority,
		treasury:      opts.Treasury,
		feeRateBps:    opts.FeeRateBps,
		graduationFee: opts.GraduationFee,
		security:      opts.Security,
		bus:           bus,
		logger:        logger.Named("platform"),
	}, nil
}

// ----- Чтение -----

// Authority возвращает текущий административный ключ.
func (c *Config) Authority() solana.PublicKey {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.authority
}

// Treasury возвращает адрес казны платформы.
func (c *Config) Treasury() solana.PublicKey {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.treasury
}

// FeeRateBps возвращает текущую комиссию платформы.
func (c *Config) FeeRateBps() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.feeRateBps
}

// GraduationFee возвращает комиссию, удерживаемую при миграции на DEX.
func (c *Config) GraduationFee() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.graduationFee
}

// Security возвращает копию дефолтных параметров безопасности.
func (c *Config) Security() SecurityParams {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.security
}

// IsEmergencyPaused сообщает, остановлена ли платформа целиком.
func (c *Config) IsEmergencyPaused() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.emergencyPaused
}

// IsTradingPaused сообщает, остановлены ли торги (любой из флагов).
func (c *Config) IsTradingPaused() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.emergencyPaused || c.tradingPaused
}

// Stats — снимок счётчиков платформы.
type Stats struct {
	TokensCreated uint64
	TotalVolume   uint64
	TotalTrades   uint64
	FeesAccrued   uint64
	FeesCollected uint64
}

// Snapshot возвращает счётчики за всё время жизни платформы.
func (c *Config) Snapshot() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Stats{
		TokensCreated: c.totalTokensCreated,
		TotalVolume:   c.totalVolume,
		TotalTrades:   c.totalTrades,
		FeesAccrued:   c.feesAccrued,
		FeesCollected: c.feesCollected,
	}
}

// ----- Счётчики (вызываются движком) -----

// RecordTrade инкрементирует счётчики платформы после успешной сделки.
func (c *Config) RecordTrade(volume, fee uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.totalVolume += volume
	c.totalTrades++
	c.feesAccrued += fee
}

// AccrueFee начисляет комиссию вне торгового потока (градуация).
func (c *Config) AccrueFee(fee uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.feesAccrued += fee
}

// RecordTokenCreated инкрементирует счётчик созданных токенов.
func (c *Config) RecordTokenCreated() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.totalTokensCreated++
}

// ----- Привилегированные операции -----

// checkAuthority сверяет вызывающего с текущим административным ключом.
// Должен вызываться под уже взятым мьютексом.
func (c *Config) checkAuthority(caller solana.PublicKey) error {
	if !caller.Equals(c.authority) {
		return ErrUnauthorized
	}
	return nil
}

// audit публикует событие о привилегированной мутации.
func (c *Config) audit(action string, admin solana.PublicKey, target, oldVal, newVal, reason string) {
	if c.bus == nil {
		return
	}
	if err := c.bus.Publish(&events.AdminActionEvent{
		BaseEvent: events.NewBase(events.AdminActionPerformed),
		Action:    action,
		Admin:     admin,
		Target:    target,
		OldValue:  oldVal,
		NewValue:  newVal,
		Reason:    reason,
	}); err != nil {
		c.logger.Warn("Failed to publish admin event",
			zap.String("action", action), zap.Error(err))
	}
}

// UpdateFeeRate меняет комиссию платформы.
func (c *Config) UpdateFeeRate(caller solana.PublicKey, newBps uint64, reason string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkAuthority(caller); err != nil {
		return err
	}
	if newBps > MaxBps {
		return ErrInvalidFeeRate
	}

	old := c.feeRateBps
	c.feeRateBps = newBps

	c.logger.Info("Platform fee updated",
		zap.Uint64("old_bps", old), zap.Uint64("new_bps", newBps))
	c.audit("update_fee_rate", caller, "platform",
		fmt.Sprintf("%d", old), fmt.Sprintf("%d", newBps), reason)
	return nil
}

// UpdateTreasury меняет адрес казны.
func (c *Config) UpdateTreasury(caller, newTreasury solana.PublicKey, reason string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkAuthority(caller); err != nil {
		return err
	}
	if newTreasury.IsZero() {
		return fmt.Errorf("platform: treasury must be set")
	}

	old := c.treasury
	c.treasury = newTreasury

	c.logger.Info("Treasury updated",
		zap.String("old", old.String()), zap.String("new", newTreasury.String()))
	c.audit("update_treasury", caller, "platform", old.String(), newTreasury.String(), reason)
	return nil
}

// TransferAdmin передаёт полномочия новому ключу. Операция необратима
// для прежнего администратора.
func (c *Config) TransferAdmin(caller, newAdmin solana.PublicKey, reason string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkAuthority(caller); err != nil {
		return err
	}
	if newAdmin.IsZero() || newAdmin.Equals(c.authority) {
		return ErrUnauthorized
	}

	old := c.authority
	c.authority = newAdmin

	c.logger.Warn("Admin authority transferred",
		zap.String("old", old.String()), zap.String("new", newAdmin.String()))
	c.audit("transfer_admin", caller, "platform", old.String(), newAdmin.String(), reason)
	return nil
}

// UpdateSecurityParams заменяет дефолтные параметры безопасности целиком.
func (c *Config) UpdateSecurityParams(caller solana.PublicKey, params SecurityParams, reason string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkAuthority(caller); err != nil {
		return err
	}
	if err := params.Validate(); err != nil {
		return err
	}

	c.security = params

	c.logger.Info("Security params updated")
	c.audit("update_security_params", caller, "platform", "", "", reason)
	return nil
}

// EmergencyPause останавливает или возобновляет работу платформы целиком:
// торги, создание токенов и миграции.
func (c *Config) EmergencyPause(caller solana.PublicKey, pause bool, reason string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkAuthority(caller); err != nil {
		return err
	}

	old := c.emergencyPaused
	c.emergencyPaused = pause

	c.logger.Warn("Emergency pause toggled",
		zap.Bool("old", old), zap.Bool("new", pause), zap.String("reason", reason))
	c.audit("emergency_pause", caller, "platform",
		fmt.Sprintf("%t", old), fmt.Sprintf("%t", pause), reason)
	return nil
}

// PauseTradingOnly останавливает только торги, не трогая остальные операции.
func (c *Config) PauseTradingOnly(caller solana.PublicKey, pause bool, reason string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkAuthority(caller); err != nil {
		return err
	}

	old := c.tradingPaused
	c.tradingPaused = pause

	c.logger.Warn("Trading pause toggled",
		zap.Bool("old", old), zap.Bool("new", pause), zap.String("reason", reason))
	c.audit("pause_trading_only", caller, "platform",
		fmt.Sprintf("%t", old), fmt.Sprintf("%t", pause), reason)
	return nil
}

// CollectPlatformFees выводит накопленные комиссии в казну и возвращает
// выведенную сумму.
func (c *Config) CollectPlatformFees(caller solana.PublicKey) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkAuthority(caller); err != nil {
		return 0, err
	}
	if c.feesAccrued == 0 {
		return 0, ErrNothingToCollect
	}

	amount := c.feesAccrued
	c.feesAccrued = 0
	c.feesCollected += amount

	c.logger.Info("Platform fees collected",
		zap.Uint64("amount", amount), zap.String("treasury", c.treasury.String()))
	c.audit("collect_fees", caller, c.treasury.String(), "", fmt.Sprintf("%d", amount), "")
	return amount, nil
}

// BanToken помечает токен забаненным через модератор реестра.
func (c *Config) BanToken(caller solana.PublicKey, mod TokenModerator, mint solana.PublicKey, reason string) error {
	return c.moderate(caller, "ban_token", mint, reason, func() error {
		return mod.SetTokenBan(mint, true)
	})
}

// UnbanToken снимает бан с токена.
func (c *Config) UnbanToken(caller solana.PublicKey, mod TokenModerator, mint solana.PublicKey, reason string) error {
	return c.moderate(caller, "unban_token", mint, reason, func() error {
		return mod.SetTokenBan(mint, false)
	})
}

// PauseToken ставит торги по токену на паузу.
func (c *Config) PauseToken(caller solana.PublicKey, mod TokenModerator, mint solana.PublicKey, reason string) error {
	return c.moderate(caller, "pause_token", mint, reason, func() error {
		return mod.SetTokenPause(mint, true)
	})
}

// ResumeToken возобновляет торги по токену.
func (c *Config) ResumeToken(caller solana.PublicKey, mod TokenModerator, mint solana.PublicKey, reason string) error {
	return c.moderate(caller, "resume_token", mint, reason, func() error {
		return mod.SetTokenPause(mint, false)
	})
}

func (c *Config) moderate(caller solana.PublicKey, action string, mint solana.PublicKey, reason string, apply func() error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkAuthority(caller); err != nil {
		return err
	}
	if err := apply(); err != nil {
		return err
	}

	c.logger.Info("Token moderated",
		zap.String("action", action), zap.String("mint", mint.String()))
	c.audit(action, caller, mint.String(), "", "", reason)
	return nil
}
