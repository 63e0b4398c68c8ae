// =================================
// File: internal/platform/params.go
// =================================
package platform

import (
	"fmt"
	"time"
)

// MaxBps — верхняя граница для всех полей в базисных пунктах (100%).
const MaxBps = 10_000

// SecurityParams — параметры защиты от манипуляций. Задаются как дефолт
// на уровне платформы и могут переопределяться для конкретного токена
// в момент его создания. Нулевое значение лимита отключает проверку.
type SecurityParams struct {
	// Торговые лимиты
	MaxTradeSize     uint64 // макс размер сделки в lamports
	MaxWalletBps     uint64 // макс доля supply на один кошелёк, в bps
	DailyVolumeLimit uint64 // дневной лимит объёма токена в lamports
	HourlyTradeLimit uint32 // лимит сделок в час на кошелёк

	// Налоги
	WhaleTaxThreshold uint64 // порог whale tax в lamports
	WhaleTaxBps       uint64 // налог на крупные сделки
	EarlySellTaxBps   uint64 // налог на раннюю продажу
	LiquidityTaxBps   uint64 // налог на вывод ликвидности (только продажи)

	// Временные ограничения
	MinHoldTime      time.Duration // мин время удержания перед продажей
	TradeCooldown    time.Duration // задержка между сделками одного трейдера
	CreationCooldown time.Duration // задержка между созданием токенов

	// Защитные механизмы
	CircuitBreakerBps uint64 // порог остановки торгов по влиянию на цену
	MaxPriceImpactBps uint64 // макс влияние одной сделки на цену
	AntiBotEnabled    bool   // эвристики против ботов
	HoneypotDetection bool   // детекция honeypot-паттернов

	// Верификация
	RequireKycForLargeTrades bool   // KYC для крупных сделок
	MinReputationToCreate    uint32 // мин репутация для создания токена
	MaxTokensPerCreator      uint32 // макс токенов на создателя
}

// Validate проверяет границы всех полей.
func (p *SecurityParams) Validate() error {
	for name, bps := range map[string]uint64{
		"max_wallet_bps":      p.MaxWalletBps,
		"whale_tax_bps":       p.WhaleTaxBps,
		"early_sell_tax_bps":  p.EarlySellTaxBps,
		"liquidity_tax_bps":   p.LiquidityTaxBps,
		"circuit_breaker_bps": p.CircuitBreakerBps,
		"max_price_impact":    p.MaxPriceImpactBps,
	} {
		if bps > MaxBps {
			return fmt.Errorf("security params: %s %d exceeds %d", name, bps, MaxBps)
		}
	}
	if p.MinHoldTime < 0 || p.TradeCooldown < 0 || p.CreationCooldown < 0 {
		return fmt.Errorf("security params: negative duration")
	}
	return nil
}

// DefaultSecurityParams возвращает консервативный набор лимитов.
func DefaultSecurityParams() SecurityParams {
	return SecurityParams{
		MaxTradeSize:      50_000_000_000, // 50 SOL
		MaxWalletBps:      500,            // 5% supply
		DailyVolumeLimit:  1_000_000_000_000,
		HourlyTradeLimit:  60,
		WhaleTaxThreshold: 10_000_000_000, // 10 SOL
		WhaleTaxBps:       200,
		EarlySellTaxBps:   500,
		LiquidityTaxBps:   100,
		MinHoldTime:       0,
		TradeCooldown:     time.Second,
		CreationCooldown:  time.Minute,
		CircuitBreakerBps: 5_000,
		MaxPriceImpactBps: 2_500,
	}
}
