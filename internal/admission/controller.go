// =================================
// File: internal/admission/controller.go
// =================================
package admission

import (
	"math/big"
	"time"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/pump-core/internal/ledger"
	"github.com/rovshanmuradov/pump-core/internal/platform"
	"github.com/rovshanmuradov/pump-core/internal/ratelimit"
	"github.com/rovshanmuradov/pump-core/internal/types"
)

// RateLimitOracle — внешняя способность лимитирования запросов.
// Реализуется вне ядра (например, скользящим окном поверх Redis);
// здесь потребляется только контракт.
type RateLimitOracle interface {
	CheckAndConsume(identifier, endpoint string, maxRequests int, window time.Duration) ratelimit.Decision
}

// Assessment — предвычисленные движком величины сделки, нужные проверкам.
type Assessment struct {
	Notional       uint64 // стоимость сделки в lamports (до комиссий)
	Tokens         uint64 // количество токенов в сделке
	PriceImpactBps uint64 // проекция влияния на цену
}

// Controller валидирует сделку до любой мутации состояния. Проверки
// идут в фиксированном порядке: одно и то же состояние всегда даёт
// один и тот же исход и код отказа. Налоги (whale, early-sell,
// liquidity) отказами не являются — их применяет исполнитель сделки
// как модификаторы комиссии.
type Controller struct {
	platform *platform.Config
	profiles *platform.Profiles
	oracle   RateLimitOracle

	tradeRateLimit  int
	tradeRateWindow time.Duration

	logger *zap.Logger
}

// NewController создаёт контроллер допуска. oracle может быть nil —
// тогда лимитирование запросов не применяется.
func NewController(cfg *platform.Config, profiles *platform.Profiles,
	oracle RateLimitOracle, tradeRateLimit int, tradeRateWindow time.Duration,
	logger *zap.Logger) *Controller {

	return &Controller{
		platform:        cfg,
		profiles:        profiles,
		oracle:          oracle,
		tradeRateLimit:  tradeRateLimit,
		tradeRateWindow: tradeRateWindow,
		logger:          logger.Named("admission"),
	}
}

// Admit прогоняет сделку через все проверки. Ни одна проверка не
// оставляет побочных эффектов в леджере; слот rate-лимита потребляется
// только если все предыдущие проверки пройдены.
func (c *Controller) Admit(req *types.TradeRequest, l *ledger.TokenLedger, a Assessment, now time.Time) Result {
	sec := l.Security

	// 1. Паузы: сначала платформа, затем токен
	if c.platform.IsTradingPaused() {
		return reject(ReasonPlatformPaused)
	}
	if l.Paused || l.Banned {
		return reject(ReasonTokenPausedOrBanned)
	}

	// 2. Градуированный токен больше не торгуется на кривой
	if l.Graduated {
		return reject(ReasonAlreadyGraduated)
	}

	// 3. Абсолютный потолок размера сделки
	if sec.MaxTradeSize > 0 && a.Notional > sec.MaxTradeSize {
		return reject(ReasonMaxTradeSize)
	}

	// 4. Концентрация на кошельке после покупки
	if req.Direction == types.DirectionBuy && sec.MaxWalletBps > 0 {
		if exceedsWalletShare(l.PositionOf(req.Trader).Balance, a.Tokens, l.CurrentSupply, sec.MaxWalletBps) {
			return reject(ReasonWalletConcentration)
		}
	}

	// 5. Скользящие лимиты объёма: дневной по токену, часовой по кошельку
	if sec.DailyVolumeLimit > 0 && l.DailyVolumeAt(now)+a.Notional > sec.DailyVolumeLimit {
		return reject(ReasonDailyVolumeLimit)
	}
	if sec.HourlyTradeLimit > 0 && l.HourlyTradesAt(req.Trader, now) >= sec.HourlyTradeLimit {
		return reject(ReasonHourlyTradeLimit)
	}

	// 6. Временные ограничения трейдера
	pos := l.PositionOf(req.Trader)
	if sec.TradeCooldown > 0 && !pos.LastTradeAt.IsZero() && now.Sub(pos.LastTradeAt) < sec.TradeCooldown {
		return reject(ReasonTradeCooldown)
	}
	if req.Direction == types.DirectionSell && sec.MinHoldTime > 0 &&
		!pos.FirstAcquiredAt.IsZero() && now.Sub(pos.FirstAcquiredAt) < sec.MinHoldTime {
		return reject(ReasonMinHoldTime)
	}

	// 7. Проекция влияния на цену
	if sec.CircuitBreakerBps > 0 && a.PriceImpactBps > sec.CircuitBreakerBps {
		return reject(ReasonCircuitBreaker)
	}
	if sec.MaxPriceImpactBps > 0 && a.PriceImpactBps > sec.MaxPriceImpactBps {
		return reject(ReasonPriceImpact)
	}

	// 8. Опциональные эвристики
	if sec.AntiBotEnabled && looksLikeBot(pos, now) {
		return reject(ReasonBotPattern)
	}
	if sec.HoneypotDetection && req.Direction == types.DirectionBuy && looksLikeHoneypot(l) {
		return reject(ReasonHoneypot)
	}
	if sec.RequireKycForLargeTrades && sec.WhaleTaxThreshold > 0 &&
		a.Notional > sec.WhaleTaxThreshold && !c.profiles.Get(req.Trader).KycVerified {
		return reject(ReasonKycRequired)
	}

	// Внешний оракул лимитирования — последним, чтобы отказ по любой
	// из проверок выше не потреблял слот окна
	if c.oracle != nil && c.tradeRateLimit > 0 {
		d := c.oracle.CheckAndConsume(req.Trader.String(), "trade", c.tradeRateLimit, c.tradeRateWindow)
		if !d.Allowed {
			c.logger.Debug("Trade rate limited",
				zap.String("trader", req.Trader.String()),
				zap.Time("blocked_until", d.BlockedUntil))
			return reject(ReasonRateLimited)
		}
	}

	return accept()
}

// exceedsWalletShare проверяет долю кошелька в supply после покупки.
// Арифметика в big.Int: balance и supply могут быть около 1e15, и
// умножение на 10000 не обязано помещаться в uint64.
func exceedsWalletShare(balance, tokens, supply, maxBps uint64) bool {
	newBalance := new(big.Int).SetUint64(balance)
	newBalance.Add(newBalance, new(big.Int).SetUint64(tokens))

	newSupply := new(big.Int).SetUint64(supply)
	newSupply.Add(newSupply, new(big.Int).SetUint64(tokens))
	if newSupply.Sign() == 0 {
		return false
	}

	share := newBalance.Mul(newBalance, big.NewInt(platform.MaxBps))
	share.Quo(share, newSupply)
	return share.Cmp(new(big.Int).SetUint64(maxBps)) > 0
}

// looksLikeBot — грубый паттерн: серия сделок с субсекундными паузами.
func looksLikeBot(pos ledger.Position, now time.Time) bool {
	return !pos.LastTradeAt.IsZero() &&
		now.Sub(pos.LastTradeAt) < 2*time.Second &&
		pos.HourlyTrades >= 10
}

// looksLikeHoneypot — создатель держит больше половины supply.
func looksLikeHoneypot(l *ledger.TokenLedger) bool {
	if l.CurrentSupply == 0 {
		return false
	}
	creator := l.PositionOf(l.Creator).Balance
	return creator > l.CurrentSupply/2
}
