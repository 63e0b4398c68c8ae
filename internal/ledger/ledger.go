// =================================
// File: internal/ledger/ledger.go
// =================================
package ledger

import (
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/rovshanmuradov/pump-core/internal/curve"
	"github.com/rovshanmuradov/pump-core/internal/platform"
)

// Position — состояние одного трейдера по одному токену.
type Position struct {
	Balance         uint64
	FirstAcquiredAt time.Time // первое приобретение, для early-sell tax и minHoldTime
	LastTradeAt     time.Time // последняя сделка, для cooldown

	// Скользящее окно сделок в час на кошелёк
	HourlyTrades      uint32
	HourlyWindowStart time.Time
}

// TokenLedger — вся изменяемая информация о токене. Экземпляр создаётся
// при выпуске токена, мутируется исключительно через снимок+коммит
// реестра и замораживается для торгов после градуации.
//
// Version растёт на каждый коммит; исполнитель сделки читает версию
// вместе со снимком и коммитит только если она не изменилась.
type TokenLedger struct {
	Token   solana.PublicKey
	Creator solana.PublicKey
	Name    string
	Symbol  string
	URI     string

	// Кривая неизменяема после создания и разделяется между снимками.
	Curve  curve.Curve
	Params curve.Params

	CurrentSupply uint64
	SolReserves   uint64

	GraduationThreshold uint64
	Graduated           bool
	Banned              bool
	Paused              bool

	Security platform.SecurityParams

	Version uint64

	// Статистика
	TradeCount   uint64
	LastTradeAt  time.Time
	AthPrice     uint64
	AthMarketCap uint64

	// Скользящее дневное окно объёма токена
	DailyVolume      uint64
	DailyWindowStart time.Time

	Positions map[solana.PublicKey]*Position

	CreatedAt time.Time
}

// NewTokenLedger создаёт леджер нового токена с нулевым supply.
func NewTokenLedger(token, creator solana.PublicKey, name, symbol, uri string,
	c curve.Curve, params curve.Params, security platform.SecurityParams,
	graduationThreshold uint64, now time.Time) *TokenLedger {

	return &TokenLedger{
		Token:               token,
		Creator:             creator,
		Name:                name,
		Symbol:              symbol,
		URI:                 uri,
		Curve:               c,
		Params:              params,
		Security:            security,
		GraduationThreshold: graduationThreshold,
		Positions:           make(map[solana.PublicKey]*Position),
		CreatedAt:           now,
		DailyWindowStart:    now,
	}
}

// Clone возвращает глубокую копию леджера. Кривая разделяется: она
// неизменяема и не несёт состояния.
func (l *TokenLedger) Clone() *TokenLedger {
	cp := *l
	cp.Positions = make(map[solana.PublicKey]*Position, len(l.Positions))
	for k, v := range l.Positions {
		pos := *v
		cp.Positions[k] = &pos
	}
	return &cp
}

// PositionOf возвращает копию позиции трейдера (нулевую, если её нет).
func (l *TokenLedger) PositionOf(trader solana.PublicKey) Position {
	if p, ok := l.Positions[trader]; ok {
		return *p
	}
	return Position{}
}

func (l *TokenLedger) position(trader solana.PublicKey) *Position {
	if p, ok := l.Positions[trader]; ok {
		return p
	}
	p := &Position{}
	l.Positions[trader] = p
	return p
}

// DailyVolumeAt возвращает дневной объём с учётом истечения окна.
func (l *TokenLedger) DailyVolumeAt(now time.Time) uint64 {
	if now.Sub(l.DailyWindowStart) >= 24*time.Hour {
		return 0
	}
	return l.DailyVolume
}

// HourlyTradesAt возвращает счётчик сделок трейдера за час с учётом
// истечения окна.
func (l *TokenLedger) HourlyTradesAt(trader solana.PublicKey, now time.Time) uint32 {
	p, ok := l.Positions[trader]
	if !ok {
		return 0
	}
	if now.Sub(p.HourlyWindowStart) >= time.Hour {
		return 0
	}
	return p.HourlyTrades
}

// recordActivity обновляет окна объёма и счётчиков. Вызывается внутри
// той же мутации, что и изменение supply/резервов: иначе сбой между
// двумя шагами разведёт эффект сделки и её статистику.
func (l *TokenLedger) recordActivity(trader solana.PublicKey, notional uint64, now time.Time) {
	if now.Sub(l.DailyWindowStart) >= 24*time.Hour {
		l.DailyWindowStart = now
		l.DailyVolume = 0
	}
	l.DailyVolume += notional

	p := l.position(trader)
	if now.Sub(p.HourlyWindowStart) >= time.Hour {
		p.HourlyWindowStart = now
		p.HourlyTrades = 0
	}
	p.HourlyTrades++
	p.LastTradeAt = now

	l.TradeCount++
	l.LastTradeAt = now
}

// ApplyBuy применяет покупку: tokens зачисляются трейдеру, netIn lamports
// входят в резерв, notional учитывается в окнах объёма.
func (l *TokenLedger) ApplyBuy(trader solana.PublicKey, tokens, netIn, notional uint64, now time.Time) error {
	if l.CurrentSupply+tokens < l.CurrentSupply {
		return curve.ErrOverflow
	}
	if l.SolReserves+netIn < l.SolReserves {
		return curve.ErrOverflow
	}

	p := l.position(trader)
	if p.Balance == 0 {
		p.FirstAcquiredAt = now
	}
	p.Balance += tokens

	l.CurrentSupply += tokens
	l.SolReserves += netIn
	l.recordActivity(trader, notional, now)
	return nil
}

// ApplySell применяет продажу: tokens списываются с позиции, grossOut
// lamports выходят из резерва (комиссия удерживается из них уже вне
// леджера).
func (l *TokenLedger) ApplySell(trader solana.PublicKey, tokens, grossOut, notional uint64, now time.Time) error {
	p, ok := l.Positions[trader]
	if !ok || p.Balance < tokens {
		return ErrInsufficientBalance
	}
	if l.CurrentSupply < tokens {
		return curve.ErrUnderflow
	}
	if l.SolReserves < grossOut {
		return ErrInsufficientLiquidity
	}

	p.Balance -= tokens
	l.CurrentSupply -= tokens
	l.SolReserves -= grossOut
	l.recordActivity(trader, notional, now)
	return nil
}

// UpdatePriceStats обновляет исторические максимумы цены и капитализации.
func (l *TokenLedger) UpdatePriceStats(price, marketCap uint64) {
	if price > l.AthPrice {
		l.AthPrice = price
	}
	if marketCap > l.AthMarketCap {
		l.AthMarketCap = marketCap
	}
}

// SpotPrice возвращает текущую цену токена.
func (l *TokenLedger) SpotPrice() (uint64, error) {
	return l.Curve.SpotPrice(l.CurrentSupply)
}

// MarketCap возвращает текущую капитализацию токена.
func (l *TokenLedger) MarketCap() (uint64, error) {
	return curve.MarketCap(l.Curve, l.CurrentSupply)
}
