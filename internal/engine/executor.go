// =================================
// File: internal/engine/executor.go
// =================================
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/pump-core/internal/admission"
	"github.com/rovshanmuradov/pump-core/internal/curve"
	"github.com/rovshanmuradov/pump-core/internal/events"
	"github.com/rovshanmuradov/pump-core/internal/ledger"
	"github.com/rovshanmuradov/pump-core/internal/platform"
	"github.com/rovshanmuradov/pump-core/internal/types"
)

// TradeState — состояние сделки внутри исполнителя. Каждая сделка
// проходит Pending -> Validated -> FeeApplied -> Settled либо
// завершается в Rejected без каких-либо изменений леджера.
type TradeState string

const (
	StatePending    TradeState = "pending"
	StateValidated  TradeState = "validated"
	StateFeeApplied TradeState = "fee_applied"
	StateSettled    TradeState = "settled"
	StateRejected   TradeState = "rejected"
)

// Publisher — шина событий, в которую исполнитель публикует квитанции.
type Publisher interface {
	Publish(event events.Event) error
}

// Executor превращает торговый запрос в атомарную мутацию леджера.
// Конкурентные сделки по одному токену разрешаются оптимистично:
// снимок с версией, мутация копии, коммит с проверкой версии и
// повтор с backoff при конфликте.
type Executor struct {
	registry  *ledger.Registry
	admission *admission.Controller
	platform  *platform.Config
	bus       Publisher
	logger    *zap.Logger
	now       func() time.Time

	maxRetries uint
}

// NewExecutor создаёт исполнителя сделок.
func NewExecutor(registry *ledger.Registry, adm *admission.Controller,
	cfg *platform.Config, bus Publisher, logger *zap.Logger) *Executor {

	return &Executor{
		registry:   registry,
		admission:  adm,
		platform:   cfg,
		bus:        bus,
		logger:     logger.Named("executor"),
		now:        time.Now,
		maxRetries: 5,
	}
}

// WithClock подменяет источник времени (для тестов).
func (e *Executor) WithClock(now func() time.Time) *Executor {
	e.now = now
	return e
}

// Execute выполняет сделку от начала до конца. При конфликте версий
// вся сделка пересчитывается на свежем снимке: цена, комиссии и
// проверки допуска зависят от состояния, которое могло измениться.
func (e *Executor) Execute(ctx context.Context, req *types.TradeRequest) (*types.TradeReceipt, error) {
	if req.Amount == 0 {
		return nil, ErrInvalidAmount
	}
	if req.Direction != types.DirectionBuy && req.Direction != types.DirectionSell {
		return nil, fmt.Errorf("%w: unknown direction %q", ErrInvalidAmount, req.Direction)
	}

	op := func() (*types.TradeReceipt, error) {
		receipt, err := e.attempt(req)
		if err != nil {
			if errors.Is(err, ledger.ErrVersionConflict) {
				return nil, err // retryable
			}
			return nil, backoff.Permanent(err)
		}
		return receipt, nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = time.Millisecond
	bo.MaxInterval = 50 * time.Millisecond

	receipt, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(e.maxRetries))
	if err != nil {
		return nil, err
	}

	e.publishReceipt(receipt)
	return receipt, nil
}

// attempt — одна попытка сделки поверх одного снимка леджера.
func (e *Executor) attempt(req *types.TradeRequest) (*types.TradeReceipt, error) {
	snap, err := e.registry.Snapshot(req.Token)
	if err != nil {
		return nil, err
	}
	now := e.now()
	state := StatePending

	// (a) сырой расчёт по кривой. Ошибки количества (пылевой вход,
	// нехватка баланса) откладываются: проверки допуска смотрят на
	// состояние токена и должны отвечать первыми
	var (
		notional    uint64 // стоимость сделки в lamports до комиссий
		tokens      uint64
		fees        FeeBreakdown
		quantityErr error
	)

	pos := snap.PositionOf(req.Trader)

	switch req.Direction {
	case types.DirectionBuy:
		// Комиссия берётся с валового входа, в кривую входит остаток
		notional = req.Amount
		fees = computeFees(e.platform.FeeRateBps(), snap.Security, req.Direction, notional, pos, now)
		if net := notional - feeAmount(notional, fees); net > 0 {
			tokens, err = curve.TokensForQuote(snap.Curve, snap.CurrentSupply, net)
			if err != nil {
				return nil, err
			}
		}
		if tokens == 0 {
			quantityErr = ErrInvalidAmount
		}

	case types.DirectionSell:
		tokens = req.Amount
		if pos.Balance < tokens {
			quantityErr = ledger.ErrInsufficientBalance
			tokens = 0
		} else {
			notional, err = curve.ProceedsForTokens(snap.Curve, snap.CurrentSupply, tokens)
			if err != nil {
				return nil, err
			}
			fees = computeFees(e.platform.FeeRateBps(), snap.Security, req.Direction, notional, pos, now)
		}
	}

	impactBps, err := e.projectImpact(snap, req.Direction, tokens)
	if err != nil {
		return nil, err
	}

	// (b) контроль допуска — до любой мутации
	res := e.admission.Admit(req, snap, admission.Assessment{
		Notional:       notional,
		Tokens:         tokens,
		PriceImpactBps: impactBps,
	}, now)
	if !res.Admitted {
		e.logger.Debug("Trade rejected",
			zap.String("token", req.Token.String()),
			zap.String("trader", req.Trader.String()),
			zap.String("reason", string(res.Reason)),
			zap.String("state", string(StateRejected)))
		return nil, &RejectionError{Reason: res.Reason}
	}
	if quantityErr != nil {
		return nil, quantityErr
	}
	state = StateValidated

	// (c) комиссия
	fee := feeAmount(notional, fees)
	state = StateFeeApplied

	// (d) проверка допуска по проскальзыванию
	var output uint64
	switch req.Direction {
	case types.DirectionBuy:
		output = tokens
	case types.DirectionSell:
		output = notional - fee
	}
	if req.MinOutput > 0 && output < req.MinOutput {
		return nil, &SlippageError{Realized: output, MinOutput: req.MinOutput}
	}
	if req.SlippageBps > 0 && impactBps > req.SlippageBps {
		return nil, &SlippageError{ImpactBps: impactBps, MaxBps: req.SlippageBps}
	}

	// (e) атомарная мутация снимка и коммит
	switch req.Direction {
	case types.DirectionBuy:
		err = snap.ApplyBuy(req.Trader, tokens, notional-fee, notional, now)
	case types.DirectionSell:
		err = snap.ApplySell(req.Trader, tokens, notional, notional, now)
	}
	if err != nil {
		return nil, err
	}

	newPrice, err := snap.SpotPrice()
	if err != nil {
		return nil, err
	}
	marketCap, err := snap.MarketCap()
	if err != nil {
		return nil, err
	}
	snap.UpdatePriceStats(newPrice, marketCap)

	if err := e.registry.Commit(snap); err != nil {
		return nil, err
	}
	state = StateSettled

	// Счётчики платформы — после коммита: сделка уже финальна
	e.platform.RecordTrade(notional, fee)

	// (f) квитанция
	receipt := &types.TradeReceipt{
		ID:             uuid.New().String(),
		Token:          req.Token,
		Trader:         req.Trader,
		Direction:      req.Direction,
		InputAmount:    req.Amount,
		OutputAmount:   output,
		PriceImpactBps: impactBps,
		FeeCharged:     fee,
		NewSupply:      snap.CurrentSupply,
		NewSpotPrice:   newPrice,
		Timestamp:      now,
	}

	e.logger.Info("Trade settled",
		zap.String("receipt_id", receipt.ID),
		zap.String("token", req.Token.String()),
		zap.String("direction", string(req.Direction)),
		zap.Uint64("input", receipt.InputAmount),
		zap.Uint64("output", receipt.OutputAmount),
		zap.Uint64("fee", fee),
		zap.Uint64("new_supply", receipt.NewSupply),
		zap.String("state", string(state)))

	return receipt, nil
}

// projectImpact считает проекцию влияния сделки на цену в bps:
// спот-цена на уровне supply до сделки против уровня после неё.
func (e *Executor) projectImpact(l *ledger.TokenLedger, dir types.Direction, tokens uint64) (uint64, error) {
	switch dir {
	case types.DirectionBuy:
		return curve.PriceImpactBps(l.Curve, l.CurrentSupply, l.CurrentSupply+tokens)
	default:
		return curve.PriceImpactBps(l.Curve, l.CurrentSupply-tokens, l.CurrentSupply)
	}
}

func (e *Executor) publishReceipt(r *types.TradeReceipt) {
	if e.bus == nil {
		return
	}

	var reserves, version uint64
	_ = e.registry.View(r.Token, func(l *ledger.TokenLedger) error {
		reserves = l.SolReserves
		version = l.Version
		return nil
	})

	if err := e.bus.Publish(&events.TradeExecutedEvent{
		BaseEvent:      events.NewBase(events.TradeExecuted),
		ReceiptID:      r.ID,
		Token:          r.Token,
		Trader:         r.Trader,
		Direction:      r.Direction,
		InputAmount:    r.InputAmount,
		OutputAmount:   r.OutputAmount,
		FeeCharged:     r.FeeCharged,
		PriceImpactBps: r.PriceImpactBps,
		NewSupply:      r.NewSupply,
		NewSpotPrice:   r.NewSpotPrice,
		NewSolReserves: reserves,
		LedgerVersion:  version,
	}); err != nil {
		e.logger.Warn("Failed to publish trade event",
			zap.String("receipt_id", r.ID), zap.Error(err))
	}
}
