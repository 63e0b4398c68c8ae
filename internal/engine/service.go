// =================================
// File: internal/engine/service.go
// =================================
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/pump-core/internal/admission"
	"github.com/rovshanmuradov/pump-core/internal/curve"
	"github.com/rovshanmuradov/pump-core/internal/events"
	"github.com/rovshanmuradov/pump-core/internal/ledger"
	"github.com/rovshanmuradov/pump-core/internal/platform"
	"github.com/rovshanmuradov/pump-core/internal/types"
)

// GraduationHook вызывается после каждой успешной сделки. Реализуется
// менеджером градуации; интерфейс разрывает зависимость движка от него.
type GraduationHook interface {
	MaybeGraduate(ctx context.Context, mint solana.PublicKey) error
}

// CreateTokenRequest — запрос на выпуск нового токена.
type CreateTokenRequest struct {
	Creator solana.PublicKey
	Name    string
	Symbol  string
	URI     string

	Params curve.Params

	// Security переопределяет дефолтные параметры платформы (опционально)
	Security *platform.SecurityParams

	GraduationThreshold uint64
}

// QuoteResult — котировка без исполнения.
type QuoteResult struct {
	Direction      types.Direction
	InputAmount    uint64
	OutputAmount   uint64
	FeeCharged     uint64
	PriceImpactBps uint64
	SpotPrice      uint64
}

// Service — фасад движка: выпуск токенов, сделки и котировки.
type Service struct {
	registry *ledger.Registry
	platform *platform.Config
	profiles *platform.Profiles
	executor *Executor
	oracle   admission.RateLimitOracle
	gradHook GraduationHook
	bus      Publisher
	logger   *zap.Logger
	now      func() time.Time

	createRateLimit  int
	createRateWindow time.Duration
}

// NewService собирает фасад движка.
func NewService(registry *ledger.Registry, cfg *platform.Config, profiles *platform.Profiles,
	executor *Executor, oracle admission.RateLimitOracle, bus Publisher, logger *zap.Logger) *Service {

	return &Service{
		registry:         registry,
		platform:         cfg,
		profiles:         profiles,
		executor:         executor,
		oracle:           oracle,
		bus:              bus,
		logger:           logger.Named("engine"),
		now:              time.Now,
		createRateLimit:  3,
		createRateWindow: time.Hour,
	}
}

// SetGraduationHook подключает менеджер градуации. Вызывается при
// сборке процесса, до начала приёма сделок.
func (s *Service) SetGraduationHook(h GraduationHook) { s.gradHook = h }

// WithClock подменяет источник времени (для тестов).
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// CreateToken выпускает новый токен: валидирует создателя и кривую,
// регистрирует леджер и публикует TokenCreated.
func (s *Service) CreateToken(ctx context.Context, req *CreateTokenRequest) (solana.PublicKey, error) {
	if s.platform.IsEmergencyPaused() {
		return solana.PublicKey{}, ErrPlatformPaused
	}

	now := s.now()
	sec := s.platform.Security()
	profile := s.profiles.Get(req.Creator)

	if profile.Banned {
		return solana.PublicKey{}, ErrCreatorBanned
	}
	if sec.CreationCooldown > 0 && !profile.LastCreatedAt.IsZero() &&
		now.Sub(profile.LastCreatedAt) < sec.CreationCooldown {
		return solana.PublicKey{}, ErrCreationCooldown
	}
	if sec.MaxTokensPerCreator > 0 && profile.TokensCreated >= sec.MaxTokensPerCreator {
		return solana.PublicKey{}, ErrTooManyTokens
	}
	if sec.MinReputationToCreate > 0 && profile.Reputation < sec.MinReputationToCreate {
		return solana.PublicKey{}, ErrReputationTooLow
	}

	if s.oracle != nil && s.createRateLimit > 0 {
		d := s.oracle.CheckAndConsume(req.Creator.String(), "create_token",
			s.createRateLimit, s.createRateWindow)
		if !d.Allowed {
			return solana.PublicKey{}, ErrCreateRateLimited
		}
	}

	c, err := curve.New(req.Params)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("invalid curve parameters: %w", err)
	}

	tokenSec := sec
	if req.Security != nil {
		if err := req.Security.Validate(); err != nil {
			return solana.PublicKey{}, err
		}
		tokenSec = *req.Security
	}

	mint := solana.NewWallet().PublicKey()
	l := ledger.NewTokenLedger(mint, req.Creator, req.Name, req.Symbol, req.URI,
		c, req.Params, tokenSec, req.GraduationThreshold, now)

	if err := s.registry.Create(l); err != nil {
		return solana.PublicKey{}, err
	}

	s.platform.RecordTokenCreated()
	s.profiles.RecordTokenCreated(req.Creator, now)

	initialPrice, err := c.SpotPrice(0)
	if err != nil {
		return solana.PublicKey{}, err
	}
	if s.bus != nil {
		_ = s.bus.Publish(&events.TokenCreatedEvent{
			BaseEvent:    events.NewBase(events.TokenCreated),
			Token:        mint,
			Creator:      req.Creator,
			Name:         req.Name,
			Symbol:       req.Symbol,
			CurveKind:    string(c.Kind()),
			InitialPrice: initialPrice,
		})
	}

	s.logger.Info("Token created",
		zap.String("mint", mint.String()),
		zap.String("symbol", req.Symbol),
		zap.String("creator", req.Creator.String()),
		zap.String("curve", string(c.Kind())))

	return mint, nil
}

// Buy покупает токены на amount lamports котировки.
func (s *Service) Buy(ctx context.Context, token, trader solana.PublicKey,
	amount, minTokensOut, slippageBps uint64) (*types.TradeReceipt, error) {

	return s.trade(ctx, &types.TradeRequest{
		Token:       token,
		Trader:      trader,
		Direction:   types.DirectionBuy,
		Amount:      amount,
		MinOutput:   minTokensOut,
		SlippageBps: slippageBps,
	})
}

// Sell продаёт amount токенов.
func (s *Service) Sell(ctx context.Context, token, trader solana.PublicKey,
	amount, minLamportsOut, slippageBps uint64) (*types.TradeReceipt, error) {

	return s.trade(ctx, &types.TradeRequest{
		Token:       token,
		Trader:      trader,
		Direction:   types.DirectionSell,
		Amount:      amount,
		MinOutput:   minLamportsOut,
		SlippageBps: slippageBps,
	})
}

func (s *Service) trade(ctx context.Context, req *types.TradeRequest) (*types.TradeReceipt, error) {
	receipt, err := s.executor.Execute(ctx, req)
	if err != nil {
		return nil, err
	}

	// Проверка порога градуации — после каждой успешной сделки
	if s.gradHook != nil {
		if err := s.gradHook.MaybeGraduate(ctx, req.Token); err != nil {
			s.logger.Error("Graduation check failed",
				zap.String("token", req.Token.String()), zap.Error(err))
		}
	}

	return receipt, nil
}

// Quote считает котировку без исполнения и без побочных эффектов.
func (s *Service) Quote(token solana.PublicKey, direction types.Direction, amount uint64) (*QuoteResult, error) {
	if amount == 0 {
		return nil, ErrInvalidAmount
	}

	snap, err := s.registry.Snapshot(token)
	if err != nil {
		return nil, err
	}

	now := s.now()
	spot, err := snap.SpotPrice()
	if err != nil {
		return nil, err
	}

	q := &QuoteResult{Direction: direction, InputAmount: amount, SpotPrice: spot}

	switch direction {
	case types.DirectionBuy:
		fees := computeFees(s.platform.FeeRateBps(), snap.Security, direction, amount, ledger.Position{}, now)
		q.FeeCharged = feeAmount(amount, fees)
		net := amount - q.FeeCharged
		if net == 0 {
			return nil, ErrInvalidAmount
		}
		tokens, err := curve.TokensForQuote(snap.Curve, snap.CurrentSupply, net)
		if err != nil {
			return nil, err
		}
		q.OutputAmount = tokens
		q.PriceImpactBps, err = curve.PriceImpactBps(snap.Curve, snap.CurrentSupply, snap.CurrentSupply+tokens)
		if err != nil {
			return nil, err
		}

	case types.DirectionSell:
		if snap.CurrentSupply < amount {
			return nil, ledger.ErrInsufficientLiquidity
		}
		gross, err := curve.ProceedsForTokens(snap.Curve, snap.CurrentSupply, amount)
		if err != nil {
			return nil, err
		}
		fees := computeFees(s.platform.FeeRateBps(), snap.Security, direction, gross, ledger.Position{}, now)
		q.FeeCharged = feeAmount(gross, fees)
		q.OutputAmount = gross - q.FeeCharged
		q.PriceImpactBps, err = curve.PriceImpactBps(snap.Curve, snap.CurrentSupply-amount, snap.CurrentSupply)
		if err != nil {
			return nil, err
		}

	default:
		return nil, fmt.Errorf("%w: unknown direction %q", ErrInvalidAmount, direction)
	}

	return q, nil
}
