package engine_test

import (
	"context"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/pump-core/internal/admission"
	"github.com/rovshanmuradov/pump-core/internal/curve"
	"github.com/rovshanmuradov/pump-core/internal/engine"
	"github.com/rovshanmuradov/pump-core/internal/graduation"
	"github.com/rovshanmuradov/pump-core/internal/ledger"
	"github.com/rovshanmuradov/pump-core/internal/platform"
	"github.com/rovshanmuradov/pump-core/internal/types"
)

type stack struct {
	registry *ledger.Registry
	cfg      *platform.Config
	profiles *platform.Profiles
	service  *engine.Service
	executor *engine.Executor
	admin    solana.PublicKey
	trader   solana.PublicKey
	clock    time.Time
}

func (s *stack) now() time.Time { return s.clock }

// newStack собирает движок с разрешительными параметрами безопасности
// и комиссией платформы 1%.
func newStack(t *testing.T, sec platform.SecurityParams) *stack {
	t.Helper()

	s := &stack{
		admin:  solana.NewWallet().PublicKey(),
		trader: solana.NewWallet().PublicKey(),
		clock:  time.Unix(1_700_000_000, 0),
	}

	var err error
	s.cfg, err = platform.New(platform.Options{
		Authority:  s.admin,
		Treasury:   solana.NewWallet().PublicKey(),
		FeeRateBps: 100,
		Security:   sec,
	}, nil, zap.NewNop())
	require.NoError(t, err)

	s.registry = ledger.NewRegistry(zap.NewNop())
	s.profiles = platform.NewProfiles()

	ctrl := admission.NewController(s.cfg, s.profiles, nil, 0, 0, zap.NewNop())
	s.executor = engine.NewExecutor(s.registry, ctrl, s.cfg, nil, zap.NewNop()).
		WithClock(s.now)
	s.service = engine.NewService(s.registry, s.cfg, s.profiles, s.executor,
		nil, nil, zap.NewNop()).WithClock(s.now)

	return s
}

func (s *stack) createLinearToken(t *testing.T, threshold uint64) solana.PublicKey {
	t.Helper()
	mint, err := s.service.CreateToken(context.Background(), &engine.CreateTokenRequest{
		Creator: solana.NewWallet().PublicKey(),
		Name:    "Test Token",
		Symbol:  "TST",
		Params: &curve.LinearParams{
			BasePrice: 100_000,
			Slope:     10_000 * curve.Precision,
			Max:       10_000_000,
		},
		GraduationThreshold: threshold,
	})
	require.NoError(t, err)
	return mint
}

func (s *stack) reserves(t *testing.T, mint solana.PublicKey) uint64 {
	t.Helper()
	var out uint64
	require.NoError(t, s.registry.View(mint, func(l *ledger.TokenLedger) error {
		out = l.SolReserves
		return nil
	}))
	return out
}

func TestBuyThenSellConservation(t *testing.T) {
	s := newStack(t, platform.SecurityParams{})
	mint := s.createLinearToken(t, 0)
	ctx := context.Background()

	var netIn, grossOut, fees uint64

	buy, err := s.service.Buy(ctx, mint, s.trader, 2_000_000_000, 0, 0)
	require.NoError(t, err)
	netIn += buy.InputAmount - buy.FeeCharged
	fees += buy.FeeCharged

	s.clock = s.clock.Add(time.Minute)
	buy2, err := s.service.Buy(ctx, mint, s.trader, 1_000_000_000, 0, 0)
	require.NoError(t, err)
	netIn += buy2.InputAmount - buy2.FeeCharged
	fees += buy2.FeeCharged

	s.clock = s.clock.Add(25 * time.Hour) // вне окна early-sell tax
	sell, err := s.service.Sell(ctx, mint, s.trader, buy.OutputAmount/2, 0, 0)
	require.NoError(t, err)
	grossOut = sell.OutputAmount + sell.FeeCharged
	fees += sell.FeeCharged

	// Резерв равен сумме чистых входов минус валовые выходы
	assert.Equal(t, netIn-grossOut, s.reserves(t, mint))

	// Казна накопила ровно сумму всех комиссий
	assert.Equal(t, fees, s.cfg.Snapshot().FeesAccrued)
}

func TestNoFreeRoundTrip(t *testing.T) {
	s := newStack(t, platform.SecurityParams{})
	mint := s.createLinearToken(t, 0)
	ctx := context.Background()

	const spent = 5_000_000_000
	buy, err := s.service.Buy(ctx, mint, s.trader, spent, 0, 0)
	require.NoError(t, err)

	s.clock = s.clock.Add(25 * time.Hour)
	sell, err := s.service.Sell(ctx, mint, s.trader, buy.OutputAmount, 0, 0)
	require.NoError(t, err)

	// Покупка и немедленная продажа того же размера никогда не дают
	// чистой прибыли
	assert.LessOrEqual(t, sell.OutputAmount, uint64(spent))
}

func TestSlippageRejectionLeavesLedgerUntouched(t *testing.T) {
	s := newStack(t, platform.SecurityParams{})
	mint := s.createLinearToken(t, 0)
	ctx := context.Background()

	_, err := s.service.Buy(ctx, mint, s.trader, 1_000_000_000, 0, 0)
	require.NoError(t, err)

	before, err := s.registry.Snapshot(mint)
	require.NoError(t, err)
	statsBefore := s.cfg.Snapshot()

	s.clock = s.clock.Add(time.Minute)

	// minOutput заведомо больше реального выхода
	_, err = s.service.Buy(ctx, mint, s.trader, 1_000_000_000, ^uint64(0), 0)
	require.ErrorIs(t, err, engine.ErrSlippageExceeded)

	var sl *engine.SlippageError
	require.ErrorAs(t, err, &sl)
	assert.Greater(t, sl.MinOutput, sl.Realized)

	after, err := s.registry.Snapshot(mint)
	require.NoError(t, err)

	// Леджер не изменился ни в одном поле
	assert.Equal(t, before.Version, after.Version)
	assert.Equal(t, before.CurrentSupply, after.CurrentSupply)
	assert.Equal(t, before.SolReserves, after.SolReserves)
	assert.Equal(t, before.TradeCount, after.TradeCount)
	assert.Equal(t, before.PositionOf(s.trader), after.PositionOf(s.trader))
	assert.Equal(t, statsBefore, s.cfg.Snapshot())
}

func TestAdmissionRejectionIsTotal(t *testing.T) {
	sec := platform.SecurityParams{MaxTradeSize: 100_000}
	s := newStack(t, sec)
	mint := s.createLinearToken(t, 0)

	before, err := s.registry.Snapshot(mint)
	require.NoError(t, err)

	_, err = s.service.Buy(context.Background(), mint, s.trader, 1_000_000_000, 0, 0)
	require.ErrorIs(t, err, engine.ErrTradeRejected)

	var rej *engine.RejectionError
	require.ErrorAs(t, err, &rej)
	assert.Equal(t, admission.ReasonMaxTradeSize, rej.Reason)

	after, err := s.registry.Snapshot(mint)
	require.NoError(t, err)
	assert.Equal(t, before.Version, after.Version)
	assert.Equal(t, uint64(0), s.cfg.Snapshot().FeesAccrued)
}

func TestAdditiveTaxComposition(t *testing.T) {
	sec := platform.SecurityParams{
		WhaleTaxThreshold: 1_000_000_000, // 1 SOL
		WhaleTaxBps:       200,
		EarlySellTaxBps:   500,
		LiquidityTaxBps:   100,
	}
	s := newStack(t, sec)
	mint := s.createLinearToken(t, 0)
	ctx := context.Background()

	// Закупаемся достаточно крупно, чтобы продажа была выше whale-порога
	buy, err := s.service.Buy(ctx, mint, s.trader, 20_000_000_000, 0, 0)
	require.NoError(t, err)
	// Покупка выше порога: платформа 1% + whale 2% = 3%
	assert.Equal(t, uint64(20_000_000_000)*300/10_000, buy.FeeCharged)

	// Продажа в течение 24h после приобретения: платформа 1% + whale 2%
	// + early-sell 5% + liquidity 1% = 9%
	s.clock = s.clock.Add(time.Hour)
	sell, err := s.service.Sell(ctx, mint, s.trader, buy.OutputAmount, 0, 0)
	require.NoError(t, err)
	gross := sell.OutputAmount + sell.FeeCharged
	require.Greater(t, gross, sec.WhaleTaxThreshold)
	assert.Equal(t, gross*900/10_000, sell.FeeCharged)
}

func TestEarlySellTaxExpiresAfterWindow(t *testing.T) {
	sec := platform.SecurityParams{EarlySellTaxBps: 500}
	s := newStack(t, sec)
	mint := s.createLinearToken(t, 0)
	ctx := context.Background()

	buy, err := s.service.Buy(ctx, mint, s.trader, 1_000_000_000, 0, 0)
	require.NoError(t, err)

	// Спустя 25 часов early-sell tax не применяется: остаётся 1% платформы
	s.clock = s.clock.Add(25 * time.Hour)
	sell, err := s.service.Sell(ctx, mint, s.trader, buy.OutputAmount, 0, 0)
	require.NoError(t, err)
	gross := sell.OutputAmount + sell.FeeCharged
	assert.Equal(t, gross*100/10_000, sell.FeeCharged)
}

func TestSellWithoutBalance(t *testing.T) {
	s := newStack(t, platform.SecurityParams{})
	mint := s.createLinearToken(t, 0)

	_, err := s.service.Sell(context.Background(), mint, s.trader, 100, 0, 0)
	assert.ErrorIs(t, err, ledger.ErrInsufficientBalance)
}

func TestZeroAmountRejected(t *testing.T) {
	s := newStack(t, platform.SecurityParams{})
	mint := s.createLinearToken(t, 0)

	_, err := s.service.Buy(context.Background(), mint, s.trader, 0, 0, 0)
	assert.ErrorIs(t, err, engine.ErrInvalidAmount)
}

func TestQuoteMatchesExecutionWithoutMutation(t *testing.T) {
	s := newStack(t, platform.SecurityParams{})
	mint := s.createLinearToken(t, 0)
	ctx := context.Background()

	q, err := s.service.Quote(mint, types.DirectionBuy, 1_000_000_000)
	require.NoError(t, err)

	before, err := s.registry.Snapshot(mint)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), before.TradeCount)

	receipt, err := s.service.Buy(ctx, mint, s.trader, 1_000_000_000, 0, 0)
	require.NoError(t, err)

	assert.Equal(t, q.OutputAmount, receipt.OutputAmount)
	assert.Equal(t, q.FeeCharged, receipt.FeeCharged)
	assert.Equal(t, q.PriceImpactBps, receipt.PriceImpactBps)
}

func TestCreateTokenGuards(t *testing.T) {
	sec := platform.SecurityParams{
		CreationCooldown:      time.Hour,
		MaxTokensPerCreator:   2,
		MinReputationToCreate: 400,
	}
	s := newStack(t, sec)
	ctx := context.Background()
	creator := solana.NewWallet().PublicKey()

	req := func() *engine.CreateTokenRequest {
		return &engine.CreateTokenRequest{
			Creator: creator,
			Name:    "T", Symbol: "T",
			Params: &curve.LinearParams{BasePrice: 1000, Slope: 1, Max: 1000},
		}
	}

	_, err := s.service.CreateToken(ctx, req())
	require.NoError(t, err)

	// Cooldown создания
	_, err = s.service.CreateToken(ctx, req())
	assert.ErrorIs(t, err, engine.ErrCreationCooldown)

	s.clock = s.clock.Add(2 * time.Hour)
	_, err = s.service.CreateToken(ctx, req())
	require.NoError(t, err)

	// Потолок токенов на создателя
	s.clock = s.clock.Add(2 * time.Hour)
	_, err = s.service.CreateToken(ctx, req())
	assert.ErrorIs(t, err, engine.ErrTooManyTokens)

	// Низкая репутация
	low := solana.NewWallet().PublicKey()
	s.profiles.SetReputation(low, 100)
	r := req()
	r.Creator = low
	_, err = s.service.CreateToken(ctx, r)
	assert.ErrorIs(t, err, engine.ErrReputationTooLow)

	// Бан создателя
	banned := solana.NewWallet().PublicKey()
	s.profiles.SetBanned(banned, true)
	r = req()
	r.Creator = banned
	_, err = s.service.CreateToken(ctx, r)
	assert.ErrorIs(t, err, engine.ErrCreatorBanned)

	// Невалидные параметры кривой
	r = req()
	r.Creator = solana.NewWallet().PublicKey()
	r.Params = &curve.LinearParams{BasePrice: 0, Slope: 0, Max: 0}
	_, err = s.service.CreateToken(ctx, r)
	assert.ErrorIs(t, err, curve.ErrInvalidParams)
}

func TestGraduationHookFiresAfterTrade(t *testing.T) {
	s := newStack(t, platform.SecurityParams{})
	// Порог достигается первой же покупкой
	mint := s.createLinearToken(t, 1_000_000_000)
	ctx := context.Background()

	locks := graduation.NewLockBook(zap.NewNop())
	mgr := graduation.NewManager(s.registry, s.cfg, locks, nil, zap.NewNop()).
		WithClock(s.now)
	s.service.SetGraduationHook(mgr)

	_, err := s.service.Buy(ctx, mint, s.trader, 10_000_000_000, 0, 0)
	require.NoError(t, err)

	require.NoError(t, s.registry.View(mint, func(l *ledger.TokenLedger) error {
		assert.True(t, l.Graduated)
		return nil
	}))

	// Дальнейшие сделки отклоняются на проверке градуации
	s.clock = s.clock.Add(time.Minute)
	_, err = s.service.Buy(ctx, mint, s.trader, 1_000_000, 0, 0)
	var rej *engine.RejectionError
	require.ErrorAs(t, err, &rej)
	assert.Equal(t, admission.ReasonAlreadyGraduated, rej.Reason)

	// LP-позиция оказалась под замком
	_, err = locks.Get(mint)
	assert.NoError(t, err)
}

func TestPriceImpactMeasuredBetweenSupplyLevels(t *testing.T) {
	s := newStack(t, platform.SecurityParams{})
	mint := s.createLinearToken(t, 0)
	ctx := context.Background()

	// Прогреваем кривую крупной покупкой стороннего кошелька
	whale := solana.NewWallet().PublicKey()
	_, err := s.service.Buy(ctx, mint, whale, 2_000_000_000, 0, 0)
	require.NoError(t, err)

	before, err := s.registry.Snapshot(mint)
	require.NoError(t, err)
	require.NotZero(t, before.CurrentSupply)

	s.clock = s.clock.Add(time.Minute)

	// Небольшая докупка на прогретой кривой: влияние — спот-цена на
	// уровне supply до сделки против уровня после неё, допуск 50%
	// проходит с запасом
	buy, err := s.service.Buy(ctx, mint, s.trader, 100_000_000, 0, 5_000)
	require.NoError(t, err)

	after, err := s.registry.Snapshot(mint)
	require.NoError(t, err)
	require.Equal(t, before.CurrentSupply+buy.OutputAmount, after.CurrentSupply)

	wantBuy, err := curve.PriceImpactBps(before.Curve, before.CurrentSupply, after.CurrentSupply)
	require.NoError(t, err)
	assert.Equal(t, wantBuy, buy.PriceImpactBps)
	assert.Less(t, buy.PriceImpactBps, uint64(5_000))

	qb, err := s.service.Quote(mint, types.DirectionBuy, 100_000_000)
	require.NoError(t, err)
	assert.Less(t, qb.PriceImpactBps, uint64(5_000))

	// Продажа меряется между пост-трейдовым и текущим уровнем supply
	s.clock = s.clock.Add(time.Minute)
	sell, err := s.service.Sell(ctx, mint, s.trader, buy.OutputAmount, 0, 5_000)
	require.NoError(t, err)

	wantSell, err := curve.PriceImpactBps(after.Curve,
		after.CurrentSupply-buy.OutputAmount, after.CurrentSupply)
	require.NoError(t, err)
	assert.Equal(t, wantSell, sell.PriceImpactBps)
}

func TestStatusChecksPrecedeQuantityErrors(t *testing.T) {
	s := newStack(t, platform.SecurityParams{})
	mint := s.createLinearToken(t, 0)
	ctx := context.Background()

	// Пауза торговли отвечает раньше, чем нехватка баланса продавца
	require.NoError(t, s.cfg.PauseTradingOnly(s.admin, true, "maintenance"))

	_, err := s.service.Sell(ctx, mint, s.trader, 100, 0, 0)
	var rej *engine.RejectionError
	require.ErrorAs(t, err, &rej)
	assert.Equal(t, admission.ReasonPlatformPaused, rej.Reason)

	// После снятия паузы проявляется исходная ошибка количества
	require.NoError(t, s.cfg.PauseTradingOnly(s.admin, false, "resumed"))
	_, err = s.service.Sell(ctx, mint, s.trader, 100, 0, 0)
	assert.ErrorIs(t, err, ledger.ErrInsufficientBalance)
}
