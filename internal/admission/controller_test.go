package admission_test

import (
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/pump-core/internal/admission"
	"github.com/rovshanmuradov/pump-core/internal/curve"
	"github.com/rovshanmuradov/pump-core/internal/ledger"
	"github.com/rovshanmuradov/pump-core/internal/platform"
	"github.com/rovshanmuradov/pump-core/internal/ratelimit"
	"github.com/rovshanmuradov/pump-core/internal/types"
)

type fixture struct {
	cfg      *platform.Config
	profiles *platform.Profiles
	ctrl     *admission.Controller
	ledger   *ledger.TokenLedger
	admin    solana.PublicKey
	trader   solana.PublicKey
	now      time.Time
}

func newFixture(t *testing.T, sec platform.SecurityParams) *fixture {
	t.Helper()

	admin := solana.NewWallet().PublicKey()
	cfg, err := platform.New(platform.Options{
		Authority:  admin,
		Treasury:   solana.NewWallet().PublicKey(),
		FeeRateBps: 100,
		Security:   sec,
	}, nil, zap.NewNop())
	require.NoError(t, err)

	c, err := curve.New(&curve.LinearParams{
		BasePrice: 100_000,
		Slope:     10_000 * curve.Precision,
		Max:       10_000_000,
	})
	require.NoError(t, err)

	now := time.Unix(1_700_000_000, 0)
	l := ledger.NewTokenLedger(
		solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey(),
		"Test", "TST", "", c, nil, sec, 1_000_000_000_000, now)

	profiles := platform.NewProfiles()
	ctrl := admission.NewController(cfg, profiles, nil, 0, 0, zap.NewNop())

	return &fixture{
		cfg: cfg, profiles: profiles, ctrl: ctrl, ledger: l,
		admin: admin, trader: solana.NewWallet().PublicKey(), now: now,
	}
}

func (f *fixture) buy(notional, tokens, impact uint64) (types.TradeRequest, admission.Assessment) {
	req := types.TradeRequest{
		Token: f.ledger.Token, Trader: f.trader,
		Direction: types.DirectionBuy, Amount: notional,
	}
	return req, admission.Assessment{Notional: notional, Tokens: tokens, PriceImpactBps: impact}
}

// Открытый набор лимитов: ни одна проверка не срабатывает сама по себе.
func permissiveParams() platform.SecurityParams {
	return platform.SecurityParams{}
}

func TestAdmitAcceptsCleanTrade(t *testing.T) {
	f := newFixture(t, permissiveParams())
	req, a := f.buy(1_000_000, 100, 50)

	res := f.ctrl.Admit(&req, f.ledger, a, f.now)
	assert.True(t, res.Admitted)
	assert.Empty(t, res.Reason)
}

func TestCheckOrderIsDeterministic(t *testing.T) {
	sec := permissiveParams()
	sec.MaxTradeSize = 1
	f := newFixture(t, sec)
	f.ledger.Security = sec

	// Состояние нарушает сразу несколько проверок
	require.NoError(t, f.cfg.PauseTradingOnly(f.admin, true, ""))
	f.ledger.Graduated = true
	f.ledger.Banned = true

	req, a := f.buy(1_000_000, 100, 50)

	// Повторная оценка всегда даёт один и тот же код — самый ранний
	for i := 0; i < 5; i++ {
		res := f.ctrl.Admit(&req, f.ledger, a, f.now)
		require.False(t, res.Admitted)
		require.Equal(t, admission.ReasonPlatformPaused, res.Reason)
	}

	// Снимаем нарушения по одному — код сдвигается к следующей проверке
	require.NoError(t, f.cfg.PauseTradingOnly(f.admin, false, ""))
	res := f.ctrl.Admit(&req, f.ledger, a, f.now)
	assert.Equal(t, admission.ReasonTokenPausedOrBanned, res.Reason)

	f.ledger.Banned = false
	res = f.ctrl.Admit(&req, f.ledger, a, f.now)
	assert.Equal(t, admission.ReasonAlreadyGraduated, res.Reason)

	f.ledger.Graduated = false
	res = f.ctrl.Admit(&req, f.ledger, a, f.now)
	assert.Equal(t, admission.ReasonMaxTradeSize, res.Reason)
}

func TestWalletConcentrationAppliesToBuysOnly(t *testing.T) {
	sec := permissiveParams()
	sec.MaxWalletBps = 1_000 // 10%
	f := newFixture(t, sec)
	f.ledger.Security = sec

	require.NoError(t, f.ledger.ApplyBuy(f.trader, 1000, 1, 1, f.now))
	other := solana.NewWallet().PublicKey()
	require.NoError(t, f.ledger.ApplyBuy(other, 9000, 1, 1, f.now))

	// Покупка, доводящая долю до ~18%, отклоняется
	req, a := f.buy(1, 1000, 0)
	res := f.ctrl.Admit(&req, f.ledger, a, f.now.Add(time.Hour))
	assert.Equal(t, admission.ReasonWalletConcentration, res.Reason)

	// Продажа той же величины проходит
	req.Direction = types.DirectionSell
	res = f.ctrl.Admit(&req, f.ledger, a, f.now.Add(time.Hour))
	assert.True(t, res.Admitted)
}

func TestVolumeLimits(t *testing.T) {
	sec := permissiveParams()
	sec.DailyVolumeLimit = 10_000
	sec.HourlyTradeLimit = 2
	f := newFixture(t, sec)
	f.ledger.Security = sec

	require.NoError(t, f.ledger.ApplyBuy(f.trader, 1, 9_000, 9_000, f.now))

	// Дневной объём: 9k + 2k > 10k
	req, a := f.buy(2_000, 1, 0)
	res := f.ctrl.Admit(&req, f.ledger, a, f.now.Add(time.Minute))
	assert.Equal(t, admission.ReasonDailyVolumeLimit, res.Reason)

	// В пределах дневного лимита проходит
	req, a = f.buy(500, 1, 0)
	res = f.ctrl.Admit(&req, f.ledger, a, f.now.Add(time.Minute))
	assert.True(t, res.Admitted)

	// Часовой лимит сделок на кошелёк
	require.NoError(t, f.ledger.ApplyBuy(f.trader, 1, 100, 100, f.now.Add(time.Minute)))
	res = f.ctrl.Admit(&req, f.ledger, a, f.now.Add(2*time.Minute))
	assert.Equal(t, admission.ReasonHourlyTradeLimit, res.Reason)

	// Спустя час окно очищается
	res = f.ctrl.Admit(&req, f.ledger, a, f.now.Add(2*time.Hour))
	assert.True(t, res.Admitted)
}

func TestCooldownAndMinHoldTime(t *testing.T) {
	sec := permissiveParams()
	sec.TradeCooldown = 10 * time.Second
	sec.MinHoldTime = time.Hour
	f := newFixture(t, sec)
	f.ledger.Security = sec

	require.NoError(t, f.ledger.ApplyBuy(f.trader, 100, 1_000, 1_000, f.now))

	req, a := f.buy(1_000, 10, 0)
	res := f.ctrl.Admit(&req, f.ledger, a, f.now.Add(5*time.Second))
	assert.Equal(t, admission.ReasonTradeCooldown, res.Reason)

	// Cooldown прошёл, но min hold продажи ещё держит
	req.Direction = types.DirectionSell
	res = f.ctrl.Admit(&req, f.ledger, a, f.now.Add(30*time.Minute))
	assert.Equal(t, admission.ReasonMinHoldTime, res.Reason)

	res = f.ctrl.Admit(&req, f.ledger, a, f.now.Add(2*time.Hour))
	assert.True(t, res.Admitted)
}

func TestPriceImpactChecks(t *testing.T) {
	sec := permissiveParams()
	sec.CircuitBreakerBps = 5_000
	sec.MaxPriceImpactBps = 2_000
	f := newFixture(t, sec)
	f.ledger.Security = sec

	req, a := f.buy(1_000, 10, 6_000)
	res := f.ctrl.Admit(&req, f.ledger, a, f.now)
	assert.Equal(t, admission.ReasonCircuitBreaker, res.Reason)

	req, a = f.buy(1_000, 10, 3_000)
	res = f.ctrl.Admit(&req, f.ledger, a, f.now)
	assert.Equal(t, admission.ReasonPriceImpact, res.Reason)

	req, a = f.buy(1_000, 10, 1_500)
	res = f.ctrl.Admit(&req, f.ledger, a, f.now)
	assert.True(t, res.Admitted)
}

func TestKycRequiredForLargeTrades(t *testing.T) {
	sec := permissiveParams()
	sec.RequireKycForLargeTrades = true
	sec.WhaleTaxThreshold = 10_000
	f := newFixture(t, sec)
	f.ledger.Security = sec

	req, a := f.buy(50_000, 10, 0)
	res := f.ctrl.Admit(&req, f.ledger, a, f.now)
	assert.Equal(t, admission.ReasonKycRequired, res.Reason)

	f.profiles.SetKycVerified(f.trader, true)
	res = f.ctrl.Admit(&req, f.ledger, a, f.now)
	assert.True(t, res.Admitted)

	// Мелкие сделки KYC не требуют
	f.profiles.SetKycVerified(f.trader, false)
	req, a = f.buy(5_000, 10, 0)
	res = f.ctrl.Admit(&req, f.ledger, a, f.now)
	assert.True(t, res.Admitted)
}

func TestHoneypotHeuristic(t *testing.T) {
	sec := permissiveParams()
	sec.HoneypotDetection = true
	f := newFixture(t, sec)
	f.ledger.Security = sec

	// Создатель держит 90% supply
	require.NoError(t, f.ledger.ApplyBuy(f.ledger.Creator, 9_000, 1, 1, f.now))
	other := solana.NewWallet().PublicKey()
	require.NoError(t, f.ledger.ApplyBuy(other, 1_000, 1, 1, f.now))

	req, a := f.buy(1_000, 10, 0)
	res := f.ctrl.Admit(&req, f.ledger, a, f.now.Add(time.Hour))
	assert.Equal(t, admission.ReasonHoneypot, res.Reason)

	// Продажи не блокируются: детектор защищает покупателя
	req.Direction = types.DirectionSell
	res = f.ctrl.Admit(&req, f.ledger, a, f.now.Add(time.Hour))
	assert.True(t, res.Admitted)
}

func TestRateLimitOracleConsultedLast(t *testing.T) {
	sec := permissiveParams()
	f := newFixture(t, sec)

	clock := f.now
	limiter := ratelimit.NewLimiter(zap.NewNop(),
		ratelimit.WithClock(func() time.Time { return clock }))
	f.ctrl = admission.NewController(f.cfg, f.profiles, limiter, 2, time.Minute, zap.NewNop())

	req, a := f.buy(1_000, 10, 0)

	res := f.ctrl.Admit(&req, f.ledger, a, f.now)
	require.True(t, res.Admitted)
	res = f.ctrl.Admit(&req, f.ledger, a, f.now)
	require.True(t, res.Admitted)
	res = f.ctrl.Admit(&req, f.ledger, a, f.now)
	assert.Equal(t, admission.ReasonRateLimited, res.Reason)

	// Отказ более ранней проверки не потребляет слот оракула
	f.ledger.Paused = true
	limiter.Reset(f.trader.String())
	res = f.ctrl.Admit(&req, f.ledger, a, f.now)
	require.Equal(t, admission.ReasonTokenPausedOrBanned, res.Reason)
	f.ledger.Paused = false
	for i := 0; i < 2; i++ {
		res = f.ctrl.Admit(&req, f.ledger, a, f.now)
		require.True(t, res.Admitted, "slot %d must still be available", i)
	}
}
