package curve_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rovshanmuradov/pump-core/internal/curve"
)

// testParams возвращает валидный набор параметров для каждого семейства.
func testParams(t *testing.T) map[curve.Kind]curve.Params {
	t.Helper()
	return map[curve.Kind]curve.Params{
		curve.KindLinear: &curve.LinearParams{
			BasePrice: 100_000,
			Slope:     10_000 * curve.Precision,
			Max:       10_000_000,
		},
		curve.KindExponential: &curve.ExponentialParams{
			BasePrice:    100_000,
			GrowthFactor: 2, // очень пологий рост, чтобы не выйти за uint64
			Max:          10_000_000,
		},
		curve.KindLogarithmic: &curve.LogarithmicParams{
			BasePrice: 100_000,
			Scale:     50_000 * curve.Precision,
			Max:       10_000_000,
		},
		curve.KindSigmoid: &curve.SigmoidParams{
			MinPrice:  100_000,
			MaxPrice:  10_000_000,
			Steepness: curve.Precision / 500_000,
			Midpoint:  5_000_000,
			Max:       10_000_000,
		},
		curve.KindConstantProduct: &curve.ConstantProductParams{
			VirtualSolReserves:   30_000_000_000,
			VirtualTokenReserves: 33_333_333,
		},
	}
}

func TestSpotPriceMonotonic(t *testing.T) {
	for kind, params := range testParams(t) {
		t.Run(string(kind), func(t *testing.T) {
			c, err := curve.New(params)
			require.NoError(t, err)

			maxS := c.MaxSupply()
			step := maxS / 200
			require.Greater(t, step, uint64(0))

			prev, err := c.SpotPrice(0)
			require.NoError(t, err)
			require.Greater(t, prev, uint64(0), "initial price must be positive")

			for s := step; s <= maxS; s += step {
				price, err := c.SpotPrice(s)
				require.NoError(t, err)
				require.GreaterOrEqual(t, price, prev,
					"price must be non-decreasing at supply %d", s)
				prev = price
			}
		})
	}
}

func TestIntegralMatchesRoundTrip(t *testing.T) {
	// Покупка и немедленная продажа того же количества используют один и тот
	// же интеграл: без комиссий круговой оборот ровно нейтрален.
	for kind, params := range testParams(t) {
		t.Run(string(kind), func(t *testing.T) {
			c, err := curve.New(params)
			require.NoError(t, err)

			supply := c.MaxSupply() / 3
			delta := c.MaxSupply() / 100

			cost, err := c.Integral(supply, supply+delta)
			require.NoError(t, err)
			proceeds, err := curve.ProceedsForTokens(c, supply+delta, delta)
			require.NoError(t, err)

			assert.Equal(t, cost, proceeds)
		})
	}
}

func TestLinearCostScenario(t *testing.T) {
	// base = 0.0001, slope = 0.00001 в единицах котировки, supply 0 -> 1000:
	// ∫ (0.0001 + 0.00001*s) ds = 0.1 + 5 = 5.1, то есть 5.1e9 lamports.
	c, err := curve.New(&curve.LinearParams{
		BasePrice: 100_000,
		Slope:     10_000 * curve.Precision,
		Max:       1_000_000,
	})
	require.NoError(t, err)

	cost, err := c.Integral(0, 1000)
	require.NoError(t, err)
	assert.Equal(t, uint64(5_100_000_000), cost)
}

func TestLinearSpotPrice(t *testing.T) {
	c, err := curve.New(&curve.LinearParams{
		BasePrice: 1000,
		Slope:     10 * curve.Precision,
		Max:       1_000_000,
	})
	require.NoError(t, err)

	price, err := c.SpotPrice(0)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), price)

	price, err = c.SpotPrice(100)
	require.NoError(t, err)
	assert.Equal(t, uint64(2000), price)
}

func TestConstantProductImpactShrinksWithDeeperReserves(t *testing.T) {
	// Покупка на фиксированную сумму должна давать монотонно убывающий
	// price impact по мере роста виртуального SOL-резерва.
	const quoteIn = 1_000_000_000 // 1 SOL

	prevImpact := uint64(10_000)
	for _, solReserve := range []uint64{10, 30, 100, 300} {
		params := &curve.ConstantProductParams{
			VirtualSolReserves:   solReserve * 1_000_000_000,
			VirtualTokenReserves: 33_333_333,
		}
		c, err := curve.New(params)
		require.NoError(t, err)

		tokens, err := curve.TokensForQuote(c, 0, quoteIn)
		require.NoError(t, err)
		require.Greater(t, tokens, uint64(0))

		impact, err := curve.PriceImpactBps(c, 0, tokens)
		require.NoError(t, err)
		require.LessOrEqual(t, impact, prevImpact,
			"impact must shrink as reserves deepen (reserve=%d)", solReserve)
		prevImpact = impact
	}
}

func TestConstantProductNeverDrainsReserves(t *testing.T) {
	params := &curve.ConstantProductParams{
		VirtualSolReserves:   30_000_000_000,
		VirtualTokenReserves: 1000,
	}
	c, err := curve.New(params)
	require.NoError(t, err)

	// Максимальный supply оставляет в пуле минимум один токен
	assert.Equal(t, uint64(999), c.MaxSupply())

	// Попытка пройти за границу резерва отклоняется, а не обрезается
	_, err = c.SpotPrice(1000)
	assert.ErrorIs(t, err, curve.ErrReservesDepleted)

	// Даже абсурдно большая котировка не осушает пул
	tokens, err := curve.TokensForQuote(c, 0, ^uint64(0)/2)
	require.NoError(t, err)
	assert.Less(t, tokens, params.VirtualTokenReserves)
}

func TestTokensForQuoteInversion(t *testing.T) {
	for kind, params := range testParams(t) {
		t.Run(string(kind), func(t *testing.T) {
			c, err := curve.New(params)
			require.NoError(t, err)

			supply := c.MaxSupply() / 4
			quote, err := c.Integral(supply, supply+100)
			require.NoError(t, err)

			tokens, err := curve.TokensForQuote(c, supply, quote)
			require.NoError(t, err)
			require.GreaterOrEqual(t, tokens, uint64(100))

			// Стоимость найденного количества не превышает котировку,
			// а следующий токен уже не помещается
			cost, err := c.Integral(supply, supply+tokens)
			require.NoError(t, err)
			assert.LessOrEqual(t, cost, quote)

			if supply+tokens < c.MaxSupply() {
				next, err := c.Integral(supply, supply+tokens+1)
				require.NoError(t, err)
				assert.Greater(t, next, quote)
			}
		})
	}
}

func TestZeroSupplyPriceDefined(t *testing.T) {
	for kind, params := range testParams(t) {
		t.Run(string(kind), func(t *testing.T) {
			c, err := curve.New(params)
			require.NoError(t, err)

			price, err := c.SpotPrice(0)
			require.NoError(t, err)
			assert.Greater(t, price, uint64(0))
		})
	}
}

func TestInvalidParamsRejected(t *testing.T) {
	cases := []struct {
		name   string
		params curve.Params
	}{
		{"linear zero base", &curve.LinearParams{BasePrice: 0, Slope: 1, Max: 100}},
		{"linear zero slope", &curve.LinearParams{BasePrice: 1000, Slope: 0, Max: 100}},
		{"linear zero max", &curve.LinearParams{BasePrice: 1000, Slope: 1, Max: 0}},
		{"exponential overflow bound", &curve.ExponentialParams{
			BasePrice:    1000,
			GrowthFactor: curve.Precision,
			Max:          curve.MaxSupplyLimit,
		}},
		{"sigmoid inverted range", &curve.SigmoidParams{
			MinPrice: 2000, MaxPrice: 1000, Steepness: 1, Midpoint: 50, Max: 100,
		}},
		{"constant product empty pool", &curve.ConstantProductParams{
			VirtualSolReserves: 0, VirtualTokenReserves: 1000,
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := curve.New(tc.params)
			assert.ErrorIs(t, err, curve.ErrInvalidParams)
		})
	}
}

func TestMarketCapOverflow(t *testing.T) {
	c, err := curve.New(&curve.LinearParams{
		BasePrice: ^uint64(0) / 2,
		Slope:     curve.Precision,
		Max:       curve.MaxSupplyLimit,
	})
	require.NoError(t, err)

	_, err = curve.MarketCap(c, 1_000_000_000)
	assert.ErrorIs(t, err, curve.ErrOverflow)
}
