// =============================
// File: internal/curve/exponential.go
// =============================
package curve

import "math/big"

// ExponentialParams описывает кривую price(s) = basePrice * e^(growth*s).
//
// GrowthFactor задаётся в единицах Precision на токен. Валидация ограничивает
// growth*maxSupply так, чтобы экспонента не переполняла uint64 на всём
// допустимом диапазоне supply.
type ExponentialParams struct {
	BasePrice    uint64 // базовая цена в lamports за токен
	GrowthFactor uint64 // показатель роста, масштабирован Precision
	Max          uint64 // максимальный supply
}

func (p *ExponentialParams) Kind() Kind { return KindExponential }

func (p *ExponentialParams) Validate() error {
	if p.BasePrice < MinPrice || p.GrowthFactor == 0 {
		return ErrInvalidParams
	}
	if p.Max == 0 || p.Max > MaxSupplyLimit {
		return ErrInvalidParams
	}

	// Граница переполнения: growth*max/Precision не должна превышать maxExpArg
	arg := new(big.Int).SetUint64(p.GrowthFactor)
	arg.Mul(arg, new(big.Int).SetUint64(p.Max))
	arg.Quo(arg, bigPrecision)
	if arg.Cmp(big.NewInt(maxExpArg)) > 0 {
		return ErrInvalidParams
	}
	return nil
}

type exponentialCurve struct {
	params ExponentialParams
}

func (c *exponentialCurve) Kind() Kind        { return KindExponential }
func (c *exponentialCurve) MaxSupply() uint64 { return c.params.Max }

// expAt возвращает e^(growth*supply) в единицах Precision.
func (c *exponentialCurve) expAt(supply uint64) (*big.Int, error) {
	arg := new(big.Int).SetUint64(c.params.GrowthFactor)
	arg.Mul(arg, new(big.Int).SetUint64(supply))
	arg.Quo(arg, bigPrecision)
	return expFixed(arg)
}

func (c *exponentialCurve) SpotPrice(supply uint64) (uint64, error) {
	if supply > c.params.Max {
		return 0, ErrSupplyOutOfRange
	}
	e, err := c.expAt(supply)
	if err != nil {
		return 0, err
	}
	price := new(big.Int).SetUint64(c.params.BasePrice)
	price.Mul(price, e)
	price.Quo(price, bigPrecision)

	v, err := toUint64(price)
	if err != nil {
		return 0, err
	}
	return max(v, MinPrice), nil
}

// Integral вычисляет закрытую форму:
// ∫ b*e^(g*s) ds = (b/g)*(e^(g*s1) - e^(g*s0)).
func (c *exponentialCurve) Integral(s0, s1 uint64) (uint64, error) {
	if s0 > s1 || s1 > c.params.Max {
		return 0, ErrSupplyOutOfRange
	}

	e0, err := c.expAt(s0)
	if err != nil {
		return 0, err
	}
	e1, err := c.expAt(s1)
	if err != nil {
		return 0, err
	}

	diff := new(big.Int).Sub(e1, e0)
	cost := new(big.Int).SetUint64(c.params.BasePrice)
	cost.Mul(cost, diff)
	cost.Quo(cost, new(big.Int).SetUint64(c.params.GrowthFactor))
	return toUint64(cost)
}
