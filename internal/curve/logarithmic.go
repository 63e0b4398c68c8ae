// =============================
// File: internal/curve/logarithmic.go
// =============================
package curve

import "math/big"

// LogarithmicParams описывает кривую price(s) = basePrice + scale*ln(1+s):
// быстрый рост около нулевого supply и замедление дальше. Слагаемое 1+s
// делает цену при нулевом supply корректно определённой.
//
// Scale задаётся в lamports, умноженных на Precision.
type LogarithmicParams struct {
	BasePrice uint64 // базовая цена в lamports за токен
	Scale     uint64 // масштаб логарифма, умножен на Precision
	Max       uint64 // максимальный supply
}

func (p *LogarithmicParams) Kind() Kind { return KindLogarithmic }

func (p *LogarithmicParams) Validate() error {
	if p.BasePrice < MinPrice || p.Scale == 0 {
		return ErrInvalidParams
	}
	if p.Max == 0 || p.Max > MaxSupplyLimit {
		return ErrInvalidParams
	}
	return nil
}

type logarithmicCurve struct {
	params LogarithmicParams
}

func (c *logarithmicCurve) Kind() Kind        { return KindLogarithmic }
func (c *logarithmicCurve) MaxSupply() uint64 { return c.params.Max }

// lnAt возвращает ln(1+supply) в единицах Precision.
func lnAt(supply uint64) (*big.Int, error) {
	arg := new(big.Int).SetUint64(supply + 1)
	arg.Mul(arg, bigPrecision)
	return lnFixed(arg)
}

func (c *logarithmicCurve) SpotPrice(supply uint64) (uint64, error) {
	if supply > c.params.Max {
		return 0, ErrSupplyOutOfRange
	}
	ln, err := lnAt(supply)
	if err != nil {
		return 0, err
	}
	add := new(big.Int).SetUint64(c.params.Scale)
	add.Mul(add, ln)
	add.Quo(add, bigPrecision)
	add.Quo(add, bigPrecision)
	add.Add(add, new(big.Int).SetUint64(c.params.BasePrice))

	v, err := toUint64(add)
	if err != nil {
		return 0, err
	}
	return max(v, MinPrice), nil
}

// antiderivative вычисляет F(s) = (1+s)*ln(1+s) - s в единицах Precision:
// точную первообразную ln(1+s).
func (c *logarithmicCurve) antiderivative(supply uint64) (*big.Int, error) {
	ln, err := lnAt(supply)
	if err != nil {
		return nil, err
	}
	f := new(big.Int).SetUint64(supply + 1)
	f.Mul(f, ln)
	s := new(big.Int).SetUint64(supply)
	s.Mul(s, bigPrecision)
	return f.Sub(f, s), nil
}

// Integral вычисляет закрытую форму:
// ∫ (b + c*ln(1+s)) ds = b*Δ + c*[(1+s)ln(1+s) - s] |s0..s1.
func (c *logarithmicCurve) Integral(s0, s1 uint64) (uint64, error) {
	if s0 > s1 || s1 > c.params.Max {
		return 0, ErrSupplyOutOfRange
	}

	f0, err := c.antiderivative(s0)
	if err != nil {
		return 0, err
	}
	f1, err := c.antiderivative(s1)
	if err != nil {
		return 0, err
	}

	logPart := new(big.Int).Sub(f1, f0)
	logPart.Mul(logPart, new(big.Int).SetUint64(c.params.Scale))
	logPart.Quo(logPart, bigPrecision)
	logPart.Quo(logPart, bigPrecision)

	basePart := new(big.Int).SetUint64(c.params.BasePrice)
	basePart.Mul(basePart, new(big.Int).SetUint64(s1-s0))

	return toUint64(basePart.Add(basePart, logPart))
}
