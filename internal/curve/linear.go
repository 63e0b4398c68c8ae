// =============================
// File: internal/curve/linear.go
// =============================
package curve

import "math/big"

// LinearParams описывает линейную кривую price(s) = basePrice + slope*s.
//
// Slope задаётся в lamports за токен, умноженных на Precision, что позволяет
// выражать наклоны меньше одного lamport на токен.
type LinearParams struct {
	BasePrice uint64 // начальная цена в lamports за токен
	Slope     uint64 // наклон, масштабирован Precision
	Max       uint64 // максимальный supply
}

func (p *LinearParams) Kind() Kind { return KindLinear }

func (p *LinearParams) Validate() error {
	if p.BasePrice < MinPrice || p.Slope == 0 {
		return ErrInvalidParams
	}
	if p.Max == 0 || p.Max > MaxSupplyLimit {
		return ErrInvalidParams
	}
	return nil
}

type linearCurve struct {
	params LinearParams
}

func (c *linearCurve) Kind() Kind        { return KindLinear }
func (c *linearCurve) MaxSupply() uint64 { return c.params.Max }

func (c *linearCurve) SpotPrice(supply uint64) (uint64, error) {
	if supply > c.params.Max {
		return 0, ErrSupplyOutOfRange
	}
	price := new(big.Int).SetUint64(c.params.Slope)
	price.Mul(price, new(big.Int).SetUint64(supply))
	price.Quo(price, bigPrecision)
	price.Add(price, new(big.Int).SetUint64(c.params.BasePrice))

	v, err := toUint64(price)
	if err != nil {
		return 0, err
	}
	return max(v, MinPrice), nil
}

// Integral вычисляет закрытую форму интеграла спотовой цены:
// ∫(b + m*s) ds = b*Δ + m*(s1² - s0²)/2.
func (c *linearCurve) Integral(s0, s1 uint64) (uint64, error) {
	if s0 > s1 {
		return 0, ErrSupplyOutOfRange
	}
	if s1 > c.params.Max {
		return 0, ErrSupplyOutOfRange
	}

	b0 := new(big.Int).SetUint64(s0)
	b1 := new(big.Int).SetUint64(s1)
	delta := new(big.Int).Sub(b1, b0)

	linearPart := new(big.Int).SetUint64(c.params.BasePrice)
	linearPart.Mul(linearPart, delta)

	// m*(s1+s0)*(s1-s0)/2 в масштабе Precision
	quadPart := new(big.Int).Add(b1, b0)
	quadPart.Mul(quadPart, delta)
	quadPart.Mul(quadPart, new(big.Int).SetUint64(c.params.Slope))
	quadPart.Quo(quadPart, bigTwo)
	quadPart.Quo(quadPart, bigPrecision)

	return toUint64(linearPart.Add(linearPart, quadPart))
}
