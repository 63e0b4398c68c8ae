// =============================
// File: internal/curve/sigmoid.go
// =============================
package curve

import "math/big"

// SigmoidParams описывает S-образную кривую
// price(s) = minPrice + (maxPrice-minPrice)/(1 + e^(-k*(s-midpoint))):
// медленный старт, быстрый рост около середины, асимптотическое
// выравнивание у обеих границ.
//
// Steepness задаётся в единицах Precision на токен.
type SigmoidParams struct {
	MinPrice  uint64 // нижняя асимптота цены в lamports
	MaxPrice  uint64 // верхняя асимптота цены в lamports
	Steepness uint64 // крутизна, масштабирована Precision
	Midpoint  uint64 // supply в точке перегиба
	Max       uint64 // максимальный supply
}

func (p *SigmoidParams) Kind() Kind { return KindSigmoid }

func (p *SigmoidParams) Validate() error {
	if p.MinPrice < MinPrice || p.MaxPrice <= p.MinPrice {
		return ErrInvalidParams
	}
	if p.Steepness == 0 {
		return ErrInvalidParams
	}
	if p.Max == 0 || p.Max > MaxSupplyLimit || p.Midpoint > p.Max {
		return ErrInvalidParams
	}
	return nil
}

type sigmoidCurve struct {
	params SigmoidParams
}

func (c *sigmoidCurve) Kind() Kind        { return KindSigmoid }
func (c *sigmoidCurve) MaxSupply() uint64 { return c.params.Max }

// arg возвращает k*(s - midpoint) в единицах Precision (со знаком).
func (c *sigmoidCurve) arg(supply uint64) *big.Int {
	diff := new(big.Int).SetUint64(supply)
	diff.Sub(diff, new(big.Int).SetUint64(c.params.Midpoint))
	diff.Mul(diff, new(big.Int).SetUint64(c.params.Steepness))
	return diff.Quo(diff, bigPrecision)
}

func (c *sigmoidCurve) SpotPrice(supply uint64) (uint64, error) {
	if supply > c.params.Max {
		return 0, ErrSupplyOutOfRange
	}

	// R / (1 + e^(-x)) через expFixed с отрицательным аргументом
	e, err := expFixed(new(big.Int).Neg(c.arg(supply)))
	if err != nil {
		return 0, err
	}
	denom := new(big.Int).Add(bigPrecision, e)

	priceRange := new(big.Int).SetUint64(c.params.MaxPrice - c.params.MinPrice)
	priceRange.Mul(priceRange, bigPrecision)
	priceRange.Quo(priceRange, denom)
	priceRange.Add(priceRange, new(big.Int).SetUint64(c.params.MinPrice))

	v, err := toUint64(priceRange)
	if err != nil {
		return 0, err
	}
	if v > c.params.MaxPrice {
		v = c.params.MaxPrice
	}
	return max(v, c.params.MinPrice), nil
}

// Integral вычисляет закрытую форму через softplus:
// ∫ R/(1+e^(-k(s-m))) ds = (R/k)*ln(1+e^(k(s-m))), плюс линейный член minPrice*Δ.
func (c *sigmoidCurve) Integral(s0, s1 uint64) (uint64, error) {
	if s0 > s1 || s1 > c.params.Max {
		return 0, ErrSupplyOutOfRange
	}

	sp0, err := softplusFixed(c.arg(s0))
	if err != nil {
		return 0, err
	}
	sp1, err := softplusFixed(c.arg(s1))
	if err != nil {
		return 0, err
	}

	sigPart := new(big.Int).Sub(sp1, sp0)
	sigPart.Mul(sigPart, new(big.Int).SetUint64(c.params.MaxPrice-c.params.MinPrice))
	sigPart.Quo(sigPart, new(big.Int).SetUint64(c.params.Steepness))

	minPart := new(big.Int).SetUint64(c.params.MinPrice)
	minPart.Mul(minPart, new(big.Int).SetUint64(s1-s0))

	return toUint64(minPart.Add(minPart, sigPart))
}
