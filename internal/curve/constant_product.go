// =============================
// File: internal/curve/constant_product.go
// =============================
package curve

import "math/big"

// ConstantProductParams описывает AMM-кривую x*y = k над виртуальными
// резервами (как в Uniswap/Raydium). Supply трактуется как количество
// токенов, выведенных из виртуального пула: tokenReserve = y0 - s,
// solReserve = k/(y0 - s), price(s) = k/(y0-s)².
type ConstantProductParams struct {
	VirtualSolReserves   uint64 // виртуальный резерв SOL в lamports
	VirtualTokenReserves uint64 // виртуальный резерв токенов
}

func (p *ConstantProductParams) Kind() Kind { return KindConstantProduct }

func (p *ConstantProductParams) Validate() error {
	if p.VirtualSolReserves == 0 || p.VirtualTokenReserves == 0 {
		return ErrInvalidParams
	}
	if p.VirtualTokenReserves > MaxSupplyLimit {
		return ErrInvalidParams
	}
	return nil
}

type constantProductCurve struct {
	params ConstantProductParams
	k      *big.Int // инвариант x*y, фиксируется при создании
}

func newConstantProductCurve(p ConstantProductParams) (*constantProductCurve, error) {
	k := new(big.Int).SetUint64(p.VirtualSolReserves)
	k.Mul(k, new(big.Int).SetUint64(p.VirtualTokenReserves))
	return &constantProductCurve{params: p, k: k}, nil
}

func (c *constantProductCurve) Kind() Kind { return KindConstantProduct }

// MaxSupply не допускает полного осушения токен-резерва: в пуле всегда
// остаётся как минимум один токен.
func (c *constantProductCurve) MaxSupply() uint64 {
	return c.params.VirtualTokenReserves - 1
}

// tokenReserve возвращает y0 - s с проверкой осушения пула.
func (c *constantProductCurve) tokenReserve(supply uint64) (*big.Int, error) {
	if supply >= c.params.VirtualTokenReserves {
		return nil, ErrReservesDepleted
	}
	return new(big.Int).SetUint64(c.params.VirtualTokenReserves - supply), nil
}

func (c *constantProductCurve) SpotPrice(supply uint64) (uint64, error) {
	y, err := c.tokenReserve(supply)
	if err != nil {
		return 0, err
	}
	// price = k / y²
	price := new(big.Int).Mul(y, y)
	price.Quo(c.k, price)

	v, err := toUint64(price)
	if err != nil {
		return 0, err
	}
	return max(v, MinPrice), nil
}

// Integral вычисляет точную стоимость из инварианта произведения:
// ∫ k/(y0-s)² ds = k/(y0-s1) - k/(y0-s0) — ровно столько SOL входит
// в виртуальный резерв при выводе s1-s0 токенов.
func (c *constantProductCurve) Integral(s0, s1 uint64) (uint64, error) {
	if s0 > s1 {
		return 0, ErrSupplyOutOfRange
	}
	y0, err := c.tokenReserve(s0)
	if err != nil {
		return 0, err
	}
	y1, err := c.tokenReserve(s1)
	if err != nil {
		return 0, err
	}

	x1 := new(big.Int).Quo(c.k, y1)
	x0 := new(big.Int).Quo(c.k, y0)
	return toUint64(x1.Sub(x1, x0))
}
