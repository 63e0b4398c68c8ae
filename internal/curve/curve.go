// =============================
// File: internal/curve/curve.go
// =============================

// Package curve реализует математику бондинг-кривых: спотовую цену как
// функцию supply и точную стоимость минта/бёрна как определённый интеграл
// аналитической первообразной. Вся арифметика целочисленная с фиксированной
// точкой (Precision = 1e9) и явными проверками переполнения.
package curve

import (
	"fmt"
	"math/bits"
)

// Kind идентифицирует семейство бондинг-кривой.
type Kind string

const (
	KindLinear          Kind = "linear"
	KindExponential     Kind = "exponential"
	KindLogarithmic     Kind = "logarithmic"
	KindSigmoid         Kind = "sigmoid"
	KindConstantProduct Kind = "constant_product"
)

// Params — дискриминированное объединение параметров: ровно один вариант
// на кривую, каждый несёт только собственные поля. Единая структура со всеми
// опциональными полями намеренно не используется.
type Params interface {
	Kind() Kind
	Validate() error
}

// Curve вычисляет цену и стоимость для одного семейства кривых.
//
// SpotPrice возвращает мгновенную цену в lamports за токен при заданном
// supply. Integral возвращает точную стоимость перемещения supply от s0 к s1
// (s0 <= s1) — определённый интеграл спотовой цены, всегда по аналитической
// первообразной, никогда численно.
type Curve interface {
	Kind() Kind
	SpotPrice(supply uint64) (uint64, error)
	Integral(s0, s1 uint64) (uint64, error)
	MaxSupply() uint64
}

// New создаёт кривую по параметрам, предварительно их валидируя.
func New(p Params) (Curve, error) {
	if p == nil {
		return nil, ErrInvalidParams
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	switch v := p.(type) {
	case *LinearParams:
		return &linearCurve{params: *v}, nil
	case *ExponentialParams:
		return &exponentialCurve{params: *v}, nil
	case *LogarithmicParams:
		return &logarithmicCurve{params: *v}, nil
	case *SigmoidParams:
		return &sigmoidCurve{params: *v}, nil
	case *ConstantProductParams:
		return newConstantProductCurve(*v)
	default:
		return nil, fmt.Errorf("%w: unknown curve params %T", ErrInvalidParams, p)
	}
}

// TokensForQuote находит максимальное количество токенов, которое можно
// купить на quote lamports при текущем supply.
//
// Интеграл стоимости строго монотонен по верхней границе, поэтому двоичный
// поиск по целым supply детерминирован и даёт единственный ответ; сама
// стоимость при этом считается только аналитической первообразной.
func TokensForQuote(c Curve, supply, quote uint64) (uint64, error) {
	if supply >= c.MaxSupply() {
		return 0, ErrSupplyOutOfRange
	}

	lo, hi := uint64(0), c.MaxSupply()-supply
	for lo < hi {
		mid := lo + (hi-lo+1)/2
		cost, err := c.Integral(supply, supply+mid)
		if err != nil {
			// Переполнение на верхней половине диапазона означает лишь,
			// что столько купить нельзя; сужаем поиск вниз.
			hi = mid - 1
			continue
		}
		if cost <= quote {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo, nil
}

// ProceedsForTokens возвращает выручку за продажу tokens при текущем supply.
func ProceedsForTokens(c Curve, supply, tokens uint64) (uint64, error) {
	if tokens > supply {
		return 0, ErrSupplyOutOfRange
	}
	return c.Integral(supply-tokens, supply)
}

// PriceImpactBps возвращает изменение спотовой цены между двумя уровнями
// supply в базисных пунктах.
func PriceImpactBps(c Curve, s0, s1 uint64) (uint64, error) {
	p0, err := c.SpotPrice(s0)
	if err != nil {
		return 0, err
	}
	p1, err := c.SpotPrice(s1)
	if err != nil {
		return 0, err
	}
	return priceImpactBps(p0, p1), nil
}

// MarketCap возвращает рыночную капитализацию supply * spotPrice в lamports.
func MarketCap(c Curve, supply uint64) (uint64, error) {
	price, err := c.SpotPrice(supply)
	if err != nil {
		return 0, err
	}
	hi, lo := bits.Mul64(supply, price)
	if hi != 0 {
		return 0, ErrOverflow
	}
	return lo, nil
}
