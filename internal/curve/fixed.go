// =============================
// File: internal/curve/fixed.go
// =============================
package curve

import (
	"math/big"
)

// Константы арифметики с фиксированной точкой
const (
	// Precision — масштаб фиксированной точки (9 знаков после запятой)
	Precision = 1_000_000_000
	// MaxSupply — максимально допустимый supply для любой кривой
	MaxSupplyLimit = 1_000_000_000_000_000
	// MinPrice — минимальная цена, 1 lamport
	MinPrice = 1
	// maxExpArg — ограничение аргумента экспоненты (в единицах Precision),
	// за которым цена гарантированно не помещается в uint64
	maxExpArg = 48 * Precision
)

var (
	bigPrecision = big.NewInt(Precision)
	bigTwo       = big.NewInt(2)
	bigMaxUint64 = new(big.Int).SetUint64(^uint64(0))

	// ln(2) в единицах Precision
	bigLn2 = big.NewInt(693_147_181)
)

// toUint64 сужает big.Int до uint64 с явной проверкой диапазона.
// Отрицательный результат — это underflow, слишком большой — overflow;
// оба случая фатальны для сделки и никогда не маскируются насыщением.
func toUint64(x *big.Int) (uint64, error) {
	if x.Sign() < 0 {
		return 0, ErrUnderflow
	}
	if x.Cmp(bigMaxUint64) > 0 {
		return 0, ErrOverflow
	}
	return x.Uint64(), nil
}

// mulDiv вычисляет a*b/c без промежуточного переполнения.
func mulDiv(a, b, c *big.Int) (*big.Int, error) {
	if c.Sign() == 0 {
		return nil, ErrDivisionByZero
	}
	r := new(big.Int).Mul(a, b)
	return r.Quo(r, c), nil
}

// expFixed вычисляет e^(x/Precision) * Precision.
//
// Аргумент редуцируется делением на 2^n до |y| <= Precision/2, затем ряд
// Тейлора (18 членов) и n последовательных возведений в квадрат. Все шаги
// целочисленные и детерминированные на любой платформе.
func expFixed(x *big.Int) (*big.Int, error) {
	if x.Sign() == 0 {
		return new(big.Int).Set(bigPrecision), nil
	}

	// e^(-x) = Precision^2 / e^x
	if x.Sign() < 0 {
		pos, err := expFixed(new(big.Int).Neg(x))
		if err != nil {
			return nil, err
		}
		if pos.Sign() == 0 {
			return big.NewInt(0), nil
		}
		r := new(big.Int).Mul(bigPrecision, bigPrecision)
		return r.Quo(r, pos), nil
	}

	if x.Cmp(big.NewInt(maxExpArg)) > 0 {
		return nil, ErrOverflow
	}

	// Редукция аргумента: y = x / 2^n, |y| <= Precision/2
	half := big.NewInt(Precision / 2)
	y := new(big.Int).Set(x)
	n := 0
	for y.Cmp(half) > 0 {
		y.Rsh(y, 1)
		n++
	}

	// Ряд Тейлора: sum y^i / i!
	sum := new(big.Int).Set(bigPrecision)
	term := new(big.Int).Set(bigPrecision)
	for i := int64(1); i <= 18; i++ {
		term.Mul(term, y)
		term.Quo(term, bigPrecision)
		term.Quo(term, big.NewInt(i))
		if term.Sign() == 0 {
			break
		}
		sum.Add(sum, term)
	}

	// Обратное возведение в квадрат: e^x = (e^y)^(2^n)
	for i := 0; i < n; i++ {
		sum.Mul(sum, sum)
		sum.Quo(sum, bigPrecision)
	}
	return sum, nil
}

// lnFixed вычисляет ln(x/Precision) * Precision для x > 0.
//
// Нормализация в диапазон [1, 2) степенями двойки, затем ряд
// ln(v) = 2*atanh((v-1)/(v+1)); при v в [1,2) аргумент ряда не превышает 1/3,
// что даёт сходимость лучше 1e-9 за восемь членов.
func lnFixed(x *big.Int) (*big.Int, error) {
	if x.Sign() <= 0 {
		return nil, ErrDivisionByZero
	}

	v := new(big.Int).Set(x)
	k := int64(0)
	twoP := new(big.Int).Mul(bigTwo, bigPrecision)
	for v.Cmp(twoP) >= 0 {
		v.Rsh(v, 1)
		k++
	}
	for v.Cmp(bigPrecision) < 0 {
		v.Lsh(v, 1)
		k--
	}

	// t = (v - P) / (v + P), в единицах Precision
	num := new(big.Int).Sub(v, bigPrecision)
	den := new(big.Int).Add(v, bigPrecision)
	t := new(big.Int).Mul(num, bigPrecision)
	t.Quo(t, den)

	t2 := new(big.Int).Mul(t, t)
	t2.Quo(t2, bigPrecision)

	sum := new(big.Int).Set(t)
	term := new(big.Int).Set(t)
	for i := int64(3); i <= 17; i += 2 {
		term.Mul(term, t2)
		term.Quo(term, bigPrecision)
		if term.Sign() == 0 {
			break
		}
		part := new(big.Int).Quo(term, big.NewInt(i))
		sum.Add(sum, part)
	}
	sum.Mul(sum, bigTwo)

	kPart := new(big.Int).Mul(big.NewInt(k), bigLn2)
	return sum.Add(sum, kPart), nil
}

// softplusFixed вычисляет ln(1 + e^(x/Precision)) * Precision.
//
// Для больших положительных x используется стабильная форма
// softplus(x) = x + ln(1 + e^(-x)), исключающая переполнение экспоненты.
func softplusFixed(x *big.Int) (*big.Int, error) {
	if x.Sign() >= 0 {
		e, err := expFixed(new(big.Int).Neg(x))
		if err != nil {
			return nil, err
		}
		l, err := lnFixed(new(big.Int).Add(bigPrecision, e))
		if err != nil {
			return nil, err
		}
		return l.Add(l, x), nil
	}
	e, err := expFixed(x)
	if err != nil {
		return nil, err
	}
	return lnFixed(new(big.Int).Add(bigPrecision, e))
}

// priceImpactBps возвращает изменение цены в базисных пунктах (10000 = 100%),
// с верхней границей 10000.
func priceImpactBps(oldPrice, newPrice uint64) uint64 {
	if oldPrice == 0 {
		return 10_000
	}
	var diff uint64
	if newPrice > oldPrice {
		diff = newPrice - oldPrice
	} else {
		diff = oldPrice - newPrice
	}
	impact := new(big.Int).SetUint64(diff)
	impact.Mul(impact, big.NewInt(10_000))
	impact.Quo(impact, new(big.Int).SetUint64(oldPrice))
	if !impact.IsUint64() || impact.Uint64() > 10_000 {
		return 10_000
	}
	return impact.Uint64()
}
