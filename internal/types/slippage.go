// internal/types/slippage.go
package types

import "math/bits"

// SlippageType определяет тип политики проскальзывания
type SlippageType string

const (
	// SlippageFixed использует фиксированное значение minOutput
	SlippageFixed SlippageType = "fixed"
	// SlippagePercentBps использует допуск в базисных пунктах от ожидаемого выхода
	SlippagePercentBps SlippageType = "bps"
	// SlippageNone не использует ограничение minOutput
	SlippageNone SlippageType = "none"
)

// SlippageConfig конфигурирует политику проскальзывания
type SlippageConfig struct {
	// Type определяет тип политики проскальзывания
	Type SlippageType `json:"type" yaml:"type"`
	// Value содержит значение для выбранной политики:
	// - для SlippageFixed: точное значение minOutput
	// - для SlippagePercentBps: допуск в базисных пунктах (100 = 1%)
	// - для SlippageNone: игнорируется
	Value uint64 `json:"value" yaml:"value"`
}

// CalculateMinOutput вычисляет minOutput на основе политики проскальзывания.
// Арифметика целочисленная, округление вниз — в пользу трейдера.
func CalculateMinOutput(expectedAmount uint64, config SlippageConfig) uint64 {
	switch config.Type {
	case SlippageFixed:
		return config.Value
	case SlippagePercentBps:
		if config.Value >= 10_000 {
			return 1
		}
		keep := 10_000 - config.Value
		hi, lo := bits.Mul64(expectedAmount, keep)
		out, _ := bits.Div64(hi, lo, 10_000)
		return out
	case SlippageNone:
		// Возвращаем 1 как минимальное значение для прохождения валидации
		return 1
	default:
		// По умолчанию используем максимально гибкий вариант
		return 1
	}
}
