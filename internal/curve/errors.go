// =============================
// File: internal/curve/errors.go
// =============================
package curve

import "errors"

// Арифметические ошибки фатальны для отдельной сделки: расчёт никогда не
// насыщается и не округляется молча в пользу трейдера.
var (
	ErrOverflow       = errors.New("arithmetic overflow")
	ErrUnderflow      = errors.New("arithmetic underflow")
	ErrDivisionByZero = errors.New("division by zero")

	// ErrInvalidParams возвращается при невалидной комбинации параметров кривой
	ErrInvalidParams = errors.New("invalid bonding curve parameters")

	// ErrSupplyOutOfRange возвращается, когда supply выходит за допустимый
	// диапазон кривой (ниже нуля или выше максимума)
	ErrSupplyOutOfRange = errors.New("supply out of curve range")

	// ErrReservesDepleted возвращается, когда сделка осушила бы виртуальные
	// резервы до нуля; такая сделка отклоняется до любой мутации
	ErrReservesDepleted = errors.New("virtual reserves would be depleted")
)
