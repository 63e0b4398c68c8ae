// =================================
// File: internal/engine/errors.go
// =================================
package engine

import (
	"errors"
	"fmt"

	"github.com/rovshanmuradov/pump-core/internal/admission"
)

var (
	// ErrInvalidAmount возвращается на нулевую или бессмысленно малую сделку.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrSlippageExceeded возвращается, когда реализованный выход хуже
	// допуска трейдера. Леджер при этом не меняется.
	ErrSlippageExceeded = errors.New("slippage exceeded")

	// ErrTradeRejected возвращается на отказ контроллера допуска.
	ErrTradeRejected = errors.New("trade rejected")

	// ErrPlatformPaused возвращается на операции вне торгов при аварийной паузе.
	ErrPlatformPaused = errors.New("platform paused")

	// Ошибки создания токена
	ErrCreatorBanned     = errors.New("creator banned")
	ErrCreationCooldown  = errors.New("creation cooldown active")
	ErrTooManyTokens     = errors.New("max tokens per creator reached")
	ErrReputationTooLow  = errors.New("reputation too low to create")
	ErrCreateRateLimited = errors.New("token creation rate limited")
)

// SlippageError несёт фактические величины нарушенного допуска.
type SlippageError struct {
	Realized  uint64
	MinOutput uint64
	ImpactBps uint64
	MaxBps    uint64
}

func (e *SlippageError) Error() string {
	if e.MinOutput > 0 {
		return fmt.Sprintf("slippage exceeded: realized %d below minimum %d", e.Realized, e.MinOutput)
	}
	return fmt.Sprintf("slippage exceeded: impact %d bps above tolerance %d bps", e.ImpactBps, e.MaxBps)
}

func (e *SlippageError) Unwrap() error { return ErrSlippageExceeded }

// RejectionError несёт стабильный код отказа контроллера допуска.
type RejectionError struct {
	Reason admission.Reason
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("trade rejected: %s", e.Reason)
}

func (e *RejectionError) Unwrap() error { return ErrTradeRejected }
