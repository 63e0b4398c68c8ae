// =================================
// File: internal/platform/errors.go
// =================================
package platform

import "errors"

var (
	// ErrUnauthorized возвращается на любую неудачную проверку полномочий.
	// Сообщение намеренно не уточняет, какая именно проверка не прошла.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidFeeRate возвращается при попытке установить комиссию выше 100%.
	ErrInvalidFeeRate = errors.New("invalid fee rate")

	// ErrNothingToCollect возвращается, когда накопленных комиссий нет.
	ErrNothingToCollect = errors.New("no fees to collect")
)
