// =================================
// File: internal/ledger/errors.go
// =================================
package ledger

import "errors"

var (
	// ErrTokenExists возвращается при попытке создать уже существующий леджер.
	ErrTokenExists = errors.New("token already exists")

	// ErrTokenNotFound возвращается при обращении к неизвестному токену.
	ErrTokenNotFound = errors.New("token not found")

	// ErrVersionConflict возвращается при коммите поверх устаревшего снимка.
	ErrVersionConflict = errors.New("ledger version conflict")

	// ErrInsufficientBalance возвращается при продаже сверх баланса позиции.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrInsufficientLiquidity возвращается, когда резервы не покрывают выплату.
	ErrInsufficientLiquidity = errors.New("insufficient liquidity")
)
