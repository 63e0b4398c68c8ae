// =================================
// File: internal/graduation/errors.go
// =================================
package graduation

import "errors"

var (
	// ErrThresholdNotReached возвращается на явный запрос градуации ниже порога.
	ErrThresholdNotReached = errors.New("graduation threshold not reached")

	// ErrLockNotFound возвращается при операциях над несуществующим локом.
	ErrLockNotFound = errors.New("lp lock not found")

	// ErrLockNotExpired возвращается при разблокировке до срока.
	ErrLockNotExpired = errors.New("lock period not expired")

	// ErrInvalidLockDuration возвращается на нулевую или отрицательную длительность.
	ErrInvalidLockDuration = errors.New("invalid lock duration")

	// ErrNothingToUnlock возвращается, когда доступный остаток меньше запрошенного.
	ErrNothingToUnlock = errors.New("nothing to unlock")
)
