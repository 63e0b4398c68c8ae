// =================================
// File: internal/engine/fees.go
// =================================
package engine

import (
	"math/bits"
	"time"

	"github.com/rovshanmuradov/pump-core/internal/ledger"
	"github.com/rovshanmuradov/pump-core/internal/platform"
	"github.com/rovshanmuradov/pump-core/internal/types"
)

// earlySellWindow — окно после первого приобретения, в котором продажа
// облагается early-sell tax.
const earlySellWindow = 24 * time.Hour

// FeeBreakdown — раскладка комиссии сделки по составляющим.
type FeeBreakdown struct {
	PlatformBps     uint64
	WhaleTaxBps     uint64
	EarlySellTaxBps uint64
	LiquidityTaxBps uint64
}

// TotalBps возвращает суммарную ставку. Составляющие складываются;
// сумма ограничена сверху 100%.
func (f FeeBreakdown) TotalBps() uint64 {
	total := f.PlatformBps + f.WhaleTaxBps + f.EarlySellTaxBps + f.LiquidityTaxBps
	if total > platform.MaxBps {
		total = platform.MaxBps
	}
	return total
}

// computeFees определяет ставки для сделки. Налоги — модификаторы
// комиссии, а не основания для отказа: сработавший порог увеличивает
// ставку, но не блокирует сделку.
func computeFees(platformFeeBps uint64, sec platform.SecurityParams,
	direction types.Direction, notional uint64, pos ledger.Position, now time.Time) FeeBreakdown {

	fees := FeeBreakdown{PlatformBps: platformFeeBps}

	if sec.WhaleTaxThreshold > 0 && notional > sec.WhaleTaxThreshold {
		fees.WhaleTaxBps = sec.WhaleTaxBps
	}

	if direction == types.DirectionSell {
		if sec.EarlySellTaxBps > 0 && !pos.FirstAcquiredAt.IsZero() &&
			now.Sub(pos.FirstAcquiredAt) < earlySellWindow {
			fees.EarlySellTaxBps = sec.EarlySellTaxBps
		}
		// Налог на ликвидность компенсирует отток резерва и применяется
		// только к продажам
		fees.LiquidityTaxBps = sec.LiquidityTaxBps
	}

	return fees
}

// feeAmount возвращает комиссию с notional по суммарной ставке.
// Округление вниз: пыль остаётся трейдеру, не платформе. Произведение
// считается в 128 битах: hi всегда меньше делителя, так как ставка
// не превышает MaxBps.
func feeAmount(notional uint64, fees FeeBreakdown) uint64 {
	hi, lo := bits.Mul64(notional, fees.TotalBps())
	q, _ := bits.Div64(hi, lo, platform.MaxBps)
	return q
}
