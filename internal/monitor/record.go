package monitor

import (
	"fmt"
	"time"

	"github.com/rovshanmuradov/pump-core/internal/types"
)

// Record — одна исполненная сделка в истории сессии.
type Record struct {
	ID             string    `json:"id"`
	Timestamp      time.Time `json:"timestamp"`
	Token          string    `json:"token"`
	Trader         string    `json:"trader"`
	Action         string    `json:"action"` // "buy" или "sell"
	InputAmount    uint64    `json:"input_amount"`
	OutputAmount   uint64    `json:"output_amount"`
	FeeCharged     uint64    `json:"fee_charged"`
	PriceImpactBps uint64    `json:"price_impact_bps"`
	NewSupply      uint64    `json:"new_supply"`
	NewSpotPrice   uint64    `json:"new_spot_price"`
}

// VolumeLamports возвращает оборот сделки в lamports котировки.
func (r *Record) VolumeLamports() uint64 {
	if r.Action == string(types.DirectionBuy) {
		return r.InputAmount
	}
	return r.OutputAmount + r.FeeCharged
}

// ToCSV converts record to CSV row
func (r *Record) ToCSV() []string {
	return []string{
		r.ID,
		r.Timestamp.Format(time.RFC3339),
		r.Token,
		r.Trader,
		r.Action,
		formatUint64(r.InputAmount),
		formatUint64(r.OutputAmount),
		formatUint64(r.FeeCharged),
		formatUint64(r.PriceImpactBps),
		formatUint64(r.NewSupply),
		formatUint64(r.NewSpotPrice),
	}
}

// CSVHeaders returns the header row for trade CSV files
func CSVHeaders() []string {
	return []string{
		"id",
		"timestamp",
		"token",
		"trader",
		"action",
		"input_amount",
		"output_amount",
		"fee_charged",
		"price_impact_bps",
		"new_supply",
		"new_spot_price",
	}
}

func formatUint64(u uint64) string {
	return fmt.Sprintf("%d", u)
}
