// internal/events/types.go
package events

import (
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/rovshanmuradov/pump-core/internal/types"
)

// EventType represents the type of event.
type EventType string

const (
	// Token lifecycle events
	TokenCreated   EventType = "token.created"
	TokenGraduated EventType = "token.graduated"

	// Trade events
	TradeExecuted EventType = "trade.executed"

	// Liquidity events
	LpTokensLocked EventType = "lp.locked"

	// Admin events
	AdminActionPerformed EventType = "admin.action"
)

// Event is the base interface for all events.
type Event interface {
	Type() EventType
	Timestamp() time.Time
}

// BaseEvent provides common fields for all events.
type BaseEvent struct {
	EventType EventType
	EventTime time.Time
}

// Type returns the event type.
func (e BaseEvent) Type() EventType {
	return e.EventType
}

// Timestamp returns when the event occurred.
func (e BaseEvent) Timestamp() time.Time {
	return e.EventTime
}

// NewBase строит BaseEvent с текущим временем.
func NewBase(t EventType) BaseEvent {
	return BaseEvent{EventType: t, EventTime: time.Now()}
}

// TokenCreatedEvent is emitted when a new token ledger is opened.
type TokenCreatedEvent struct {
	BaseEvent
	Token         solana.PublicKey
	Creator       solana.PublicKey
	Name          string
	Symbol        string
	CurveKind     string
	InitialSupply uint64
	InitialPrice  uint64
}

// TradeExecutedEvent is emitted after a trade settles. It carries enough
// fields to reconstruct the ledger transition without re-deriving it.
type TradeExecutedEvent struct {
	BaseEvent
	ReceiptID      string
	Token          solana.PublicKey
	Trader         solana.PublicKey
	Direction      types.Direction
	InputAmount    uint64
	OutputAmount   uint64
	FeeCharged     uint64
	PriceImpactBps uint64
	NewSupply      uint64
	NewSpotPrice   uint64
	NewSolReserves uint64
	LedgerVersion  uint64
}

// TokenGraduatedEvent is emitted exactly once per token, when bonding-curve
// trading is permanently replaced by the external venue.
type TokenGraduatedEvent struct {
	BaseEvent
	Token             solana.PublicKey
	FinalSupply       uint64
	FinalPrice        uint64
	MarketCap         uint64
	MigratedLiquidity uint64
	GraduationFee     uint64
}

// LpTokensLockedEvent is emitted when migrated liquidity is placed under a
// time lock.
type LpTokensLockedEvent struct {
	BaseEvent
	Token          solana.PublicKey
	Amount         uint64
	UnlockAt       time.Time
	VestingEnabled bool
}

// AdminActionEvent is emitted for every privileged mutation.
type AdminActionEvent struct {
	BaseEvent
	Action   string
	Admin    solana.PublicKey
	Target   string
	OldValue string
	NewValue string
	Reason   string
}
