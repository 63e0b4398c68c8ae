// =================================
// File: internal/storage/archiver.go
// =================================
package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/pump-core/internal/events"
	"github.com/rovshanmuradov/pump-core/internal/storage/models"
)

const archiveWriteTimeout = 5 * time.Second

// Archiver подписывается на шину событий и переводит события движка в
// строки архива. Ошибки записи логируются, но не влияют на торговлю:
// архив вторичен по отношению к леджеру в памяти.
type Archiver struct {
	store  Storage
	logger *zap.Logger
	subs   []events.Subscription
}

// NewArchiver создаёт архиватор поверх готового хранилища.
func NewArchiver(store Storage, logger *zap.Logger) *Archiver {
	return &Archiver{
		store:  store,
		logger: logger.Named("archiver"),
	}
}

// Attach регистрирует обработчики на все архивируемые типы событий.
func (a *Archiver) Attach(bus *events.Bus) {
	a.subs = append(a.subs,
		bus.SubscribeFunc(events.TradeExecuted, a.handleTrade),
		bus.SubscribeFunc(events.TokenCreated, a.handleLifecycle),
		bus.SubscribeFunc(events.TokenGraduated, a.handleLifecycle),
		bus.SubscribeFunc(events.LpTokensLocked, a.handleLifecycle),
		bus.SubscribeFunc(events.AdminActionPerformed, a.handleLifecycle),
	)
}

// Detach снимает все подписки архиватора.
func (a *Archiver) Detach() {
	for _, s := range a.subs {
		s.Unsubscribe()
	}
	a.subs = nil
}

func (a *Archiver) handleTrade(ctx context.Context, e events.Event) error {
	ev, ok := e.(*events.TradeExecutedEvent)
	if !ok {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, archiveWriteTimeout)
	defer cancel()

	rec := &models.Receipt{
		ReceiptID:      ev.ReceiptID,
		Token:          ev.Token.String(),
		Trader:         ev.Trader.String(),
		Direction:      string(ev.Direction),
		InputAmount:    ev.InputAmount,
		OutputAmount:   ev.OutputAmount,
		FeeCharged:     ev.FeeCharged,
		PriceImpactBps: uint32(ev.PriceImpactBps),
		NewSupply:      ev.NewSupply,
		NewSpotPrice:   ev.NewSpotPrice,
		LedgerVersion:  ev.LedgerVersion,
		ExecutedAt:     ev.Timestamp(),
	}

	if err := a.store.SaveReceipt(ctx, rec); err != nil {
		a.logger.Error("Failed to archive trade receipt",
			zap.String("receipt_id", ev.ReceiptID),
			zap.Error(err))
		return err
	}
	return nil
}

func (a *Archiver) handleLifecycle(ctx context.Context, e events.Event) error {
	ctx, cancel := context.WithTimeout(ctx, archiveWriteTimeout)
	defer cancel()

	rec := &models.LifecycleEvent{
		EventID:    uuid.New().String(),
		EventType:  string(e.Type()),
		OccurredAt: e.Timestamp(),
	}

	switch ev := e.(type) {
	case *events.TokenCreatedEvent:
		rec.Token = ev.Token.String()
		rec.Actor = ev.Creator.String()
	case *events.TokenGraduatedEvent:
		rec.Token = ev.Token.String()
	case *events.LpTokensLockedEvent:
		rec.Token = ev.Token.String()
	case *events.AdminActionEvent:
		rec.Actor = ev.Admin.String()
		rec.Token = ev.Target
	}

	payload, err := json.Marshal(e)
	if err != nil {
		a.logger.Error("Failed to encode event payload",
			zap.String("event_type", string(e.Type())),
			zap.Error(err))
		return err
	}
	rec.Payload = string(payload)

	if err := a.store.SaveEvent(ctx, rec); err != nil {
		a.logger.Error("Failed to archive lifecycle event",
			zap.String("event_type", string(e.Type())),
			zap.Error(err))
		return err
	}
	return nil
}
