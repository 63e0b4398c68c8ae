package storage_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/rovshanmuradov/pump-core/internal/events"
	"github.com/rovshanmuradov/pump-core/internal/storage"
	"github.com/rovshanmuradov/pump-core/internal/storage/models"
	"github.com/rovshanmuradov/pump-core/internal/types"
)

// memStore — хранилище в памяти для тестов архиватора.
type memStore struct {
	mu       sync.Mutex
	receipts []*models.Receipt
	events   []*models.LifecycleEvent
}

func (m *memStore) SaveReceipt(_ context.Context, r *models.Receipt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.receipts = append(m.receipts, r)
	return nil
}

func (m *memStore) GetReceipt(_ context.Context, receiptID string) (*models.Receipt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.receipts {
		if r.ReceiptID == receiptID {
			return r, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memStore) ListReceipts(_ context.Context, token string, _, _ int) ([]*models.Receipt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Receipt
	for _, r := range m.receipts {
		if r.Token == token {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStore) SaveEvent(_ context.Context, e *models.LifecycleEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return nil
}

func (m *memStore) ListEvents(_ context.Context, token string, _, _ int) ([]*models.LifecycleEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.LifecycleEvent
	for _, e := range m.events {
		if e.Token == token {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memStore) RunMigrations() error { return nil }

func TestArchiverPersistsTradeReceipts(t *testing.T) {
	store := &memStore{}
	bus := events.NewBus(zap.NewNop(), 16)
	defer func() { _ = bus.Shutdown(context.Background()) }()

	arch := storage.NewArchiver(store, zap.NewNop())
	arch.Attach(bus)

	mint := solana.NewWallet().PublicKey()
	trader := solana.NewWallet().PublicKey()

	ev := &events.TradeExecutedEvent{
		BaseEvent:      events.NewBase(events.TradeExecuted),
		ReceiptID:      "r-1",
		Token:          mint,
		Trader:         trader,
		Direction:      types.DirectionBuy,
		InputAmount:    1_000,
		OutputAmount:   9,
		FeeCharged:     10,
		PriceImpactBps: 42,
		NewSupply:      9,
		NewSpotPrice:   100_500,
		LedgerVersion:  1,
	}
	require.NoError(t, bus.PublishSync(context.Background(), ev))

	got, err := store.GetReceipt(context.Background(), "r-1")
	require.NoError(t, err)
	assert.Equal(t, mint.String(), got.Token)
	assert.Equal(t, trader.String(), got.Trader)
	assert.Equal(t, "buy", got.Direction)
	assert.Equal(t, uint64(1_000), got.InputAmount)
	assert.Equal(t, uint64(10), got.FeeCharged)
	assert.Equal(t, uint32(42), got.PriceImpactBps)
}

func TestArchiverPersistsLifecycleEvents(t *testing.T) {
	store := &memStore{}
	bus := events.NewBus(zap.NewNop(), 16)
	defer func() { _ = bus.Shutdown(context.Background()) }()

	arch := storage.NewArchiver(store, zap.NewNop())
	arch.Attach(bus)

	mint := solana.NewWallet().PublicKey()
	creator := solana.NewWallet().PublicKey()
	ctx := context.Background()

	require.NoError(t, bus.PublishSync(ctx, &events.TokenCreatedEvent{
		BaseEvent: events.NewBase(events.TokenCreated),
		Token:     mint,
		Creator:   creator,
		Name:      "Arch",
		Symbol:    "ARC",
	}))
	require.NoError(t, bus.PublishSync(ctx, &events.TokenGraduatedEvent{
		BaseEvent:   events.NewBase(events.TokenGraduated),
		Token:       mint,
		FinalSupply: 1_000,
	}))
	require.NoError(t, bus.PublishSync(ctx, &events.LpTokensLockedEvent{
		BaseEvent: events.NewBase(events.LpTokensLocked),
		Token:     mint,
		Amount:    500,
		UnlockAt:  time.Now().Add(time.Hour),
	}))

	got, err := store.ListEvents(ctx, mint.String(), 10, 0)
	require.NoError(t, err)
	require.Len(t, got, 3)

	seen := map[string]bool{}
	for _, e := range got {
		seen[e.EventType] = true
		assert.NotEmpty(t, e.EventID)
		assert.NotEmpty(t, e.Payload)
	}
	assert.True(t, seen["token.created"])
	assert.True(t, seen["token.graduated"])
	assert.True(t, seen["lp.locked"])
}

func TestArchiverDetachStopsArchiving(t *testing.T) {
	store := &memStore{}
	bus := events.NewBus(zap.NewNop(), 16)
	defer func() { _ = bus.Shutdown(context.Background()) }()

	arch := storage.NewArchiver(store, zap.NewNop())
	arch.Attach(bus)
	arch.Detach()

	require.NoError(t, bus.PublishSync(context.Background(), &events.TokenCreatedEvent{
		BaseEvent: events.NewBase(events.TokenCreated),
		Token:     solana.NewWallet().PublicKey(),
	}))

	got, err := store.ListEvents(context.Background(), "", 10, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}
