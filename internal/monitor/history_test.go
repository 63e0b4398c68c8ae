package monitor_test

import (
	"context"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/pump-core/internal/events"
	"github.com/rovshanmuradov/pump-core/internal/monitor"
	"github.com/rovshanmuradov/pump-core/internal/types"
)

func record(id, token, action string, in, out, fee uint64, price uint64) monitor.Record {
	return monitor.Record{
		ID:           id,
		Timestamp:    time.Now(),
		Token:        token,
		Trader:       "trader",
		Action:       action,
		InputAmount:  in,
		OutputAmount: out,
		FeeCharged:   fee,
		NewSpotPrice: price,
	}
}

func TestHistoryStatistics(t *testing.T) {
	h := monitor.NewHistory(100, zap.NewNop())

	// Покупка: оборот равен gross input
	h.Log(record("1", "tok", "buy", 1_000, 9, 10, 100))
	// Продажа: оборот равен выручке до комиссии
	h.Log(record("2", "tok", "sell", 5, 480, 20, 90))

	stats := h.Statistics()
	assert.Equal(t, 2, stats.TotalTrades)
	assert.Equal(t, 1, stats.BuyCount)
	assert.Equal(t, 1, stats.SellCount)
	assert.Equal(t, uint64(1_000+500), stats.TotalVolume)
	assert.Equal(t, uint64(30), stats.TotalFees)

	// ATH — максимум цены за сессию, падение его не снижает
	assert.Equal(t, uint64(100), h.AthPrice("tok"))
}

func TestHistoryRingBuffer(t *testing.T) {
	h := monitor.NewHistory(3, zap.NewNop())
	for i := 0; i < 5; i++ {
		h.Log(record(string(rune('a'+i)), "tok", "buy", 100, 1, 1, 10))
	}

	recent := h.Recent(0)
	require.Len(t, recent, 3)
	assert.Equal(t, "c", recent[0].ID)
	assert.Equal(t, "e", recent[2].ID)

	// Статистика считает все сделки, не только оставшиеся в буфере
	assert.Equal(t, 5, h.Statistics().TotalTrades)
}

func TestHistoryByToken(t *testing.T) {
	h := monitor.NewHistory(100, zap.NewNop())
	h.Log(record("1", "alpha", "buy", 100, 1, 1, 10))
	h.Log(record("2", "beta", "buy", 100, 1, 1, 10))
	h.Log(record("3", "alpha", "sell", 1, 90, 2, 9))

	assert.Len(t, h.ByToken("alpha"), 2)
	assert.Len(t, h.ByToken("beta"), 1)
	assert.Empty(t, h.ByToken("gamma"))
}

func TestHistoryConsumesBusEvents(t *testing.T) {
	h := monitor.NewHistory(100, zap.NewNop())
	bus := events.NewBus(zap.NewNop(), 16)
	defer func() { _ = bus.Shutdown(context.Background()) }()

	h.Attach(bus)
	defer h.Detach()

	mint := solana.NewWallet().PublicKey()
	require.NoError(t, bus.PublishSync(context.Background(), &events.TradeExecutedEvent{
		BaseEvent:    events.NewBase(events.TradeExecuted),
		ReceiptID:    "r-1",
		Token:        mint,
		Trader:       solana.NewWallet().PublicKey(),
		Direction:    types.DirectionBuy,
		InputAmount:  1_000,
		OutputAmount: 9,
		FeeCharged:   10,
		NewSpotPrice: 111,
	}))

	recent := h.Recent(1)
	require.Len(t, recent, 1)
	assert.Equal(t, "r-1", recent[0].ID)
	assert.Equal(t, mint.String(), recent[0].Token)
	assert.Equal(t, uint64(111), h.AthPrice(mint.String()))
}
