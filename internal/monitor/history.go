package monitor

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/pump-core/internal/events"
	"github.com/rovshanmuradov/pump-core/internal/types"
)

// History накапливает исполненные сделки сессии в кольцевом буфере и
// ведёт агрегатную статистику. Источник — события trade.executed.
type History struct {
	mu         sync.RWMutex
	records    []Record
	maxRecords int
	logger     *zap.Logger
	sub        events.Subscription

	totalTrades int
	buyCount    int
	sellCount   int
	totalVolume uint64
	totalFees   uint64
	athPrice    map[string]uint64
}

// NewHistory создаёт историю сделок на maxRecords записей в памяти.
func NewHistory(maxRecords int, logger *zap.Logger) *History {
	if maxRecords <= 0 {
		maxRecords = 1000
	}
	return &History{
		records:    make([]Record, 0, maxRecords),
		maxRecords: maxRecords,
		logger:     logger.Named("monitor"),
		athPrice:   make(map[string]uint64),
	}
}

// Attach подписывает историю на trade.executed.
func (h *History) Attach(bus *events.Bus) {
	h.sub = bus.SubscribeFunc(events.TradeExecuted, h.handle)
}

// Detach снимает подписку.
func (h *History) Detach() {
	if h.sub != nil {
		h.sub.Unsubscribe()
		h.sub = nil
	}
}

func (h *History) handle(_ context.Context, e events.Event) error {
	ev, ok := e.(*events.TradeExecutedEvent)
	if !ok {
		return nil
	}

	h.Log(Record{
		ID:             ev.ReceiptID,
		Timestamp:      ev.Timestamp(),
		Token:          ev.Token.String(),
		Trader:         ev.Trader.String(),
		Action:         string(ev.Direction),
		InputAmount:    ev.InputAmount,
		OutputAmount:   ev.OutputAmount,
		FeeCharged:     ev.FeeCharged,
		PriceImpactBps: ev.PriceImpactBps,
		NewSupply:      ev.NewSupply,
		NewSpotPrice:   ev.NewSpotPrice,
	})
	return nil
}

// Log добавляет запись в историю и обновляет статистику.
func (h *History) Log(r Record) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.records) >= h.maxRecords {
		h.records = h.records[1:]
	}
	h.records = append(h.records, r)

	h.totalTrades++
	switch r.Action {
	case string(types.DirectionBuy):
		h.buyCount++
	case string(types.DirectionSell):
		h.sellCount++
	}
	h.totalVolume += r.VolumeLamports()
	h.totalFees += r.FeeCharged

	if r.NewSpotPrice > h.athPrice[r.Token] {
		h.athPrice[r.Token] = r.NewSpotPrice
	}
}

// Recent возвращает последние limit записей, от старых к новым.
func (h *History) Recent(limit int) []Record {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if limit <= 0 || limit > len(h.records) {
		limit = len(h.records)
	}
	start := len(h.records) - limit

	result := make([]Record, limit)
	copy(result, h.records[start:])
	return result
}

// ByToken возвращает записи по конкретному токену.
func (h *History) ByToken(token string) []Record {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var result []Record
	for _, r := range h.records {
		if r.Token == token {
			result = append(result, r)
		}
	}
	return result
}

// AthPrice возвращает максимум spot price токена за сессию.
func (h *History) AthPrice(token string) uint64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.athPrice[token]
}

// Statistics возвращает агрегатную статистику сессии.
func (h *History) Statistics() Statistics {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return Statistics{
		TotalTrades: h.totalTrades,
		BuyCount:    h.buyCount,
		SellCount:   h.sellCount,
		TotalVolume: h.totalVolume,
		TotalFees:   h.totalFees,
	}
}

// Statistics — агрегаты по истории сделок.
type Statistics struct {
	TotalTrades int    `json:"total_trades"`
	BuyCount    int    `json:"buy_count"`
	SellCount   int    `json:"sell_count"`
	TotalVolume uint64 `json:"total_volume"`
	TotalFees   uint64 `json:"total_fees"`
}
