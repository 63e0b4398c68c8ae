// internal/types/types.go
package types

import (
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
)

// Direction определяет направление сделки на бондинг-кривой.
type Direction string

const (
	DirectionBuy  Direction = "buy"
	DirectionSell Direction = "sell"
)

// LamportsPerUnit — количество lamports в одной единице котировочной валюты.
const LamportsPerUnit = 1_000_000_000

// TradeRequest описывает входящий торговый запрос с транспортного слоя.
//
// Для покупки Amount задаёт сумму котировки в lamports, MinOutput — минимум
// токенов на выходе. Для продажи Amount задаёт количество токенов,
// MinOutput — минимум lamports.
type TradeRequest struct {
	Token       solana.PublicKey
	Trader      solana.PublicKey
	Direction   Direction
	Amount      uint64
	MinOutput   uint64
	SlippageBps uint64
}

// TradeReceipt — неизменяемая запись о состоявшейся сделке.
// После создания квитанция никогда не мутируется.
type TradeReceipt struct {
	ID             string
	Token          solana.PublicKey
	Trader         solana.PublicKey
	Direction      Direction
	InputAmount    uint64
	OutputAmount   uint64
	PriceImpactBps uint64
	FeeCharged     uint64
	NewSupply      uint64
	NewSpotPrice   uint64
	Timestamp      time.Time
}

// RealizedPricePerUnit возвращает фактическую цену за токен в единицах
// котировки как decimal — для квитанций и внешних потребителей.
func (r *TradeReceipt) RealizedPricePerUnit() decimal.Decimal {
	var quote, tokens uint64
	if r.Direction == DirectionBuy {
		quote, tokens = r.InputAmount, r.OutputAmount
	} else {
		quote, tokens = r.OutputAmount, r.InputAmount
	}
	if tokens == 0 {
		return decimal.Zero
	}
	return decimal.NewFromUint64(quote).Shift(-9).
		Div(decimal.NewFromUint64(tokens))
}

// QuoteToDecimal конвертирует lamports в единицы котировки.
// NewFromUint64 вместо New(int64(...)): значения выше MaxInt64
// не должны менять знак.
func QuoteToDecimal(lamports uint64) decimal.Decimal {
	return decimal.NewFromUint64(lamports).Shift(-9)
}
