// internal/storage/models/receipt.go
package models

import "time"

// Receipt — архивная запись исполненной сделки. Строка вставляется
// один раз после коммита леджера и больше не изменяется.
type Receipt struct {
	BaseModel
	ReceiptID      string    `gorm:"unique;not null;type:varchar(36)"`
	Token          string    `gorm:"index;not null;type:varchar(44)"`
	Trader         string    `gorm:"index;not null;type:varchar(44)"`
	Direction      string    `gorm:"not null;type:varchar(4)"`
	InputAmount    uint64    `gorm:"not null"`
	OutputAmount   uint64    `gorm:"not null"`
	FeeCharged     uint64    `gorm:"not null"`
	PriceImpactBps uint32    `gorm:"not null"`
	NewSupply      uint64    `gorm:"not null"`
	NewSpotPrice   uint64    `gorm:"not null"`
	LedgerVersion  uint64    `gorm:"not null"`
	ExecutedAt     time.Time `gorm:"index;not null"`
}
