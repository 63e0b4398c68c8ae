// internal/storage/models/event.go
package models

import "time"

// LifecycleEvent — архивная запись события жизненного цикла токена:
// создание, градуация, замок LP, административное действие.
type LifecycleEvent struct {
	BaseModel
	EventID    string    `gorm:"unique;not null;type:varchar(36)"`
	EventType  string    `gorm:"index;not null;type:varchar(50)"`
	Token      string    `gorm:"index;type:varchar(44)"`
	Actor      string    `gorm:"type:varchar(44)"`
	Payload    string    `gorm:"type:jsonb"`
	OccurredAt time.Time `gorm:"index;not null"`
}
