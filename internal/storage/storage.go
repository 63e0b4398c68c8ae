// internal/storage/storage.go
package storage

import (
	"context"

	"github.com/rovshanmuradov/pump-core/internal/storage/models"
)

// Storage определяет интерфейс архива квитанций и событий жизненного
// цикла. Архив append-only: записи никогда не мутируются после вставки.
type Storage interface {
	// Квитанции
	SaveReceipt(ctx context.Context, r *models.Receipt) error
	GetReceipt(ctx context.Context, receiptID string) (*models.Receipt, error)
	ListReceipts(ctx context.Context, token string, limit, offset int) ([]*models.Receipt, error)

	// События жизненного цикла
	SaveEvent(ctx context.Context, e *models.LifecycleEvent) error
	ListEvents(ctx context.Context, token string, limit, offset int) ([]*models.LifecycleEvent, error)

	// Миграции
	RunMigrations() error
}
