// internal/storage/storage.go
package storage

import (
	"context"

	"github.com/rovshanmuradov/solana-arb-bot/internal/storage/models"
)

// Storage определяет интерфейс для работы с хранилищем истории возможностей.
type Storage interface {
	// Возможности
	SaveOpportunities(ctx context.Context, records []*models.OpportunityRecord) error
	ListOpportunities(ctx context.Context, limit, offset int) ([]*models.OpportunityRecord, error)
	CountOpportunities(ctx context.Context) (int64, error)

	// Миграции
	RunMigrations() error

	Close() error
}
