package repository

import (
	"context"

	"github.com/bipagem/opme-api/internal/domain/entity"
)

// OpmeItemRepository porta somente leitura do catálogo de OPME.
// GetByBarcode recebe o código já normalizado e casa contra a forma
// normalizada do código armazenado. nil, nil quando não existe.
type OpmeItemRepository interface {
	GetByBarcode(ctx context.Context, userID, normalizedBarcode string) (*entity.OpmeItem, error)
	ListByUser(ctx context.Context, userID string) ([]*entity.OpmeItem, error)
}
