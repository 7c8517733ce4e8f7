package repository

import (
	"context"

	"github.com/bipagem/opme-api/internal/domain/entity"
)

// CpsRecordRepository porta do cache local de CPS (chaveado por cps_id + user_id).
// Upsert e BulkUpsert sobrescrevem em conflito: o diretório remoto é
// autoritativo para os metadados do caso.
type CpsRecordRepository interface {
	// Get devolve o CPS do cache local; nil, nil em cache miss.
	Get(ctx context.Context, cpsID int64, userID string) (*entity.CpsRecord, error)
	// Upsert grava um CPS (write-through), sobrescrevendo em conflito.
	Upsert(ctx context.Context, rec *entity.CpsRecord) error
	// BulkUpsert grava o lote em uma única transação (tudo ou nada) e devolve
	// o total gravado.
	BulkUpsert(ctx context.Context, recs []*entity.CpsRecord) (int, error)
	// ListByUser lista o cache local do usuário, mais recentes primeiro.
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*entity.CpsRecord, error)
}
