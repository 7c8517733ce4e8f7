package repository

import (
	"context"
	"time"

	"github.com/bipagem/opme-api/internal/domain/entity"
)

// DailySummaryRow total de OPMEs bipados por CPS em um dia.
type DailySummaryRow struct {
	CpsID     int64
	Patient   string
	OpmeCount int
}

// ScanLinkageRepository porta de persistência dos vínculos de bipagem.
type ScanLinkageRepository interface {
	// UpsertIncrement grava o vínculo (cpsID, barcode, userID) com quantity=1
	// ou, se já existe, incrementa quantity — em um único comando atômico no
	// store, nunca leitura seguida de escrita. Devolve o vínculo resultante;
	// LinkedAt permanece o da primeira bipagem.
	UpsertIncrement(ctx context.Context, cpsID int64, normalizedBarcode, userID string) (*entity.ScanLinkage, error)
	// GetByID devolve o vínculo; nil, nil quando não existe.
	GetByID(ctx context.Context, id string) (*entity.ScanLinkage, error)
	Delete(ctx context.Context, id string) error
	// ListByCase lista os vínculos de um CPS do usuário, mais recentes primeiro.
	ListByCase(ctx context.Context, cpsID int64, userID string) ([]*entity.ScanLinkage, error)
	// DailySummary agrega bipagens do usuário por CPS no intervalo [from, to).
	DailySummary(ctx context.Context, userID string, from, to time.Time) ([]DailySummaryRow, error)
}
