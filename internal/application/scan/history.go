package scan

import (
	"context"
	"time"

	"github.com/bipagem/opme-api/internal/application/dto"
	"github.com/bipagem/opme-api/internal/domain"
	"github.com/bipagem/opme-api/internal/domain/barcode"
	"github.com/bipagem/opme-api/internal/domain/entity"
	domscan "github.com/bipagem/opme-api/internal/domain/scan"
)

// History lista os vínculos de um CPS do usuário, enriquecidos com os
// metadados do catálogo.
func (uc *RecordScanUseCase) History(ctx context.Context, userID string, cpsID int64) ([]dto.LinkedOpmeDTO, error) {
	if userID == "" || cpsID <= 0 {
		return nil, domain.ErrInvalidInput
	}
	links, err := uc.linkRepo.ListByCase(ctx, cpsID, userID)
	if err != nil {
		return nil, err
	}

	inventory, err := uc.itemRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	byBarcode := make(map[string]*entity.OpmeItem, len(inventory))
	for _, item := range inventory {
		byBarcode[barcode.Normalize(item.CodigoBarras)] = item
	}

	out := make([]dto.LinkedOpmeDTO, 0, len(links))
	for _, l := range links {
		out = append(out, dto.LinkedOpmeDTO{
			ID:          l.ID,
			CpsID:       l.CpsID,
			OpmeBarcode: l.OpmeBarcode,
			Quantity:    l.Quantity,
			LinkedAt:    l.LinkedAt,
			Item:        itemDTO(byBarcode[l.OpmeBarcode]),
		})
	}
	return out, nil
}

// DeleteLinkage remove um vínculo de bipagem, se o usuário atual puder:
// MANAGER sempre; o próprio operador dentro da janela de uma hora. A janela é
// avaliada agora, no momento da ação.
func (uc *RecordScanUseCase) DeleteLinkage(ctx context.Context, user entity.SessionUser, linkageID string) error {
	if user.ID == "" || linkageID == "" {
		return domain.ErrInvalidInput
	}
	link, err := uc.linkRepo.GetByID(ctx, linkageID)
	if err != nil {
		return err
	}
	if link == nil {
		return domain.ErrNotFound
	}
	if !domscan.CanDelete(*link, user, time.Now()) {
		return domain.ErrForbidden
	}
	return uc.linkRepo.Delete(ctx, linkageID)
}

// DailySummary agrega as bipagens do usuário no dia corrente por CPS.
func (uc *RecordScanUseCase) DailySummary(ctx context.Context, userID string) ([]dto.DailySummaryDTO, error) {
	if userID == "" {
		return nil, domain.ErrInvalidInput
	}
	now := time.Now()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	rows, err := uc.linkRepo.DailySummary(ctx, userID, from, from.Add(24*time.Hour))
	if err != nil {
		return nil, err
	}
	out := make([]dto.DailySummaryDTO, 0, len(rows))
	for _, r := range rows {
		out = append(out, dto.DailySummaryDTO{CpsID: r.CpsID, Patient: r.Patient, OpmeCount: r.OpmeCount})
	}
	return out, nil
}
