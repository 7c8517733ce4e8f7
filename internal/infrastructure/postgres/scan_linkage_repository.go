package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/bipagem/opme-api/internal/domain"
	"github.com/bipagem/opme-api/internal/domain/entity"
	"github.com/bipagem/opme-api/internal/domain/repository"
)

var _ repository.ScanLinkageRepository = (*ScanLinkageRepo)(nil)

// ScanLinkageRepo implementação de ScanLinkageRepository sobre PostgreSQL.
type ScanLinkageRepo struct {
	q Querier
}

// NewScanLinkageRepository constrói o adaptador. Passar pool ou tx (Querier).
func NewScanLinkageRepository(q Querier) *ScanLinkageRepo {
	return &ScanLinkageRepo{q: q}
}

// UpsertIncrement insere o vínculo com quantity=1 ou incrementa a quantidade
// existente, em um único INSERT ... ON CONFLICT atômico: duas bipagens
// simultâneas do mesmo (cps, código, usuário) somam 2, nunca perdem update.
// linked_at é preservado no incremento (momento da primeira bipagem).
func (r *ScanLinkageRepo) UpsertIncrement(ctx context.Context, cpsID int64, normalizedBarcode, userID string) (*entity.ScanLinkage, error) {
	query := `
		INSERT INTO linked_opme (id, user_id, cps_id, opme_barcode, quantity, linked_at)
		VALUES ($1, $2, $3, $4, 1, now())
		ON CONFLICT (cps_id, opme_barcode, user_id)
		DO UPDATE SET quantity = linked_opme.quantity + 1
		RETURNING id, user_id, cps_id, opme_barcode, quantity, linked_at`
	var l entity.ScanLinkage
	err := r.q.QueryRow(ctx, query, uuid.New().String(), userID, cpsID, normalizedBarcode).Scan(
		&l.ID, &l.UserID, &l.CpsID, &l.OpmeBarcode, &l.Quantity, &l.LinkedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert scan linkage: %w", err)
	}
	return &l, nil
}

// GetByID devolve o vínculo; nil, nil quando não existe.
func (r *ScanLinkageRepo) GetByID(ctx context.Context, id string) (*entity.ScanLinkage, error) {
	query := `SELECT id, user_id, cps_id, opme_barcode, quantity, linked_at FROM linked_opme WHERE id = $1`
	var l entity.ScanLinkage
	err := r.q.QueryRow(ctx, query, id).Scan(
		&l.ID, &l.UserID, &l.CpsID, &l.OpmeBarcode, &l.Quantity, &l.LinkedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get scan linkage: %w", err)
	}
	return &l, nil
}

// Delete remove um vínculo; domain.ErrNotFound se o id não existe.
func (r *ScanLinkageRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM linked_opme WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete scan linkage: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListByCase lista os vínculos de um CPS do usuário, mais recentes primeiro.
func (r *ScanLinkageRepo) ListByCase(ctx context.Context, cpsID int64, userID string) ([]*entity.ScanLinkage, error) {
	query := `
		SELECT id, user_id, cps_id, opme_barcode, quantity, linked_at
		FROM linked_opme
		WHERE cps_id = $1 AND user_id = $2
		ORDER BY linked_at DESC`
	rows, err := r.q.Query(ctx, query, cpsID, userID)
	if err != nil {
		return nil, fmt.Errorf("list scan linkages: %w", err)
	}
	defer rows.Close()
	var list []*entity.ScanLinkage
	for rows.Next() {
		var l entity.ScanLinkage
		if err := rows.Scan(&l.ID, &l.UserID, &l.CpsID, &l.OpmeBarcode, &l.Quantity, &l.LinkedAt); err != nil {
			return nil, fmt.Errorf("scan linkage: %w", err)
		}
		list = append(list, &l)
	}
	return list, rows.Err()
}

// DailySummary agrega bipagens do usuário por CPS no intervalo [from, to),
// juntando o nome do paciente do cache local.
func (r *ScanLinkageRepo) DailySummary(ctx context.Context, userID string, from, to time.Time) ([]repository.DailySummaryRow, error) {
	query := `
		SELECT l.cps_id, COALESCE(c.patient, ''), COALESCE(SUM(l.quantity), 0)
		FROM linked_opme l
		LEFT JOIN cps_records c ON c.cps_id = l.cps_id AND c.user_id = l.user_id
		WHERE l.user_id = $1 AND l.linked_at >= $2 AND l.linked_at < $3
		GROUP BY l.cps_id, c.patient
		ORDER BY l.cps_id`
	rows, err := r.q.Query(ctx, query, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("daily summary: %w", err)
	}
	defer rows.Close()
	var list []repository.DailySummaryRow
	for rows.Next() {
		var row repository.DailySummaryRow
		if err := rows.Scan(&row.CpsID, &row.Patient, &row.OpmeCount); err != nil {
			return nil, fmt.Errorf("scan summary row: %w", err)
		}
		list = append(list, row)
	}
	return list, rows.Err()
}
