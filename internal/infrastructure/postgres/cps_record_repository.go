package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bipagem/opme-api/internal/domain/entity"
	"github.com/bipagem/opme-api/internal/domain/repository"
)

var _ repository.CpsRecordRepository = (*CpsRecordRepo)(nil)

// CpsRecordRepo implementação de CpsRecordRepository sobre PostgreSQL.
// BulkUpsert precisa do pool (abre a própria transação); as demais operações
// usam o Querier.
type CpsRecordRepo struct {
	q    Querier
	pool *pgxpool.Pool
}

// NewCpsRecordRepository constrói o adaptador a partir do pool.
func NewCpsRecordRepository(pool *pgxpool.Pool) *CpsRecordRepo {
	return &CpsRecordRepo{q: pool, pool: pool}
}

const cpsColumns = `id, user_id, cps_id, patient, professional, agreement, business_unit, opened_at, synced_at`

const cpsUpsertSQL = `
	INSERT INTO cps_records (id, user_id, cps_id, patient, professional, agreement, business_unit, opened_at, synced_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (cps_id, user_id) DO UPDATE SET
		patient       = EXCLUDED.patient,
		professional  = EXCLUDED.professional,
		agreement     = EXCLUDED.agreement,
		business_unit = EXCLUDED.business_unit,
		opened_at     = EXCLUDED.opened_at,
		synced_at     = EXCLUDED.synced_at`

// Get devolve o CPS do cache local; nil, nil em cache miss.
func (r *CpsRecordRepo) Get(ctx context.Context, cpsID int64, userID string) (*entity.CpsRecord, error) {
	query := `SELECT ` + cpsColumns + ` FROM cps_records WHERE cps_id = $1 AND user_id = $2`
	var c entity.CpsRecord
	err := r.q.QueryRow(ctx, query, cpsID, userID).Scan(
		&c.ID, &c.UserID, &c.CpsID, &c.Patient, &c.Professional,
		&c.Agreement, &c.BusinessUnit, &c.OpenedAt, &c.SyncedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get cps record: %w", err)
	}
	return &c, nil
}

// Upsert grava um CPS, sobrescrevendo em conflito de (cps_id, user_id):
// o remoto é autoritativo para os metadados do caso.
func (r *CpsRecordRepo) Upsert(ctx context.Context, rec *entity.CpsRecord) error {
	_, err := r.q.Exec(ctx, cpsUpsertSQL,
		rec.ID, rec.UserID, rec.CpsID, rec.Patient, rec.Professional,
		rec.Agreement, rec.BusinessUnit, rec.OpenedAt, rec.SyncedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert cps record: %w", err)
	}
	return nil
}

// BulkUpsert grava o lote dentro de uma única transação: ou todos os
// registros entram, ou nenhum (sem escrita parcial em falha).
func (r *CpsRecordRepo) BulkUpsert(ctx context.Context, recs []*entity.CpsRecord) (int, error) {
	if len(recs) == 0 {
		return 0, nil
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	batch := &pgx.Batch{}
	for _, rec := range recs {
		batch.Queue(cpsUpsertSQL,
			rec.ID, rec.UserID, rec.CpsID, rec.Patient, rec.Professional,
			rec.Agreement, rec.BusinessUnit, rec.OpenedAt, rec.SyncedAt,
		)
	}
	br := tx.SendBatch(ctx, batch)
	for range recs {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return 0, fmt.Errorf("bulk upsert cps records: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return 0, fmt.Errorf("close batch: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}
	return len(recs), nil
}

// ListByUser lista o cache local do usuário, mais recentes primeiro.
func (r *CpsRecordRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*entity.CpsRecord, error) {
	query := `
		SELECT ` + cpsColumns + `
		FROM cps_records
		WHERE user_id = $1
		ORDER BY opened_at DESC
		LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list cps records: %w", err)
	}
	defer rows.Close()
	var list []*entity.CpsRecord
	for rows.Next() {
		var c entity.CpsRecord
		if err := rows.Scan(
			&c.ID, &c.UserID, &c.CpsID, &c.Patient, &c.Professional,
			&c.Agreement, &c.BusinessUnit, &c.OpenedAt, &c.SyncedAt,
		); err != nil {
			return nil, fmt.Errorf("scan cps record: %w", err)
		}
		list = append(list, &c)
	}
	return list, rows.Err()
}
