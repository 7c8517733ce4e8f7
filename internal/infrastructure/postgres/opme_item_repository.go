package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/bipagem/opme-api/internal/domain/entity"
	"github.com/bipagem/opme-api/internal/domain/repository"
)

var _ repository.OpmeItemRepository = (*OpmeItemRepo)(nil)

// OpmeItemRepo implementação de OpmeItemRepository sobre PostgreSQL
// (somente leitura para este núcleo; o cadastro é do colaborador de catálogo).
type OpmeItemRepo struct {
	q Querier
}

// NewOpmeItemRepository constrói o adaptador. Passar pool ou tx (Querier).
func NewOpmeItemRepository(q Querier) *OpmeItemRepo {
	return &OpmeItemRepo{q: q}
}

const opmeItemColumns = `id, user_id, opme, lote, validade, referencia, anvisa, tuss, cod_simpro, codigo_barras`

// GetByBarcode busca um item pelo código de barras normalizado: o código
// armazenado pode ter zeros à esquerda, então a comparação normaliza a coluna
// no SQL com a mesma convenção de Normalize ("000…" vira "0").
func (r *OpmeItemRepo) GetByBarcode(ctx context.Context, userID, normalizedBarcode string) (*entity.OpmeItem, error) {
	query := `
		SELECT ` + opmeItemColumns + `
		FROM opme_inventory
		WHERE user_id = $1
		  AND COALESCE(NULLIF(ltrim(codigo_barras, '0'), ''), '0') = $2
		LIMIT 1`
	var it entity.OpmeItem
	err := r.q.QueryRow(ctx, query, userID, normalizedBarcode).Scan(
		&it.ID, &it.UserID, &it.Opme, &it.Lote, &it.Validade, &it.Referencia,
		&it.Anvisa, &it.Tuss, &it.CodSimpro, &it.CodigoBarras,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get opme item: %w", err)
	}
	return &it, nil
}

// ListByUser lista o inventário OPME do usuário.
func (r *OpmeItemRepo) ListByUser(ctx context.Context, userID string) ([]*entity.OpmeItem, error) {
	query := `
		SELECT ` + opmeItemColumns + `
		FROM opme_inventory
		WHERE user_id = $1
		ORDER BY opme`
	rows, err := r.q.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list opme items: %w", err)
	}
	defer rows.Close()
	var list []*entity.OpmeItem
	for rows.Next() {
		var it entity.OpmeItem
		if err := rows.Scan(
			&it.ID, &it.UserID, &it.Opme, &it.Lote, &it.Validade, &it.Referencia,
			&it.Anvisa, &it.Tuss, &it.CodSimpro, &it.CodigoBarras,
		); err != nil {
			return nil, fmt.Errorf("scan opme item: %w", err)
		}
		list = append(list, &it)
	}
	return list, rows.Err()
}
