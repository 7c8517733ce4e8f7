package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/bipagem/opme-api/internal/domain"
	"github.com/bipagem/opme-api/internal/domain/entity"
	"github.com/bipagem/opme-api/internal/domain/repository"
)

var _ repository.ScanRuleRepository = (*ScanRuleRepo)(nil)

// ScanRuleRepo implementação de ScanRuleRepository sobre PostgreSQL.
// A tabela opme_rules tem índice único em (opme_barcode, lower(convenio_name),
// rule_type), que é a fonte da verdade contra regras duplicadas.
type ScanRuleRepo struct {
	q Querier
}

// NewScanRuleRepository constrói o adaptador. Passar pool ou tx (Querier).
func NewScanRuleRepository(q Querier) *ScanRuleRepo {
	return &ScanRuleRepo{q: q}
}

const ruleColumns = `id, opme_barcode, convenio_name, rule_type, message, replacement_opme_barcode, created_at`

// Create persiste uma regra; domain.ErrDuplicate em violação do índice único.
func (r *ScanRuleRepo) Create(ctx context.Context, rule *entity.ScanRule) error {
	query := `
		INSERT INTO opme_rules (id, opme_barcode, convenio_name, rule_type, message, replacement_opme_barcode, created_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), $7)`
	_, err := r.q.Exec(ctx, query,
		rule.ID, rule.OpmeBarcode, rule.ConvenioName, rule.RuleType,
		rule.Message, rule.ReplacementOpmeBarcode, rule.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert scan rule: %w", err)
	}
	return nil
}

// Delete remove uma regra; domain.ErrNotFound se o id não existe.
func (r *ScanRuleRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM opme_rules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete scan rule: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListByConvenio devolve as regras do convênio (comparação trim + case-insensitive).
func (r *ScanRuleRepo) ListByConvenio(ctx context.Context, convenio string) ([]entity.ScanRule, error) {
	query := `
		SELECT ` + ruleColumns + `
		FROM opme_rules
		WHERE lower(convenio_name) = lower(btrim($1))
		ORDER BY created_at`
	rows, err := r.q.Query(ctx, query, convenio)
	if err != nil {
		return nil, fmt.Errorf("list scan rules by convenio: %w", err)
	}
	defer rows.Close()
	return scanRules(rows)
}

// List devolve todas as regras cadastradas.
func (r *ScanRuleRepo) List(ctx context.Context) ([]entity.ScanRule, error) {
	query := `SELECT ` + ruleColumns + ` FROM opme_rules ORDER BY convenio_name, created_at`
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list scan rules: %w", err)
	}
	defer rows.Close()
	return scanRules(rows)
}

func scanRules(rows pgx.Rows) ([]entity.ScanRule, error) {
	var list []entity.ScanRule
	for rows.Next() {
		var (
			rule        entity.ScanRule
			message     *string
			replacement *string
		)
		if err := rows.Scan(
			&rule.ID, &rule.OpmeBarcode, &rule.ConvenioName, &rule.RuleType,
			&message, &replacement, &rule.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		if message != nil {
			rule.Message = *message
		}
		if replacement != nil {
			rule.ReplacementOpmeBarcode = *replacement
		}
		list = append(list, rule)
	}
	return list, rows.Err()
}
