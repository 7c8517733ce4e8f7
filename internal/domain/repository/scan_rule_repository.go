package repository

import (
	"context"

	"github.com/bipagem/opme-api/internal/domain/entity"
)

// ScanRuleRepository porta de persistência das regras de bipagem.
// Somente leitura para o avaliador; criação/remoção são do colaborador de
// configuração. Create devolve domain.ErrDuplicate quando a constraint única
// (opme_barcode, convenio, rule_type) é violada.
type ScanRuleRepository interface {
	Create(ctx context.Context, rule *entity.ScanRule) error
	Delete(ctx context.Context, id string) error
	// ListByConvenio devolve todas as regras do convênio (trim + case-insensitive).
	ListByConvenio(ctx context.Context, convenio string) ([]entity.ScanRule, error)
	List(ctx context.Context) ([]entity.ScanRule, error)
}
