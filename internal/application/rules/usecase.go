// Package rules (camada de aplicação) expõe a configuração das regras de
// bipagem: validação de campos por tipo e proteção contra duplicatas.
package rules

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bipagem/opme-api/internal/application/dto"
	"github.com/bipagem/opme-api/internal/domain"
	"github.com/bipagem/opme-api/internal/domain/entity"
	"github.com/bipagem/opme-api/internal/domain/repository"
)

// ConfigUseCase criação, listagem e remoção de regras.
type ConfigUseCase struct {
	ruleRepo repository.ScanRuleRepository
}

// NewConfigUseCase constrói o caso de uso.
func NewConfigUseCase(ruleRepo repository.ScanRuleRepository) *ConfigUseCase {
	return &ConfigUseCase{ruleRepo: ruleRepo}
}

// Create valida e grava uma regra. Message é obrigatória se e somente se o
// tipo for BILLING_ALERT; ReplacementOpmeBarcode se e somente se
// SUGGEST_REPLACEMENT. Duplicata de (barcode, convênio, tipo) devolve
// domain.ErrDuplicate (constraint única do store).
func (uc *ConfigUseCase) Create(ctx context.Context, in dto.CreateRuleRequest) (*entity.ScanRule, error) {
	in.OpmeBarcode = strings.TrimSpace(in.OpmeBarcode)
	in.ConvenioName = strings.TrimSpace(in.ConvenioName)
	if in.OpmeBarcode == "" || in.ConvenioName == "" || !entity.ValidRuleType(in.RuleType) {
		return nil, domain.ErrInvalidInput
	}
	if in.RuleType == entity.RuleBillingAlert && strings.TrimSpace(in.Message) == "" {
		return nil, domain.ErrInvalidInput
	}
	if in.RuleType == entity.RuleSuggestReplacement && strings.TrimSpace(in.ReplacementOpmeBarcode) == "" {
		return nil, domain.ErrInvalidInput
	}

	rule := &entity.ScanRule{
		ID:                     uuid.New().String(),
		OpmeBarcode:            in.OpmeBarcode,
		ConvenioName:           in.ConvenioName,
		RuleType:               in.RuleType,
		Message:                strings.TrimSpace(in.Message),
		ReplacementOpmeBarcode: strings.TrimSpace(in.ReplacementOpmeBarcode),
		CreatedAt:              time.Now(),
	}
	if err := uc.ruleRepo.Create(ctx, rule); err != nil {
		return nil, err
	}
	return rule, nil
}

// Delete remove uma regra por id.
func (uc *ConfigUseCase) Delete(ctx context.Context, id string) error {
	if id == "" {
		return domain.ErrInvalidInput
	}
	return uc.ruleRepo.Delete(ctx, id)
}

// List devolve todas as regras cadastradas.
func (uc *ConfigUseCase) List(ctx context.Context) ([]entity.ScanRule, error) {
	return uc.ruleRepo.List(ctx)
}
