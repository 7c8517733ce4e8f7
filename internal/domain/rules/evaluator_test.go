package rules_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bipagem/opme-api/internal/domain/entity"
	"github.com/bipagem/opme-api/internal/domain/rules"
)

func rule(ruleType, code, convenio, msg, replacement string) entity.ScanRule {
	return entity.ScanRule{
		OpmeBarcode:            code,
		ConvenioName:           convenio,
		RuleType:               ruleType,
		Message:                msg,
		ReplacementOpmeBarcode: replacement,
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Precedência: BLOCK > EXCLUSIVE_ALLOW > SUGGEST_REPLACEMENT > BILLING_ALERT
// ──────────────────────────────────────────────────────────────────────────────

// Mesmo item com BLOCK, SUGGEST_REPLACEMENT e BILLING_ALERT: o bloqueio vence
// e nenhum substituto é sugerido.
func TestEvaluate_BlockVenceTodasAsOutras(t *testing.T) {
	ruleSet := []entity.ScanRule{
		rule(entity.RuleBillingAlert, "789", "ACME", "conferir tabela", ""),
		rule(entity.RuleSuggestReplacement, "789", "ACME", "prefira o genérico", "555"),
		rule(entity.RuleBlock, "789", "ACME", "item vetado em contrato", ""),
	}

	v := rules.Evaluate("789", "ACME", ruleSet)
	assert.Equal(t, rules.Blocked, v.Decision)
	assert.Equal(t, "item vetado em contrato", v.Message)
	assert.Empty(t, v.ReplacementBarcode)
}

// BLOCK sem mensagem cadastrada usa o texto padrão.
func TestEvaluate_BlockSemMensagemUsaPadrao(t *testing.T) {
	ruleSet := []entity.ScanRule{rule(entity.RuleBlock, "789", "ACME", "", "")}

	v := rules.Evaluate("789", "ACME", ruleSet)
	assert.Equal(t, rules.Blocked, v.Decision)
	assert.NotEmpty(t, v.Message)
}

// Lista exclusiva: item fora da lista é bloqueado mesmo sem regra própria.
func TestEvaluate_ExclusiveAllow_ForaDaListaBloqueia(t *testing.T) {
	ruleSet := []entity.ScanRule{
		rule(entity.RuleExclusiveAllow, "100", "ACME", "", ""),
		rule(entity.RuleExclusiveAllow, "200", "ACME", "", ""),
	}

	v := rules.Evaluate("300", "ACME", ruleSet)
	assert.Equal(t, rules.Blocked, v.Decision)

	// Item da lista passa.
	v = rules.Evaluate("200", "ACME", ruleSet)
	assert.Equal(t, rules.Allowed, v.Decision)
}

// A lista exclusiva de um convênio não afeta outro convênio.
func TestEvaluate_ExclusiveAllow_NaoVazaParaOutroConvenio(t *testing.T) {
	ruleSet := []entity.ScanRule{
		rule(entity.RuleExclusiveAllow, "100", "ACME", "", ""),
	}

	v := rules.Evaluate("300", "Beta Saúde", ruleSet)
	assert.Equal(t, rules.Allowed, v.Decision)
}

// Item na lista exclusiva mas com alerta de faturamento: passa com alerta.
func TestEvaluate_ExclusiveAllow_ComBillingAlert(t *testing.T) {
	ruleSet := []entity.ScanRule{
		rule(entity.RuleExclusiveAllow, "100", "ACME", "", ""),
		rule(entity.RuleBillingAlert, "100", "ACME", "faturar pelo código TUSS", ""),
	}

	v := rules.Evaluate("100", "ACME", ruleSet)
	assert.Equal(t, rules.AllowedWithAlert, v.Decision)
	assert.Equal(t, "faturar pelo código TUSS", v.Message)
}

func TestEvaluate_SuggestReplacement(t *testing.T) {
	ruleSet := []entity.ScanRule{
		rule(entity.RuleSuggestReplacement, "789", "ACME", "prefira o genérico", "555"),
		rule(entity.RuleBillingAlert, "789", "ACME", "conferir tabela", ""),
	}

	v := rules.Evaluate("789", "ACME", ruleSet)
	assert.Equal(t, rules.Diverted, v.Decision, "sugestão vence o alerta de faturamento")
	assert.Equal(t, "555", v.ReplacementBarcode)
}

func TestEvaluate_BillingAlertLibera(t *testing.T) {
	ruleSet := []entity.ScanRule{
		rule(entity.RuleBillingAlert, "789", "ACME", "conferir tabela", ""),
	}

	v := rules.Evaluate("789", "ACME", ruleSet)
	assert.Equal(t, rules.AllowedWithAlert, v.Decision)
	assert.Equal(t, "conferir tabela", v.Message)
}

func TestEvaluate_SemRegraLibera(t *testing.T) {
	v := rules.Evaluate("789", "ACME", nil)
	assert.Equal(t, rules.Allowed, v.Decision)
	assert.Empty(t, v.Message)
}

// ──────────────────────────────────────────────────────────────────────────────
// Normalização de código de barras e convênio no casamento de regras
// ──────────────────────────────────────────────────────────────────────────────

// "0789" bipado casa com regra cadastrada para "789" e vice-versa.
func TestEvaluate_CasaCodigoNormalizado(t *testing.T) {
	ruleSet := []entity.ScanRule{
		rule(entity.RuleBlock, "789", "ACME", "vetado", ""),
	}

	v := rules.Evaluate("0789", "ACME", ruleSet)
	assert.Equal(t, rules.Blocked, v.Decision)

	ruleSet = []entity.ScanRule{
		rule(entity.RuleBlock, "00789", "ACME", "vetado", ""),
	}
	v = rules.Evaluate("789", "ACME", ruleSet)
	assert.Equal(t, rules.Blocked, v.Decision)
}

// Convênio casa com trim e case-insensitive.
func TestEvaluate_CasaConvenioNormalizado(t *testing.T) {
	ruleSet := []entity.ScanRule{
		rule(entity.RuleBlock, "789", "  ACME Saúde  ", "vetado", ""),
	}

	v := rules.Evaluate("789", "acme saúde", ruleSet)
	assert.Equal(t, rules.Blocked, v.Decision)
}

// ──────────────────────────────────────────────────────────────────────────────
// WithoutSuggestions — fallback quando o substituto não existe no catálogo
// ──────────────────────────────────────────────────────────────────────────────

func TestWithoutSuggestions_ReavaliacaoIgnoraSugestao(t *testing.T) {
	ruleSet := []entity.ScanRule{
		rule(entity.RuleSuggestReplacement, "789", "ACME", "prefira o genérico", "555"),
		rule(entity.RuleBillingAlert, "789", "ACME", "conferir tabela", ""),
	}

	v := rules.Evaluate("789", "ACME", rules.WithoutSuggestions(ruleSet))
	assert.Equal(t, rules.AllowedWithAlert, v.Decision)
	assert.Equal(t, "conferir tabela", v.Message)
}
