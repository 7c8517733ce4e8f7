// Package rules avalia as regras de uso de OPME por convênio no momento da
// bipagem. A avaliação segue precedência estrita com curto-circuito:
// BLOCK > EXCLUSIVE_ALLOW > SUGGEST_REPLACEMENT > BILLING_ALERT > liberado.
package rules

import (
	"strings"

	"github.com/bipagem/opme-api/internal/domain/barcode"
	"github.com/bipagem/opme-api/internal/domain/entity"
)

// Decision resultado da avaliação de uma bipagem.
type Decision int

const (
	// Allowed libera a bipagem sem ressalvas.
	Allowed Decision = iota
	// Blocked impede a bipagem; nenhum vínculo é gravado.
	Blocked
	// Diverted sugere substituição; o chamador deve confirmar com o usuário
	// antes de gravar o item original ou o substituto.
	Diverted
	// AllowedWithAlert libera a bipagem e exibe um alerta de faturamento.
	AllowedWithAlert
)

// String implementa fmt.Stringer para logs e respostas.
func (d Decision) String() string {
	switch d {
	case Allowed:
		return "allowed"
	case Blocked:
		return "blocked"
	case Diverted:
		return "diverted"
	case AllowedWithAlert:
		return "allowed_with_alert"
	}
	return "unknown"
}

// Verdict veredito da avaliação para uma tentativa de bipagem.
type Verdict struct {
	Decision           Decision
	Message            string // motivo do bloqueio ou alerta de faturamento
	ReplacementBarcode string // preenchido apenas em Diverted
}

// Evaluate decide o veredito para (itemBarcode, convenio) contra o conjunto de
// regras do convênio. Códigos de barras são comparados na forma normalizada e
// o convênio com trim + case-insensitive. Não há modos de falha: a ausência de
// regra aplicável simplesmente libera. Regras duplicadas do mesmo tipo para o
// mesmo par são erro de configuração; a primeira encontrada vence (a
// constraint única do store impede a duplicata na origem).
func Evaluate(itemBarcode, convenio string, ruleSet []entity.ScanRule) Verdict {
	code := barcode.Normalize(itemBarcode)
	conv := normalizeConvenio(convenio)

	// 1. BLOCK: terminal, nada é gravado.
	if r := findRule(ruleSet, entity.RuleBlock, code, conv); r != nil {
		msg := r.Message
		if msg == "" {
			msg = "este item não é permitido para o convênio informado"
		}
		return Verdict{Decision: Blocked, Message: msg}
	}

	// 2. EXCLUSIVE_ALLOW: existindo lista exclusiva para o convênio, só os
	// itens listados passam.
	if exclusive := rulesOfType(ruleSet, entity.RuleExclusiveAllow, conv); len(exclusive) > 0 {
		allowed := false
		for _, r := range exclusive {
			if barcode.Normalize(r.OpmeBarcode) == code {
				allowed = true
				break
			}
		}
		if !allowed {
			return Verdict{Decision: Blocked, Message: "apenas OPMEs específicos são permitidos para este convênio"}
		}
	}

	// 3. SUGGEST_REPLACEMENT: terminal nesta passagem; o chamador decide entre
	// original e substituto e reinvoca a agregação sem reavaliar.
	if r := findRule(ruleSet, entity.RuleSuggestReplacement, code, conv); r != nil && r.ReplacementOpmeBarcode != "" {
		return Verdict{
			Decision:           Diverted,
			Message:            r.Message,
			ReplacementBarcode: r.ReplacementOpmeBarcode,
		}
	}

	// 4. BILLING_ALERT: informativo, a bipagem prossegue.
	if r := findRule(ruleSet, entity.RuleBillingAlert, code, conv); r != nil && r.Message != "" {
		return Verdict{Decision: AllowedWithAlert, Message: r.Message}
	}

	// 5. Sem regra aplicável.
	return Verdict{Decision: Allowed}
}

// WithoutSuggestions devolve o conjunto de regras sem SUGGEST_REPLACEMENT.
// Usado quando o substituto sugerido não existe no catálogo e a sugestão deve
// ser ignorada.
func WithoutSuggestions(ruleSet []entity.ScanRule) []entity.ScanRule {
	out := make([]entity.ScanRule, 0, len(ruleSet))
	for _, r := range ruleSet {
		if r.RuleType != entity.RuleSuggestReplacement {
			out = append(out, r)
		}
	}
	return out
}

func normalizeConvenio(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// findRule devolve a primeira regra do tipo dado casando item+convênio.
func findRule(ruleSet []entity.ScanRule, ruleType, normalizedCode, normalizedConvenio string) *entity.ScanRule {
	for i := range ruleSet {
		r := &ruleSet[i]
		if r.RuleType != ruleType {
			continue
		}
		if normalizeConvenio(r.ConvenioName) != normalizedConvenio {
			continue
		}
		if barcode.Normalize(r.OpmeBarcode) == normalizedCode {
			return r
		}
	}
	return nil
}

// rulesOfType devolve as regras do tipo dado para o convênio, independente do item.
func rulesOfType(ruleSet []entity.ScanRule, ruleType, normalizedConvenio string) []entity.ScanRule {
	var out []entity.ScanRule
	for _, r := range ruleSet {
		if r.RuleType == ruleType && normalizeConvenio(r.ConvenioName) == normalizedConvenio {
			out = append(out, r)
		}
	}
	return out
}
