package entity

import "time"

// Tipos válidos de regra de bipagem por convênio.
const (
	RuleBlock              = "BLOCK"
	RuleBillingAlert       = "BILLING_ALERT"
	RuleExclusiveAllow     = "EXCLUSIVE_ALLOW"
	RuleSuggestReplacement = "SUGGEST_REPLACEMENT"
)

// ValidRuleType indica se s é um dos tipos de regra conhecidos.
func ValidRuleType(s string) bool {
	switch s {
	case RuleBlock, RuleBillingAlert, RuleExclusiveAllow, RuleSuggestReplacement:
		return true
	}
	return false
}

// ScanRule regra de uso de um OPME para um convênio.
// A comparação de convênio é case-insensitive com trim; no máximo uma regra
// ativa por (OpmeBarcode, ConvenioName, RuleType) — duplicatas são rejeitadas
// pela constraint única do store.
// Message é obrigatória apenas em BILLING_ALERT; ReplacementOpmeBarcode apenas
// em SUGGEST_REPLACEMENT.
type ScanRule struct {
	ID                     string
	OpmeBarcode            string
	ConvenioName           string
	RuleType               string
	Message                string
	ReplacementOpmeBarcode string
	CreatedAt              time.Time
}
