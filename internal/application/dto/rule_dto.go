package dto

import "time"

// CreateRuleRequest criação de regra de bipagem por convênio.
// message é obrigatória apenas em BILLING_ALERT; replacement_opme_barcode
// apenas em SUGGEST_REPLACEMENT.
type CreateRuleRequest struct {
	OpmeBarcode            string `json:"opme_barcode"`
	ConvenioName           string `json:"convenio_name"`
	RuleType               string `json:"rule_type"` // BLOCK | BILLING_ALERT | EXCLUSIVE_ALLOW | SUGGEST_REPLACEMENT
	Message                string `json:"message,omitempty"`
	ReplacementOpmeBarcode string `json:"replacement_opme_barcode,omitempty"`
}

// ScanRuleDTO representação HTTP de uma regra.
type ScanRuleDTO struct {
	ID                     string    `json:"id"`
	OpmeBarcode            string    `json:"opme_barcode"`
	ConvenioName           string    `json:"convenio_name"`
	RuleType               string    `json:"rule_type"`
	Message                string    `json:"message,omitempty"`
	ReplacementOpmeBarcode string    `json:"replacement_opme_barcode,omitempty"`
	CreatedAt              time.Time `json:"created_at"`
}
