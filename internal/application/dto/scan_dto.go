package dto

import "time"

// ScanRequest corpo de uma bipagem.
// ConfirmReplacement indica que o código enviado é o substituto (ou o
// original mantido) já confirmado pelo usuário após um veredito "diverted";
// nesse caso a avaliação de regras não é reexecutada.
type ScanRequest struct {
	Barcode            string `json:"barcode"`
	ConfirmReplacement bool   `json:"confirm_replacement"`
}

// OpmeItemDTO metadados de catálogo de um item OPME.
type OpmeItemDTO struct {
	ID           string `json:"id"`
	Opme         string `json:"opme"`
	Lote         string `json:"lote,omitempty"`
	Validade     string `json:"validade,omitempty"`
	Referencia   string `json:"referencia,omitempty"`
	Anvisa       string `json:"anvisa,omitempty"`
	Tuss         string `json:"tuss,omitempty"`
	CodSimpro    string `json:"cod_simpro,omitempty"`
	CodigoBarras string `json:"codigo_barras"`
}

// ScanResponse resultado de uma bipagem.
// verdict: allowed | allowed_with_alert | diverted.
// Em diverted nada foi gravado; replacement traz o item sugerido e o cliente
// deve reenviar com confirm_replacement=true.
type ScanResponse struct {
	Verdict     string       `json:"verdict"`
	Quantity    int          `json:"quantity,omitempty"`
	LinkedAt    *time.Time   `json:"linked_at,omitempty"`
	Alert       string       `json:"alert,omitempty"`
	Item        *OpmeItemDTO `json:"item,omitempty"`
	Replacement *OpmeItemDTO `json:"replacement,omitempty"`
	Message     string       `json:"message,omitempty"`
}

// LinkedOpmeDTO vínculo de bipagem enriquecido com o catálogo, para histórico.
type LinkedOpmeDTO struct {
	ID          string       `json:"id"`
	CpsID       int64        `json:"cps_id"`
	OpmeBarcode string       `json:"opme_barcode"`
	Quantity    int          `json:"quantity"`
	LinkedAt    time.Time    `json:"linked_at"`
	Item        *OpmeItemDTO `json:"item,omitempty"`
}

// DailySummaryDTO total de OPMEs bipados por CPS no dia.
type DailySummaryDTO struct {
	CpsID     int64  `json:"cps_id"`
	Patient   string `json:"patient"`
	OpmeCount int    `json:"opme_count"`
}
