package dto

import "time"

// SyncRequest intervalo de datas (inclusive) para sincronização em lote.
type SyncRequest struct {
	StartDate string `json:"start_date"` // yyyy-mm-dd
	EndDate   string `json:"end_date"`   // yyyy-mm-dd
}

// SyncResponse resultado da sincronização.
type SyncResponse struct {
	Synced int `json:"synced"`
}

// CpsRecordDTO representação HTTP de um CPS do cache local.
type CpsRecordDTO struct {
	CpsID        int64     `json:"cps_id"`
	Patient      string    `json:"patient"`
	Professional string    `json:"professional"`
	Agreement    string    `json:"agreement"`
	BusinessUnit string    `json:"business_unit"`
	OpenedAt     time.Time `json:"opened_at"`
}

// ResolveCaseResponse CPS resolvido mais a origem da resposta.
// cached=true: atendido pelo cache local, sem chamada remota.
// cache_degraded=true: resolvido remotamente mas o write-through falhou.
type ResolveCaseResponse struct {
	Case          CpsRecordDTO `json:"case"`
	Cached        bool         `json:"cached"`
	CacheDegraded bool         `json:"cache_degraded,omitempty"`
}
