package entity

import "time"

// CpsRecord registro de procedimento do paciente (CPS), com id numérico
// atribuído externamente. Criado por resolução remota (write-through) ou por
// sincronização em lote; nunca apagado por este núcleo; mutado apenas por
// re-upsert (o remoto é autoritativo), escopado por usuário dono do cache.
type CpsRecord struct {
	ID           string
	UserID       string
	CpsID        int64
	Patient      string
	Professional string
	Agreement    string // convênio; chave de casamento das regras
	BusinessUnit string
	OpenedAt     time.Time // CREATED_AT do remoto; datas sem hora são normalizadas ao meio-dia
	SyncedAt     time.Time
}
