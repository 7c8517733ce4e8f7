package entity

import "time"

// Roles válidos para o usuário da sessão.
const (
	RoleManager  = "MANAGER"
	RoleOperator = "OPERATOR"
)

// SessionUser identidade mínima fornecida pelo provedor de identidade
// (consumida somente leitura a partir dos claims do token).
type SessionUser struct {
	ID   string
	Role string // MANAGER | OPERATOR
}

// ScanLinkage vínculo de um OPME bipado a um CPS, com quantidade acumulada.
// Único por (CpsID, OpmeBarcode, UserID): bipar de novo o mesmo item para o
// mesmo CPS incrementa Quantity em vez de criar nova linha.
// LinkedAt é o instante da primeira bipagem e não muda no incremento.
type ScanLinkage struct {
	ID          string
	UserID      string
	CpsID       int64
	OpmeBarcode string // já normalizado (sem zeros à esquerda)
	Quantity    int
	LinkedAt    time.Time
}
