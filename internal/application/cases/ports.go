package cases

import (
	"context"
	"time"
)

// DirectoryQuery parâmetros de uma consulta ao diretório remoto de CPS.
// CpsID zero significa busca por intervalo (sem filtro de caso).
type DirectoryQuery struct {
	StartDate    time.Time
	EndDate      time.Time
	BusinessUnit string
	CpsID        int64
}

// RemoteCase registro de CPS como devolvido pelo diretório remoto.
// CreatedAt chega como string e pode ser só data (yyyy-mm-dd); a normalização
// para timestamp é responsabilidade deste caso de uso.
type RemoteCase struct {
	CpsID        int64
	Patient      string
	Professional string
	Agreement    string
	BusinessUnit string
	CreatedAt    string
}

// DirectoryClient porta de saída para o serviço remoto (lento, paginado por
// datas) de busca de casos. Timeouts são do cliente concreto; aqui falhas são
// erros comuns e retryáveis.
type DirectoryClient interface {
	ListCases(ctx context.Context, q DirectoryQuery) ([]RemoteCase, error)
}
