package domain

import "errors"

// Erros de domínio (sem dependências externas).
var (
	ErrNotFound        = errors.New("recurso não encontrado")
	ErrCaseNotFound    = errors.New("CPS não encontrado")
	ErrItemNotFound    = errors.New("código de barras não encontrado no inventário OPME")
	ErrInvalidInput    = errors.New("entrada inválida")
	ErrDuplicate       = errors.New("recurso duplicado")
	ErrUnauthorized    = errors.New("não autorizado")
	ErrForbidden       = errors.New("acesso negado")
	ErrRemoteDirectory = errors.New("falha ao consultar o diretório remoto de CPS")
)

// BlockedError veredito de bloqueio da avaliação de regras; carrega o motivo
// exibido ao usuário (distinto de um erro genérico).
type BlockedError struct {
	Message string
}

func (e *BlockedError) Error() string { return e.Message }

// IsBlocked indica se err é um bloqueio de regra.
func IsBlocked(err error) bool {
	var be *BlockedError
	return errors.As(err, &be)
}
