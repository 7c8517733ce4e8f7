// Package scan contém as regras puras do fluxo de bipagem que não dependem
// de infraestrutura.
package scan

import (
	"time"

	"github.com/bipagem/opme-api/internal/domain/entity"
)

// DeletionWindow janela em que o próprio operador ainda pode desfazer uma
// bipagem. Avaliada no momento da ação, nunca cacheada.
const DeletionWindow = time.Hour

// CanDelete decide se o usuário atual pode remover um vínculo de bipagem:
// MANAGER sempre pode; o próprio operador apenas dentro de DeletionWindow
// contada a partir da primeira bipagem (limite inclusivo).
// Função pura de vínculo, usuário e relógio.
func CanDelete(linkage entity.ScanLinkage, user entity.SessionUser, now time.Time) bool {
	if user.Role == entity.RoleManager {
		return true
	}
	if user.ID != linkage.UserID {
		return false
	}
	return now.Sub(linkage.LinkedAt) <= DeletionWindow
}
