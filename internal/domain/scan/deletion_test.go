package scan_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/bipagem/opme-api/internal/domain/entity"
	"github.com/bipagem/opme-api/internal/domain/scan"
)

func TestCanDelete(t *testing.T) {
	linkedAt := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	linkage := entity.ScanLinkage{UserID: "op-1", LinkedAt: linkedAt}

	operator := entity.SessionUser{ID: "op-1", Role: entity.RoleOperator}
	otherOp := entity.SessionUser{ID: "op-2", Role: entity.RoleOperator}
	manager := entity.SessionUser{ID: "mgr-1", Role: entity.RoleManager}

	cases := []struct {
		nome string
		user entity.SessionUser
		now  time.Time
		want bool
	}{
		{"próprio operador dentro da janela", operator, linkedAt.Add(30 * time.Minute), true},
		{"próprio operador exatamente no limite", operator, linkedAt.Add(time.Hour), true},
		{"próprio operador 61 minutos depois", operator, linkedAt.Add(61 * time.Minute), false},
		{"outro operador mesmo dentro da janela", otherOp, linkedAt.Add(time.Minute), false},
		{"gestor dentro da janela", manager, linkedAt.Add(time.Minute), true},
		{"gestor muito depois da janela", manager, linkedAt.Add(48 * time.Hour), true},
	}
	for _, tc := range cases {
		t.Run(tc.nome, func(t *testing.T) {
			assert.Equal(t, tc.want, scan.CanDelete(linkage, tc.user, tc.now))
		})
	}
}
