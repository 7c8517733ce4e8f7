package barcode_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bipagem/opme-api/internal/domain/barcode"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		nome string
		in   string
		want string
	}{
		{"zeros à esquerda removidos", "00042", "42"},
		{"sem zeros à esquerda fica igual", "42", "42"},
		{"zeros internos preservados", "100200", "100200"},
		{"vazio vira zero canônico", "", "0"},
		{"só zeros vira zero canônico", "0000", "0"},
		{"um zero vira zero canônico", "0", "0"},
		{"alfanumérico preservado", "0A12", "A12"},
	}
	for _, tc := range cases {
		t.Run(tc.nome, func(t *testing.T) {
			assert.Equal(t, tc.want, barcode.Normalize(tc.in))
		})
	}
}

// Idempotência: normalizar duas vezes dá o mesmo resultado.
func TestNormalize_Idempotente(t *testing.T) {
	for _, in := range []string{"00042", "", "0000", "7891234"} {
		once := barcode.Normalize(in)
		assert.Equal(t, once, barcode.Normalize(once), "entrada %q", in)
	}
}

func TestEqual(t *testing.T) {
	assert.True(t, barcode.Equal("00042", "42"))
	assert.True(t, barcode.Equal("", "0000"))
	assert.False(t, barcode.Equal("42", "420"))
}
