// Package barcode canonicaliza códigos de barras para busca e comparação de
// unicidade: "00123" e "123" apontam para o mesmo item.
package barcode

import "strings"

// Normalize remove os zeros à esquerda de um código de barras.
// Entrada vazia ou composta só de zeros normaliza para "0".
// Função pura e total, sem modos de falha.
func Normalize(code string) string {
	trimmed := strings.TrimLeft(code, "0")
	if trimmed == "" {
		return "0"
	}
	return trimmed
}

// Equal compara dois códigos após normalização.
func Equal(a, b string) bool {
	return Normalize(a) == Normalize(b)
}
