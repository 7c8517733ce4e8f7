package entity

// OpmeItem representa um item OPME do inventário (catálogo somente leitura
// para o motor de bipagem; o cadastro é feito pelo colaborador de catálogo).
// CodigoBarras é opaco e pode conter zeros à esquerda; a busca usa sempre a
// forma normalizada.
type OpmeItem struct {
	ID           string
	UserID       string
	Opme         string // nome do item
	Lote         string
	Validade     string
	Referencia   string
	Anvisa       string // registro ANVISA
	Tuss         string // código de faturamento TUSS
	CodSimpro    string // código de catálogo SIMPRO
	CodigoBarras string
}
