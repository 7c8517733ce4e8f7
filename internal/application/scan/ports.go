package scan

import "context"

// Notification payload da notificação disparada após cada bipagem gravada.
type Notification struct {
	OpmeName     string
	OpmeBarcode  string // já normalizado
	Patient      string
	CpsID        int64
	ConvenioName string
	Quantity     int
	Timestamp    string // ISO 8601
	Lote         string
	Validade     string
	Referencia   string
	Anvisa       string
	Tuss         string
	CodSimpro    string
}

// Notifier porta de saída do canal de notificação. Fire-and-forget: o caso de
// uso invoca de forma assíncrona e falhas nunca revertem a bipagem gravada.
// Sem retry nem garantia de entrega (at-most-once).
type Notifier interface {
	Send(ctx context.Context, n Notification) error
}
