// Package whatsapp implementa o canal de notificação de bipagens via gateway
// WhatsApp. Entrega best-effort, at-most-once: sem retry, falhas são do
// chamador apenas para log.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bipagem/opme-api/internal/application/scan"
	"github.com/bipagem/opme-api/pkg/config"
)

var _ scan.Notifier = (*Notifier)(nil)

// Notifier cliente do gateway. Usa net/http da stdlib.
type Notifier struct {
	apiURL       string
	token        string
	targetNumber string
	httpClient   *http.Client
}

// NewNotifier constrói o cliente a partir da configuração.
func NewNotifier(cfg config.NotifyConfig) *Notifier {
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Notifier{
		apiURL:       cfg.APIURL,
		token:        cfg.Token,
		targetNumber: cfg.TargetNumber,
		httpClient:   &http.Client{Timeout: timeout},
	}
}

type outboundMessage struct {
	Body        string `json:"body"`
	Number      string `json:"number"`
	ExternalKey string `json:"externalKey"`
	IsClosed    bool   `json:"isClosed"`
}

// Send envia a mensagem da bipagem ao número configurado.
func (n *Notifier) Send(ctx context.Context, notif scan.Notification) error {
	barcode := notif.OpmeBarcode
	if barcode == "" {
		barcode = "não informado"
	}
	convenio := notif.ConvenioName
	if convenio == "" {
		convenio = "N/A"
	}
	body := fmt.Sprintf(
		"OPME bipado: %s (Cód. Barras: %s). Paciente: %s (CPS %d). Convênio: %s. Quantidade: %d. Horário: %s.",
		notif.OpmeName, barcode, notif.Patient, notif.CpsID, convenio, notif.Quantity, notif.Timestamp,
	)

	payload, err := json.Marshal(outboundMessage{
		Body:        body,
		Number:      n.targetNumber,
		ExternalKey: fmt.Sprintf("opme-%d-%d", notif.CpsID, time.Now().UnixMilli()),
		IsClosed:    false,
	})
	if err != nil {
		return fmt.Errorf("montar payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.apiURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("montar requisição: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+n.token)

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("enviar notificação: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		errText, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("gateway devolveu status %d: %s", resp.StatusCode, string(errText))
	}
	return nil
}
