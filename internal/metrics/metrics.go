// Package metrics concentra a observabilidade do motor de bipagem.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics métricas Prometheus do serviço. Métodos são nil-safe para que os
// casos de uso funcionem sem métricas em testes.
type Metrics struct {
	// Vereditos de bipagem por resultado
	ScanOutcome *prometheus.CounterVec

	// Latência da bipagem completa (avaliação + gravação)
	ScanDuration prometheus.Histogram

	// Consultas ao diretório remoto por resultado (hit, miss, error)
	RemoteLookups *prometheus.CounterVec

	// Latência da sincronização em lote
	SyncDuration prometheus.Histogram

	// Registros gravados pela sincronização
	SyncedRecords prometheus.Counter

	// Falhas de envio de notificação (isoladas do fluxo de bipagem)
	NotifyFailures prometheus.Counter
}

// New registra e devolve as métricas do serviço.
func New() *Metrics {
	return &Metrics{
		ScanOutcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "opme_scan_outcomes_total",
			Help: "Total de vereditos de bipagem por resultado",
		}, []string{"verdict"}), // allowed, allowed_with_alert, diverted, blocked

		ScanDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "opme_scan_duration_seconds",
			Help:    "Duração da bipagem (avaliação de regras + gravação do vínculo)",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),

		RemoteLookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "opme_cps_remote_lookups_total",
			Help: "Consultas ao diretório remoto de CPS por resultado",
		}, []string{"result"}), // hit, miss, error

		SyncDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "opme_cps_sync_duration_seconds",
			Help:    "Duração da sincronização em lote do diretório de CPS",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),

		SyncedRecords: promauto.NewCounter(prometheus.CounterOpts{
			Name: "opme_cps_synced_records_total",
			Help: "Registros de CPS gravados pela sincronização",
		}),

		NotifyFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "opme_notify_failures_total",
			Help: "Falhas no envio de notificação de bipagem (best-effort)",
		}),
	}
}

// IncScanOutcome registra o veredito de uma bipagem.
func (m *Metrics) IncScanOutcome(verdict string) {
	if m != nil {
		m.ScanOutcome.WithLabelValues(verdict).Inc()
	}
}

// ObserveScanDuration registra a duração de uma bipagem.
func (m *Metrics) ObserveScanDuration(d time.Duration) {
	if m != nil {
		m.ScanDuration.Observe(d.Seconds())
	}
}

// IncRemoteLookup registra o resultado de uma consulta remota.
func (m *Metrics) IncRemoteLookup(result string) {
	if m != nil {
		m.RemoteLookups.WithLabelValues(result).Inc()
	}
}

// ObserveSyncDuration registra a duração de uma sincronização em lote.
func (m *Metrics) ObserveSyncDuration(d time.Duration) {
	if m != nil {
		m.SyncDuration.Observe(d.Seconds())
	}
}

// AddSyncedRecords soma registros gravados por uma sincronização.
func (m *Metrics) AddSyncedRecords(n int) {
	if m != nil {
		m.SyncedRecords.Add(float64(n))
	}
}

// IncNotifyFailure registra uma falha de notificação.
func (m *Metrics) IncNotifyFailure() {
	if m != nil {
		m.NotifyFailures.Inc()
	}
}
