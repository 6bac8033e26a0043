package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Fallback reasons.
const (
	ReasonNotConfigured = "no_configurado"
	ReasonCircuitOpen   = "circuito_abierto"
	ReasonRemoteError   = "error_remoto"
)

// Metrics tracks where recognition results end up. Safe on a nil receiver.
type Metrics struct {
	Stored      *prometheus.CounterVec
	Fallbacks   *prometheus.CounterVec
	CircuitOpen prometheus.Gauge
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Stored: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sacra360_results_stored_total",
			Help: "Recognition results stored, by storage target",
		}, []string{"almacenamiento"}),
		Fallbacks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sacra360_results_fallback_total",
			Help: "Results written to the local table instead of the document store",
		}, []string{"motivo"}),
		CircuitOpen: f.NewGauge(prometheus.GaugeOpts{
			Name: "sacra360_docstore_circuit_open",
			Help: "1 while calls to the document store are short-circuited",
		}),
	}
}

func (m *Metrics) IncrementStored(almacenamiento string) {
	if m == nil {
		return
	}
	m.Stored.WithLabelValues(almacenamiento).Inc()
}

func (m *Metrics) IncrementFallback(reason string) {
	if m == nil {
		return
	}
	m.Fallbacks.WithLabelValues(reason).Inc()
}

func (m *Metrics) SetCircuitOpen(open bool) {
	if m == nil {
		return
	}
	if open {
		m.CircuitOpen.Set(1)
		return
	}
	m.CircuitOpen.Set(0)
}
