package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks sacrament writes and the registration workflows. All methods
// are safe on a nil receiver.
type Metrics struct {
	SacramentsCreated    *prometheus.CounterVec
	DuplicatesRejected   *prometheus.CounterVec
	Registrations        *prometheus.CounterVec
	RegistrationDuration *prometheus.HistogramVec
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		SacramentsCreated: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sacra360_sacraments_created_total",
			Help: "Sacraments created, by sacrament type",
		}, []string{"tipo"}),
		DuplicatesRejected: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sacra360_duplicates_rejected_total",
			Help: "Writes rejected because the record already exists",
		}, []string{"entidad"}),
		Registrations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sacra360_registrations_total",
			Help: "Compound registrations by kind and outcome",
		}, []string{"kind", "outcome"}),
		RegistrationDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sacra360_registration_duration_seconds",
			Help:    "Duration of compound registration transactions",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"kind"}),
	}
}

func (m *Metrics) IncrementSacramentCreated(tipo string) {
	if m == nil {
		return
	}
	m.SacramentsCreated.WithLabelValues(tipo).Inc()
}

func (m *Metrics) IncrementDuplicate(entidad string) {
	if m == nil {
		return
	}
	m.DuplicatesRejected.WithLabelValues(entidad).Inc()
}

// ObserveRegistration records one finished registration. Call with the time
// the workflow started.
func (m *Metrics) ObserveRegistration(kind string, err error, start time.Time) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.Registrations.WithLabelValues(kind, outcome).Inc()
	m.RegistrationDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}
