// Package metrics collects and exposes Prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is the metrics interface consumed by the service layer.
// Tests pass Nop to keep assertions free of registry state.
type Recorder interface {
	RecordRegistration(outcome string)
	RecordVerification(outcome string)
	RecordLogin(outcome string)
	RecordStepSync()
	RecordMailDelivery(ok bool)
}

// Outcome labels used across the auth counters.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// Collector implements Recorder on a Prometheus registry.
type Collector struct {
	registrations *prometheus.CounterVec
	verifications *prometheus.CounterVec
	logins        *prometheus.CounterVec
	stepSyncs     prometheus.Counter
	mailDelivery  *prometheus.CounterVec
}

// NewCollector creates a Collector and registers its metrics.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stepmates_registrations_total",
			Help: "Registration attempts by outcome.",
		}, []string{"outcome"}),
		verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stepmates_verifications_total",
			Help: "Verification-code checks by outcome.",
		}, []string{"outcome"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stepmates_logins_total",
			Help: "Login attempts by outcome.",
		}, []string{"outcome"}),
		stepSyncs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stepmates_step_syncs_total",
			Help: "Accepted step sync operations.",
		}),
		mailDelivery: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stepmates_mail_delivery_total",
			Help: "Verification-code delivery attempts by result.",
		}, []string{"result"}),
	}

	reg.MustRegister(
		c.registrations,
		c.verifications,
		c.logins,
		c.stepSyncs,
		c.mailDelivery,
	)

	return c
}

func (c *Collector) RecordRegistration(outcome string) {
	c.registrations.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordVerification(outcome string) {
	c.verifications.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordLogin(outcome string) {
	c.logins.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordStepSync() {
	c.stepSyncs.Inc()
}

func (c *Collector) RecordMailDelivery(ok bool) {
	result := "sent"
	if !ok {
		result = "failed"
	}
	c.mailDelivery.WithLabelValues(result).Inc()
}

// Handler returns the /metrics endpoint for the given registry.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// Nop discards all recordings.
type Nop struct{}

func (Nop) RecordRegistration(outcome string) {}
func (Nop) RecordVerification(outcome string) {}
func (Nop) RecordLogin(outcome string)        {}
func (Nop) RecordStepSync()                   {}
func (Nop) RecordMailDelivery(ok bool)        {}
