// Package metrics exposes Prometheus counters for the gate, uploads and approvals.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what services depend on; Collector and Nop implement it.
type Recorder interface {
	RecordGateOutcome(outcome string)
	RecordValidatorCall(verdict string, duration time.Duration)
	RecordIncidentUpload(source string)
	RecordApprovalDecision(kind, state string)
	RecordEmail(kind string, err error)
}

// Collector records metrics into a Prometheus registry
type Collector struct {
	gateOutcomes      *prometheus.CounterVec
	validatorLatency  *prometheus.HistogramVec
	incidentUploads   *prometheus.CounterVec
	approvalDecisions *prometheus.CounterVec
	emails            *prometheus.CounterVec
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		gateOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_attendance_gate_evaluations_total",
			Help: "Attendance gate evaluations by outcome",
		}, []string{"outcome"}),
		validatorLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "portal_report_validator_duration_seconds",
			Help:    "Latency of incident report validation calls",
			Buckets: prometheus.DefBuckets,
		}, []string{"verdict"}),
		incidentUploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_incident_uploads_total",
			Help: "Incident reports created, by entry point",
		}, []string{"source"}),
		approvalDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_approval_decisions_total",
			Help: "Access requests decided, by kind and final state",
		}, []string{"kind", "state"}),
		emails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_emails_total",
			Help: "Outbound emails by kind and result",
		}, []string{"kind", "result"}),
	}

	reg.MustRegister(
		c.gateOutcomes,
		c.validatorLatency,
		c.incidentUploads,
		c.approvalDecisions,
		c.emails,
	)

	return c
}

func (c *Collector) RecordGateOutcome(outcome string) {
	c.gateOutcomes.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordValidatorCall(verdict string, duration time.Duration) {
	c.validatorLatency.WithLabelValues(verdict).Observe(duration.Seconds())
}

func (c *Collector) RecordIncidentUpload(source string) {
	c.incidentUploads.WithLabelValues(source).Inc()
}

func (c *Collector) RecordApprovalDecision(kind, state string) {
	c.approvalDecisions.WithLabelValues(kind, state).Inc()
}

func (c *Collector) RecordEmail(kind string, err error) {
	result := "sent"
	if err != nil {
		result = "failed"
	}
	c.emails.WithLabelValues(kind, result).Inc()
}

// Nop discards everything
type Nop struct{}

func (Nop) RecordGateOutcome(string)                  {}
func (Nop) RecordValidatorCall(string, time.Duration) {}
func (Nop) RecordIncidentUpload(string)               {}
func (Nop) RecordApprovalDecision(string, string)     {}
func (Nop) RecordEmail(string, error)                 {}

// Handler serves the registry for Prometheus scraping
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
