package services

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for the match engine. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	transitions    *prometheus.CounterVec
	confirmations  *prometheus.CounterVec
	rejections     *prometheus.CounterVec
	mirrorFailures prometheus.Counter
	notifyFailures *prometheus.CounterVec
	reconciled     prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "touchline",
			Name:      "match_stage_transitions_total",
			Help:      "Committed match stage changes by source and target stage.",
		}, []string{"from", "to"}),
		confirmations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "touchline",
			Name:      "match_confirmations_total",
			Help:      "Committed confirm and decline calls by role.",
		}, []string{"role", "confirmed"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "touchline",
			Name:      "match_mutations_rejected_total",
			Help:      "Rejected match mutations by operation and reason.",
		}, []string{"operation", "reason"}),
		mirrorFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "touchline",
			Name:      "conversation_mirror_failures_total",
			Help:      "Conversation stage mirror writes that gave up after retries.",
		}),
		notifyFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "touchline",
			Name:      "match_notify_failures_total",
			Help:      "Notification sink failures by sink.",
		}, []string{"sink"}),
		reconciled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "touchline",
			Name:      "conversation_mirrors_reconciled_total",
			Help:      "Conversation mirrors rewritten by the reconciliation job.",
		}),
	}
	for _, c := range []prometheus.Collector{m.transitions, m.confirmations, m.rejections, m.mirrorFailures, m.notifyFailures, m.reconciled} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) recordTransition(from, to string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(from, to).Inc()
}

func (m *Metrics) recordConfirmation(role string, confirmed bool) {
	if m == nil {
		return
	}
	v := "false"
	if confirmed {
		v = "true"
	}
	m.confirmations.WithLabelValues(role, v).Inc()
}

func (m *Metrics) recordRejection(operation string, err error) {
	if m == nil {
		return
	}
	m.rejections.WithLabelValues(operation, ErrorReason(err)).Inc()
}

func (m *Metrics) recordMirrorFailure() {
	if m == nil {
		return
	}
	m.mirrorFailures.Inc()
}

func (m *Metrics) recordNotifyFailure(sink string) {
	if m == nil {
		return
	}
	m.notifyFailures.WithLabelValues(sink).Inc()
}

func (m *Metrics) recordReconciled() {
	if m == nil {
		return
	}
	m.reconciled.Inc()
}

// ErrorReason maps an engine error to its machine-readable reason code.
func ErrorReason(err error) string {
	switch {
	case errors.Is(err, ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, ErrTerminalStage):
		return "terminal_stage"
	case errors.Is(err, ErrInvalidStage):
		return "invalid_stage"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidArgument):
		return "invalid_request"
	case errors.Is(err, ErrStoreUnavailable):
		return "store_unavailable"
	}
	return "internal"
}
