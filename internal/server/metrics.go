package server

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/matheuscscp/declarative-oauth2/internal/constants"
)

const (
	phaseConsent  = "consent"
	phaseCallback = "callback"

	resultSuccess  = "success"
	resultDeclined = "declined"
	resultError    = "error"
)

type flowMetrics struct {
	flowsTotal *prometheus.CounterVec
}

func newFlowMetrics(promRegisterer prometheus.Registerer) *flowMetrics {
	flowsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "declarative_oauth2_flows_total",
		Help: "Number of declarative OAuth 2.0 flow phases by provider and result",
	}, []string{"provider", "phase", "result"})
	promRegisterer.MustRegister(flowsTotal)
	return &flowMetrics{flowsTotal: flowsTotal}
}

func (m *flowMetrics) observe(provider, phase, result string) {
	m.flowsTotal.WithLabelValues(provider, phase, result).Inc()
}

// outputResult classifies a completed flow output.
func outputResult(output map[string]any) string {
	if ok, isBool := output[constants.OutputRequestSucceeded].(bool); isBool && !ok {
		return resultDeclined
	}
	return resultSuccess
}
