package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeSuccess         = "success"
	OutcomeTransportError  = "transport_error"
	OutcomeProviderError   = "provider_error"
	OutcomeValidationError = "validation_error"
	OutcomeConfigError     = "config_error"
	OutcomeChanged         = "changed"
	OutcomeUnchanged       = "unchanged"
)

var ProviderRequests = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "cloudflare_record_provider_requests_total",
		Help: "Number of requests sent to the DNS provider, by action and outcome.",
	},
	[]string{"action", "outcome"},
)

var Reconciliations = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "cloudflare_record_reconciliations_total",
		Help: "Number of reconciliations, by desired state and outcome.",
	},
	[]string{"state", "outcome"},
)

// Registry holds the collectors written by WriteTextfile. It is used instead
// of the default gatherer so the textfile carries no Go runtime metrics.
var Registry = prometheus.NewRegistry()

func InitMetrics() error {
	for _, c := range []prometheus.Collector{ProviderRequests, Reconciliations} {
		if err := Registry.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return fmt.Errorf("registering collector: %w", err)
		}
	}
	return nil
}

func ObserveProviderRequest(action, outcome string) {
	ProviderRequests.WithLabelValues(action, outcome).Inc()
}

func ObserveReconciliation(state, outcome string) {
	Reconciliations.WithLabelValues(state, outcome).Inc()
}

// WriteTextfile writes the registry in the text exposition format for the
// node exporter textfile collector. The process is one-shot, so metrics are
// left behind in a file instead of being served.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, Registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
