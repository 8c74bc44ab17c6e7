package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "zeelus"

// Registry holds every Zeelus collector. It is served on /metrics.
var Registry = prometheus.NewRegistry()

// AppInfo is always 1; build information lives in the labels.
var AppInfo = promauto.With(Registry).NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "app_info",
		Help:      "Application version information (always set to 1, version info in labels)",
	},
	[]string{"version", "commit", "build_date"},
)

// AuthAttempts counts signups, logins and token checks by outcome.
var AuthAttempts = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_attempts_total",
		Help:      "Authentication attempts by kind and outcome",
	},
	[]string{"kind", "outcome"}, // kind: signup|login|token, outcome: success|failure
)

// DomainWrites counts successful mutations of events and bookings.
var DomainWrites = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "domain_writes_total",
		Help:      "Successful writes by resource and action",
	},
	[]string{"resource", "action"},
)

var EmailsSent = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "emails_total",
		Help:      "Notification emails by template and result",
	},
	[]string{"template", "result"}, // result: sent|failed|skipped
)

// Init registers the runtime collectors and records build information.
func Init(version, commit, buildDate string) {
	Registry.MustRegister(collectors.NewGoCollector())
	Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	AppInfo.WithLabelValues(version, commit, buildDate).Set(1)
}
