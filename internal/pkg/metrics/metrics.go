/*
Package metrics defines the Prometheus collectors exported by the chat server.

Collectors are registered against a dedicated registry so the /metrics endpoint
only exposes chat and Go runtime series.
*/
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "minsky_chat"

// Registry is the registry all chat collectors are registered with.
var Registry = prometheus.NewRegistry()

var (
	// LiveConnections tracks currently registered connections, identified or not.
	LiveConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "live_connections",
		Help:      "Number of live chat connections.",
	})

	// OnlineUsers tracks presence directory size, including the bot entry.
	OnlineUsers = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "online_users",
		Help:      "Number of users in the presence directory.",
	})

	// MessagesTotal counts chat messages accepted for fan-out, by scope.
	MessagesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "messages_total",
		Help:      "Chat messages accepted for broadcast.",
	}, []string{"scope"})

	// DeliveriesTotal counts per-recipient deliveries, by result.
	DeliveriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "deliveries_total",
		Help:      "Per-recipient deliveries attempted by the broadcast engine.",
	}, []string{"result"})

	// ProtocolErrorsTotal counts events rejected by the session protocol, by error code.
	ProtocolErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "protocol_errors_total",
		Help:      "Inbound events rejected by the chat protocol.",
	}, []string{"code"})
)

// Scope label values.
const (
	ScopeGlobal = "global"
	ScopeGroup  = "group"
)

// Delivery result label values.
const (
	ResultDelivered = "delivered"
	ResultFailed    = "failed"
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		LiveConnections,
		OnlineUsers,
		MessagesTotal,
		DeliveriesTotal,
		ProtocolErrorsTotal,
	)
}

// Handler returns the HTTP handler serving the chat registry.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
