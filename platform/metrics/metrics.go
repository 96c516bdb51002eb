// Package metrics holds the Prometheus collectors shared by the messaging pipeline.
// This is part of the platform layer and contains no business logic.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	global *Metrics
	once   sync.Once
)

// Metrics holds Prometheus metrics for ingress, conversation and notifications.
type Metrics struct {
	InboundMessagesTotal *prometheus.CounterVec
	DuplicatesDropped    prometheus.Counter
	StatusCallbacksTotal *prometheus.CounterVec
	TransitionsTotal     *prometheus.CounterVec
	SendFailuresTotal    *prometheus.CounterVec
	StaffAlertsTotal     *prometheus.CounterVec
	ActiveSessions       prometheus.Gauge
}

// Get returns the process-wide metrics, registering them on first use.
//
// Registration happens once so repeated construction in tests never panics
// with a duplicate collector error. All names are prefixed with "tenantbot_".
func Get() *Metrics {
	once.Do(func() {
		global = &Metrics{
			InboundMessagesTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "tenantbot_inbound_messages_total",
					Help: "Inbound webhook messages accepted for processing",
				},
				[]string{"kind"},
			),
			DuplicatesDropped: promauto.NewCounter(prometheus.CounterOpts{
				Name: "tenantbot_duplicate_messages_total",
				Help: "Inbound messages dropped as redeliveries",
			}),
			StatusCallbacksTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "tenantbot_status_callbacks_total",
					Help: "Delivery status callbacks by outcome",
				},
				[]string{"outcome"},
			),
			TransitionsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "tenantbot_transitions_total",
					Help: "Conversation state transitions",
				},
				[]string{"from", "to"},
			),
			SendFailuresTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "tenantbot_send_failures_total",
					Help: "Outbound sends that failed, by message kind",
				},
				[]string{"kind"},
			),
			StaffAlertsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "tenantbot_staff_alerts_total",
					Help: "Staff notification attempts by event and outcome",
				},
				[]string{"event", "outcome"},
			),
			ActiveSessions: promauto.NewGauge(prometheus.GaugeOpts{
				Name: "tenantbot_active_sessions",
				Help: "Conversation sessions currently held in memory",
			}),
		}
	})
	return global
}
