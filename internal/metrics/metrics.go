package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	ordersSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "menupos",
			Name:      "orders_submitted_total",
			Help:      "Orders accepted by the submission gate, by outcome.",
		},
		[]string{"outcome"}, // live, offline
	)

	syncRuns = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "menupos",
			Name:      "sync_runs_total",
			Help:      "Completed reconciliation runs.",
		},
	)

	syncOrders = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "menupos",
			Name:      "sync_orders_total",
			Help:      "Queued orders processed during reconciliation, by result.",
		},
		[]string{"result"}, // success, failed
	)

	queueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "menupos",
			Name:      "queue_pending_orders",
			Help:      "Orders currently awaiting remote confirmation.",
		},
	)

	onlineState = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "menupos",
			Name:      "online",
			Help:      "1 when the remote service is believed reachable.",
		},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(ordersSubmitted, syncRuns, syncOrders, queueDepth, onlineState)
	})
}

// IncSubmitted counts a gate decision: "live" or "offline".
func IncSubmitted(outcome string) {
	ordersSubmitted.WithLabelValues(outcome).Inc()
}

// IncSyncRun counts a completed reconciliation run.
func IncSyncRun() {
	syncRuns.Inc()
}

// IncSyncOrder counts one processed queue entry: "success" or "failed".
func IncSyncOrder(result string) {
	syncOrders.WithLabelValues(result).Inc()
}

// SetQueueDepth records the current pending-order count.
func SetQueueDepth(n int) {
	queueDepth.Set(float64(n))
}

// SetOnline records the connectivity signal.
func SetOnline(online bool) {
	if online {
		onlineState.Set(1)
		return
	}
	onlineState.Set(0)
}
