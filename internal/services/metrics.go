package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all custom Prometheus metrics for the application
type Metrics struct {
	// Board metrics
	TasksCreated      prometheus.Counter
	TaskMoves         prometheus.Counter
	PositionRenumbers *prometheus.CounterVec
	BoardEvents       *prometheus.CounterVec

	// WebSocket metrics
	WebSocketConnections prometheus.Gauge

	// Assistant metrics
	AssistantRequests       prometheus.Counter
	AssistantRequestLatency prometheus.Histogram
	AssistantErrors         *prometheus.CounterVec
}

var globalMetrics *Metrics

// InitMetrics initializes the Prometheus metrics
func InitMetrics() *Metrics {
	metrics := &Metrics{
		TasksCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "momentum_tasks_created_total",
			Help: "Total number of tasks created",
		}),

		TaskMoves: promauto.NewCounter(prometheus.CounterOpts{
			Name: "momentum_task_moves_total",
			Help: "Total number of task reposition operations",
		}),

		// Renumbers should be rare; a climbing rate means the gap size is too small
		PositionRenumbers: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "momentum_position_renumbers_total",
			Help: "Total number of full sibling renumbers by entity kind",
		}, []string{"kind"}), // kind: "task" or "task_group"

		BoardEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "momentum_board_events_total",
			Help: "Total number of board events published by type",
		}, []string{"type"}),

		WebSocketConnections: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "momentum_websocket_connections_active",
			Help: "Number of active board WebSocket connections",
		}),

		AssistantRequests: promauto.NewCounter(prometheus.CounterOpts{
			Name: "momentum_assistant_requests_total",
			Help: "Total number of assistant chat requests processed",
		}),

		AssistantRequestLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "momentum_assistant_request_duration_seconds",
			Help:    "Assistant request latency in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60}, // LLM responses can take a while
		}),

		AssistantErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "momentum_assistant_errors_total",
			Help: "Total number of assistant errors by type",
		}, []string{"error_type"}),
	}

	globalMetrics = metrics
	return metrics
}

// GetMetrics returns the global metrics instance (may be nil in tests)
func GetMetrics() *Metrics {
	return globalMetrics
}
