package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	commands = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "zvt",
			Subsystem: "client",
			Name:      "commands_total",
			Help:      "Commands sent to the terminal.",
		},
		[]string{"control_field", "outcome"},
	)
	commandDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "zvt",
			Subsystem: "client",
			Name:      "command_duration_seconds",
			Help:      "Time from command send to terminal completion.",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"control_field", "outcome"},
	)
	inboundPackages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "zvt",
			Subsystem: "client",
			Name:      "inbound_packages_total",
			Help:      "Packages received from the terminal.",
		},
		[]string{"control_field"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(commands, commandDuration, inboundPackages)
	})
}

func RecordCommand(controlField, outcome string, duration time.Duration) {
	RegisterMetrics()
	commands.WithLabelValues(controlField, outcome).Inc()
	commandDuration.WithLabelValues(controlField, outcome).Observe(duration.Seconds())
}

func RecordInbound(controlField string) {
	RegisterMetrics()
	inboundPackages.WithLabelValues(controlField).Inc()
}
