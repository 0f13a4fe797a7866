package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Evaluations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "staywithme_evaluations_total",
		Help: "Total number of escalation evaluations grouped by timing source and outcome",
	}, []string{"source", "outcome"})
	Escalations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "staywithme_escalations_total",
		Help: "Total number of committed escalation level transitions",
	}, []string{"level", "source"})
	StaleWrites = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "staywithme_stale_writes_total",
		Help: "Total number of level compare-and-set attempts lost to a concurrent writer",
	}, []string{"source"})
	Confirmations = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "staywithme_confirmations_total",
		Help: "Total number of check-in confirmations",
	})
	Dispatches = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "staywithme_dispatches_total",
		Help: "Total number of notification log entries grouped by kind and result",
	}, []string{"kind", "result"})
	DeliveryAttempts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "staywithme_delivery_attempts_total",
		Help: "Total number of message channel send attempts grouped by channel and result",
	}, []string{"channel", "result"})
	CurrentLevel = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "staywithme_current_level",
		Help: "Escalation level of the active session as last observed by the monitor",
	})
	MonitorTicks = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "staywithme_monitor_ticks_total",
		Help: "Total number of background monitor passes",
	})
)

func init() {
	prometheus.MustRegister(Evaluations)
	prometheus.MustRegister(Escalations)
	prometheus.MustRegister(StaleWrites)
	prometheus.MustRegister(Confirmations)
	prometheus.MustRegister(Dispatches)
	prometheus.MustRegister(DeliveryAttempts)
	prometheus.MustRegister(CurrentLevel)
	prometheus.MustRegister(MonitorTicks)
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

func Result(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
