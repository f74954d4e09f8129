package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is nil-safe: every recording method is a no-op on a nil receiver.
type Metrics struct {
	registry      *prometheus.Registry
	notifications *prometheus.CounterVec
	ledger        *prometheus.CounterVec
	sweeps        *prometheus.CounterVec
	mail          *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "household",
			Name:      "notifications_emitted_total",
			Help:      "Notifications emitted by kind.",
		}, []string{"kind"}),
		ledger: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "household",
			Name:      "ledger_operations_total",
			Help:      "Balance ledger operations by outcome.",
		}, []string{"operation", "outcome"}),
		sweeps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "household",
			Name:      "sweep_runs_total",
			Help:      "Periodic sweep runs by outcome.",
		}, []string{"sweep", "outcome"}),
		mail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "household",
			Name:      "mail_dispatch_total",
			Help:      "E-mail dispatch attempts by outcome.",
		}, []string{"outcome"}),
	}
	m.registry.MustRegister(
		m.notifications,
		m.ledger,
		m.sweeps,
		m.mail,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) NotificationEmitted(kind string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(kind).Inc()
}

func (m *Metrics) LedgerOperation(operation string, err error) {
	if m == nil {
		return
	}
	m.ledger.WithLabelValues(operation, outcome(err)).Inc()
}

func (m *Metrics) SweepRun(sweep string, err error) {
	if m == nil {
		return
	}
	m.sweeps.WithLabelValues(sweep, outcome(err)).Inc()
}

func (m *Metrics) MailDispatch(result string) {
	if m == nil {
		return
	}
	m.mail.WithLabelValues(result).Inc()
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
