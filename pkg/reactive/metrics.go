package reactive

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts engine activity. A nil *Metrics records nothing.
type Metrics struct {
	Notifications      prometheus.Counter
	Evaluations        prometheus.Counter
	EvaluationFailures prometheus.Counter
	CallbackFailures   prometheus.Counter
	Observers          prometheus.Counter
}

// NewMetrics creates the engine counters and registers them on reg when reg
// is not nil.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Notifications: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "reactive",
			Name:      "notifications_total",
			Help:      "Watcher updates delivered by dependency notifications.",
		}),
		Evaluations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "reactive",
			Name:      "evaluations_total",
			Help:      "Watcher read function evaluations.",
		}),
		EvaluationFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "reactive",
			Name:      "evaluation_failures_total",
			Help:      "Watcher evaluations that returned an error or panicked.",
		}),
		CallbackFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "reactive",
			Name:      "callback_failures_total",
			Help:      "Watcher callbacks that returned an error or panicked.",
		}),
		Observers: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "reactive",
			Name:      "observers_total",
			Help:      "Observers attached to objects and arrays.",
		}),
	}

	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{
		m.Notifications, m.Evaluations, m.EvaluationFailures, m.CallbackFailures, m.Observers,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) notified(n int) {
	if m == nil {
		return
	}
	m.Notifications.Add(float64(n))
}

func (m *Metrics) evaluated(failed bool) {
	if m == nil {
		return
	}
	m.Evaluations.Inc()
	if failed {
		m.EvaluationFailures.Inc()
	}
}

func (m *Metrics) callbackFailed() {
	if m == nil {
		return
	}
	m.CallbackFailures.Inc()
}

func (m *Metrics) observed() {
	if m == nil {
		return
	}
	m.Observers.Inc()
}
