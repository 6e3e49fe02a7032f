package metrics

import (
	"log"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusSink implements Sink using the Prometheus client library.
// All methods are non-blocking and fire-and-forget.
// Registration errors are logged but never propagated.
type PrometheusSink struct {
	plansTotal       *prometheus.CounterVec
	planDuration     prometheus.Histogram
	planStops        prometheus.Histogram
	droppedJobsTotal prometheus.Counter

	lifecycleEventsTotal *prometheus.CounterVec

	notificationsTotal *prometheus.CounterVec
}

// NewPrometheusSink creates a new Prometheus metrics sink.
// Metrics that fail to register still return a functional sink.
func NewPrometheusSink(reg prometheus.Registerer) *PrometheusSink {
	s := &PrometheusSink{}

	s.plansTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_plans_total",
		Help: "Total number of route planning runs.",
	}, []string{"result"})
	s.planDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "dispatch_plan_duration_seconds",
		Help:    "Duration of each route planning run in seconds.",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	})
	s.planStops = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "dispatch_plan_stops",
		Help:    "Number of stops per planned route.",
		Buckets: []float64{1, 2, 3, 5, 8, 12, 20},
	})
	s.droppedJobsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dispatch_plan_dropped_jobs_total",
		Help: "Total number of jobs dropped from plans due to geocoding failures.",
	})
	s.lifecycleEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_lifecycle_events_total",
		Help: "Total number of lifecycle events by kind and outcome.",
	}, []string{"kind", "outcome"})
	s.notificationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_notifications_total",
		Help: "Total number of status-change notifications by result.",
	}, []string{"result"})

	s.register(reg, s.plansTotal, "dispatch_plans_total")
	s.register(reg, s.planDuration, "dispatch_plan_duration_seconds")
	s.register(reg, s.planStops, "dispatch_plan_stops")
	s.register(reg, s.droppedJobsTotal, "dispatch_plan_dropped_jobs_total")
	s.register(reg, s.lifecycleEventsTotal, "dispatch_lifecycle_events_total")
	s.register(reg, s.notificationsTotal, "dispatch_notifications_total")

	return s
}

func (s *PrometheusSink) register(reg prometheus.Registerer, c prometheus.Collector, name string) {
	if reg == nil {
		return
	}
	if err := reg.Register(c); err != nil {
		log.Printf("metrics: register %s failed: %v", name, err)
	}
}

func (s *PrometheusSink) PlanCompleted(duration time.Duration, stops int, dropped int, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	s.plansTotal.WithLabelValues(result).Inc()
	s.planDuration.Observe(duration.Seconds())
	if err == nil {
		s.planStops.Observe(float64(stops))
	}
	if dropped > 0 {
		s.droppedJobsTotal.Add(float64(dropped))
	}
}

func (s *PrometheusSink) LifecycleEvent(kind string, outcome string) {
	s.lifecycleEventsTotal.WithLabelValues(kind, outcome).Inc()
}

func (s *PrometheusSink) NotificationSent(ok bool) {
	result := "success"
	if !ok {
		result = "failed"
	}
	s.notificationsTotal.WithLabelValues(result).Inc()
}
