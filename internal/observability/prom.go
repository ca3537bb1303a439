package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

type Prom struct {
	RequestsTotal    *prometheus.CounterVec
	RequestsDuration *prometheus.HistogramVec
	InFlight         *prometheus.GaugeVec
	// DB
	DbQueryDuration *prometheus.HistogramVec
	DbErrorsTotal   *prometheus.CounterVec

	// Registration workflow
	RegistrationsTotal  *prometheus.CounterVec
	NotificationsTotal  *prometheus.CounterVec
	NotifyDuration      *prometheus.HistogramVec
	RepairedTotal       prometheus.Counter
	RepairFailuresTotal prometheus.Counter
}

func NewProm(reg prometheus.Registerer) *Prom {
	p := &Prom{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "collabzone",
				Name:      "http_requests_total",
				Help:      "Total HTTP requests processed",
			},
			[]string{"method", "route", "status"},
		),
		RequestsDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "collabzone",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency distributions.",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"method", "route", "status"},
		),
		InFlight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "collabzone",
				Name:      "http_in_flight_requests",
				Help:      "Current number of in-flight HTTP requests.",
			},
			[]string{"method", "route"},
		),
		DbQueryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "collabzone",
				Subsystem: "db",
				Name:      "query_duration_seconds",
				Help:      "DB operation latency (logical op, not raw SQL)",
				Buckets:   []float64{0.005, 0.01, 0.02, 0.05, 0.1, 0.2, 0.35, 0.5, 1, 2, 5},
			},
			[]string{"op", "status"},
		),
		DbErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "collabzone",
				Subsystem: "db",
				Name:      "errors_total",
				Help:      "DB errors by logical op and class.",
			},
			[]string{"op", "class"},
		),
		RegistrationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "collabzone",
				Subsystem: "registrations",
				Name:      "results_total",
				Help:      "Registration submissions by outcome.",
			},
			[]string{"result"}, // result=created|invalid|conflict|error
		),
		NotificationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "collabzone",
				Subsystem: "notifications",
				Name:      "results_total",
				Help:      "Confirmation notifications by transport and outcome.",
			},
			[]string{"transport", "result"}, // result=sent|failed|dropped
		),
		NotifyDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "collabzone",
				Subsystem: "notifications",
				Name:      "send_duration_seconds",
				Help:      "Transport send latency.",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"transport"},
		),
		RepairFailuresTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "collabzone",
				Subsystem: "registrations",
				Name:      "formatted_id_repair_failures_total",
				Help:      "Records the repair pass could not update.",
			},
		),
		RepairedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "collabzone",
				Subsystem: "registrations",
				Name:      "formatted_id_repaired_total",
				Help:      "Registrations whose formatted id was attached by the repair pass.",
			},
		),
	}
	reg.MustRegister(
		p.RequestsTotal, p.RequestsDuration, p.InFlight,
		p.DbQueryDuration, p.DbErrorsTotal,
		p.RegistrationsTotal, p.NotificationsTotal, p.NotifyDuration, p.RepairedTotal, p.RepairFailuresTotal,
	)

	return p
}

func (p *Prom) GinHandleMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()

		// route template is only available after routing; best effort:
		route := ctx.FullPath()

		if route == "" {
			route = "unmatched"
		}

		method := ctx.Request.Method
		p.InFlight.WithLabelValues(method, route).Inc()
		defer p.InFlight.WithLabelValues(method, route).Dec()
		ctx.Next()

		status := strconv.Itoa(ctx.Writer.Status())
		secs := time.Since(start).Seconds()

		p.RequestsTotal.WithLabelValues(method, route, status).Inc()
		p.RequestsDuration.WithLabelValues(method, route, status).Observe(secs)
	}
}

// The helpers below are nil-safe so components can run without metrics.

func (p *Prom) ObserveRegistration(result string) {
	if p == nil {
		return
	}
	p.RegistrationsTotal.WithLabelValues(result).Inc()
}

func (p *Prom) ObserveNotification(transport, result string, d time.Duration) {
	if p == nil {
		return
	}
	p.NotificationsTotal.WithLabelValues(transport, result).Inc()
	if d > 0 {
		p.NotifyDuration.WithLabelValues(transport).Observe(d.Seconds())
	}
}

func (p *Prom) ObserveRepaired(n int) {
	if p == nil || n <= 0 {
		return
	}
	p.RepairedTotal.Add(float64(n))
}

func (p *Prom) ObserveRepairFailure() {
	if p == nil {
		return
	}
	p.RepairFailuresTotal.Inc()
}
