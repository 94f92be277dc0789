package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "premik",
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"method", "route", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "premik",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	DraftWritesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "premik",
		Name:      "draft_writes_total",
		Help:      "Draft slot writes by result.",
	}, []string{"result"})

	DraftSkippedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "premik",
		Name:      "draft_skipped_total",
		Help:      "Draft persists skipped because the serialized state was unchanged.",
	})

	SubmissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "premik",
		Name:      "submissions_total",
		Help:      "Transfer submissions by result.",
	}, []string{"result"})

	ValidationFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "premik",
		Name:      "validation_failures_total",
		Help:      "Submission attempts blocked by validation, by failure code.",
	}, []string{"code"})

	BackendRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "premik",
		Name:      "backend_requests_total",
		Help:      "Requests sent to the asset backend.",
	}, []string{"endpoint", "result"})

	LookupCacheTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "premik",
		Name:      "lookup_cache_total",
		Help:      "Lookup cache reads by outcome.",
	}, []string{"list", "outcome"})

	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "premik",
		Name:      "form_sessions_active",
		Help:      "Number of open transfer form sessions.",
	})
)
