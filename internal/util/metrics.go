package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ReturnsRequestedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "returns_requested_total",
		Help: "Total number of return requests entering the pipeline",
	})

	ReturnsCompletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "returns_completed_total",
		Help: "Total number of returns completed with a label issued",
	})

	ReturnsRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "returns_rejected_total",
		Help: "Total number of returns rejected on policy",
	}, []string{"stage", "reason"})

	ReturnsFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "returns_failed_total",
		Help: "Total number of returns failed on infrastructure errors",
	}, []string{"reason"})

	IntentClassifiedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "intent_classified_total",
		Help: "Total number of classified inbound messages",
	}, []string{"intent"})

	PipelineStageLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pipeline_stage_latency_seconds",
		Help:    "Latency of each pipeline stage",
		Buckets: prometheus.DefBuckets,
	}, []string{"stage"})

	LabelsIssuedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "labels_issued_total",
		Help: "Total number of return labels issued",
	}, []string{"process_category"})

	AuditEntriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "audit_entries_total",
		Help: "Total number of audit entries recorded",
	}, []string{"outcome"})

	AuditSinkErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "audit_sink_errors_total",
		Help: "Total number of audit sink write failures",
	})

	PickupsScheduledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pickups_scheduled_total",
		Help: "Total number of carrier pickups scheduled",
	})

	RagAnswersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rag_answers_total",
		Help: "Total number of informational questions handed off",
	}, []string{"status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
