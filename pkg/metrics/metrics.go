// Package metrics defines the Prometheus collectors of the operator. They are
// registered with the controller-runtime registry and served on the manager's
// metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"sigs.k8s.io/controller-runtime/pkg/metrics"
)

// namespace prefixes every metric name.
const namespace = "otc_rds"

var (
	// ReconcileTotal counts reconcile calls. result is success, error or requeue.
	ReconcileTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reconcile",
			Name:      "total",
			Help:      "Reconcile calls by resource type and result.",
		},
		[]string{"resource_type", "result"},
	)

	ReconcileDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "reconcile",
			Name:      "duration_seconds",
			Help:      "Time spent in one reconcile call.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"resource_type"},
	)

	// ReconcileErrors counts failed reconciles by error_type, see the ErrorType constants.
	ReconcileErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reconcile",
			Name:      "errors_total",
			Help:      "Failed reconcile calls by resource type and error type.",
		},
		[]string{"resource_type", "error_type"},
	)

	// PlannedActionsTotal counts the plans computed, by action.
	PlannedActionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "plan",
			Name:      "actions_total",
			Help:      "Computed plans by action (create, delete, resize, noop).",
		},
		[]string{"action"},
	)

	// DriftDetectedTotal counts every differing field a plan was computed from.
	DriftDetectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "plan",
			Name:      "drifted_fields_total",
			Help:      "Fields differing from the desired instance, by field path and mutability.",
		},
		[]string{"field", "mutability"},
	)

	// APICallsTotal counts calls to the OTC services. service is RDS, OBS or IAM.
	APICallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "otc",
			Name:      "requests_total",
			Help:      "OTC API requests by service, operation and result.",
		},
		[]string{"service", "operation", "result"},
	)

	// The RDS API answers slowly while an instance is being built.
	APICallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "otc",
			Name:      "request_duration_seconds",
			Help:      "OTC API request latency by service and operation.",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"service", "operation"},
	)

	// APIErrors counts failed OTC calls. error_code is the HTTP status,
	// the smithy error code or WaitResponseTimeout.
	APIErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "otc",
			Name:      "request_errors_total",
			Help:      "Failed OTC API requests by service, operation and error code.",
		},
		[]string{"service", "operation", "error_code"},
	)

	FinalizerDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "finalizer",
			Name:      "duration_seconds",
			Help:      "Time spent deleting the OTC instance behind a removed resource.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"resource_type"},
	)

	FinalizerErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "finalizer",
			Name:      "errors_total",
			Help:      "Failed finalizer runs by resource type and error type.",
		},
		[]string{"resource_type", "error_type"},
	)
)

func init() {
	metrics.Registry.MustRegister(
		ReconcileTotal, ReconcileDuration, ReconcileErrors,
		PlannedActionsTotal, DriftDetectedTotal,
		APICallsTotal, APICallDuration, APIErrors,
		FinalizerDuration, FinalizerErrors,
	)
}

// error_type label values
const (
	ErrorTypeGetFailed          = "get_failed"
	ErrorTypeSyncFailed         = "sync_failed"
	ErrorTypeStatusUpdateFailed = "status_update_failed"
	ErrorTypeFinalizerFailed    = "finalizer_failed"
	ErrorTypeProviderFailed     = "provider_failed"
	ErrorTypeValidationFailed   = "validation_failed"
	ErrorTypeImmutableField     = "immutable_field"
	ErrorTypeFlavorNotFound     = "flavor_not_found"
)

// service label values
const (
	ServiceRDS = "RDS"
	ServiceOBS = "OBS"
	ServiceIAM = "IAM"
)

// result label values
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultRequeue = "requeue"
)
