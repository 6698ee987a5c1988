package metrics

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/aws/smithy-go"
	"github.com/gophercloud/gophercloud/v2"
)

// stopwatch is started by every recorder constructor.
type stopwatch time.Time

func start() stopwatch { return stopwatch(time.Now()) }

func (s stopwatch) seconds() float64 { return time.Since(time.Time(s)).Seconds() }

// ReconcileMetricsRecorder times one reconcile call. Exactly one of its
// Record methods is called per call:
//
//	recorder := metrics.NewReconcileMetricsRecorder("RDSInstance")
//	if err := sync(); err != nil {
//		recorder.RecordError(metrics.ErrorTypeSyncFailed)
//		return ctrl.Result{}, err
//	}
//	recorder.RecordSuccess()
type ReconcileMetricsRecorder struct {
	resourceType string
	started      stopwatch
}

func NewReconcileMetricsRecorder(resourceType string) *ReconcileMetricsRecorder {
	return &ReconcileMetricsRecorder{resourceType: resourceType, started: start()}
}

func (r *ReconcileMetricsRecorder) RecordSuccess() {
	r.finish(ResultSuccess)
}

func (r *ReconcileMetricsRecorder) RecordError(errorType string) {
	r.finish(ResultError)
	ReconcileErrors.WithLabelValues(r.resourceType, errorType).Inc()
}

// RecordRequeue is not timed; the call did no work yet.
func (r *ReconcileMetricsRecorder) RecordRequeue() {
	ReconcileTotal.WithLabelValues(r.resourceType, ResultRequeue).Inc()
}

func (r *ReconcileMetricsRecorder) finish(result string) {
	ReconcileTotal.WithLabelValues(r.resourceType, result).Inc()
	ReconcileDuration.WithLabelValues(r.resourceType).Observe(r.started.seconds())
}

// RecordPlannedAction counts a computed plan.
func RecordPlannedAction(action string) {
	PlannedActionsTotal.WithLabelValues(action).Inc()
}

// RecordDrift counts one differing field.
func RecordDrift(field, mutability string) {
	DriftDetectedTotal.WithLabelValues(field, mutability).Inc()
}

// APIMetricsRecorder times one OTC request:
//
//	recorder := metrics.NewAPIMetricsRecorder(metrics.ServiceRDS, "CreateInstance")
//	if _, err := client.Post(ctx, url, body, &resp, nil); err != nil {
//		recorder.RecordError(err)
//		return err
//	}
//	recorder.RecordSuccess()
type APIMetricsRecorder struct {
	service   string
	operation string
	started   stopwatch
}

func NewAPIMetricsRecorder(service, operation string) *APIMetricsRecorder {
	return &APIMetricsRecorder{service: service, operation: operation, started: start()}
}

func (a *APIMetricsRecorder) RecordSuccess() {
	a.finish(ResultSuccess)
}

func (a *APIMetricsRecorder) RecordError(err error) {
	a.finish(ResultError)
	APIErrors.WithLabelValues(a.service, a.operation, ErrorCode(err)).Inc()
}

func (a *APIMetricsRecorder) finish(result string) {
	APICallsTotal.WithLabelValues(a.service, a.operation, result).Inc()
	APICallDuration.WithLabelValues(a.service, a.operation).Observe(a.started.seconds())
}

// ErrorCode returns a short label for err: the OBS error code, the code of an
// error with an ErrorCode method, the HTTP status of an OTC response, or
// "Unknown".
func ErrorCode(err error) string {
	if err == nil {
		return "Unknown"
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}

	var coded interface{ ErrorCode() string }
	if errors.As(err, &coded) {
		return coded.ErrorCode()
	}

	var respErr gophercloud.ErrUnexpectedResponseCode
	if errors.As(err, &respErr) {
		return strconv.Itoa(respErr.Actual)
	}
	var respErrPtr *gophercloud.ErrUnexpectedResponseCode
	if errors.As(err, &respErrPtr) {
		return strconv.Itoa(respErrPtr.Actual)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return "Timeout"
	}

	return "Unknown"
}

// FinalizerMetricsRecorder times the deletion run by a finalizer.
type FinalizerMetricsRecorder struct {
	resourceType string
	started      stopwatch
}

func NewFinalizerMetricsRecorder(resourceType string) *FinalizerMetricsRecorder {
	return &FinalizerMetricsRecorder{resourceType: resourceType, started: start()}
}

func (f *FinalizerMetricsRecorder) RecordSuccess() {
	f.observe()
}

func (f *FinalizerMetricsRecorder) RecordError(errorType string) {
	f.observe()
	FinalizerErrors.WithLabelValues(f.resourceType, errorType).Inc()
}

func (f *FinalizerMetricsRecorder) observe() {
	FinalizerDuration.WithLabelValues(f.resourceType).Observe(f.started.seconds())
}
