package controllers

import (
	"context"
	"errors"
	"fmt"
	"time"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/tools/record"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/controller/controllerutil"
	"sigs.k8s.io/controller-runtime/pkg/log"

	rdsv1alpha1 "otc-rds-operator/api/v1alpha1"
	"otc-rds-operator/internal/domain/rds"
	"otc-rds-operator/internal/ports"
	"otc-rds-operator/pkg/drift"
	"otc-rds-operator/pkg/mapper"
	"otc-rds-operator/pkg/metrics"
)

const (
	rdsFinalizerName = "rds.otc-operator.io/rds-finalizer"
	resourceType     = "RDSInstance"

	// DeletionPolicyRetain keeps the OTC instance when the CR is deleted.
	DeletionPolicyRetain = "Retain"
)

// RDSUseCaseFactory builds the RDS use case for a provider reference.
type RDSUseCaseFactory interface {
	GetRDSUseCase(ctx context.Context, providerRef rdsv1alpha1.ProviderReference, namespace string, driftConfig *drift.Config) (ports.RDSUseCase, error)
}

// RDSInstanceReconciler reconciles a RDSInstance object
type RDSInstanceReconciler struct {
	client.Client
	Scheme         *runtime.Scheme
	Recorder       record.EventRecorder
	UseCaseFactory RDSUseCaseFactory

	// SyncInterval is the requeue interval of a converged instance.
	SyncInterval time.Duration
}

//+kubebuilder:rbac:groups=rds.otc-operator.io,resources=rdsinstances,verbs=get;list;watch;create;update;patch;delete
//+kubebuilder:rbac:groups=rds.otc-operator.io,resources=rdsinstances/status,verbs=get;update;patch
//+kubebuilder:rbac:groups=rds.otc-operator.io,resources=rdsinstances/finalizers,verbs=update
//+kubebuilder:rbac:groups="",resources=secrets,verbs=get;list;watch
//+kubebuilder:rbac:groups="",resources=events,verbs=create;patch

func (r *RDSInstanceReconciler) Reconcile(ctx context.Context, req ctrl.Request) (ctrl.Result, error) {
	logger := log.FromContext(ctx)
	recorder := metrics.NewReconcileMetricsRecorder(resourceType)

	// Fetch the RDSInstance instance
	rdsInstance := &rdsv1alpha1.RDSInstance{}
	if err := r.Get(ctx, req.NamespacedName, rdsInstance); err != nil {
		if apierrors.IsNotFound(err) {
			return ctrl.Result{}, nil
		}
		logger.Error(err, "Failed to get RDSInstance")
		recorder.RecordError(metrics.ErrorTypeGetFailed)
		return ctrl.Result{}, err
	}

	// Get the RDS use case
	rdsUseCase, err := r.UseCaseFactory.GetRDSUseCase(ctx, rdsInstance.Spec.ProviderRef, rdsInstance.Namespace, mapper.DriftConfig(rdsInstance))
	if err != nil {
		logger.Error(err, "Failed to get RDS use case")
		recorder.RecordError(metrics.ErrorTypeProviderFailed)
		mapper.UpdateCRStatusFromError(rdsInstance, err)
		if statusErr := r.Status().Update(ctx, rdsInstance); statusErr != nil {
			logger.Error(statusErr, "Failed to update status")
		}
		return ctrl.Result{RequeueAfter: time.Minute}, nil
	}

	// Handle deletion
	if !rdsInstance.DeletionTimestamp.IsZero() {
		return r.handleDeletion(ctx, rdsInstance, rdsUseCase)
	}

	// Add finalizer if not present
	if !controllerutil.ContainsFinalizer(rdsInstance, rdsFinalizerName) {
		controllerutil.AddFinalizer(rdsInstance, rdsFinalizerName)
		if err := r.Update(ctx, rdsInstance); err != nil {
			return ctrl.Result{}, err
		}
	}

	password, err := r.rootPassword(ctx, rdsInstance)
	if err != nil {
		logger.Error(err, "Failed to get root password secret")
		recorder.RecordError(metrics.ErrorTypeGetFailed)
		return ctrl.Result{}, err
	}

	// Convert CR to domain model
	instance := mapper.CRToDomainRDSInstance(rdsInstance, password)

	result, err := rdsUseCase.Apply(ctx, instance)
	if err != nil {
		logger.Error(err, "Failed to sync RDS instance")
		r.Recorder.Event(rdsInstance, corev1.EventTypeWarning, "SyncFailed", err.Error())

		mapper.UpdateCRStatusFromError(rdsInstance, err)
		if statusErr := r.Status().Update(ctx, rdsInstance); statusErr != nil {
			logger.Error(statusErr, "Failed to update status")
		}

		// Immutable drift needs a spec change, retrying sooner cannot help
		if errors.Is(err, drift.ErrImmutableField) {
			recorder.RecordError(metrics.ErrorTypeImmutableField)
			return ctrl.Result{RequeueAfter: r.syncInterval()}, nil
		}
		if errors.Is(err, rds.ErrFlavorNotFound) {
			recorder.RecordError(metrics.ErrorTypeFlavorNotFound)
			return ctrl.Result{RequeueAfter: r.syncInterval()}, nil
		}
		if rds.IsInvalid(err) {
			recorder.RecordError(metrics.ErrorTypeValidationFailed)
			return ctrl.Result{RequeueAfter: r.syncInterval()}, nil
		}

		recorder.RecordError(metrics.ErrorTypeSyncFailed)
		return ctrl.Result{}, err
	}

	if result.Changed {
		r.Recorder.Event(rdsInstance, corev1.EventTypeNormal, eventReason(result.Action), result.Message)
	}

	// Update CR status from domain model
	mapper.UpdateCRStatusFromResult(rdsInstance, result)

	if err := r.Status().Update(ctx, rdsInstance); err != nil {
		logger.Error(err, "Failed to update RDSInstance status")
		recorder.RecordError(metrics.ErrorTypeStatusUpdateFailed)
		return ctrl.Result{}, err
	}

	// Poll faster while OTC is still building or resizing
	if !rdsInstance.Status.Ready {
		recorder.RecordRequeue()
		return ctrl.Result{RequeueAfter: 30 * time.Second}, nil
	}

	recorder.RecordSuccess()
	return ctrl.Result{RequeueAfter: r.syncInterval()}, nil
}

func (r *RDSInstanceReconciler) handleDeletion(ctx context.Context, rdsInstance *rdsv1alpha1.RDSInstance, rdsUseCase ports.RDSUseCase) (ctrl.Result, error) {
	logger := log.FromContext(ctx)

	if !controllerutil.ContainsFinalizer(rdsInstance, rdsFinalizerName) {
		return ctrl.Result{}, nil
	}

	recorder := metrics.NewFinalizerMetricsRecorder(resourceType)

	if rdsInstance.Spec.DeletionPolicy == DeletionPolicyRetain {
		logger.Info("Retaining RDS instance", "name", rdsInstance.Spec.Name)
	} else {
		// Convert CR to domain model; a deleted CR asks for absence
		instance := mapper.CRToDomainRDSInstance(rdsInstance, "")

		result, err := rdsUseCase.Apply(ctx, instance)
		if err != nil {
			logger.Error(err, "Failed to delete RDS instance")
			recorder.RecordError(metrics.ErrorTypeFinalizerFailed)
			return ctrl.Result{}, err
		}
		if result.Changed {
			r.Recorder.Event(rdsInstance, corev1.EventTypeNormal, "Deleted", result.Message)
		}
	}

	// Remove finalizer
	controllerutil.RemoveFinalizer(rdsInstance, rdsFinalizerName)
	if err := r.Update(ctx, rdsInstance); err != nil {
		recorder.RecordError(metrics.ErrorTypeFinalizerFailed)
		return ctrl.Result{}, err
	}

	recorder.RecordSuccess()
	return ctrl.Result{}, nil
}

// rootPassword reads the referenced root password, if any
func (r *RDSInstanceReconciler) rootPassword(ctx context.Context, rdsInstance *rdsv1alpha1.RDSInstance) (string, error) {
	ref := rdsInstance.Spec.RootPasswordSecretRef
	if ref == nil {
		return "", nil
	}

	secret := &corev1.Secret{}
	if err := r.Get(ctx, types.NamespacedName{
		Name:      ref.Name,
		Namespace: rdsInstance.Namespace,
	}, secret); err != nil {
		return "", err
	}

	password, ok := secret.Data[ref.Key]
	if !ok {
		return "", fmt.Errorf("key %s not found in secret %s", ref.Key, ref.Name)
	}

	return string(password), nil
}

func (r *RDSInstanceReconciler) syncInterval() time.Duration {
	if r.SyncInterval > 0 {
		return r.SyncInterval
	}
	return 5 * time.Minute
}

func eventReason(action rds.Action) string {
	switch action {
	case rds.ActionCreate:
		return "Created"
	case rds.ActionResize:
		return "Resized"
	case rds.ActionDelete:
		return "Deleted"
	default:
		return "Synced"
	}
}

// SetupWithManager sets up the controller with the Manager.
func (r *RDSInstanceReconciler) SetupWithManager(mgr ctrl.Manager) error {
	return ctrl.NewControllerManagedBy(mgr).
		For(&rdsv1alpha1.RDSInstance{}).
		Complete(r)
}
