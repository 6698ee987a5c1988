package controllers

import (
	"context"
	"fmt"
	"time"

	"k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/log"

	rdsv1alpha1 "otc-rds-operator/api/v1alpha1"
	"otc-rds-operator/pkg/metrics"
)

// ProviderVerifier checks that an OTCProvider's credentials authenticate.
type ProviderVerifier interface {
	Verify(ctx context.Context, provider *rdsv1alpha1.OTCProvider) error
}

// OTCProviderReconciler reconciles an OTCProvider object
type OTCProviderReconciler struct {
	client.Client
	Scheme   *runtime.Scheme
	Verifier ProviderVerifier
}

// +kubebuilder:rbac:groups=rds.otc-operator.io,resources=otcproviders,verbs=get;list;watch;create;update;patch;delete
// +kubebuilder:rbac:groups=rds.otc-operator.io,resources=otcproviders/status,verbs=get;update;patch
// +kubebuilder:rbac:groups="",resources=secrets,verbs=get;list;watch

func (r *OTCProviderReconciler) Reconcile(ctx context.Context, req ctrl.Request) (ctrl.Result, error) {
	logger := log.FromContext(ctx)
	recorder := metrics.NewAPIMetricsRecorder(metrics.ServiceIAM, "Authenticate")

	// Fetch the OTCProvider instance
	provider := &rdsv1alpha1.OTCProvider{}
	if err := r.Get(ctx, req.NamespacedName, provider); err != nil {
		if errors.IsNotFound(err) {
			return ctrl.Result{}, nil
		}
		return ctrl.Result{}, err
	}

	if err := r.Verifier.Verify(ctx, provider); err != nil {
		logger.Error(err, "Failed to authenticate")
		recorder.RecordError(err)
		return r.updateStatus(ctx, provider, false, fmt.Sprintf("Authentication failed: %v", err))
	}
	recorder.RecordSuccess()

	now := metav1.Now()
	provider.Status.LastAuthenticationTime = &now

	logger.Info("Successfully reconciled OTCProvider", "region", provider.Spec.Region)
	return r.updateStatus(ctx, provider, true, fmt.Sprintf("Successfully authenticated in %s", provider.Spec.Region))
}

func (r *OTCProviderReconciler) updateStatus(ctx context.Context, provider *rdsv1alpha1.OTCProvider, ready bool, message string) (ctrl.Result, error) {
	provider.Status.Ready = ready

	conditionStatus := metav1.ConditionTrue
	reason := "AuthenticationSucceeded"
	if !ready {
		conditionStatus = metav1.ConditionFalse
		reason = "AuthenticationFailed"
	}

	meta.SetStatusCondition(&provider.Status.Conditions, metav1.Condition{
		Type:               "Ready",
		Status:             conditionStatus,
		ObservedGeneration: provider.Generation,
		Reason:             reason,
		Message:            message,
	})

	if err := r.Status().Update(ctx, provider); err != nil {
		return ctrl.Result{}, err
	}

	// Re-verify credentials periodically, sooner after a failure
	if !ready {
		return ctrl.Result{RequeueAfter: time.Minute}, nil
	}
	return ctrl.Result{RequeueAfter: 5 * time.Minute}, nil
}

// SetupWithManager sets up the controller with the Manager.
func (r *OTCProviderReconciler) SetupWithManager(mgr ctrl.Manager) error {
	return ctrl.NewControllerManagedBy(mgr).
		For(&rdsv1alpha1.OTCProvider{}).
		Complete(r)
}
