package v1alpha1

import (
	"context"
	"fmt"

	"k8s.io/apimachinery/pkg/runtime"
	ctrl "sigs.k8s.io/controller-runtime"
	logf "sigs.k8s.io/controller-runtime/pkg/log"
	"sigs.k8s.io/controller-runtime/pkg/webhook"
	"sigs.k8s.io/controller-runtime/pkg/webhook/admission"
)

var rdsinstancelog = logf.Log.WithName("rdsinstance-resource")

// SetupRDSInstanceWebhookWithManager registers the validating webhook.
func SetupRDSInstanceWebhookWithManager(mgr ctrl.Manager) error {
	return ctrl.NewWebhookManagedBy(mgr).
		For(&RDSInstance{}).
		WithValidator(&RDSInstanceValidator{}).
		Complete()
}

// +kubebuilder:webhook:path=/validate-rds-otc-operator-io-v1alpha1-rdsinstance,mutating=false,failurePolicy=fail,sideEffects=None,groups=rds.otc-operator.io,resources=rdsinstances,verbs=create;update,versions=v1alpha1,name=vrdsinstance.kb.io,admissionReviewVersions=v1

// RDSInstanceValidator rejects specs OTC cannot converge to.
type RDSInstanceValidator struct{}

var _ webhook.CustomValidator = &RDSInstanceValidator{}

func (v *RDSInstanceValidator) ValidateCreate(_ context.Context, obj runtime.Object) (admission.Warnings, error) {
	r, err := asRDSInstance(obj)
	if err != nil {
		return nil, err
	}
	rdsinstancelog.Info("validate create", "name", r.Name)
	return r.ValidateSpec()
}

func (v *RDSInstanceValidator) ValidateUpdate(_ context.Context, oldObj, newObj runtime.Object) (admission.Warnings, error) {
	old, err := asRDSInstance(oldObj)
	if err != nil {
		return nil, err
	}
	r, err := asRDSInstance(newObj)
	if err != nil {
		return nil, err
	}
	rdsinstancelog.Info("validate update", "name", r.Name)

	if err := r.ValidateTransition(old); err != nil {
		return nil, err
	}
	return r.ValidateSpec()
}

func (v *RDSInstanceValidator) ValidateDelete(_ context.Context, obj runtime.Object) (admission.Warnings, error) {
	return nil, nil
}

func asRDSInstance(obj runtime.Object) (*RDSInstance, error) {
	r, ok := obj.(*RDSInstance)
	if !ok {
		return nil, fmt.Errorf("expected an RDSInstance but got %T", obj)
	}
	return r, nil
}

// ValidateSpec checks a single spec.
func (r *RDSInstance) ValidateSpec() (admission.Warnings, error) {
	var warnings admission.Warnings

	if r.Spec.ProviderRef.Name == "" {
		return nil, fmt.Errorf("spec.providerRef.name is required")
	}

	if r.Spec.Name == "" {
		return nil, fmt.Errorf("spec.name is required")
	}

	switch r.Spec.Datastore.Type {
	case "MySQL", "PostgreSQL", "SQLServer":
	default:
		return nil, fmt.Errorf("spec.datastore.type must be one of MySQL, PostgreSQL, SQLServer: %q", r.Spec.Datastore.Type)
	}

	if r.Spec.Datastore.Version == "" {
		return nil, fmt.Errorf("spec.datastore.version is required")
	}

	if r.Spec.Flavor == "" {
		return nil, fmt.Errorf("spec.flavor is required")
	}

	if r.Spec.Volume.Size <= 0 {
		return nil, fmt.Errorf("spec.volume.size must be a positive integer")
	}

	if r.Spec.RootPasswordSecretRef == nil {
		warnings = append(warnings, "spec.rootPasswordSecretRef not set, the instance is created without a root password")
	}

	if r.Spec.DeletionPolicy == "" {
		warnings = append(warnings, "spec.deletionPolicy not set, defaulting to 'Delete'")
	}

	return warnings, nil
}

// ValidateTransition rejects updates OTC cannot apply in place.
func (r *RDSInstance) ValidateTransition(old *RDSInstance) error {
	immutable := []struct {
		field    string
		old, new string
	}{
		{"spec.name", old.Spec.Name, r.Spec.Name},
		{"spec.datastore.type", old.Spec.Datastore.Type, r.Spec.Datastore.Type},
		{"spec.datastore.version", old.Spec.Datastore.Version, r.Spec.Datastore.Version},
		{"spec.volume.type", old.Spec.Volume.Type, r.Spec.Volume.Type},
		{"spec.region", old.Spec.Region, r.Spec.Region},
		{"spec.availabilityZone", old.Spec.AvailabilityZone, r.Spec.AvailabilityZone},
		{"spec.vpc", old.Spec.VPC, r.Spec.VPC},
		{"spec.subnetId", old.Spec.SubnetID, r.Spec.SubnetID},
		{"spec.securityGroupId", old.Spec.SecurityGroupID, r.Spec.SecurityGroupID},
	}

	for _, f := range immutable {
		if f.old != f.new {
			return fmt.Errorf("%s is immutable (is %q, want %q)", f.field, f.old, f.new)
		}
	}

	// Volumes only grow
	if r.Spec.Volume.Size < old.Spec.Volume.Size {
		return fmt.Errorf("spec.volume.size cannot shrink from %d to %d", old.Spec.Volume.Size, r.Spec.Volume.Size)
	}

	return nil
}
