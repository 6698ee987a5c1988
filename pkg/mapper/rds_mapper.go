package mapper

import (
	"errors"
	"time"

	"k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	rdsv1alpha1 "otc-rds-operator/api/v1alpha1"
	"otc-rds-operator/internal/domain/rds"
	"otc-rds-operator/pkg/drift"
)

// ConditionReady is the condition type kept on every RDSInstance.
const ConditionReady = "Ready"

// CRToDomainRDSInstance converts a CR to a domain RDS instance.
// The root password is resolved by the controller from the referenced secret.
func CRToDomainRDSInstance(cr *rdsv1alpha1.RDSInstance, rootPassword string) *rds.Instance {
	instance := &rds.Instance{
		Name: cr.Spec.Name,
		Datastore: rds.Datastore{
			Type:    cr.Spec.Datastore.Type,
			Version: cr.Spec.Datastore.Version,
		},
		Flavor: cr.Spec.Flavor,
		Volume: rds.Volume{
			Type: cr.Spec.Volume.Type,
			Size: cr.Spec.Volume.Size,
		},
		Region:           cr.Spec.Region,
		AvailabilityZone: cr.Spec.AvailabilityZone,
		VPC:              cr.Spec.VPC,
		Nics:             rds.Nics{SubnetID: cr.Spec.SubnetID},
		SecurityGroup:    rds.SecurityGroup{ID: cr.Spec.SecurityGroupID},
		BackupStrategy: rds.BackupStrategy{
			StartTime: cr.Spec.BackupStrategy.StartTime,
			KeepDays:  cr.Spec.BackupStrategy.KeepDays,
		},
		RootPassword: rootPassword,
		State:        rds.StatePresent,
	}

	// A CR being deleted with the Delete policy asks for absence
	if !cr.DeletionTimestamp.IsZero() {
		instance.State = rds.StateAbsent
	}

	return instance
}

// DriftConfig builds the drift configuration of a CR.
func DriftConfig(cr *rdsv1alpha1.RDSInstance) *drift.Config {
	return &drift.Config{IgnoreFields: cr.Spec.IgnoreDriftFields}
}

// UpdateCRStatusFromResult updates the CR status from the outcome of Apply.
func UpdateCRStatusFromResult(cr *rdsv1alpha1.RDSInstance, result *rds.Result) {
	cr.Status.InstanceID = result.InstanceID
	cr.Status.Status = result.Status
	cr.Status.LastAction = string(result.Action)
	cr.Status.Drift = nil

	if remote := result.Instance; remote != nil {
		cr.Status.Hostname = remote.Hostname
		cr.Status.Port = remote.Port
		cr.Status.FlavorID = remote.FlavorID
		cr.Status.VolumeSize = remote.Volume.Size
	}

	// Set ready status based on instance status
	cr.Status.Ready = result.Status == rds.StatusActive

	now := metav1.NewTime(time.Now())
	cr.Status.LastSyncTime = &now

	updateRDSConditions(cr, result.Status)
}

// UpdateCRStatusFromError records a failed reconciliation. Immutable drift is
// copied into the status so users can see which fields to revert.
func UpdateCRStatusFromError(cr *rdsv1alpha1.RDSInstance, err error) {
	cr.Status.Ready = false
	cr.Status.Drift = nil

	var immutable *drift.ImmutableFieldError
	if errors.As(err, &immutable) {
		for _, c := range immutable.Changes {
			cr.Status.Drift = append(cr.Status.Drift, rdsv1alpha1.DriftDetail{
				Field:      c.Field,
				Expected:   c.New,
				Actual:     c.Old,
				Mutability: string(c.Mutability),
			})
		}
		setReadyCondition(cr, metav1.ConditionFalse, "ImmutableFieldChanged", err.Error())
		return
	}

	setReadyCondition(cr, metav1.ConditionFalse, "ReconcileFailed", err.Error())
}

func updateRDSConditions(cr *rdsv1alpha1.RDSInstance, status string) {
	// Determine condition status based on instance status
	var conditionStatus metav1.ConditionStatus
	var reason, message string

	switch status {
	case rds.StatusActive:
		conditionStatus = metav1.ConditionTrue
		reason = "InstanceAvailable"
		message = "RDS instance is available and ready"
	case rds.StatusBuild:
		conditionStatus = metav1.ConditionFalse
		reason = "InstanceCreating"
		message = "RDS instance is being created"
	case rds.StatusResize:
		conditionStatus = metav1.ConditionFalse
		reason = "InstanceResizing"
		message = "RDS instance is being resized"
	case rds.StatusDeleted:
		conditionStatus = metav1.ConditionFalse
		reason = "InstanceDeleted"
		message = "RDS instance has been deleted"
	case rds.StatusFailed:
		conditionStatus = metav1.ConditionFalse
		reason = "InstanceFailed"
		message = "RDS instance is in a failed state"
	default:
		conditionStatus = metav1.ConditionUnknown
		reason = "UnknownStatus"
		message = "RDS instance status is " + status
	}

	setReadyCondition(cr, conditionStatus, reason, message)
}

// setReadyCondition only moves LastTransitionTime when the status changes.
func setReadyCondition(cr *rdsv1alpha1.RDSInstance, status metav1.ConditionStatus, reason, message string) {
	meta.SetStatusCondition(&cr.Status.Conditions, metav1.Condition{
		Type:               ConditionReady,
		Status:             status,
		ObservedGeneration: cr.Generation,
		Reason:             reason,
		Message:            message,
	})
}
