package rds

import (
	"strconv"

	"otc-rds-operator/internal/domain/rds"
	"otc-rds-operator/pkg/drift"
)

// Reconciler decides which remote operations converge an instance onto its
// desired specification. It performs no I/O: the existing instance and the
// flavor catalog are fetched by the caller.
type Reconciler struct {
	detector drift.Detector
}

// NewReconciler creates a reconciler using the given drift configuration.
func NewReconciler(config *drift.Config) *Reconciler {
	return &Reconciler{detector: drift.NewDetector(config)}
}

// Reconcile returns the plan for one pass. existing is nil when the provider
// has no matching instance. The returned error is fatal and means no mutation
// may be attempted.
func (r *Reconciler) Reconcile(desired *rds.Instance, existing *rds.RemoteInstance, flavors rds.FlavorCatalog) (*rds.Plan, error) {
	if desired.State == rds.StateAbsent {
		if existing == nil {
			return &rds.Plan{Action: rds.ActionNoOp}, nil
		}
		return &rds.Plan{Action: rds.ActionDelete, InstanceID: existing.ID}, nil
	}

	flavorID, ok := flavors.Resolve(desired.Datastore.Type, desired.Datastore.Version, desired.Flavor)
	if !ok {
		return nil, &rds.FlavorNotFoundError{Flavor: desired.Flavor, Datastore: desired.Datastore}
	}

	if existing == nil {
		return &rds.Plan{Action: rds.ActionCreate, Create: desired.WithCreateDefaults(), FlavorID: flavorID}, nil
	}

	diff := r.detector.Detect(desired, existing, flavorID)
	if diff.Empty() {
		return &rds.Plan{Action: rds.ActionNoOp, InstanceID: existing.ID}, nil
	}

	if immutable := diff.Immutable(); len(immutable) > 0 {
		return nil, &drift.ImmutableFieldError{Changes: immutable}
	}

	plan := &rds.Plan{Action: rds.ActionResize, InstanceID: existing.ID}
	for _, c := range diff.Resizable() {
		resize := rds.Resize{
			InstanceID: existing.ID,
			Field:      c.Field,
			Old:        c.Old,
			New:        c.New,
		}
		switch c.Field {
		case rds.FieldFlavor:
			resize.FlavorID = flavorID
		case rds.FieldVolumeSize:
			resize.VolumeSize, _ = strconv.Atoi(c.New)
		}
		plan.Resizes = append(plan.Resizes, resize)
	}

	return plan, nil
}
