package rds

import (
	"context"
	"errors"
	"fmt"

	"sigs.k8s.io/controller-runtime/pkg/log"

	"otc-rds-operator/internal/domain/rds"
	"otc-rds-operator/internal/ports"
	"otc-rds-operator/pkg/drift"
	"otc-rds-operator/pkg/metrics"
)

type InstanceUseCase struct {
	repo       ports.RDSRepository
	reconciler *Reconciler
}

func NewInstanceUseCase(repo ports.RDSRepository, config *drift.Config) ports.RDSUseCase {
	return &InstanceUseCase{
		repo:       repo,
		reconciler: NewReconciler(config),
	}
}

func (uc *InstanceUseCase) Plan(ctx context.Context, instance *rds.Instance) (*rds.Plan, error) {
	plan, _, err := uc.plan(ctx, instance)
	return plan, err
}

// plan also returns the provider snapshot the plan is based on.
func (uc *InstanceUseCase) plan(ctx context.Context, instance *rds.Instance) (*rds.Plan, *rds.RemoteInstance, error) {
	logger := log.FromContext(ctx).WithValues("instance", instance.Name)

	// Set defaults before validation
	instance.SetDefaults()

	if err := instance.Validate(); err != nil {
		return nil, nil, fmt.Errorf("validation failed: %w", err)
	}

	existing, err := uc.repo.FindInstance(ctx, instance.Name, instance.Datastore.Type)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to look up instance: %w", err)
	}

	// Deletion never resolves flavors
	var catalog rds.FlavorCatalog
	if instance.State == rds.StatePresent {
		flavors, err := uc.repo.ListFlavors(ctx, instance.Datastore, instance.Region)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to list flavors: %w", err)
		}
		catalog = rds.NewFlavorCatalog(instance.Datastore, flavors)
	}

	plan, err := uc.reconciler.Reconcile(instance, existing, catalog)
	if err != nil {
		var immutable *drift.ImmutableFieldError
		if errors.As(err, &immutable) {
			for _, c := range immutable.Changes {
				metrics.RecordDrift(c.Field, string(c.Mutability))
			}
		}
		return nil, nil, err
	}

	for _, r := range plan.Resizes {
		metrics.RecordDrift(r.Field, string(drift.Resizable))
	}
	metrics.RecordPlannedAction(string(plan.Action))

	logger.V(1).Info("Planned reconciliation", "action", plan.Action, "plan", plan.String())
	return plan, existing, nil
}

func (uc *InstanceUseCase) Apply(ctx context.Context, instance *rds.Instance) (*rds.Result, error) {
	logger := log.FromContext(ctx).WithValues("instance", instance.Name)

	plan, existing, err := uc.plan(ctx, instance)
	if err != nil {
		return nil, err
	}

	result := &rds.Result{
		Changed:    plan.Changed(),
		Action:     plan.Action,
		InstanceID: plan.InstanceID,
		Instance:   existing,
	}
	if existing != nil {
		result.Status = existing.Status
	}

	switch plan.Action {
	case rds.ActionNoOp:
		if instance.State == rds.StateAbsent {
			result.Message = "instance already absent"
		} else {
			result.Message = "instance is up to date"
		}

	case rds.ActionCreate:
		logger.Info("Creating RDS instance", "flavorId", plan.FlavorID)
		created, err := uc.repo.Create(ctx, plan.Create, plan.FlavorID)
		if err != nil {
			return nil, fmt.Errorf("failed to create RDS instance: %w", err)
		}
		result.InstanceID = created.ID
		result.Status = created.Status
		result.Instance = created
		result.Message = "instance created"

	case rds.ActionDelete:
		logger.Info("Deleting RDS instance", "id", plan.InstanceID)
		if err := uc.repo.Delete(ctx, plan.InstanceID); err != nil {
			return nil, fmt.Errorf("failed to delete RDS instance: %w", err)
		}
		result.Status = rds.StatusDeleted
		result.Message = "instance deleted"

	case rds.ActionResize:
		// The provider rejects concurrent structural changes on one instance
		for _, r := range plan.Resizes {
			logger.Info("Resizing RDS instance", "id", r.InstanceID, "field", r.Field, "old", r.Old, "new", r.New)
			if err := uc.repo.Resize(ctx, r); err != nil {
				return result, fmt.Errorf("failed to resize %s: %w", r.Field, err)
			}
			result.Resizes = append(result.Resizes, r.Field)
			result.Status = rds.StatusResize
		}
		result.Message = plan.String()

	default:
		return nil, fmt.Errorf("unknown plan action %q", plan.Action)
	}

	return result, nil
}
