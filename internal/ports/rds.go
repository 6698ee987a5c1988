// Package ports defines the interfaces between the RDS use cases and the
// provider adapters.
package ports

import (
	"context"

	"otc-rds-operator/internal/domain/rds"
)

// RDSRepository defines the interface for RDS operations
type RDSRepository interface {
	// FindInstance returns the instance belonging to name, or nil when there is none.
	FindInstance(ctx context.Context, name, datastoreType string) (*rds.RemoteInstance, error)
	ListFlavors(ctx context.Context, datastore rds.Datastore, region string) ([]rds.Flavor, error)
	Create(ctx context.Context, instance *rds.Instance, flavorID string) (*rds.RemoteInstance, error)
	Resize(ctx context.Context, resize rds.Resize) error
	Delete(ctx context.Context, instanceID string) error
}

// RDSUseCase defines the use case interface for RDS operations
type RDSUseCase interface {
	// Plan reports what Apply would do without changing anything.
	Plan(ctx context.Context, instance *rds.Instance) (*rds.Plan, error)

	// Apply converges the provider onto the desired instance.
	Apply(ctx context.Context, instance *rds.Instance) (*rds.Result, error)
}
