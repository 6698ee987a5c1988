package rds

import (
	"fmt"
	"strings"
)

// Action is the kind of remote mutation a plan asks for.
type Action string

const (
	ActionCreate Action = "create"
	ActionDelete Action = "delete"
	ActionResize Action = "resize"
	ActionNoOp   Action = "noop"
)

// Resizable fields.
const (
	FieldFlavor     = "flavor"
	FieldVolumeSize = "volume.size"
)

// Resize is one in-place mutation of an existing instance.
type Resize struct {
	InstanceID string
	Field      string
	Old        string
	New        string

	// FlavorID is set for flavor resizes, VolumeSize for volume resizes.
	FlavorID   string
	VolumeSize int
}

func (r Resize) String() string {
	return fmt.Sprintf("resize %s %s: %s -> %s", r.InstanceID, r.Field, r.Old, r.New)
}

// Plan is the outcome of one reconciliation pass.
type Plan struct {
	Action Action

	// Create is set for ActionCreate, together with the resolved FlavorID.
	Create   *Instance
	FlavorID string

	// InstanceID is set for ActionDelete and ActionResize.
	InstanceID string

	// Resizes are ordered by field name and must run one after another.
	Resizes []Resize
}

// Changed reports whether executing the plan mutates remote state.
func (p *Plan) Changed() bool {
	return p.Action != ActionNoOp
}

func (p *Plan) String() string {
	switch p.Action {
	case ActionCreate:
		return fmt.Sprintf("create %s (flavor %s)", p.Create.Name, p.FlavorID)
	case ActionDelete:
		return fmt.Sprintf("delete %s", p.InstanceID)
	case ActionResize:
		parts := make([]string, 0, len(p.Resizes))
		for _, r := range p.Resizes {
			parts = append(parts, r.String())
		}
		return strings.Join(parts, "; ")
	default:
		return "no changes"
	}
}

// FlavorKey identifies a size class within a datastore version.
type FlavorKey struct {
	DatastoreType    string
	DatastoreVersion string
	Flavor           string
}

// FlavorCatalog maps size classes to provider flavor ids. It is fetched
// before reconciliation so the reconciler itself never blocks.
type FlavorCatalog map[FlavorKey]string

// NewFlavorCatalog indexes provider flavors of one datastore version by size class.
func NewFlavorCatalog(ds Datastore, flavors []Flavor) FlavorCatalog {
	catalog := make(FlavorCatalog, len(flavors))
	prefix := SpecCode(ds.Type, "")
	for _, f := range flavors {
		if !strings.HasPrefix(f.SpecCode, prefix) {
			continue
		}
		key := FlavorKey{
			DatastoreType:    ds.Type,
			DatastoreVersion: ds.Version,
			Flavor:           strings.TrimPrefix(f.SpecCode, prefix),
		}
		catalog[key] = f.ID
	}
	return catalog
}

// Resolve returns the flavor id for a size class.
func (c FlavorCatalog) Resolve(datastoreType, datastoreVersion, flavor string) (string, bool) {
	id, ok := c[FlavorKey{DatastoreType: datastoreType, DatastoreVersion: datastoreVersion, Flavor: flavor}]
	return id, ok
}

// Result is what a single invocation reports back to its host: the
// ansible-style changed flag plus enough detail to explain it.
type Result struct {
	Changed    bool     `json:"changed"`
	Action     Action   `json:"action"`
	InstanceID string   `json:"id,omitempty"`
	Status     string   `json:"status,omitempty"`
	Message    string   `json:"msg"`
	Resizes    []string `json:"resizes,omitempty"`

	// Instance is the provider snapshot the plan was computed from, or the
	// created instance.
	Instance *RemoteInstance `json:"instance,omitempty"`
}
