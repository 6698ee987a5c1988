package core

import (
	"fmt"
	"time"

	"otc-rds-operator/internal/domain/rds"
)

// Resource holds the fields shared by every Kubernetes style manifest.
type Resource struct {
	APIVersion string   `yaml:"apiVersion" json:"apiVersion"`
	Kind       string   `yaml:"kind" json:"kind"`
	Metadata   Metadata `yaml:"metadata" json:"metadata"`
}

// Metadata represents resource metadata
type Metadata struct {
	Name        string            `yaml:"name" json:"name"`
	Namespace   string            `yaml:"namespace,omitempty" json:"namespace,omitempty"`
	Labels      map[string]string `yaml:"labels,omitempty" json:"labels,omitempty"`
	Annotations map[string]string `yaml:"annotations,omitempty" json:"annotations,omitempty"`
}

// InstanceSpec is the spec block of an RDSInstance manifest.
type InstanceSpec struct {
	// Name defaults to metadata.name.
	Name             string             `yaml:"name,omitempty" json:"name,omitempty"`
	Datastore        rds.Datastore      `yaml:"datastore" json:"datastore"`
	Flavor           string             `yaml:"flavor" json:"flavor"`
	Volume           rds.Volume         `yaml:"volume" json:"volume"`
	Region           string             `yaml:"region,omitempty" json:"region,omitempty"`
	AvailabilityZone string             `yaml:"availabilityZone,omitempty" json:"availabilityZone,omitempty"`
	VPC              string             `yaml:"vpc,omitempty" json:"vpc,omitempty"`
	Nics             rds.Nics           `yaml:"nics,omitempty" json:"nics,omitempty"`
	SecurityGroup    rds.SecurityGroup  `yaml:"securityGroup,omitempty" json:"securityGroup,omitempty"`
	BackupStrategy   rds.BackupStrategy `yaml:"backupStrategy,omitempty" json:"backupStrategy,omitempty"`
	State            rds.State          `yaml:"state,omitempty" json:"state,omitempty"`

	// RootPassword is never written to the state.
	RootPassword string `yaml:"dbRtPd,omitempty" json:"-"`
}

// InstanceManifest is a parsed RDSInstance document.
type InstanceManifest struct {
	Resource `yaml:",inline"`
	Spec     InstanceSpec `yaml:"spec"`
}

// ProviderSpec is the spec block of an OTCProvider manifest.
type ProviderSpec struct {
	Region      string `yaml:"region,omitempty"`
	AuthURL     string `yaml:"authURL,omitempty"`
	Endpoint    string `yaml:"endpoint,omitempty"`
	DomainName  string `yaml:"domainName,omitempty"`
	ProjectName string `yaml:"projectName,omitempty"`
	ProjectID   string `yaml:"projectID,omitempty"`
	StateBucket string `yaml:"stateBucket,omitempty"`

	KeepLastManualBackup bool `yaml:"keepLastManualBackup,omitempty"`
}

// ProviderManifest is a parsed OTCProvider document.
type ProviderManifest struct {
	Resource `yaml:",inline"`
	Spec     ProviderSpec `yaml:"spec"`
}

// Manifests groups the documents of one or more manifest files by kind.
type Manifests struct {
	Instances []InstanceManifest
	Providers []ProviderManifest
}

// ToDomain converts the manifest into the desired instance.
func (m InstanceManifest) ToDomain() *rds.Instance {
	name := m.Spec.Name
	if name == "" {
		name = m.Metadata.Name
	}

	return &rds.Instance{
		Name:             name,
		Datastore:        m.Spec.Datastore,
		Flavor:           m.Spec.Flavor,
		Volume:           m.Spec.Volume,
		Region:           m.Spec.Region,
		AvailabilityZone: m.Spec.AvailabilityZone,
		VPC:              m.Spec.VPC,
		Nics:             m.Spec.Nics,
		SecurityGroup:    m.Spec.SecurityGroup,
		BackupStrategy:   m.Spec.BackupStrategy,
		RootPassword:     m.Spec.RootPassword,
		State:            m.Spec.State,
	}
}

// Append merges other into m, keeping document order.
func (m *Manifests) Append(other *Manifests) {
	m.Instances = append(m.Instances, other.Instances...)
	m.Providers = append(m.Providers, other.Providers...)
}

// ResourceState represents the state of a single resource
type ResourceState struct {
	APIVersion string       `json:"apiVersion"`
	Kind       string       `json:"kind"`
	Name       string       `json:"name"`
	Namespace  string       `json:"namespace,omitempty"`
	Spec       InstanceSpec `json:"spec"`

	InstanceID string     `json:"instanceId,omitempty"`
	Status     string     `json:"status,omitempty"`
	FlavorID   string     `json:"flavorId,omitempty"`
	Hostname   string     `json:"hostname,omitempty"`
	Port       int        `json:"port,omitempty"`
	LastAction rds.Action `json:"lastAction,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// StateFromResult builds the state of an applied manifest.
func StateFromResult(m InstanceManifest, result *rds.Result) *ResourceState {
	state := &ResourceState{
		APIVersion: m.APIVersion,
		Kind:       m.Kind,
		Name:       m.Metadata.Name,
		Namespace:  m.Metadata.Namespace,
		Spec:       m.Spec,
		InstanceID: result.InstanceID,
		Status:     result.Status,
		LastAction: result.Action,
	}
	if result.Instance != nil {
		state.FlavorID = result.Instance.FlavorID
		state.Hostname = result.Instance.Hostname
		state.Port = result.Instance.Port
	}
	return state
}

// Endpoint returns host:port, or "" before the instance has an address.
func (s *ResourceState) Endpoint() string {
	if s.Hostname == "" {
		return ""
	}
	return fmt.Sprintf("%s:%d", s.Hostname, s.Port)
}

// PlanResult represents the result of an execution plan
type PlanResult struct {
	ToCreate []PlanItem `json:"toCreate"`
	ToResize []PlanItem `json:"toResize"`
	ToDelete []PlanItem `json:"toDelete"`
	NoChange []PlanItem `json:"noChange"`
}

// PlanItem represents one instance in the plan
type PlanItem struct {
	Kind       string     `json:"kind"`
	Name       string     `json:"name"`
	Namespace  string     `json:"namespace,omitempty"`
	Action     rds.Action `json:"action"`
	InstanceID string     `json:"instanceId,omitempty"`
	FlavorID   string     `json:"flavorId,omitempty"`
	Changes    []string   `json:"changes,omitempty"`
}

// ApplyResult represents the result of an apply or delete. Items keep
// document order.
type ApplyResult struct {
	Items   []ResourceResult `json:"items"`
	Summary ApplySummary     `json:"summary"`
}

// ApplySummary counts items by outcome
type ApplySummary struct {
	Created   int `json:"created"`
	Resized   int `json:"resized"`
	Deleted   int `json:"deleted"`
	Unchanged int `json:"unchanged"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}

// ResourceResult represents the result of an operation on one instance
type ResourceResult struct {
	Kind      string      `json:"kind"`
	Name      string      `json:"name"`
	Namespace string      `json:"namespace,omitempty"`
	Result    *rds.Result `json:"result,omitempty"`
	Error     string      `json:"error,omitempty"`
}

// Changed reports whether any item changed remote state.
func (r *ApplyResult) Changed() bool {
	for _, item := range r.Items {
		if item.Result != nil && item.Result.Changed {
			return true
		}
	}
	return false
}
