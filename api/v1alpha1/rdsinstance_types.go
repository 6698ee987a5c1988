package v1alpha1

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// RDSInstanceSpec defines the desired state of RDSInstance
type RDSInstanceSpec struct {
	ProviderRef ProviderReference `json:"providerRef"`

	// Name of the instance. OTC appends "-<datastore type>-<suffix>" to it.
	// +kubebuilder:validation:Required
	// +kubebuilder:validation:MinLength=1
	Name string `json:"name"`

	Datastore DatastoreSpec `json:"datastore"`

	// Flavor is the size class, e.g. s1.medium. It resolves to the spec code
	// rds.<datastore type>.<flavor>.
	// +optional
	Flavor string `json:"flavor,omitempty"`

	// +optional
	Volume VolumeSpec `json:"volume,omitempty"`

	// +optional
	Region string `json:"region,omitempty"`

	// +optional
	AvailabilityZone string `json:"availabilityZone,omitempty"`

	// VPC id
	// +optional
	VPC string `json:"vpc,omitempty"`

	// +optional
	SubnetID string `json:"subnetId,omitempty"`

	// +optional
	SecurityGroupID string `json:"securityGroupId,omitempty"`

	// +optional
	BackupStrategy BackupStrategySpec `json:"backupStrategy,omitempty"`

	// RootPasswordSecretRef references a secret containing the root password
	// +optional
	RootPasswordSecretRef *SecretReference `json:"rootPasswordSecretRef,omitempty"`

	// IgnoreDriftFields lists field paths that may drift, e.g. "backupStrategy.*"
	// +optional
	IgnoreDriftFields []string `json:"ignoreDriftFields,omitempty"`

	// DeletionPolicy determines what happens when CR is deleted
	// +kubebuilder:validation:Enum=Delete;Retain
	// +kubebuilder:default=Delete
	// +optional
	DeletionPolicy string `json:"deletionPolicy,omitempty"`
}

type DatastoreSpec struct {
	// +kubebuilder:validation:Enum=MySQL;PostgreSQL;SQLServer
	Type string `json:"type"`

	// +optional
	Version string `json:"version,omitempty"`
}

type VolumeSpec struct {
	// Type is COMMON when left empty on create
	// +kubebuilder:validation:Enum=COMMON;ULTRAHIGH
	// +optional
	Type string `json:"type,omitempty"`

	// Size in GB
	// +kubebuilder:validation:Minimum=1
	// +optional
	Size int `json:"size,omitempty"`
}

type BackupStrategySpec struct {
	// StartTime in format hh:mm:ss
	// +optional
	StartTime string `json:"startTime,omitempty"`

	// +kubebuilder:validation:Minimum=0
	// +kubebuilder:validation:Maximum=732
	// +optional
	KeepDays int `json:"keepDays,omitempty"`
}

// RDSInstanceStatus defines the observed state of RDSInstance
type RDSInstanceStatus struct {
	Ready bool `json:"ready"`

	// InstanceID is the OTC instance id
	InstanceID string `json:"instanceId,omitempty"`

	// Status is the OTC instance status (BUILD, ACTIVE, FAILED, ...)
	Status string `json:"status,omitempty"`

	// Hostname is the connection address
	Hostname string `json:"hostname,omitempty"`

	// Port is the connection port
	Port int `json:"port,omitempty"`

	// FlavorID is the flavor the instance currently runs with
	FlavorID string `json:"flavorId,omitempty"`

	// VolumeSize in GB
	VolumeSize int `json:"volumeSize,omitempty"`

	// LastAction is the action taken by the last reconciliation
	LastAction string `json:"lastAction,omitempty"`

	// Drift lists immutable fields that differ from the desired state
	Drift []DriftDetail `json:"drift,omitempty"`

	// LastSyncTime is when the instance was last synced
	LastSyncTime *metav1.Time `json:"lastSyncTime,omitempty"`

	// Conditions represent the latest available observations
	Conditions []metav1.Condition `json:"conditions,omitempty"`
}

// +kubebuilder:object:root=true
// +kubebuilder:subresource:status
// +kubebuilder:resource:shortName=rds
// +kubebuilder:printcolumn:name="Name",type=string,JSONPath=`.spec.name`
// +kubebuilder:printcolumn:name="Datastore",type=string,JSONPath=`.spec.datastore.type`
// +kubebuilder:printcolumn:name="Flavor",type=string,JSONPath=`.spec.flavor`
// +kubebuilder:printcolumn:name="Status",type=string,JSONPath=`.status.status`
// +kubebuilder:printcolumn:name="Ready",type=boolean,JSONPath=`.status.ready`
// +kubebuilder:printcolumn:name="Age",type=date,JSONPath=`.metadata.creationTimestamp`

// RDSInstance is the Schema for the rdsinstances API
type RDSInstance struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   RDSInstanceSpec   `json:"spec,omitempty"`
	Status RDSInstanceStatus `json:"status,omitempty"`
}

// +kubebuilder:object:root=true

// RDSInstanceList contains a list of RDSInstance
type RDSInstanceList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []RDSInstance `json:"items"`
}

func init() {
	SchemeBuilder.Register(&RDSInstance{}, &RDSInstanceList{})
}
