package v1alpha1

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// OTCProviderSpec defines the desired state of OTCProvider
type OTCProviderSpec struct {
	// Region, e.g. eu-de
	// +kubebuilder:validation:Required
	Region string `json:"region"`

	// AuthURL is the keystone endpoint
	// +kubebuilder:default="https://iam.eu-de.otc.t-systems.com/v3"
	// +optional
	AuthURL string `json:"authURL,omitempty"`

	// Endpoint overrides the RDS endpoint. It may contain two %s
	// placeholders for region and project id.
	// +optional
	Endpoint string `json:"endpoint,omitempty"`

	// +optional
	DomainName string `json:"domainName,omitempty"`

	// +optional
	ProjectName string `json:"projectName,omitempty"`

	// +optional
	ProjectID string `json:"projectID,omitempty"`

	// KeepLastManualBackup keeps the last manual backup when an RDSInstance
	// using this provider is deleted
	// +optional
	KeepLastManualBackup bool `json:"keepLastManualBackup,omitempty"`

	// CredentialsSecret references a Secret with OS_USERNAME and OS_PASSWORD keys
	// +optional
	CredentialsSecret *CredentialsSecretRef `json:"credentialsSecret,omitempty"`
}

// CredentialsSecretRef references a Secret containing OTC credentials
type CredentialsSecretRef struct {
	// Name of the Secret
	Name string `json:"name"`

	// Namespace of the Secret
	// +optional
	Namespace string `json:"namespace,omitempty"`
}

// OTCProviderStatus defines the observed state of OTCProvider
type OTCProviderStatus struct {
	// Conditions represent the latest available observations of the provider's state
	// +optional
	Conditions []metav1.Condition `json:"conditions,omitempty"`

	// Ready indicates if the provider is ready to provision resources
	// +optional
	Ready bool `json:"ready,omitempty"`

	// LastAuthenticationTime is the timestamp of the last successful authentication
	// +optional
	LastAuthenticationTime *metav1.Time `json:"lastAuthenticationTime,omitempty"`
}

// +kubebuilder:object:root=true
// +kubebuilder:subresource:status
// +kubebuilder:resource:scope=Namespaced,shortName=otcp
// +kubebuilder:printcolumn:name="Region",type=string,JSONPath=`.spec.region`
// +kubebuilder:printcolumn:name="Ready",type=boolean,JSONPath=`.status.ready`
// +kubebuilder:printcolumn:name="Age",type=date,JSONPath=`.metadata.creationTimestamp`

// OTCProvider is the Schema for the otcproviders API
type OTCProvider struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   OTCProviderSpec   `json:"spec,omitempty"`
	Status OTCProviderStatus `json:"status,omitempty"`
}

// +kubebuilder:object:root=true

// OTCProviderList contains a list of OTCProvider
type OTCProviderList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []OTCProvider `json:"items"`
}

func init() {
	SchemeBuilder.Register(&OTCProvider{}, &OTCProviderList{})
}
