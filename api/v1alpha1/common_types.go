package v1alpha1

// ProviderReference references an OTCProvider resource
type ProviderReference struct {
	// Name of the OTCProvider
	Name string `json:"name"`

	// Namespace of the OTCProvider (if different from current namespace)
	// +optional
	Namespace string `json:"namespace,omitempty"`
}

// SecretReference selects a key of a Secret in the resource namespace
type SecretReference struct {
	Name string `json:"name"`
	Key  string `json:"key"`
}

// DriftDetail represents a detected difference between desired and actual state
type DriftDetail struct {
	// Field is the path to the drifted field
	Field string `json:"field"`

	// Expected is the expected value from the CR
	Expected string `json:"expected"`

	// Actual is the current value reported by OTC
	Actual string `json:"actual"`

	// Mutability is "resizable" or "immutable"
	Mutability string `json:"mutability,omitempty"`
}
