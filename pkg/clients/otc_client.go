package clients

import (
	"context"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/controller-runtime/pkg/client"

	rdsv1alpha1 "otc-rds-operator/api/v1alpha1"
	"otc-rds-operator/internal/adapters/otc"
	otcrds "otc-rds-operator/internal/adapters/otc/rds"
	"otc-rds-operator/internal/ports"
	rdsuc "otc-rds-operator/internal/usecases/rds"
	"otc-rds-operator/pkg/drift"
)

// Keys read from the credentials secret of an OTCProvider.
const (
	SecretKeyUsername = "OS_USERNAME"
	SecretKeyPassword = "OS_PASSWORD"
)

// OTCClientFactory creates OTC service clients from OTCProvider config
type OTCClientFactory struct {
	k8sClient client.Client
}

// NewOTCClientFactory creates a new factory
func NewOTCClientFactory(k8sClient client.Client) *OTCClientFactory {
	return &OTCClientFactory{
		k8sClient: k8sClient,
	}
}

// GetOTCConfig builds the OTC config from an OTCProvider and its credentials secret
func (f *OTCClientFactory) GetOTCConfig(ctx context.Context, provider *rdsv1alpha1.OTCProvider) (otc.Config, error) {
	cfg := otc.Config{
		AuthURL:     provider.Spec.AuthURL,
		DomainName:  provider.Spec.DomainName,
		ProjectName: provider.Spec.ProjectName,
		ProjectID:   provider.Spec.ProjectID,
		Region:      provider.Spec.Region,
		Endpoint:    provider.Spec.Endpoint,

		KeepLastManualBackup: provider.Spec.KeepLastManualBackup,
	}

	// Without a secret the operator's own OS_* environment is used
	if provider.Spec.CredentialsSecret == nil {
		return cfg, nil
	}

	namespace := provider.Spec.CredentialsSecret.Namespace
	if namespace == "" {
		namespace = provider.Namespace
	}

	secret := &corev1.Secret{}
	if err := f.k8sClient.Get(ctx, types.NamespacedName{
		Name:      provider.Spec.CredentialsSecret.Name,
		Namespace: namespace,
	}, secret); err != nil {
		return cfg, fmt.Errorf("failed to get credentials secret: %w", err)
	}

	cfg.Username = string(secret.Data[SecretKeyUsername])
	cfg.Password = string(secret.Data[SecretKeyPassword])

	if cfg.Username == "" || cfg.Password == "" {
		return cfg, fmt.Errorf("%s or %s not found in secret", SecretKeyUsername, SecretKeyPassword)
	}

	return cfg, nil
}

// GetOTCConfigFromProviderRef gets OTC config from a provider reference
func (f *OTCClientFactory) GetOTCConfigFromProviderRef(ctx context.Context, namespace string, providerRef rdsv1alpha1.ProviderReference) (otc.Config, *rdsv1alpha1.OTCProvider, error) {
	// Determine provider namespace
	providerNamespace := providerRef.Namespace
	if providerNamespace == "" {
		providerNamespace = namespace
	}

	provider := &rdsv1alpha1.OTCProvider{}
	if err := f.k8sClient.Get(ctx, types.NamespacedName{
		Name:      providerRef.Name,
		Namespace: providerNamespace,
	}, provider); err != nil {
		return otc.Config{}, nil, fmt.Errorf("failed to get OTCProvider: %w", err)
	}

	if !provider.Status.Ready {
		return otc.Config{}, provider, fmt.Errorf("OTCProvider %s is not ready", provider.Name)
	}

	cfg, err := f.GetOTCConfig(ctx, provider)
	if err != nil {
		return otc.Config{}, provider, err
	}

	return cfg, provider, nil
}

// Verify authenticates with the provider's credentials
func (f *OTCClientFactory) Verify(ctx context.Context, provider *rdsv1alpha1.OTCProvider) error {
	cfg, err := f.GetOTCConfig(ctx, provider)
	if err != nil {
		return err
	}

	_, err = otc.NewRDSClient(ctx, cfg)
	return err
}

// GetRDSUseCase creates RDS use case from provider reference
func (f *OTCClientFactory) GetRDSUseCase(ctx context.Context, providerRef rdsv1alpha1.ProviderReference, namespace string, driftConfig *drift.Config) (ports.RDSUseCase, error) {
	cfg, _, err := f.GetOTCConfigFromProviderRef(ctx, namespace, providerRef)
	if err != nil {
		return nil, fmt.Errorf("failed to get OTC config: %w", err)
	}

	serviceClient, err := otc.NewRDSClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create RDS client: %w", err)
	}

	// Create RDS repository
	rdsRepo := otcrds.NewRepository(serviceClient, otcrds.Options{
		KeepLastManualBackup: cfg.KeepLastManualBackup,
	})

	// Create and return RDS use case
	return rdsuc.NewInstanceUseCase(rdsRepo, driftConfig), nil
}
