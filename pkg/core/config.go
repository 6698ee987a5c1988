package core

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"

	"otc-rds-operator/internal/adapters/otc"
	"otc-rds-operator/internal/ports"
)

// DefaultOBSEndpointTemplate is the S3 compatible endpoint of OBS in a region.
const DefaultOBSEndpointTemplate = "https://obs.%s.otc.t-systems.com"

// OBSConfig configures the optional OBS state backend.
type OBSConfig struct {
	Bucket          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
}

// UseCaseFactory builds the RDS use case for a provider configuration.
type UseCaseFactory func(ctx context.Context, provider *ProviderConfig) (ports.RDSUseCase, error)

// StateFactory builds the state backend for a provider configuration.
type StateFactory func(ctx context.Context, provider *ProviderConfig, stateDir string) (StateStore, error)

// ProviderConfig holds the OTCProvider resource or flag configuration
type ProviderConfig struct {
	Name string
	OTC  otc.Config
	OBS  OBSConfig
}

// NewProviderConfigFromEnv creates provider configuration from environment
// variables. Username, password and domain are read later by gophercloud
// from the OS_* variables.
func NewProviderConfigFromEnv() *ProviderConfig {
	return &ProviderConfig{
		Name: "env",
		OTC: otc.Config{
			Region:    getEnvOrDefault("OS_REGION_NAME", otc.DefaultRegion),
			ProjectID: os.Getenv("OS_PROJECT_ID"),
			Endpoint:  os.Getenv("OTC_RDS_ENDPOINT"),

			KeepLastManualBackup: envBool("OTC_KEEP_LAST_BACKUP"),
		},
		OBS: OBSConfig{
			Bucket:          os.Getenv("OTC_STATE_BUCKET"),
			Endpoint:        os.Getenv("OBS_ENDPOINT"),
			AccessKeyID:     firstEnv("OBS_ACCESS_KEY_ID", "AWS_ACCESS_KEY_ID"),
			SecretAccessKey: firstEnv("OBS_SECRET_ACCESS_KEY", "AWS_SECRET_ACCESS_KEY"),
			SessionToken:    firstEnv("OBS_SESSION_TOKEN", "AWS_SESSION_TOKEN"),
		},
	}
}

// NewProviderConfigFromManifest creates provider configuration from an
// OTCProvider manifest.
func NewProviderConfigFromManifest(m ProviderManifest) *ProviderConfig {
	return &ProviderConfig{
		Name: m.Metadata.Name,
		OTC: otc.Config{
			AuthURL:     m.Spec.AuthURL,
			DomainName:  m.Spec.DomainName,
			ProjectName: m.Spec.ProjectName,
			ProjectID:   m.Spec.ProjectID,
			Region:      m.Spec.Region,
			Endpoint:    m.Spec.Endpoint,

			KeepLastManualBackup: m.Spec.KeepLastManualBackup,
		},
		OBS: OBSConfig{
			Bucket: m.Spec.StateBucket,
		},
	}
}

// Merge overlays the non-empty fields of other.
func (p *ProviderConfig) Merge(other *ProviderConfig) {
	if other.Name != "" {
		p.Name = other.Name
	}
	setIfNotEmpty(&p.OTC.AuthURL, other.OTC.AuthURL)
	setIfNotEmpty(&p.OTC.DomainName, other.OTC.DomainName)
	setIfNotEmpty(&p.OTC.ProjectName, other.OTC.ProjectName)
	setIfNotEmpty(&p.OTC.ProjectID, other.OTC.ProjectID)
	setIfNotEmpty(&p.OTC.Region, other.OTC.Region)
	setIfNotEmpty(&p.OTC.Endpoint, other.OTC.Endpoint)
	setIfNotEmpty(&p.OBS.Bucket, other.OBS.Bucket)
	setIfNotEmpty(&p.OBS.Endpoint, other.OBS.Endpoint)

	// Layers can only turn it on
	if other.OTC.KeepLastManualBackup {
		p.OTC.KeepLastManualBackup = true
	}
}

// OBSEndpoint returns the configured OBS endpoint or the regional default.
func (p *ProviderConfig) OBSEndpoint() string {
	if p.OBS.Endpoint != "" {
		return p.OBS.Endpoint
	}
	return fmt.Sprintf(DefaultOBSEndpointTemplate, p.OTC.Region)
}

// GetOBSConfig returns an AWS SDK configuration pointed at OBS
func (p *ProviderConfig) GetOBSConfig(ctx context.Context) (aws.Config, error) {
	var opts []func(*config.LoadOptions) error

	opts = append(opts, config.WithRegion(p.OTC.Region))

	// Use static credentials if provided
	if p.OBS.AccessKeyID != "" && p.OBS.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				p.OBS.AccessKeyID,
				p.OBS.SecretAccessKey,
				p.OBS.SessionToken,
			),
		))
	}
	// Otherwise the default chain applies (env vars, shared profile)

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load OBS configuration: %w", err)
	}

	awsCfg.BaseEndpoint = aws.String(p.OBSEndpoint())

	return awsCfg, nil
}

func setIfNotEmpty(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if value := os.Getenv(key); value != "" {
			return value
		}
	}
	return ""
}

// envBool treats unset and unparsable values as false.
func envBool(key string) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	return err == nil && v
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
