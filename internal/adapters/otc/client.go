// Package otc authenticates against the Open Telekom Cloud identity service
// and builds service clients for the RDS v1 API.
package otc

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gophercloud/gophercloud/v2"
	"github.com/gophercloud/gophercloud/v2/openstack"
	"github.com/gophercloud/gophercloud/v2/openstack/identity/v3/tokens"
)

// DefaultEndpointTemplate is the RDS v1 endpoint; the placeholders are the
// region and the project id.
const DefaultEndpointTemplate = "https://rds.%s.otc.t-systems.com/rds/v1/%s/"

// DefaultRegion is used when neither the configuration nor OS_REGION_NAME set one.
const DefaultRegion = "eu-de"

var ErrNoProjectID = errors.New("project id is unknown: set OS_PROJECT_ID or use a project scoped token")

// Config holds the credentials and location of the RDS service.
// Empty fields fall back to the OS_* environment.
type Config struct {
	AuthURL     string
	Username    string
	Password    string
	DomainName  string
	ProjectName string
	ProjectID   string
	Region      string

	// Endpoint overrides the RDS endpoint derived from DefaultEndpointTemplate.
	Endpoint string

	// KeepLastManualBackup keeps the last manual backup of deleted instances.
	KeepLastManualBackup bool
}

// AuthOptions merges the configuration over the OS_* environment.
func (c Config) AuthOptions() (gophercloud.AuthOptions, error) {
	opts, err := openstack.AuthOptionsFromEnv()
	if err != nil && c.AuthURL == "" {
		return gophercloud.AuthOptions{}, fmt.Errorf("failed to read OpenStack credentials: %w", err)
	}

	if c.AuthURL != "" {
		opts.IdentityEndpoint = c.AuthURL
	}
	if c.Username != "" {
		opts.Username = c.Username
	}
	if c.Password != "" {
		opts.Password = c.Password
	}
	if c.DomainName != "" {
		opts.DomainName = c.DomainName
	}
	if c.ProjectName != "" {
		opts.TenantName = c.ProjectName
	}
	if c.ProjectID != "" {
		opts.TenantID = c.ProjectID
	}

	// Tokens are re-issued transparently when they expire
	opts.AllowReauth = true

	return opts, nil
}

// NewRDSClient authenticates and returns a service client rooted at the RDS
// v1 endpoint of the configured project.
func NewRDSClient(ctx context.Context, cfg Config) (*gophercloud.ServiceClient, error) {
	opts, err := cfg.AuthOptions()
	if err != nil {
		return nil, err
	}

	provider, err := openstack.AuthenticatedClient(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to authenticate: %w", err)
	}

	projectID := cfg.ProjectID
	if projectID == "" {
		projectID = opts.TenantID
	}
	if projectID == "" {
		projectID, err = currentProjectID(provider)
		if err != nil {
			return nil, err
		}
	}

	region := cfg.Region
	if region == "" {
		region = DefaultRegion
	}

	return NewServiceClient(provider, Endpoint(cfg.Endpoint, region, projectID)), nil
}

// NewServiceClient wraps an authenticated provider for the RDS endpoint.
func NewServiceClient(provider *gophercloud.ProviderClient, endpoint string) *gophercloud.ServiceClient {
	return &gophercloud.ServiceClient{
		ProviderClient: provider,
		Endpoint:       endpoint,
		Type:           "rds",
		MoreHeaders: map[string]string{
			"X-Language": "en-us",
		},
	}
}

// Endpoint returns the RDS endpoint. An override may itself contain the
// region and project placeholders.
func Endpoint(override, region, projectID string) string {
	endpoint := DefaultEndpointTemplate
	if override != "" {
		endpoint = override
	}
	if strings.Count(endpoint, "%s") == 2 {
		endpoint = fmt.Sprintf(endpoint, region, projectID)
	}
	if !strings.HasSuffix(endpoint, "/") {
		endpoint += "/"
	}
	return endpoint
}

// currentProjectID reads the project the token is scoped to.
func currentProjectID(provider *gophercloud.ProviderClient) (string, error) {
	result, ok := provider.GetAuthResult().(tokens.CreateResult)
	if !ok {
		return "", ErrNoProjectID
	}

	project, err := result.ExtractProject()
	if err != nil {
		return "", fmt.Errorf("failed to read token project: %w", err)
	}
	if project == nil || project.ID == "" {
		return "", ErrNoProjectID
	}

	return project.ID, nil
}
