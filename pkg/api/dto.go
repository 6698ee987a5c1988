package api

import (
	"encoding/json"
	"time"

	"otc-rds-operator/internal/domain/rds"
	"otc-rds-operator/pkg/core"
)

// ResourcesRequest carries manifests either as JSON objects or as a YAML
// stream. Plan ignores DryRun.
type ResourcesRequest struct {
	Resources []json.RawMessage `json:"resources,omitempty"`
	YAML      string            `json:"yaml,omitempty"`
	DryRun    bool              `json:"dryRun,omitempty"`
}

// APIResponse is the envelope of every response.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

type PlanResponse struct {
	ToCreate []core.PlanItem `json:"toCreate"`
	ToResize []core.PlanItem `json:"toResize"`
	ToDelete []core.PlanItem `json:"toDelete"`
	NoChange []core.PlanItem `json:"noChange"`
	Summary  PlanSummary     `json:"summary"`
}

type PlanSummary struct {
	Create   int `json:"create"`
	Resize   int `json:"resize"`
	Delete   int `json:"delete"`
	NoChange int `json:"noChange"`
}

// ApplyResponse is returned by apply and delete.
type ApplyResponse struct {
	DryRun  bool                  `json:"dryRun,omitempty"`
	Changed bool                  `json:"changed"`
	Items   []core.ResourceResult `json:"items"`
	Summary core.ApplySummary     `json:"summary"`
}

type GetResponse struct {
	Resources []ResourceStateResponse `json:"resources"`
	Count     int                     `json:"count"`
}

// ResourceStateResponse is a state entry without its specification.
type ResourceStateResponse struct {
	Kind       string     `json:"kind"`
	Name       string     `json:"name"`
	Namespace  string     `json:"namespace,omitempty"`
	InstanceID string     `json:"instanceId,omitempty"`
	Status     string     `json:"status,omitempty"`
	Datastore  string     `json:"datastore,omitempty"`
	Flavor     string     `json:"flavor,omitempty"`
	VolumeSize int        `json:"volumeSize,omitempty"`
	Endpoint   string     `json:"endpoint,omitempty"`
	LastAction rds.Action `json:"lastAction,omitempty"`
	CreatedAt  string     `json:"createdAt"`
	UpdatedAt  string     `json:"updatedAt"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Timestamp string `json:"timestamp"`
}

// OTCConfigRequest replaces the credentials the server talks to OTC with.
type OTCConfigRequest struct {
	Region      string `json:"region"`
	AuthURL     string `json:"authUrl,omitempty"`
	DomainName  string `json:"domainName,omitempty"`
	ProjectName string `json:"projectName,omitempty"`
	ProjectID   string `json:"projectId,omitempty"`
	Username    string `json:"username,omitempty"`
	Password    string `json:"password,omitempty"`
	Endpoint    string `json:"endpoint,omitempty"`
}

// OTCConfigResponse never includes the password.
type OTCConfigResponse struct {
	Region      string `json:"region"`
	AuthURL     string `json:"authUrl,omitempty"`
	DomainName  string `json:"domainName,omitempty"`
	ProjectName string `json:"projectName,omitempty"`
	ProjectID   string `json:"projectId,omitempty"`
	Endpoint    string `json:"endpoint,omitempty"`
	StateBucket string `json:"stateBucket,omitempty"`
	Configured  bool   `json:"configured"`
	Message     string `json:"message"`
}

func NewSuccessResponse(data interface{}) APIResponse {
	return APIResponse{Success: true, Data: data}
}

func NewErrorResponse(code, message, details string) APIResponse {
	return APIResponse{
		Success: false,
		Error: &APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

func ToPlanResponse(result *core.PlanResult) PlanResponse {
	return PlanResponse{
		ToCreate: nonNil(result.ToCreate),
		ToResize: nonNil(result.ToResize),
		ToDelete: nonNil(result.ToDelete),
		NoChange: nonNil(result.NoChange),
		Summary: PlanSummary{
			Create:   len(result.ToCreate),
			Resize:   len(result.ToResize),
			Delete:   len(result.ToDelete),
			NoChange: len(result.NoChange),
		},
	}
}

func ToApplyResponse(result *core.ApplyResult, dryRun bool) ApplyResponse {
	items := result.Items
	if items == nil {
		items = []core.ResourceResult{}
	}
	return ApplyResponse{
		DryRun:  dryRun,
		Changed: result.Changed(),
		Items:   items,
		Summary: result.Summary,
	}
}

func ToGetResponse(states []*core.ResourceState) GetResponse {
	resources := make([]ResourceStateResponse, 0, len(states))
	for _, s := range states {
		r := ResourceStateResponse{
			Kind:       s.Kind,
			Name:       s.Name,
			Namespace:  s.Namespace,
			InstanceID: s.InstanceID,
			Status:     s.Status,
			Flavor:     s.Spec.Flavor,
			VolumeSize: s.Spec.Volume.Size,
			Endpoint:   s.Endpoint(),
			LastAction: s.LastAction,
			CreatedAt:  s.CreatedAt.Format(time.RFC3339),
			UpdatedAt:  s.UpdatedAt.Format(time.RFC3339),
		}
		if s.Spec.Datastore.Type != "" {
			r.Datastore = s.Spec.Datastore.Type + " " + s.Spec.Datastore.Version
		}
		resources = append(resources, r)
	}
	return GetResponse{Resources: resources, Count: len(resources)}
}

func ToOTCConfigResponse(provider *core.ProviderConfig) OTCConfigResponse {
	resp := OTCConfigResponse{
		Region:      provider.OTC.Region,
		AuthURL:     provider.OTC.AuthURL,
		DomainName:  provider.OTC.DomainName,
		ProjectName: provider.OTC.ProjectName,
		ProjectID:   provider.OTC.ProjectID,
		Endpoint:    provider.OTC.Endpoint,
		StateBucket: provider.OBS.Bucket,
		Configured:  provider.OTC.Username != "" || provider.OTC.AuthURL != "",
		Message:     "Current configuration",
	}
	if !resp.Configured {
		resp.Message = "Credentials come from the OS_* environment. Use POST /api/v1/config/otc to set them."
	}
	return resp
}

func nonNil(items []core.PlanItem) []core.PlanItem {
	if items == nil {
		return []core.PlanItem{}
	}
	return items
}
