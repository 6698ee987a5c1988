package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"otc-rds-operator/internal/domain/rds"
	"otc-rds-operator/internal/ports"
	"otc-rds-operator/pkg/core"
	"otc-rds-operator/pkg/drift"
)

const maxBodySize = 1 << 20

var ErrNoResources = errors.New("no RDSInstance resources in request")

// Handlers serves the API. The use case is replaced when the OTC
// configuration changes, so every request takes its own engine.
type Handlers struct {
	config     *ServerConfig
	newUseCase core.UseCaseFactory

	mu       sync.RWMutex
	provider *core.ProviderConfig
	useCase  ports.RDSUseCase
	state    core.StateStore
}

func NewHandlers(config *ServerConfig, provider *core.ProviderConfig, useCase ports.RDSUseCase, state core.StateStore, newUseCase core.UseCaseFactory) *Handlers {
	return &Handlers{
		config:     config,
		newUseCase: newUseCase,
		provider:   provider,
		useCase:    useCase,
		state:      state,
	}
}

func (h *Handlers) engine(dryRun bool) (*core.Engine, string) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return core.NewEngine(core.EngineConfig{
		UseCase: h.useCase,
		State:   h.state,
		DryRun:  dryRun,
		Output:  &core.SilentOutputWriter{},
	}), h.provider.OTC.Region
}

// Health reports liveness.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, NewSuccessResponse(HealthResponse{
		Status:    "healthy",
		Version:   h.config.Version,
		Timestamp: time.Now().Format(time.RFC3339),
	}))
}

// Plan reports what apply would do. Immutable field changes and unknown
// flavors fail the whole request.
func (h *Handlers) Plan(w http.ResponseWriter, r *http.Request) {
	instances, _, err := parseResources(r)
	if err != nil {
		writeParseError(w, err)
		return
	}

	engine, region := h.engine(false)
	result, err := engine.Plan(r.Context(), withRegion(instances, region))
	if err != nil {
		status, code := classify(err)
		writeJSON(w, status, NewErrorResponse(code, err.Error(), ""))
		return
	}

	writeJSON(w, http.StatusOK, NewSuccessResponse(ToPlanResponse(result)))
}

// Apply converges every instance. Per instance failures are reported in the
// items with success set to false.
func (h *Handlers) Apply(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, (*core.Engine).Apply, "APPLY_FAILED")
}

// Delete removes every instance, last one first.
func (h *Handlers) Delete(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, (*core.Engine).Delete, "DELETE_FAILED")
}

type engineOp func(*core.Engine, context.Context, []core.InstanceManifest) (*core.ApplyResult, error)

func (h *Handlers) run(w http.ResponseWriter, r *http.Request, op engineOp, failCode string) {
	instances, dryRun, err := parseResources(r)
	if err != nil {
		writeParseError(w, err)
		return
	}
	if r.URL.Query().Get("dryRun") == "true" {
		dryRun = true
	}

	engine, region := h.engine(dryRun)
	result, err := op(engine, r.Context(), withRegion(instances, region))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, NewErrorResponse(failCode, err.Error(), ""))
		return
	}

	resp := NewSuccessResponse(ToApplyResponse(result, dryRun))
	if err := result.Err(); err != nil {
		resp.Success = false
		resp.Error = &APIError{Code: failCode, Message: err.Error()}
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get lists the recorded state, optionally filtered by ?kind=.
func (h *Handlers) Get(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, r.URL.Query().Get("kind"))
}

// GetByKind lists the recorded state of one kind.
func (h *Handlers) GetByKind(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, chi.URLParam(r, "kind"))
}

func (h *Handlers) list(w http.ResponseWriter, r *http.Request, kind string) {
	engine, _ := h.engine(false)
	states, err := engine.Get(r.Context(), kind)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, NewErrorResponse("GET_FAILED", err.Error(), ""))
		return
	}
	writeJSON(w, http.StatusOK, NewSuccessResponse(ToGetResponse(states)))
}

// ConfigureOTC authenticates with new credentials and swaps the use case.
// The state backend is kept.
func (h *Handlers) ConfigureOTC(w http.ResponseWriter, r *http.Request) {
	if h.newUseCase == nil {
		writeJSON(w, http.StatusNotImplemented, NewErrorResponse("NOT_SUPPORTED", "runtime configuration is disabled", ""))
		return
	}

	var req OTCConfigRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, NewErrorResponse("INVALID_REQUEST", "invalid JSON", err.Error()))
		return
	}
	if req.Region == "" {
		writeJSON(w, http.StatusBadRequest, NewErrorResponse("MISSING_REGION", "region is required", ""))
		return
	}

	h.mu.RLock()
	provider := *h.provider
	h.mu.RUnlock()

	provider.Name = "api"
	provider.OTC.Region = req.Region
	provider.OTC.Endpoint = req.Endpoint
	setIfSet(&provider.OTC.AuthURL, req.AuthURL)
	setIfSet(&provider.OTC.DomainName, req.DomainName)
	setIfSet(&provider.OTC.ProjectName, req.ProjectName)
	setIfSet(&provider.OTC.ProjectID, req.ProjectID)
	setIfSet(&provider.OTC.Username, req.Username)
	setIfSet(&provider.OTC.Password, req.Password)

	useCase, err := h.newUseCase(r.Context(), &provider)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, NewErrorResponse("CONFIG_FAILED", "failed to authenticate with OTC", err.Error()))
		return
	}

	h.mu.Lock()
	h.provider = &provider
	h.useCase = useCase
	h.mu.Unlock()

	logger.Info("OTC configuration replaced", "region", provider.OTC.Region, "project", provider.OTC.ProjectName)

	resp := ToOTCConfigResponse(&provider)
	resp.Configured = true
	resp.Message = "OTC credentials configured"
	writeJSON(w, http.StatusOK, NewSuccessResponse(resp))
}

// GetOTCConfig returns the current configuration without secrets.
func (h *Handlers) GetOTCConfig(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	resp := ToOTCConfigResponse(h.provider)
	h.mu.RUnlock()

	writeJSON(w, http.StatusOK, NewSuccessResponse(resp))
}

// Samples returns example requests.
func (h *Handlers) Samples(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, NewSuccessResponse(GetAllSamples()))
}

// parseResources accepts a YAML or JSON manifest stream, a JSON array of
// manifests, or a ResourcesRequest. OTCProvider documents are ignored.
func parseResources(r *http.Request) ([]core.InstanceManifest, bool, error) {
	defer r.Body.Close()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		return nil, false, err
	}

	contentType := r.Header.Get("Content-Type")
	if strings.Contains(contentType, "yaml") || strings.Contains(contentType, "text/plain") {
		return instancesFrom(core.ParseYAML(body))
	}

	trimmed := bytes.TrimSpace(body)

	if bytes.HasPrefix(trimmed, []byte("[")) {
		var list []json.RawMessage
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, false, err
		}
		return instancesFrom(parseRaw(list, ""))
	}

	var req ResourcesRequest
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err == nil {
		instances, _, err := instancesFrom(parseRaw(req.Resources, req.YAML))
		return instances, req.DryRun, err
	}

	// A single manifest
	return instancesFrom(core.ParseYAML(trimmed))
}

func parseRaw(resources []json.RawMessage, stream string) (*core.Manifests, error) {
	manifests := &core.Manifests{}
	for i, raw := range resources {
		m, err := core.ParseYAML(raw)
		if err != nil {
			return nil, fmt.Errorf("resource %d: %w", i+1, err)
		}
		manifests.Append(m)
	}
	if stream != "" {
		m, err := core.ParseYAML([]byte(stream))
		if err != nil {
			return nil, fmt.Errorf("yaml: %w", err)
		}
		manifests.Append(m)
	}
	return manifests, nil
}

func instancesFrom(m *core.Manifests, err error) ([]core.InstanceManifest, bool, error) {
	if err != nil {
		return nil, false, err
	}
	if len(m.Instances) == 0 {
		return nil, false, ErrNoResources
	}
	return m.Instances, false, nil
}

// withRegion defaults the region of each instance to the provider's.
func withRegion(instances []core.InstanceManifest, region string) []core.InstanceManifest {
	for i := range instances {
		if instances[i].Spec.Region == "" {
			instances[i].Spec.Region = region
		}
	}
	return instances
}

// classify maps a plan error to a status code and an error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, drift.ErrImmutableField):
		return http.StatusConflict, "IMMUTABLE_FIELD"
	case errors.Is(err, rds.ErrFlavorNotFound), errors.Is(err, rds.ErrDatastoreVersionNotFound):
		return http.StatusUnprocessableEntity, "UNRESOLVED_REFERENCE"
	case rds.IsInvalid(err):
		return http.StatusUnprocessableEntity, "INVALID_SPEC"
	default:
		return http.StatusInternalServerError, "PLAN_FAILED"
	}
}

func writeParseError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrNoResources) {
		writeJSON(w, http.StatusBadRequest, NewErrorResponse("NO_RESOURCES", err.Error(), ""))
		return
	}
	writeJSON(w, http.StatusBadRequest, NewErrorResponse("INVALID_REQUEST", err.Error(), ""))
}

func setIfSet(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error(err, "failed to encode response")
	}
}
