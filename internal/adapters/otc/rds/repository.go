package rds

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gophercloud/gophercloud/v2"

	"otc-rds-operator/internal/domain/rds"
	"otc-rds-operator/internal/ports"
	"otc-rds-operator/pkg/metrics"
)

// timeoutMessage is returned in the body when the RDS backend gives up on a request.
const timeoutMessage = "Wait response timeout."

// ErrAPITimeout is matched by every APIError.
var ErrAPITimeout = errors.New("internal RDS API timeout")

// APIError is an RDS API timeout reported in the response body.
type APIError struct {
	Method string
	URL    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrAPITimeout, e.Method, e.URL)
}

func (e *APIError) Is(target error) bool {
	return target == ErrAPITimeout
}

// ErrorCode labels the error in metrics.
func (e *APIError) ErrorCode() string {
	return "WaitResponseTimeout"
}

// Options tune requests that carry more than the instance itself.
type Options struct {
	// KeepLastManualBackup is sent with delete requests.
	KeepLastManualBackup bool
}

type Repository struct {
	client *gophercloud.ServiceClient
	opts   Options
}

func NewRepository(client *gophercloud.ServiceClient, opts Options) ports.RDSRepository {
	return &Repository{
		client: client,
		opts:   opts,
	}
}

type message struct {
	Message string `json:"message,omitempty"`
}

type dataStore struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Datastore string `json:"datastore"`
}

type flavor struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	SpecCode string `json:"specCode"`
	VCPUs    string `json:"vcpus"`
	RAM      int    `json:"ram"`
}

type flavorRef struct {
	ID string `json:"id"`
}

type instance struct {
	ID               string             `json:"id"`
	Name             string             `json:"name"`
	Status           string             `json:"status"`
	Hostname         string             `json:"hostname,omitempty"`
	Port             int                `json:"dbPort,omitempty"`
	Datastore        rds.Datastore      `json:"datastore"`
	Flavor           flavorRef          `json:"flavor"`
	Volume           rds.Volume         `json:"volume"`
	Region           string             `json:"region"`
	AvailabilityZone string             `json:"availabilityZone"`
	VPC              string             `json:"vpc"`
	Nics             rds.Nics           `json:"nics"`
	SecurityGroup    rds.SecurityGroup  `json:"securityGroup"`
	BackupStrategy   rds.BackupStrategy `json:"backupStrategy"`
}

type createInstance struct {
	Name             string             `json:"name"`
	Datastore        rds.Datastore      `json:"datastore"`
	FlavorRef        string             `json:"flavorRef"`
	Volume           rds.Volume         `json:"volume"`
	Region           string             `json:"region,omitempty"`
	AvailabilityZone string             `json:"availabilityZone,omitempty"`
	VPC              string             `json:"vpc,omitempty"`
	Nics             rds.Nics           `json:"nics"`
	SecurityGroup    rds.SecurityGroup  `json:"securityGroup"`
	BackupStrategy   rds.BackupStrategy `json:"backupStrategy"`
	RootPassword     string             `json:"dbRtPd,omitempty"`
}

// flavorQuery is encoded with gophercloud.BuildQueryString.
type flavorQuery struct {
	DBID   string `q:"dbId"`
	Region string `q:"region"`
}

// DatastoreVersionID resolves a datastore version name to its id.
func (r *Repository) DatastoreVersionID(ctx context.Context, datastore rds.Datastore) (string, error) {
	var resp struct {
		message
		DataStores []dataStore `json:"dataStores"`
	}

	url := r.client.ServiceURL("datastores", datastore.Type, "versions")
	if err := r.get(ctx, "ListDatastoreVersions", url, &resp, &resp.message); err != nil {
		return "", fmt.Errorf("failed to list datastore versions: %w", err)
	}

	for _, store := range resp.DataStores {
		if store.Name == datastore.Version {
			return store.ID, nil
		}
	}

	return "", fmt.Errorf("%w: %s %s", rds.ErrDatastoreVersionNotFound, datastore.Type, datastore.Version)
}

func (r *Repository) ListFlavors(ctx context.Context, datastore rds.Datastore, region string) ([]rds.Flavor, error) {
	dbID, err := r.DatastoreVersionID(ctx, datastore)
	if err != nil {
		return nil, err
	}

	query, err := gophercloud.BuildQueryString(flavorQuery{DBID: dbID, Region: region})
	if err != nil {
		return nil, fmt.Errorf("failed to build flavor query: %w", err)
	}

	var resp struct {
		message
		Flavors []flavor `json:"flavors"`
	}

	url := r.client.ServiceURL("flavors") + query.String()
	if err := r.get(ctx, "ListFlavors", url, &resp, &resp.message); err != nil {
		return nil, fmt.Errorf("failed to list flavors: %w", err)
	}

	flavors := make([]rds.Flavor, 0, len(resp.Flavors))
	for _, f := range resp.Flavors {
		flavors = append(flavors, rds.Flavor{
			ID:       f.ID,
			SpecCode: f.SpecCode,
			VCPUs:    f.VCPUs,
			RAM:      f.RAM,
		})
	}

	return flavors, nil
}

func (r *Repository) FindInstance(ctx context.Context, name, datastoreType string) (*rds.RemoteInstance, error) {
	var list struct {
		message
		Instances []instance `json:"instances"`
	}

	if err := r.get(ctx, "ListInstances", r.client.ServiceURL("instances"), &list, &list.message); err != nil {
		return nil, fmt.Errorf("failed to list instances: %w", err)
	}

	wanted := rds.Instance{Name: name, Datastore: rds.Datastore{Type: datastoreType}}
	for _, candidate := range list.Instances {
		if !wanted.MatchesName(candidate.Name) {
			continue
		}

		found, err := r.Get(ctx, candidate.ID)
		if errors.Is(err, rds.ErrInstanceNotFound) {
			// Deleted between list and get
			continue
		}
		return found, err
	}

	return nil, nil
}

// Get fetches the full detail of one instance.
func (r *Repository) Get(ctx context.Context, id string) (*rds.RemoteInstance, error) {
	var resp struct {
		message
		Instance instance `json:"instance"`
	}

	err := r.get(ctx, "GetInstance", r.client.ServiceURL("instances", id), &resp, &resp.message)
	if err != nil {
		if gophercloud.ResponseCodeIs(err, http.StatusNotFound) {
			return nil, fmt.Errorf("%w: %s", rds.ErrInstanceNotFound, id)
		}
		return nil, fmt.Errorf("failed to get instance: %w", err)
	}

	return mapToRemoteInstance(&resp.Instance), nil
}

func (r *Repository) Create(ctx context.Context, spec *rds.Instance, flavorID string) (*rds.RemoteInstance, error) {
	body := map[string]createInstance{
		"instance": {
			Name:             spec.Name,
			Datastore:        spec.Datastore,
			FlavorRef:        flavorID,
			Volume:           spec.Volume,
			Region:           spec.Region,
			AvailabilityZone: spec.AvailabilityZone,
			VPC:              spec.VPC,
			Nics:             spec.Nics,
			SecurityGroup:    spec.SecurityGroup,
			BackupStrategy:   spec.BackupStrategy,
			RootPassword:     spec.RootPassword,
		},
	}

	var resp struct {
		message
		Instance instance `json:"instance"`
	}

	url := r.client.ServiceURL("instances")
	if err := r.post(ctx, "CreateInstance", url, body, &resp, &resp.message); err != nil {
		return nil, fmt.Errorf("failed to create instance: %w", err)
	}

	created := mapToRemoteInstance(&resp.Instance)
	if created.Name == "" {
		created.Name = spec.Name
	}
	return created, nil
}

func (r *Repository) Resize(ctx context.Context, resize rds.Resize) error {
	var action map[string]any
	switch resize.Field {
	case rds.FieldVolumeSize:
		action = map[string]any{"resize": map[string]any{"volume": map[string]int{"size": resize.VolumeSize}}}
	case rds.FieldFlavor:
		action = map[string]any{"resize": map[string]string{"flavorRef": resize.FlavorID}}
	default:
		return fmt.Errorf("field %s cannot be resized", resize.Field)
	}

	var resp message
	url := r.client.ServiceURL("instances", resize.InstanceID, "action")
	if err := r.post(ctx, "ResizeInstance", url, action, &resp, &resp); err != nil {
		return fmt.Errorf("failed to resize %s of instance %s: %w", resize.Field, resize.InstanceID, err)
	}

	return nil
}

func (r *Repository) Delete(ctx context.Context, instanceID string) error {
	keep := "0"
	if r.opts.KeepLastManualBackup {
		keep = "1"
	}

	recorder := metrics.NewAPIMetricsRecorder(metrics.ServiceRDS, "DeleteInstance")
	url := r.client.ServiceURL("instances", instanceID)
	_, err := r.client.Request(ctx, http.MethodDelete, url, &gophercloud.RequestOpts{
		JSONBody: map[string]string{"keepLastManualBackup": keep},
		OkCodes:  []int{http.StatusOK, http.StatusAccepted, http.StatusNoContent},
	})
	if err != nil {
		// Already gone
		if gophercloud.ResponseCodeIs(err, http.StatusNotFound) {
			recorder.RecordSuccess()
			return nil
		}
		err = checkTimeout(http.MethodDelete, url, err)
		recorder.RecordError(err)
		return fmt.Errorf("failed to delete instance %s: %w", instanceID, err)
	}

	recorder.RecordSuccess()
	return nil
}

func (r *Repository) get(ctx context.Context, operation, url string, out any, msg *message) error {
	recorder := metrics.NewAPIMetricsRecorder(metrics.ServiceRDS, operation)

	_, err := r.client.Get(ctx, url, out, &gophercloud.RequestOpts{
		OkCodes: []int{http.StatusOK},
	})
	if err == nil && msg.Message == timeoutMessage {
		err = &APIError{Method: http.MethodGet, URL: url}
	}
	if err != nil {
		err = checkTimeout(http.MethodGet, url, err)
		recorder.RecordError(err)
		return err
	}

	recorder.RecordSuccess()
	return nil
}

func (r *Repository) post(ctx context.Context, operation, url string, body, out any, msg *message) error {
	recorder := metrics.NewAPIMetricsRecorder(metrics.ServiceRDS, operation)

	_, err := r.client.Post(ctx, url, body, out, &gophercloud.RequestOpts{
		OkCodes: []int{http.StatusOK, http.StatusAccepted},
	})
	if err == nil && msg.Message == timeoutMessage {
		err = &APIError{Method: http.MethodPost, URL: url}
	}
	if err != nil {
		err = checkTimeout(http.MethodPost, url, err)
		recorder.RecordError(err)
		return err
	}

	recorder.RecordSuccess()
	return nil
}

// checkTimeout turns an error response carrying the timeout message into an APIError.
func checkTimeout(method, url string, err error) error {
	if body, ok := responseBody(err); ok && bytes.Contains(body, []byte(timeoutMessage)) {
		return &APIError{Method: method, URL: url}
	}
	return err
}

func responseBody(err error) ([]byte, bool) {
	var respErr gophercloud.ErrUnexpectedResponseCode
	if errors.As(err, &respErr) {
		return respErr.Body, true
	}
	var respErrPtr *gophercloud.ErrUnexpectedResponseCode
	if errors.As(err, &respErrPtr) {
		return respErrPtr.Body, true
	}
	return nil, false
}

func mapToRemoteInstance(i *instance) *rds.RemoteInstance {
	return &rds.RemoteInstance{
		ID:               i.ID,
		Name:             i.Name,
		Status:           i.Status,
		Datastore:        i.Datastore,
		FlavorID:         i.Flavor.ID,
		Volume:           i.Volume,
		Region:           i.Region,
		AvailabilityZone: i.AvailabilityZone,
		VPC:              i.VPC,
		SubnetID:         i.Nics.SubnetID,
		SecurityGroupID:  i.SecurityGroup.ID,
		BackupStrategy:   i.BackupStrategy,
		Hostname:         i.Hostname,
		Port:             i.Port,
	}
}
