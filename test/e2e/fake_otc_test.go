package e2e_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"otc-rds-operator/internal/domain/rds"
)

const (
	fakeToken     = "e2e-token"
	fakeProjectID = "e2e-project"
	fakeRegion    = "eu-de"
)

// fakeInstance is an instance in the RDS v1 wire format.
type fakeInstance struct {
	ID               string             `json:"id"`
	Name             string             `json:"name"`
	Status           string             `json:"status"`
	Hostname         string             `json:"hostname,omitempty"`
	Port             int                `json:"dbPort,omitempty"`
	Datastore        rds.Datastore      `json:"datastore"`
	Flavor           fakeFlavorRef      `json:"flavor"`
	Volume           rds.Volume         `json:"volume"`
	Region           string             `json:"region"`
	AvailabilityZone string             `json:"availabilityZone"`
	VPC              string             `json:"vpc"`
	Nics             rds.Nics           `json:"nics"`
	SecurityGroup    rds.SecurityGroup  `json:"securityGroup"`
	BackupStrategy   rds.BackupStrategy `json:"backupStrategy"`
}

type fakeFlavorRef struct {
	ID string `json:"id"`
}

type fakeCreate struct {
	Instance struct {
		Name             string             `json:"name"`
		Datastore        rds.Datastore      `json:"datastore"`
		FlavorRef        string             `json:"flavorRef"`
		Volume           rds.Volume         `json:"volume"`
		Region           string             `json:"region"`
		AvailabilityZone string             `json:"availabilityZone"`
		VPC              string             `json:"vpc"`
		Nics             rds.Nics           `json:"nics"`
		SecurityGroup    rds.SecurityGroup  `json:"securityGroup"`
		BackupStrategy   rds.BackupStrategy `json:"backupStrategy"`
		RootPassword     string             `json:"dbRtPd"`
	} `json:"instance"`
}

type fakeResize struct {
	Resize struct {
		FlavorRef string `json:"flavorRef"`
		Volume    *struct {
			Size int `json:"size"`
		} `json:"volume"`
	} `json:"resize"`
}

// fakeOTC serves the identity token endpoint and the RDS v1 API of one
// project from memory.
type fakeOTC struct {
	server *httptest.Server

	mu        sync.Mutex
	nextID    int
	instances map[string]*fakeInstance
	creates   int
	resizes   []string
	deletes   int
	passwords []string

	// timeoutPaths answer with the RDS backend timeout message.
	timeoutPaths map[string]bool
}

func newFakeOTC() *fakeOTC {
	f := &fakeOTC{
		instances:    make(map[string]*fakeInstance),
		timeoutPaths: make(map[string]bool),
	}

	r := chi.NewRouter()
	r.Post("/v3/auth/tokens", f.issueToken)
	r.Route("/rds/v1/"+fakeProjectID, func(r chi.Router) {
		r.Use(f.authenticate)
		r.Use(f.injectTimeout)
		r.Get("/datastores/{type}/versions", f.listVersions)
		r.Get("/flavors", f.listFlavors)
		r.Get("/instances", f.listInstances)
		r.Post("/instances", f.createInstance)
		r.Get("/instances/{id}", f.getInstance)
		r.Post("/instances/{id}/action", f.resizeInstance)
		r.Delete("/instances/{id}", f.deleteInstance)
	})

	f.server = httptest.NewServer(r)
	return f
}

func (f *fakeOTC) AuthURL() string {
	return f.server.URL + "/v3"
}

func (f *fakeOTC) RDSEndpoint() string {
	return f.server.URL + "/rds/v1/" + fakeProjectID + "/"
}

func (f *fakeOTC) Close() {
	f.server.Close()
}

// Reset forgets every instance and counter.
func (f *fakeOTC) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.instances = make(map[string]*fakeInstance)
	f.creates, f.deletes = 0, 0
	f.resizes, f.passwords = nil, nil
	f.timeoutPaths = make(map[string]bool)
}

// Instances returns copies of the stored instances ordered by name.
func (f *fakeOTC) Instances() []fakeInstance {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]fakeInstance, 0, len(f.instances))
	for _, i := range f.instances {
		out = append(out, *i)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Name < out[b].Name })
	return out
}

// Mutate changes an instance behind the operator's back.
func (f *fakeOTC) Mutate(id string, fn func(*fakeInstance)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f.instances[id])
}

func (f *fakeOTC) Counters() (creates int, resizes []string, deletes int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.creates, append([]string(nil), f.resizes...), f.deletes
}

func (f *fakeOTC) Passwords() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.passwords...)
}

func (f *fakeOTC) TimeoutOn(path string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.timeoutPaths[path] = true
}

func (f *fakeOTC) issueToken(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-Subject-Token", fakeToken)
	writeFakeJSON(w, http.StatusCreated, map[string]any{
		"token": map[string]any{
			"expires_at": time.Now().Add(time.Hour).UTC().Format(time.RFC3339),
			"project": map[string]any{
				"id":     fakeProjectID,
				"name":   fakeRegion + "_e2e",
				"domain": map[string]string{"id": "d1", "name": "e2e"},
			},
			"catalog": []any{},
		},
	})
}

func (f *fakeOTC) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Auth-Token") != fakeToken {
			writeFakeJSON(w, http.StatusUnauthorized, map[string]string{"message": "unauthorized"})
			return
		}
		if r.Header.Get("X-Language") != "en-us" {
			writeFakeJSON(w, http.StatusBadRequest, map[string]string{"message": "missing X-Language"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (f *fakeOTC) injectTimeout(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		timeout := f.timeoutPaths[strings.TrimPrefix(r.URL.Path, "/rds/v1/"+fakeProjectID)]
		f.mu.Unlock()

		if timeout {
			writeFakeJSON(w, http.StatusOK, map[string]string{"message": "Wait response timeout."})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (f *fakeOTC) listVersions(w http.ResponseWriter, r *http.Request) {
	versions := map[string][]string{
		"MySQL":      {"5.7", "8.0"},
		"PostgreSQL": {"12", "13"},
	}
	storeType := chi.URLParam(r, "type")

	stores := []map[string]string{}
	for _, v := range versions[storeType] {
		stores = append(stores, map[string]string{
			"id":        versionID(storeType, v),
			"name":      v,
			"datastore": storeType,
		})
	}
	writeFakeJSON(w, http.StatusOK, map[string]any{"dataStores": stores})
}

func (f *fakeOTC) listFlavors(w http.ResponseWriter, r *http.Request) {
	dbID := r.URL.Query().Get("dbId")
	if r.URL.Query().Get("region") != fakeRegion {
		writeFakeJSON(w, http.StatusOK, map[string]any{"flavors": []any{}})
		return
	}

	// dbId is "<type>-<version>"
	storeType := strings.ToLower(strings.SplitN(dbID, "-", 2)[0])

	flavors := []map[string]any{}
	for _, size := range []string{"s1.medium", "s1.large", "c2.xlarge"} {
		flavors = append(flavors, map[string]any{
			"id":       flavorID(storeType, size),
			"name":     size,
			"specCode": "rds." + storeType + "." + size,
			"vcpus":    "2",
			"ram":      4096,
		})
	}
	writeFakeJSON(w, http.StatusOK, map[string]any{"flavors": flavors})
}

func (f *fakeOTC) listInstances(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	list := []map[string]string{}
	for _, i := range f.instances {
		list = append(list, map[string]string{"id": i.ID, "name": i.Name, "status": i.Status})
	}
	writeFakeJSON(w, http.StatusOK, map[string]any{"instances": list})
}

func (f *fakeOTC) getInstance(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	i, ok := f.instances[chi.URLParam(r, "id")]
	if !ok {
		writeFakeJSON(w, http.StatusNotFound, map[string]string{"message": "instance not found"})
		return
	}
	writeFakeJSON(w, http.StatusOK, map[string]any{"instance": i})
}

func (f *fakeOTC) createInstance(w http.ResponseWriter, r *http.Request) {
	var req fakeCreate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFakeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
		return
	}
	in := req.Instance

	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	id := fmt.Sprintf("inst-%04d", f.nextID)
	stored := &fakeInstance{
		ID: id,
		// The provider decorates the requested name
		Name:             fmt.Sprintf("%s-%s-%04d", in.Name, in.Datastore.Type, f.nextID),
		Status:           rds.StatusActive,
		Hostname:         fmt.Sprintf("192.168.0.%d", f.nextID),
		Port:             3306,
		Datastore:        in.Datastore,
		Flavor:           fakeFlavorRef{ID: in.FlavorRef},
		Volume:           in.Volume,
		Region:           in.Region,
		AvailabilityZone: in.AvailabilityZone,
		VPC:              in.VPC,
		Nics:             in.Nics,
		SecurityGroup:    in.SecurityGroup,
		BackupStrategy:   in.BackupStrategy,
	}
	f.instances[id] = stored
	f.creates++
	f.passwords = append(f.passwords, in.RootPassword)

	writeFakeJSON(w, http.StatusOK, map[string]any{"instance": map[string]string{
		"id":     id,
		"name":   stored.Name,
		"status": rds.StatusBuild,
	}})
}

func (f *fakeOTC) resizeInstance(w http.ResponseWriter, r *http.Request) {
	var req fakeResize
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFakeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	i, ok := f.instances[chi.URLParam(r, "id")]
	if !ok {
		writeFakeJSON(w, http.StatusNotFound, map[string]string{"message": "instance not found"})
		return
	}

	switch {
	case req.Resize.FlavorRef != "":
		i.Flavor.ID = req.Resize.FlavorRef
		f.resizes = append(f.resizes, rds.FieldFlavor)
	case req.Resize.Volume != nil:
		if req.Resize.Volume.Size <= i.Volume.Size {
			writeFakeJSON(w, http.StatusBadRequest, map[string]string{"message": "volume can only grow"})
			return
		}
		i.Volume.Size = req.Resize.Volume.Size
		f.resizes = append(f.resizes, rds.FieldVolumeSize)
	default:
		writeFakeJSON(w, http.StatusBadRequest, map[string]string{"message": "unknown action"})
		return
	}

	writeFakeJSON(w, http.StatusOK, map[string]any{})
}

func (f *fakeOTC) deleteInstance(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := chi.URLParam(r, "id")
	if _, ok := f.instances[id]; !ok {
		writeFakeJSON(w, http.StatusNotFound, map[string]string{"message": "instance not found"})
		return
	}
	delete(f.instances, id)
	f.deletes++

	writeFakeJSON(w, http.StatusAccepted, map[string]any{})
}

func versionID(storeType, version string) string {
	return storeType + "-" + version
}

func flavorID(storeType, size string) string {
	return "flavor-" + storeType + "-" + strings.ReplaceAll(size, ".", "-")
}

func writeFakeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
