package e2e_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"otc-rds-operator/pkg/api"
	"otc-rds-operator/pkg/cli"
	"otc-rds-operator/pkg/core"
)

var _ = Describe("CLI", func() {
	var stateDir string

	BeforeEach(func() {
		otc.Reset()
		stateDir = filepath.Join(GinkgoT().TempDir(), "state")
	})

	run := func(args ...string) error {
		return cli.Run(ctx, append([]string{"otc-rds-operator"}, args...))
	}

	It("applies and deletes a manifest file", func() {
		path := writeManifest(instanceManifest("s1.medium", 100, "COMMON"))

		Expect(run("apply", "-f", path, "--state-dir", stateDir)).To(Succeed())
		Expect(otc.Instances()).To(HaveLen(1))

		states, err := core.NewStateManager(stateDir).ListStates(ctx, core.KindRDSInstance)
		Expect(err).NotTo(HaveOccurred())
		Expect(states).To(HaveLen(1))
		Expect(states[0].Spec.Region).To(Equal(fakeRegion))

		Expect(run("get", "--state-dir", stateDir)).To(Succeed())

		Expect(run("delete", "-f", path, "--state-dir", stateDir)).To(Succeed())
		Expect(otc.Instances()).To(BeEmpty())
	})

	It("fails when an instance fails", func() {
		path := writeManifest(instanceManifest("m9.huge", 100, "COMMON"))

		err := run("apply", "-f", path, "--state-dir", stateDir)
		Expect(err).To(HaveOccurred())

		creates, _, _ := otc.Counters()
		Expect(creates).To(BeZero())
	})
})

var _ = Describe("REST API", func() {
	var server *api.Server

	type envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}

	call := func(method, path, body string) (int, envelope) {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		server.Router().ServeHTTP(rec, req)

		var env envelope
		Expect(json.Unmarshal(rec.Body.Bytes(), &env)).To(Succeed())
		return rec.Code, env
	}

	BeforeEach(func() {
		otc.Reset()

		var err error
		server, err = api.NewServer(ctx, &api.ServerConfig{
			Version:  "e2e",
			StateDir: filepath.Join(GinkgoT().TempDir(), "state"),
		}, cli.NewRDSUseCase, cli.NewStateStore)
		Expect(err).NotTo(HaveOccurred())
	})

	It("creates an instance and lists its state", func() {
		code, env := call(http.MethodPost, "/api/v1/apply", api.SampleRDSInstance)
		Expect(code).To(Equal(http.StatusOK))
		Expect(env.Success).To(BeTrue())

		var applied api.ApplyResponse
		Expect(json.Unmarshal(env.Data, &applied)).To(Succeed())
		Expect(applied.Summary.Created).To(Equal(1))
		Expect(otc.Passwords()).To(Equal([]string{"change-me"}))

		code, env = call(http.MethodGet, "/api/v1/resources", "")
		Expect(code).To(Equal(http.StatusOK))

		var listed api.GetResponse
		Expect(json.Unmarshal(env.Data, &listed)).To(Succeed())
		Expect(listed.Count).To(Equal(1))
		Expect(listed.Resources[0].InstanceID).To(Equal(otc.Instances()[0].ID))
		Expect(listed.Resources[0].Datastore).To(Equal("MySQL 8.0"))
	})

	It("rejects an immutable change with a conflict", func() {
		code, _ := call(http.MethodPost, "/api/v1/apply", api.SampleRDSInstance)
		Expect(code).To(Equal(http.StatusOK))

		changed := strings.Replace(api.SampleRDSInstance, `"type": "COMMON"`, `"type": "ULTRAHIGH"`, 1)
		code, env := call(http.MethodPost, "/api/v1/plan", changed)
		Expect(code).To(Equal(http.StatusConflict))
		Expect(env.Success).To(BeFalse())
	})
})
