package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"otc-rds-operator/internal/adapters/otc"
	"otc-rds-operator/internal/domain/rds"
	"otc-rds-operator/internal/ports"
	"otc-rds-operator/pkg/core"
)

const testManifest = `
apiVersion: rds.otc-operator.io/v1alpha1
kind: OTCProvider
metadata:
  name: otc
spec:
  region: eu-nl
  projectName: eu-nl_demo
---
apiVersion: rds.otc-operator.io/v1alpha1
kind: RDSInstance
metadata:
  name: test-mysql
spec:
  datastore:
    type: MySQL
    version: "5.6.30"
  flavor: s1.medium
  volume:
    size: 100
`

type stubUseCase struct {
	plan    *rds.Plan
	result  *rds.Result
	err     error
	applied []*rds.Instance
}

func (s *stubUseCase) Plan(_ context.Context, _ *rds.Instance) (*rds.Plan, error) {
	return s.plan, s.err
}

func (s *stubUseCase) Apply(_ context.Context, instance *rds.Instance) (*rds.Result, error) {
	s.applied = append(s.applied, instance)
	return s.result, s.err
}

// newTestCLI writes the manifest and returns a CLI wired to uc and a local state dir.
func newTestCLI(t *testing.T, uc ports.RDSUseCase, opts Options) (*CLI, string, *bytes.Buffer, **core.ProviderConfig) {
	t.Helper()

	dir := t.TempDir()
	manifest := filepath.Join(dir, "rds.yaml")
	if err := os.WriteFile(manifest, []byte(testManifest), 0600); err != nil {
		t.Fatal(err)
	}

	opts.StateDir = filepath.Join(dir, "state")
	var out bytes.Buffer
	var gotProvider *core.ProviderConfig

	c := NewCLI(opts)
	c.out = &out
	c.newUseCase = func(_ context.Context, p *core.ProviderConfig) (ports.RDSUseCase, error) {
		gotProvider = p
		return uc, nil
	}
	c.newState = func(_ context.Context, _ *core.ProviderConfig, stateDir string) (core.StateStore, error) {
		return core.NewStateManager(stateDir), nil
	}

	return c, manifest, &out, &gotProvider
}

func TestIsCliCommand(t *testing.T) {
	tests := []struct {
		args []string
		want bool
	}{
		{[]string{"bin"}, false},
		{[]string{"bin", "apply"}, true},
		{[]string{"bin", "plan"}, true},
		{[]string{"bin", "delete"}, true},
		{[]string{"bin", "get"}, true},
		{[]string{"bin", "-h"}, true},
		{[]string{"bin", "serve"}, false},
		{[]string{"bin", "--metrics-bind-address=:8080"}, false},
	}

	for _, tt := range tests {
		if got := IsCliCommand(tt.args); got != tt.want {
			t.Errorf("IsCliCommand(%v) = %v, want %v", tt.args, got, tt.want)
		}
	}
}

func TestParseArgs(t *testing.T) {
	opts, files, kind, err := ParseArgs([]string{
		"-f", "a.yaml", "--file", "b.yaml",
		"--region", "eu-nl", "--endpoint", "http://localhost:8080/rds/v1/p/",
		"--project-id", "p1", "--state-dir", "/tmp/state", "--state-bucket", "bucket",
		"--dry-run", "--keep-last-backup", "-v", "RDSInstance",
	})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	want := Options{
		StateDir:    "/tmp/state",
		StateBucket: "bucket",
		Region:      "eu-nl",
		Endpoint:    "http://localhost:8080/rds/v1/p/",
		ProjectID:   "p1",
		DryRun:      true,
		Verbose:     true,

		KeepLastBackup: true,
	}
	if opts != want {
		t.Errorf("Expected %+v, got %+v", want, opts)
	}
	if len(files) != 2 || files[0] != "a.yaml" || files[1] != "b.yaml" {
		t.Errorf("Unexpected files %v", files)
	}
	if kind != "RDSInstance" {
		t.Errorf("Expected kind RDSInstance, got %q", kind)
	}
}

func TestParseArgs_Errors(t *testing.T) {
	for _, args := range [][]string{
		{"-f"},
		{"--region"},
		{"--unknown"},
	} {
		if _, _, _, err := ParseArgs(args); err == nil {
			t.Errorf("Expected error for %v", args)
		}
	}
}

func TestProviderConfigPrecedence(t *testing.T) {
	t.Setenv("OS_REGION_NAME", "eu-de")
	t.Setenv("OS_PROJECT_ID", "env-project")
	t.Setenv("OTC_RDS_ENDPOINT", "")
	t.Setenv("OTC_STATE_BUCKET", "env-bucket")
	t.Setenv("OBS_ENDPOINT", "")

	c := NewCLI(Options{Region: "eu-ch2"})
	provider := c.providerConfig(&core.ProviderConfig{
		Name: "otc",
		OTC:  otc.Config{Region: "eu-nl", ProjectID: "file-project"},
	})

	if provider.OTC.Region != "eu-ch2" {
		t.Errorf("Expected flag region, got %q", provider.OTC.Region)
	}
	if provider.OTC.ProjectID != "file-project" {
		t.Errorf("Expected manifest project, got %q", provider.OTC.ProjectID)
	}
	if provider.OBS.Bucket != "env-bucket" {
		t.Errorf("Expected env bucket, got %q", provider.OBS.Bucket)
	}
	if provider.OBSEndpoint() != "https://obs.eu-ch2.otc.t-systems.com" {
		t.Errorf("Unexpected OBS endpoint %q", provider.OBSEndpoint())
	}
	if provider.OTC.KeepLastManualBackup {
		t.Error("Expected backups to be dropped on delete by default")
	}
}

func TestProviderConfig_KeepLastBackup(t *testing.T) {
	tests := []struct {
		name     string
		env      string
		manifest bool
		flag     bool
		want     bool
	}{
		{"default", "", false, false, false},
		{"env", "true", false, false, true},
		{"unparsable env", "yes please", false, false, false},
		{"manifest", "", true, false, true},
		{"flag", "", false, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("OTC_KEEP_LAST_BACKUP", tt.env)

			c := NewCLI(Options{KeepLastBackup: tt.flag})
			provider := c.providerConfig(&core.ProviderConfig{
				OTC: otc.Config{KeepLastManualBackup: tt.manifest},
			})

			if provider.OTC.KeepLastManualBackup != tt.want {
				t.Errorf("KeepLastManualBackup = %v, want %v", provider.OTC.KeepLastManualBackup, tt.want)
			}
		})
	}
}

func TestCLI_ApplyAndGet(t *testing.T) {
	uc := &stubUseCase{result: &rds.Result{Action: rds.ActionNoOp, InstanceID: "abc", Status: rds.StatusActive, Message: "instance is up to date"}}
	c, manifest, out, gotProvider := newTestCLI(t, uc, Options{})

	if err := c.Execute(context.Background(), "apply", []string{manifest}, ""); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if (*gotProvider).OTC.Region != "eu-nl" || (*gotProvider).OTC.ProjectName != "eu-nl_demo" {
		t.Errorf("Expected OTCProvider manifest to configure the client, got %+v", (*gotProvider).OTC)
	}
	if uc.applied[0].Region != "eu-nl" {
		t.Errorf("Expected instance to inherit the provider region, got %q", uc.applied[0].Region)
	}
	if !strings.Contains(out.String(), `"changed": false`) || !strings.Contains(out.String(), `"msg": "instance is up to date"`) {
		t.Errorf("Unexpected output %s", out.String())
	}

	out.Reset()
	if err := c.Execute(context.Background(), "get", nil, "all"); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if !strings.Contains(out.String(), "test-mysql") || !strings.Contains(out.String(), "ACTIVE") {
		t.Errorf("Expected get to list the instance, got:\n%s", out.String())
	}
}

func TestCLI_ApplyFailureExitsNonZero(t *testing.T) {
	uc := &stubUseCase{err: &rds.FlavorNotFoundError{Flavor: "s1.medium", Datastore: rds.Datastore{Type: "MySQL", Version: "5.6.30"}}}
	c, manifest, out, _ := newTestCLI(t, uc, Options{})

	err := c.Execute(context.Background(), "apply", []string{manifest}, "")
	if err == nil || !strings.Contains(err.Error(), "1 of 1") {
		t.Fatalf("Expected aggregate failure, got %v", err)
	}
	if !strings.Contains(out.String(), "flavor not found") {
		t.Errorf("Expected the failure to be printed, got %s", out.String())
	}
}

func TestCLI_Plan(t *testing.T) {
	uc := &stubUseCase{plan: &rds.Plan{
		Action:     rds.ActionResize,
		InstanceID: "abc",
		Resizes:    []rds.Resize{{InstanceID: "abc", Field: rds.FieldVolumeSize, Old: "150", New: "100", VolumeSize: 100}},
	}}
	c, manifest, out, _ := newTestCLI(t, uc, Options{})

	if err := c.Execute(context.Background(), "plan", []string{manifest}, ""); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if !strings.Contains(out.String(), "~ RDSInstance/test-mysql (resize abc)") || !strings.Contains(out.String(), "volume.size: 150 -> 100") {
		t.Errorf("Unexpected plan output:\n%s", out.String())
	}
	if len(uc.applied) != 0 {
		t.Error("Expected plan not to apply")
	}
}

func TestCLI_PlanFatal(t *testing.T) {
	uc := &stubUseCase{err: errors.New("immutable field changed: datastore.version")}
	c, manifest, _, _ := newTestCLI(t, uc, Options{})

	if err := c.Execute(context.Background(), "plan", []string{manifest}, ""); err == nil {
		t.Error("Expected plan to fail")
	}
}

func TestCLI_ExecuteRequiresFiles(t *testing.T) {
	c := NewCLI(Options{})
	for _, cmd := range []string{"apply", "plan", "delete"} {
		if err := c.Execute(context.Background(), cmd, nil, ""); err == nil {
			t.Errorf("Expected %s without files to fail", cmd)
		}
	}
	if err := c.Execute(context.Background(), "destroy", nil, ""); err == nil {
		t.Error("Expected unknown command to fail")
	}
}
