// Package cli runs RDSInstance manifests against OTC without a Kubernetes
// cluster: apply, plan, delete and get.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"otc-rds-operator/internal/adapters/otc"
	otcrds "otc-rds-operator/internal/adapters/otc/rds"
	"otc-rds-operator/internal/ports"
	rdsuc "otc-rds-operator/internal/usecases/rds"
	"otc-rds-operator/pkg/core"
)

// Options holds the flags shared by all commands.
type Options struct {
	StateDir    string
	StateBucket string
	Region      string
	Endpoint    string
	ProjectID   string
	DryRun      bool
	Verbose     bool

	KeepLastBackup bool
}

// CLI represents the command line interface
type CLI struct {
	opts       Options
	out        io.Writer
	newUseCase core.UseCaseFactory
	newState   core.StateFactory
}

// NewCLI creates a new CLI instance talking to OTC
func NewCLI(opts Options) *CLI {
	return &CLI{
		opts:       opts,
		out:        os.Stdout,
		newUseCase: NewRDSUseCase,
		newState:   NewStateStore,
	}
}

// NewRDSUseCase authenticates with OTC and wires the RDS use case.
func NewRDSUseCase(ctx context.Context, provider *core.ProviderConfig) (ports.RDSUseCase, error) {
	client, err := otc.NewRDSClient(ctx, provider.OTC)
	if err != nil {
		return nil, err
	}
	repo := otcrds.NewRepository(client, otcrds.Options{
		KeepLastManualBackup: provider.OTC.KeepLastManualBackup,
	})
	return rdsuc.NewInstanceUseCase(repo, nil), nil
}

// NewStateStore returns the OBS backend when a bucket is configured and the
// local directory backend otherwise.
func NewStateStore(ctx context.Context, provider *core.ProviderConfig, stateDir string) (core.StateStore, error) {
	if provider.OBS.Bucket != "" {
		return core.NewOBSStateManagerFromConfig(ctx, provider)
	}
	return core.NewStateManager(stateDir), nil
}

// RunApply executes the apply command
func (c *CLI) RunApply(ctx context.Context, files []string) error {
	engine, manifests, err := c.prepare(ctx, files, c.opts.DryRun)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "\n=== Applying resources from %d file(s) ===\n\n", len(files))
	result, err := engine.Apply(ctx, manifests.Instances)
	if err != nil {
		return err
	}
	if err := c.printResults(result); err != nil {
		return err
	}
	return result.Err()
}

// RunPlan executes the plan command
func (c *CLI) RunPlan(ctx context.Context, files []string) error {
	engine, manifests, err := c.prepare(ctx, files, true)
	if err != nil {
		return err
	}

	plan, err := engine.Plan(ctx, manifests.Instances)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.out, "\n=== Execution Plan ===\n\n")
	for _, item := range plan.ToCreate {
		fmt.Fprintf(c.out, "  + %s/%s (create, flavor %s)\n", item.Kind, item.Name, item.FlavorID)
	}
	for _, item := range plan.ToResize {
		fmt.Fprintf(c.out, "  ~ %s/%s (resize %s)\n", item.Kind, item.Name, item.InstanceID)
		for _, change := range item.Changes {
			fmt.Fprintf(c.out, "      %s\n", change)
		}
	}
	for _, item := range plan.ToDelete {
		fmt.Fprintf(c.out, "  - %s/%s (delete %s)\n", item.Kind, item.Name, item.InstanceID)
	}
	for _, item := range plan.NoChange {
		fmt.Fprintf(c.out, "    %s/%s (no changes)\n", item.Kind, item.Name)
	}

	fmt.Fprintf(c.out, "\nPlan: %d to create, %d to resize, %d to delete, %d unchanged\n",
		len(plan.ToCreate), len(plan.ToResize), len(plan.ToDelete), len(plan.NoChange))
	return nil
}

// RunDelete executes the delete command
func (c *CLI) RunDelete(ctx context.Context, files []string) error {
	engine, manifests, err := c.prepare(ctx, files, c.opts.DryRun)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "\n=== Deleting resources from %d file(s) ===\n\n", len(files))
	result, err := engine.Delete(ctx, manifests.Instances)
	if err != nil {
		return err
	}
	if err := c.printResults(result); err != nil {
		return err
	}
	return result.Err()
}

// RunGet lists resources recorded in the state
func (c *CLI) RunGet(ctx context.Context, kind string) error {
	provider := c.providerConfig(nil)

	store, err := c.newState(ctx, provider, c.opts.StateDir)
	if err != nil {
		return fmt.Errorf("failed to open state: %w", err)
	}

	states, err := core.NewEngine(core.EngineConfig{State: store}).Get(ctx, kind)
	if err != nil {
		return fmt.Errorf("failed to list resources: %w", err)
	}

	if len(states) == 0 {
		fmt.Fprintln(c.out, "No resources found in state")
		return nil
	}

	fmt.Fprintf(c.out, "\n%-15s %-30s %-40s %-15s %s\n", "KIND", "NAME", "INSTANCE ID", "STATUS", "ENDPOINT")
	fmt.Fprintln(c.out, strings.Repeat("-", 120))

	for _, s := range states {
		status := s.Status
		if status == "" {
			status = "unknown"
		}
		fmt.Fprintf(c.out, "%-15s %-30s %-40s %-15s %s\n", s.Kind, s.Name, s.InstanceID, status, s.Endpoint())
	}

	return nil
}

// printResults prints one JSON document per instance.
func (c *CLI) printResults(result *core.ApplyResult) error {
	for _, item := range result.Items {
		data, err := json.MarshalIndent(item, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to serialize result: %w", err)
		}
		fmt.Fprintln(c.out, string(data))
	}
	return nil
}

func (c *CLI) prepare(ctx context.Context, files []string, dryRun bool) (*core.Engine, *core.Manifests, error) {
	manifests, err := core.LoadManifests(files)
	if err != nil {
		return nil, nil, err
	}

	var fileProvider *core.ProviderConfig
	if len(manifests.Providers) > 0 {
		fileProvider = core.NewProviderConfigFromManifest(manifests.Providers[0])
	}
	provider := c.providerConfig(fileProvider)

	// Instances without a region run in the provider's region
	for i := range manifests.Instances {
		if manifests.Instances[i].Spec.Region == "" {
			manifests.Instances[i].Spec.Region = provider.OTC.Region
		}
	}

	useCase, err := c.newUseCase(ctx, provider)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create RDS client: %w", err)
	}

	store, err := c.newState(ctx, provider, c.opts.StateDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open state: %w", err)
	}

	engine := core.NewEngine(core.EngineConfig{
		UseCase: useCase,
		State:   store,
		DryRun:  dryRun,
		Verbose: c.opts.Verbose,
	})
	return engine, manifests, nil
}

// providerConfig layers the environment, an OTCProvider manifest and the
// command line flags, in increasing precedence.
func (c *CLI) providerConfig(fileProvider *core.ProviderConfig) *core.ProviderConfig {
	provider := core.NewProviderConfigFromEnv()
	if fileProvider != nil {
		provider.Merge(fileProvider)
	}

	overlay := &core.ProviderConfig{}
	overlay.OTC.Region = c.opts.Region
	overlay.OTC.Endpoint = c.opts.Endpoint
	overlay.OTC.ProjectID = c.opts.ProjectID
	overlay.OBS.Bucket = c.opts.StateBucket
	overlay.OTC.KeepLastManualBackup = c.opts.KeepLastBackup
	provider.Merge(overlay)

	return provider
}

// PrintUsage prints CLI usage
func PrintUsage(w io.Writer) {
	io.WriteString(w, `
OTC RDS Operator - CLI Mode

Usage:
  otc-rds-operator apply  -f <file.yaml>  [flags]    Create or converge instances
  otc-rds-operator plan   -f <file.yaml>  [flags]    Show the execution plan
  otc-rds-operator delete -f <file.yaml>  [flags]    Delete instances
  otc-rds-operator get    [kind]                     List resources in state
  otc-rds-operator serve  [--port 8080]              Run the HTTP API

Flags:
  -f, --file string        Path to a YAML manifest (may be repeated)
  --region string          OTC region (default: eu-de or env OS_REGION_NAME)
  --endpoint string        RDS endpoint override (%s placeholders: region, project id)
  --project-id string      OTC project id (default: env OS_PROJECT_ID or token scope)
  --state-dir string       State directory (default: ~/.otc-rds-operator/state)
  --state-bucket string    Keep state in this OBS bucket instead of the state directory
  --dry-run                Show what would be done without changing anything
  --keep-last-backup       Keep the last manual backup when deleting an instance
  -v, --verbose            Verbose output on stderr

Examples:
  # Create or converge an instance
  otc-rds-operator apply -f samples/rdsinstance.yaml

  # Plan changes
  otc-rds-operator plan -f samples/rdsinstance.yaml

  # List applied instances
  otc-rds-operator get RDSInstance

  # Delete an instance
  otc-rds-operator delete -f samples/rdsinstance.yaml

Environment Variables:
  OS_AUTH_URL             Identity endpoint, e.g. https://iam.eu-de.otc.t-systems.com/v3
  OS_USERNAME             OTC user name
  OS_PASSWORD             OTC password
  OS_DOMAIN_NAME          OTC domain, e.g. OTC-EU-DE-00000000001000000000
  OS_PROJECT_NAME         Project to scope the token to
  OS_PROJECT_ID           Project id used in the RDS endpoint
  OS_REGION_NAME          OTC region
  OTC_RDS_ENDPOINT        RDS endpoint override
  OTC_STATE_BUCKET        OBS bucket for state
  OTC_KEEP_LAST_BACKUP    Keep the last manual backup on delete (true/false)
  OBS_ACCESS_KEY_ID       OBS access key (falls back to AWS_ACCESS_KEY_ID)
  OBS_SECRET_ACCESS_KEY   OBS secret key (falls back to AWS_SECRET_ACCESS_KEY)
`)
}

// IsCliCommand checks whether the arguments select CLI mode
func IsCliCommand(args []string) bool {
	if len(args) < 2 {
		return false
	}
	switch args[1] {
	case "apply", "plan", "delete", "get", "help", "--help", "-h":
		return true
	}
	return false
}

// ParseArgs parses the flags following the command name.
func ParseArgs(args []string) (opts Options, files []string, kind string, err error) {
	value := func(i int, name string) (string, error) {
		if i+1 >= len(args) {
			return "", fmt.Errorf("flag %s requires a value", name)
		}
		return args[i+1], nil
	}

	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "-f" || arg == "--file":
			v, err := value(i, arg)
			if err != nil {
				return opts, nil, "", err
			}
			files = append(files, v)
			i++
		case arg == "--region":
			if opts.Region, err = value(i, arg); err != nil {
				return opts, nil, "", err
			}
			i++
		case arg == "--endpoint":
			if opts.Endpoint, err = value(i, arg); err != nil {
				return opts, nil, "", err
			}
			i++
		case arg == "--project-id":
			if opts.ProjectID, err = value(i, arg); err != nil {
				return opts, nil, "", err
			}
			i++
		case arg == "--state-dir":
			if opts.StateDir, err = value(i, arg); err != nil {
				return opts, nil, "", err
			}
			i++
		case arg == "--state-bucket":
			if opts.StateBucket, err = value(i, arg); err != nil {
				return opts, nil, "", err
			}
			i++
		case arg == "--dry-run":
			opts.DryRun = true
		case arg == "--keep-last-backup":
			opts.KeepLastBackup = true
		case arg == "-v" || arg == "--verbose":
			opts.Verbose = true
		case !strings.HasPrefix(arg, "-"):
			kind = arg
		default:
			return opts, nil, "", fmt.Errorf("unknown flag %s", arg)
		}
	}

	return opts, files, kind, nil
}

// Run executes the CLI based on command line arguments
func Run(ctx context.Context, args []string) error {
	if len(args) < 2 {
		PrintUsage(os.Stdout)
		return nil
	}

	cmd := args[1]
	if cmd == "help" || cmd == "--help" || cmd == "-h" {
		PrintUsage(os.Stdout)
		return nil
	}

	opts, files, kind, err := ParseArgs(args[2:])
	if err != nil {
		return err
	}

	return NewCLI(opts).Execute(ctx, cmd, files, kind)
}

// Execute dispatches a parsed command.
func (c *CLI) Execute(ctx context.Context, cmd string, files []string, kind string) error {
	switch cmd {
	case "apply", "plan", "delete":
		if len(files) == 0 {
			return fmt.Errorf("no file specified. Use -f <file.yaml>")
		}
	}

	switch cmd {
	case "apply":
		return c.RunApply(ctx, files)
	case "plan":
		return c.RunPlan(ctx, files)
	case "delete":
		return c.RunDelete(ctx, files)
	case "get":
		return c.RunGet(ctx, kind)
	default:
		return fmt.Errorf("unknown command: %s", cmd)
	}
}

// Main is the CLI entry point
func Main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := Run(ctx, os.Args); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
