package main

import (
	"context"
	"flag"
	"os"
	"strings"
	"time"

	"k8s.io/apimachinery/pkg/runtime"
	utilruntime "k8s.io/apimachinery/pkg/util/runtime"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	_ "k8s.io/client-go/plugin/pkg/client/auth"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/healthz"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"
	metricsserver "sigs.k8s.io/controller-runtime/pkg/metrics/server"
	"sigs.k8s.io/controller-runtime/pkg/webhook"

	rdsv1alpha1 "otc-rds-operator/api/v1alpha1"
	"otc-rds-operator/controllers"
	"otc-rds-operator/pkg/api"
	"otc-rds-operator/pkg/cli"
	"otc-rds-operator/pkg/clients"
	"otc-rds-operator/pkg/core"
)

const version = "0.1.0"

var (
	scheme   = runtime.NewScheme()
	setupLog = ctrl.Log.WithName("setup")
)

func init() {
	utilruntime.Must(clientgoscheme.AddToScheme(scheme))
	utilruntime.Must(rdsv1alpha1.AddToScheme(scheme))
}

func main() {
	if cli.IsCliCommand(os.Args) {
		cli.Main()
		return
	}

	if isServeCommand(os.Args) {
		runAPIServer(os.Args[2:])
		return
	}

	var metricsAddr string
	var enableLeaderElection bool
	var probeAddr string
	var syncInterval time.Duration

	flag.StringVar(&metricsAddr, "metrics-bind-address", ":8080", "The address the metric endpoint binds to.")
	flag.StringVar(&probeAddr, "health-probe-bind-address", ":8081", "The address the probe endpoint binds to.")
	flag.BoolVar(&enableLeaderElection, "leader-elect", false,
		"Enable leader election for controller manager. "+
			"Enabling this will ensure there is only one active controller manager.")
	flag.DurationVar(&syncInterval, "sync-interval", 10*time.Minute,
		"How often a converged RDSInstance is compared with OTC again.")

	opts := zap.Options{
		Development: true,
	}
	opts.BindFlags(flag.CommandLine)
	flag.Parse()

	ctrl.SetLogger(zap.New(zap.UseFlagOptions(&opts)))

	mgr, err := ctrl.NewManager(ctrl.GetConfigOrDie(), ctrl.Options{
		Scheme: scheme,
		Metrics: metricsserver.Options{
			BindAddress: metricsAddr,
		},
		WebhookServer: webhook.NewServer(webhook.Options{
			Port: 9443,
		}),
		HealthProbeBindAddress: probeAddr,
		LeaderElection:         enableLeaderElection,
		LeaderElectionID:       "otc-rds-operator.rds.otc-operator.io",
	})
	if err != nil {
		setupLog.Error(err, "unable to start manager")
		os.Exit(1)
	}

	otcClientFactory := clients.NewOTCClientFactory(mgr.GetClient())

	if err = (&controllers.OTCProviderReconciler{
		Client:   mgr.GetClient(),
		Scheme:   mgr.GetScheme(),
		Verifier: otcClientFactory,
	}).SetupWithManager(mgr); err != nil {
		setupLog.Error(err, "unable to create controller", "controller", "OTCProvider")
		os.Exit(1)
	}

	if err = (&controllers.RDSInstanceReconciler{
		Client:         mgr.GetClient(),
		Scheme:         mgr.GetScheme(),
		Recorder:       mgr.GetEventRecorderFor("rdsinstance-controller"),
		UseCaseFactory: otcClientFactory,
		SyncInterval:   syncInterval,
	}).SetupWithManager(mgr); err != nil {
		setupLog.Error(err, "unable to create controller", "controller", "RDSInstance")
		os.Exit(1)
	}

	if os.Getenv("ENABLE_WEBHOOKS") != "false" {
		if err = rdsv1alpha1.SetupRDSInstanceWebhookWithManager(mgr); err != nil {
			setupLog.Error(err, "unable to create webhook", "webhook", "RDSInstance")
			os.Exit(1)
		}
	}

	if err := mgr.AddHealthzCheck("healthz", healthz.Ping); err != nil {
		setupLog.Error(err, "unable to set up health check")
		os.Exit(1)
	}
	if err := mgr.AddReadyzCheck("readyz", healthz.Ping); err != nil {
		setupLog.Error(err, "unable to set up ready check")
		os.Exit(1)
	}

	setupLog.Info("starting manager", "version", version)
	if err := mgr.Start(ctrl.SetupSignalHandler()); err != nil {
		setupLog.Error(err, "problem running manager")
		os.Exit(1)
	}
}

func isServeCommand(args []string) bool {
	if len(args) < 2 {
		return false
	}
	return args[1] == "serve" || args[1] == "server" || args[1] == "api"
}

// runAPIServer serves the REST API until SIGINT or SIGTERM.
func runAPIServer(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)

	port := fs.Int("port", 8080, "Port to listen on.")
	host := fs.String("host", "0.0.0.0", "Address to listen on.")
	stateDir := fs.String("state-dir", "", "State directory (default ~/.otc-rds-operator/state).")
	stateBucket := fs.String("state-bucket", "", "OBS bucket for the state; overrides the state directory.")
	region := fs.String("region", "", "OTC region (default OS_REGION_NAME or eu-de).")
	endpoint := fs.String("endpoint", "", "RDS endpoint override.")
	apiKeys := fs.String("api-keys", "", "Comma separated API keys; enables authentication.")
	corsOrigins := fs.String("cors-origins", "*", "Comma separated CORS origins.")
	rateLimit := fs.Int("rate-limit", 0, "Requests per minute per client; 0 disables the limit.")

	opts := zap.Options{Development: true}
	opts.BindFlags(fs)
	_ = fs.Parse(args)

	ctrl.SetLogger(zap.New(zap.UseFlagOptions(&opts)))

	provider := &core.ProviderConfig{}
	provider.OTC.Region = *region
	provider.OTC.Endpoint = *endpoint
	provider.OBS.Bucket = *stateBucket

	config := &api.ServerConfig{
		Port:           *port,
		Host:           *host,
		Version:        version,
		StateDir:       *stateDir,
		AllowedOrigins: splitList(*corsOrigins),
		Auth: api.AuthConfig{
			Enabled: *apiKeys != "",
			APIKeys: splitList(*apiKeys),
		},
		RateLimit: *rateLimit,
		Provider:  provider,
	}

	ctx := ctrl.SetupSignalHandler()

	server, err := api.NewServer(ctx, config, cli.NewRDSUseCase, cli.NewStateStore)
	if err != nil {
		setupLog.Error(err, "unable to create API server")
		os.Exit(1)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			setupLog.Error(err, "API server failed")
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			setupLog.Error(err, "API server shutdown failed")
		}
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
