package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"driverprov/internal/domain-adapters/gateways"
	orchestrators "driverprov/internal/domain-orchestrators"
	"driverprov/internal/domain/entities"
	"driverprov/internal/external-adapters/logging"
	"driverprov/internal/external-adapters/yaml"
)

func runProvision(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("provision", flag.ExitOnError)
	var (
		browserPath = fs.String("browser", "", "Path to the installed browser binary (required)")
		targetDir   = fs.String("target-dir", "", "Directory on the executable search path for the driver (required)")
		lookupURL   = fs.String("lookup-url", "", "Base URL of the release index")
		driverName  = fs.String("driver-name", "", "Name of the driver executable")
		platform    = fs.String("platform", "", "Platform suffix used in download URLs (e.g. linux64)")
		timeout     = fs.Int("timeout", 0, "Timeout for the whole run in seconds")
		latest      = fs.Bool("allow-latest-fallback", false, "Retry a not-found lookup against the latest known-good alias")
		configPath  = fs.String("config", "", "Optional YAML configuration file; flags override file values")
		quiet       = fs.Bool("quiet", false, "Quiet mode - errors only")
	)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: driverprov provision [options]

Run one provisioning pass: detect the installed browser version, resolve a
compatible driver release from the remote index, download the archive and
install the driver binary into the target directory.

Exit codes: 0 on success (including reuse of an existing driver after a
tolerated lookup failure), 3 detection failure, 4 resolution failure,
5 fetch failure.

Examples:
  driverprov provision --browser /usr/bin/google-chrome --target-dir /usr/local/bin
  driverprov provision --config provision.yml --quiet

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		os.Exit(exitUsage)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitUsage)
	}

	// Flags override file values
	if *browserPath != "" {
		cfg.BrowserPath = *browserPath
	}
	if *targetDir != "" {
		cfg.TargetDir = *targetDir
	}
	if *lookupURL != "" {
		cfg.LookupBaseURL = *lookupURL
	}
	if *driverName != "" {
		cfg.DriverName = *driverName
	}
	if *platform != "" {
		cfg.Platform = *platform
	}
	if *timeout != 0 {
		cfg.TimeoutSeconds = *timeout
	}
	if *latest {
		cfg.AllowLatestFallback = true
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
		fs.Usage()
		os.Exit(exitUsage)
	}

	logger := logging.New(*quiet)

	detector := gateways.NewVersionDetector(cfg.BrowserPath)
	resolver := gateways.NewReleaseResolver(cfg.LookupBaseURL, cfg.DriverName, cfg.Platform, cfg.AllowLatestFallback)
	fetcher := gateways.NewFetcher(cfg.DriverName)

	orchestrator := orchestrators.NewProvisionOrchestrator(
		detector,
		resolver,
		fetcher,
		logger,
		orchestrators.ProvisionOrchestratorConfig{
			TargetDir:  cfg.TargetDir,
			DriverName: cfg.DriverName,
		},
	)

	runCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.TimeoutSeconds)*time.Second)
	defer cancel()

	result, err := orchestrator.Provision(runCtx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(exitCodeFor(err))
	}

	if !*quiet {
		fmt.Println(result.Summary())
	}
}

// loadConfig reads the optional YAML file; without one, an empty config is
// returned and flags plus defaults fill it in.
func loadConfig(configPath string) (*entities.ProvisionConfig, error) {
	if configPath == "" {
		return &entities.ProvisionConfig{}, nil
	}
	return yaml.NewConfigParser().ParseFile(configPath)
}

// exitCodeFor maps the error taxonomy to distinct exit codes
func exitCodeFor(err error) int {
	var detErr *entities.DetectionError
	var resErr *entities.ResolutionError
	var fetchErr *entities.FetchError

	switch {
	case errors.As(err, &detErr):
		return exitDetection
	case errors.As(err, &resErr):
		return exitResolution
	case errors.As(err, &fetchErr):
		return exitFetch
	default:
		return 1
	}
}
