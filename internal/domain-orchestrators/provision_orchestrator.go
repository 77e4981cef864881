// Package orchestrators coordinates the provisioning workflow across the
// detection, resolution and installation gateways.
package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"driverprov/internal/domain/entities"
	"driverprov/internal/domain/interfaces"
)

// resolveRetryDelay is waited before the single bounded retry of a
// network-class resolution failure.
const resolveRetryDelay = 2 * time.Second

// VersionDetector interface for querying the installed browser version
type VersionDetector interface {
	Detect(ctx context.Context) (entities.BrowserVersion, error)
}

// ReleaseResolver interface for resolving a driver release from the index
type ReleaseResolver interface {
	Resolve(ctx context.Context, query entities.ReleaseQuery) (entities.ReleaseDescriptor, error)
}

// DriverInstaller interface for downloading and installing the driver binary
type DriverInstaller interface {
	Install(ctx context.Context, descriptor entities.ReleaseDescriptor, targetDir string) (entities.InstalledDriver, error)
}

// State identifies a phase of a provisioning run
type State string

// Provisioning run states
const (
	StateStart     State = "START"
	StateDetecting State = "DETECTING"
	StateResolving State = "RESOLVING"
	StateFetching  State = "FETCHING"
	StateSkipped   State = "SKIPPED"
	StateDone      State = "DONE"
	StateFailed    State = "FAILED"
)

// ProvisionOrchestrator sequences detect, resolve and install, and is the
// only place that decides whether a failure is fatal or degrades to reusing
// a previously installed driver.
type ProvisionOrchestrator struct {
	detector   VersionDetector
	resolver   ReleaseResolver
	installer  DriverInstaller
	targetDir  string
	driverName string
	logger     interfaces.Logger
}

// ProvisionOrchestratorConfig holds configuration for the orchestrator
type ProvisionOrchestratorConfig struct {
	TargetDir  string
	DriverName string
}

// NewProvisionOrchestrator creates a new provisioning orchestrator
func NewProvisionOrchestrator(
	detector VersionDetector,
	resolver ReleaseResolver,
	installer DriverInstaller,
	logger interfaces.Logger,
	config ProvisionOrchestratorConfig,
) *ProvisionOrchestrator {
	driverName := config.DriverName
	if driverName == "" {
		driverName = entities.DefaultDriverName
	}
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}

	return &ProvisionOrchestrator{
		detector:   detector,
		resolver:   resolver,
		installer:  installer,
		targetDir:  config.TargetDir,
		driverName: driverName,
		logger:     logger,
	}
}

// ProvisionResult contains the outcome of one provisioning run
type ProvisionResult struct {
	State           State
	BrowserVersion  entities.BrowserVersion
	Release         entities.ReleaseDescriptor
	Driver          entities.InstalledDriver
	Reused          bool
	DetectDuration  time.Duration
	ResolveDuration time.Duration
	InstallDuration time.Duration
	TotalDuration   time.Duration
	Err             error
}

// Provision executes one end-to-end run: detect the browser version, resolve
// a compatible driver release, download and install it. DONE and SKIPPED
// both report success; the returned error is non-nil only for FAILED.
func (o *ProvisionOrchestrator) Provision(ctx context.Context) (*ProvisionResult, error) {
	startTime := time.Now()
	result := &ProvisionResult{State: StateStart}
	defer func() {
		result.TotalDuration = time.Since(startTime)
	}()

	// Step 1: detect the installed browser version. Fatal on failure: with
	// no browser there is nothing to provision for.
	result.State = StateDetecting
	detectStart := time.Now()
	version, err := o.detector.Detect(ctx)
	result.DetectDuration = time.Since(detectStart)
	if err != nil {
		return o.fail(result, err)
	}
	result.BrowserVersion = version
	o.logger.Info("detected browser version",
		interfaces.F("major", version.Major),
		interfaces.F("version", version.Full))

	// Step 2: resolve a compatible driver release. Network-class failures
	// get exactly one retry; NotFound is never retried.
	result.State = StateResolving
	resolveStart := time.Now()
	descriptor, err := o.resolveWithRetry(ctx, entities.ReleaseQuery{MajorVersion: version.Major})
	result.ResolveDuration = time.Since(resolveStart)
	if err != nil {
		return o.degradeOrFail(result, err)
	}
	result.Release = descriptor
	o.logger.Info("resolved driver release",
		interfaces.F("release", descriptor.ReleaseID),
		interfaces.F("url", descriptor.DownloadURL))

	// Step 3: download and install the driver binary.
	result.State = StateFetching
	installStart := time.Now()
	driver, err := o.installer.Install(ctx, descriptor, o.targetDir)
	result.InstallDuration = time.Since(installStart)
	if err != nil {
		return o.degradeOrFail(result, err)
	}
	result.Driver = driver

	result.State = StateDone
	o.logger.Info("driver installed",
		interfaces.F("path", driver.Path),
		interfaces.F("release", driver.ReleaseID))
	return result, nil
}

// resolveWithRetry issues the lookup, retrying once on network-class
// failures. NotFound means the index definitively has no entry, so a retry
// would only repeat the answer.
func (o *ProvisionOrchestrator) resolveWithRetry(ctx context.Context, query entities.ReleaseQuery) (entities.ReleaseDescriptor, error) {
	descriptor, err := o.resolver.Resolve(ctx, query)
	if err == nil {
		return descriptor, nil
	}

	var resErr *entities.ResolutionError
	if !errors.As(err, &resErr) || resErr.Reason == entities.ResolutionNotFound || ctx.Err() != nil {
		return entities.ReleaseDescriptor{}, err
	}

	o.logger.Warn("release lookup failed, retrying once",
		interfaces.F("reason", resErr.Reason),
		interfaces.F("error", err.Error()))
	if sleepErr := sleepContext(ctx, resolveRetryDelay); sleepErr != nil {
		return entities.ReleaseDescriptor{}, err
	}

	return o.resolver.Resolve(ctx, query)
}

// degradeOrFail applies the tolerance rule: a resolution or fetch failure is
// survivable only when a previously installed driver already sits at the
// target path. The degradation is logged, never silent.
func (o *ProvisionOrchestrator) degradeOrFail(result *ProvisionResult, err error) (*ProvisionResult, error) {
	driverPath := filepath.Join(o.targetDir, o.driverName)
	if !regularFileExists(driverPath) {
		return o.fail(result, err)
	}

	o.logger.Warn("continuing with previously installed driver",
		interfaces.F("state", string(result.State)),
		interfaces.F("path", driverPath),
		interfaces.F("error", err.Error()))

	result.State = StateSkipped
	result.Reused = true
	result.Driver = entities.InstalledDriver{
		Path:      driverPath,
		ReleaseID: entities.ReleaseIDUnknown,
	}
	return result, nil
}

func (o *ProvisionOrchestrator) fail(result *ProvisionResult, err error) (*ProvisionResult, error) {
	result.State = StateFailed
	result.Err = err
	o.logger.Error("provisioning failed",
		interfaces.F("state", string(result.State)),
		interfaces.F("error", err.Error()))
	return result, err
}

// regularFileExists reports whether path is an existing regular file
func regularFileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// sleepContext waits for d or until ctx is cancelled
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Summary returns a human-readable summary of the run
func (r *ProvisionResult) Summary() string {
	switch r.State {
	case StateDone:
		return fmt.Sprintf(`Driver provisioned.
Browser: %s
Release: %s
Path: %s
Detect: %v
Resolve: %v
Install: %v
Total: %v`,
			r.BrowserVersion.Full,
			r.Driver.ReleaseID,
			r.Driver.Path,
			r.DetectDuration,
			r.ResolveDuration,
			r.InstallDuration,
			r.TotalDuration,
		)
	case StateSkipped:
		return fmt.Sprintf(`Reusing previously installed driver.
Browser: %s
Path: %s
Total: %v`,
			r.BrowserVersion.Full,
			r.Driver.Path,
			r.TotalDuration,
		)
	default:
		return fmt.Sprintf("Provisioning failed: %v", r.Err)
	}
}
