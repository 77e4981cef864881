package gateways

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"driverprov/internal/domain/entities"
)

// dottedVersionPattern matches dotted-numeric version tokens like
// "123.0.6312.58". A bare integer is not a version.
var dottedVersionPattern = regexp.MustCompile(`^[0-9]+(\.[0-9]+)+$`)

// VersionDetector queries an installed browser binary for its version
type VersionDetector struct {
	browserPath string
	versionFlag string
}

// NewVersionDetector creates a detector for the given browser binary
func NewVersionDetector(browserPath string) *VersionDetector {
	return &VersionDetector{
		browserPath: browserPath,
		versionFlag: "--version",
	}
}

// Detect invokes the browser binary with its version flag and extracts the
// version from the banner it prints. The invocation is bounded by ctx.
func (vd *VersionDetector) Detect(ctx context.Context) (entities.BrowserVersion, error) {
	//nolint:gosec // G204: browser path is operator-supplied configuration
	cmd := exec.CommandContext(ctx, vd.browserPath, vd.versionFlag)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return entities.BrowserVersion{}, &entities.DetectionError{
			Msg: fmt.Sprintf("failed to invoke %s %s", vd.browserPath, vd.versionFlag),
			Err: err,
		}
	}

	version, err := parseVersionBanner(stdout.String())
	if err != nil {
		return entities.BrowserVersion{}, &entities.DetectionError{
			Msg: fmt.Sprintf("unparseable version banner %q", strings.TrimSpace(stdout.String())),
			Err: err,
		}
	}

	return version, nil
}

// parseVersionBanner scans whitespace-delimited tokens for the first
// dotted-numeric token with a positive major segment. Leading vendor words
// ("Google Chrome", "Chromium") are skipped rather than assumed.
func parseVersionBanner(banner string) (entities.BrowserVersion, error) {
	for _, token := range strings.Fields(banner) {
		if !dottedVersionPattern.MatchString(token) {
			continue
		}

		majorStr := token[:strings.Index(token, ".")]
		major, err := strconv.Atoi(majorStr)
		if err != nil || major < 1 {
			continue
		}

		return entities.BrowserVersion{Major: major, Full: token}, nil
	}

	return entities.BrowserVersion{}, fmt.Errorf("no dotted-numeric version token found")
}
