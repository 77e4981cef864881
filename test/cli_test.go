package test_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// buildCLI builds the driverprov CLI binary for testing
func buildCLI(t *testing.T) string {
	t.Helper()

	buildDir := filepath.Join("..", "test-dist", "cli-bin")
	if err := os.MkdirAll(buildDir, 0o750); err != nil {
		t.Fatalf("Failed to create build dir: %v", err)
	}

	cliPath := filepath.Join(buildDir, "driverprov")

	// Check if already built
	if _, err := os.Stat(cliPath); err == nil {
		return cliPath
	}

	t.Log("Building driverprov CLI...")
	cmd := exec.Command("go", "build", "-o", cliPath, "../cmd/driverprov") // #nosec G204 -- test code with controlled input
	cmd.Dir = filepath.Join("..", "test")

	if output, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("Failed to build CLI: %v\nOutput: %s", err, output)
	}

	return cliPath
}

func runCLI(t *testing.T, cliPath string, args ...string) (string, int) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, cliPath, args...) // #nosec G204 -- test code with controlled input
	output, err := cmd.CombinedOutput()
	if err == nil {
		return string(output), 0
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return string(output), exitErr.ExitCode()
	}
	t.Fatalf("Failed to run CLI: %v", err)
	return "", -1
}

func TestCLI_Help(t *testing.T) {
	cliPath := buildCLI(t)

	commands := []string{"", "provision", "detect", "resolve"}
	for _, cmd := range commands {
		t.Run("help_"+cmd, func(t *testing.T) {
			args := []string{"--help"}
			if cmd != "" {
				args = []string{cmd, "--help"}
			}
			output, _ := runCLI(t, cliPath, args...)
			if !strings.Contains(strings.ToLower(output), "usage") {
				t.Errorf("help output missing usage section:\n%s", output)
			}
		})
	}
}

func TestCLI_UnknownCommand(t *testing.T) {
	cliPath := buildCLI(t)

	output, code := runCLI(t, cliPath, "frobnicate")
	if code != 2 {
		t.Errorf("exit code = %d, want 2", code)
	}
	if !strings.Contains(output, "Unknown command") {
		t.Errorf("output missing unknown-command message:\n%s", output)
	}
}

func TestCLI_Provision_MissingRequiredFlags(t *testing.T) {
	cliPath := buildCLI(t)

	_, code := runCLI(t, cliPath, "provision")
	if code != 2 {
		t.Errorf("exit code = %d, want 2", code)
	}
}

func TestCLI_Provision_DetectionFailureExitCode(t *testing.T) {
	cliPath := buildCLI(t)

	_, code := runCLI(t, cliPath, "provision",
		"--browser", filepath.Join(t.TempDir(), "no-such-browser"),
		"--target-dir", t.TempDir(),
		"--timeout", "10")
	if code != 3 {
		t.Errorf("exit code = %d, want 3 for detection failure", code)
	}
}

func TestCLI_Provision_ResolutionFailureExitCode(t *testing.T) {
	cliPath := buildCLI(t)

	browser := fakeBrowserScript(t)
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	_, code := runCLI(t, cliPath, "provision",
		"--browser", browser,
		"--target-dir", t.TempDir(),
		"--lookup-url", server.URL,
		"--timeout", "10")
	if code != 4 {
		t.Errorf("exit code = %d, want 4 for resolution failure", code)
	}
}

func TestCLI_Detect(t *testing.T) {
	cliPath := buildCLI(t)

	output, code := runCLI(t, cliPath, "detect", "--browser", fakeBrowserScript(t))
	if code != 0 {
		t.Fatalf("exit code = %d, want 0\nOutput: %s", code, output)
	}
	if !strings.Contains(output, "major: 123") {
		t.Errorf("output missing major version:\n%s", output)
	}
	if !strings.Contains(output, "123.0.6312.58") {
		t.Errorf("output missing full version:\n%s", output)
	}
}

func fakeBrowserScript(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "fake-browser")
	script := fmt.Sprintf("#!/bin/sh\necho \"%s\"\n", "Google Chrome 123.0.6312.58")
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("Failed to write fake browser: %v", err)
	}
	return path
}
