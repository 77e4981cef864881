package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"driverprov/internal/domain-adapters/gateways"
	"driverprov/internal/domain/entities"
)

func runDetect(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("detect", flag.ExitOnError)
	var (
		browserPath = fs.String("browser", "", "Path to the installed browser binary (required)")
		timeout     = fs.Int("timeout", entities.DefaultTimeoutSeconds, "Timeout in seconds")
	)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: driverprov detect --browser <path> [options]

Query the installed browser binary and print its major and full version.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		os.Exit(exitUsage)
	}

	if *browserPath == "" {
		fmt.Fprintf(os.Stderr, "Error: --browser is required\n\n")
		fs.Usage()
		os.Exit(exitUsage)
	}

	runCtx, cancel := context.WithTimeout(ctx, time.Duration(*timeout)*time.Second)
	defer cancel()

	version, err := gateways.NewVersionDetector(*browserPath).Detect(runCtx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(exitDetection)
	}

	fmt.Printf("major: %d\nversion: %s\n", version.Major, version.Full)
}
