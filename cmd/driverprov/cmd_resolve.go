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

func runResolve(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("resolve", flag.ExitOnError)
	var (
		major      = fs.Int("major", 0, "Browser major version to resolve (required)")
		lookupURL  = fs.String("lookup-url", entities.DefaultLookupBaseURL, "Base URL of the release index")
		driverName = fs.String("driver-name", entities.DefaultDriverName, "Name of the driver executable")
		platform   = fs.String("platform", entities.DefaultPlatform, "Platform suffix used in download URLs")
		latest     = fs.Bool("allow-latest-fallback", false, "Retry a not-found lookup against the latest known-good alias")
		timeout    = fs.Int("timeout", entities.DefaultTimeoutSeconds, "Timeout in seconds")
	)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: driverprov resolve --major <n> [options]

Resolve the driver release for a browser major version and print the
release id and download URL.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		os.Exit(exitUsage)
	}

	if *major < 1 {
		fmt.Fprintf(os.Stderr, "Error: --major must be a positive integer\n\n")
		fs.Usage()
		os.Exit(exitUsage)
	}

	runCtx, cancel := context.WithTimeout(ctx, time.Duration(*timeout)*time.Second)
	defer cancel()

	resolver := gateways.NewReleaseResolver(*lookupURL, *driverName, *platform, *latest)
	descriptor, err := resolver.Resolve(runCtx, entities.ReleaseQuery{MajorVersion: *major})
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(exitResolution)
	}

	fmt.Printf("release: %s\nurl: %s\n", descriptor.ReleaseID, descriptor.DownloadURL)
}
