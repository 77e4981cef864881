// Package main provides the driverprov CLI for provisioning browser
// automation drivers.
package main

import (
	"context"
	"fmt"
	"os"
)

// Exit codes per failure category. DONE and SKIPPED both exit 0.
const (
	exitUsage      = 2
	exitDetection  = 3
	exitResolution = 4
	exitFetch      = 5
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(exitUsage)
	}

	ctx := context.Background()
	command := os.Args[1]

	// Dispatch to subcommand
	switch command {
	case "provision":
		runProvision(ctx, os.Args[2:])
	case "detect":
		runDetect(ctx, os.Args[2:])
	case "resolve":
		runResolve(ctx, os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(exitUsage)
	}
}

func printUsage() {
	fmt.Println(`driverprov - Browser automation driver provisioner

Usage:
  driverprov <command> [options]

Commands:
  provision  Detect the browser version, resolve a compatible driver release,
             download it and install it on the target path
  detect     Print the detected browser version
  resolve    Resolve the driver release for a given major version

Use "driverprov <command> --help" for more information about a command.`)
}
