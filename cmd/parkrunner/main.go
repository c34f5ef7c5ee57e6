// Command parkrunner drives the parking robot through a mapped course.
//
// Subcommands:
//   - run: plan the mission, wait for the operator, then drive it
//   - plan: print the planned route without touching hardware
//   - calibrate: record sensor references and the colour palette
//   - version: print build information
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/nerrad567/parkrunner-core/migrations"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

func main() {
	// Cancelled on Ctrl+C or SIGTERM; a run in progress halts the robot.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := newRootCmd().ExecuteContext(ctx)
	cancel()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
