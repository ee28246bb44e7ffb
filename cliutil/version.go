// Package cliutil holds the small pieces of CLI plumbing shared by
// cmd/boltzd and cmd/boltzcli.
package cliutil

import "fmt"

// Version and Commit are set via -ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
)

// GetVersion formats the version string shown by --version.
func GetVersion() string {
	return fmt.Sprintf("%s (%s)", Version, Commit)
}
