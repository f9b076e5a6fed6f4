// Package version carries build metadata set through ldflags:
//
//	go build -ldflags "-X github.com/keneslab/sitegen/internal/version.Version=v1.2.0"
package version

import "fmt"

var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// String is the text printed by --version.
func String() string {
	return fmt.Sprintf("sitegen %s (commit %s, built %s)", Version, GitCommit, BuildTime)
}
