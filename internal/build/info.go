// Package build carries version information stamped in by the linker.
package build

import (
	"fmt"
	"runtime"
)

// Set at build time via -ldflags "-X github.com/shaharia-lab/mailnotify/internal/build.Version=...".
var (
	Version   = "dev"
	CommitSHA = "unknown"
	BuildDate = "unknown"
)

// String returns a single human-readable build info string.
func String() string {
	return fmt.Sprintf("%s (commit %s, built %s, %s %s/%s)",
		Version, CommitSHA, BuildDate, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
