// Package buildstamp exposes version information injected at link time:
//
//	go build -ldflags "-X go.jetpack.io/kubescope/pkg/buildstamp.VersionNumber=0.3.0 ..."
package buildstamp

import (
	"fmt"
	"io"
	"runtime"
	"runtime/debug"
	"strings"
)

var (
	// VersionNumber is the version in semver format MAJOR.MINOR.PATCH.
	VersionNumber string

	// PrereleaseTag is appended to the version, usually "dev".
	PrereleaseTag string

	// Commit is the git commit hash the binary was built from.
	Commit string

	// CommitTimestamp is the commit time in ISO 8601 format.
	CommitTimestamp string

	// BuildTimestamp is the build time in ISO 8601 format.
	BuildTimestamp string

	// ReleaseChannel is "prod" for released binaries and "dev" (or empty)
	// otherwise.
	ReleaseChannel string
)

const devVersion = "0.0.0-dev"

// Version returns the version string, e.g. 0.3.0 or 0.3.0-dev+379c1d11. Binaries
// built without ldflags fall back to the module version recorded by the go
// tool.
func Version() string {
	v := strings.TrimSpace(VersionNumber)
	if v == "" {
		return moduleVersion()
	}
	if tag := strings.TrimSpace(PrereleaseTag); tag != "" {
		v += "-" + tag
		if Commit != "" {
			v += "+" + shortCommit()
		}
	}
	return v
}

func IsDevBinary() bool {
	return ReleaseChannel == "" || ReleaseChannel == "dev"
}

// PrintVerboseVersion prints every stamped value to w.
func PrintVerboseVersion(w io.Writer) {
	fmt.Fprint(w, "\n")
	fmt.Fprintf(w, "Version:     %v\n", Version())
	fmt.Fprintf(w, "Commit:      %v\n", Commit)
	fmt.Fprintf(w, "Commit Date: %v\n", CommitTimestamp)
	fmt.Fprintf(w, "Build Date:  %v\n", BuildTimestamp)
	fmt.Fprintf(w, "Channel:     %v\n", ReleaseChannel)
	fmt.Fprintf(w, "Runtime:     %v %v/%v\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

func shortCommit() string {
	if len(Commit) > 8 {
		return Commit[:8]
	}
	return Commit
}

func moduleVersion() string {
	info, ok := debug.ReadBuildInfo()
	if !ok || info.Main.Version == "" || info.Main.Version == "(devel)" {
		return devVersion
	}
	return strings.TrimPrefix(info.Main.Version, "v")
}
