// Package version carries build metadata stamped at link time.
package version

import (
	"fmt"
	"runtime"
)

// Set via -ldflags at build time.
var (
	VersionTag = "dev"
	Commit     = "unknown"
	BuildTime  = "unknown"
)

// Info is the resolved build metadata.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
	Platform  string `json:"platform"`
	GoVersion string `json:"go_version"`
}

// Get returns the binary's build metadata.
func Get() Info {
	return Info{
		Version:   VersionTag,
		Commit:    Commit,
		BuildTime: BuildTime,
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
		GoVersion: runtime.Version(),
	}
}

// String renders the short human form.
func (i Info) String() string {
	return fmt.Sprintf("elkhorn %s (%s, built %s)", i.Version, i.Commit, i.BuildTime)
}
