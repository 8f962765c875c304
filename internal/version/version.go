// Package version reports build information set at link time, e.g.
//
//	go build -ldflags "-X github.com/information-sharing-networks/dcs-checker/internal/version.version=v1.2.0"
package version

import "runtime/debug"

var (
	version   = "dev"
	buildDate = "unknown"
	gitCommit = "unknown"
)

// Info describes the running build.
type Info struct {
	Version   string `json:"version"`
	BuildDate string `json:"buildDate"`
	GitCommit string `json:"gitCommit"`
}

// Get returns the build information.
// When no commit was set at link time the VCS revision recorded by the go tool is used, if any.
func Get() Info {
	info := Info{Version: version, BuildDate: buildDate, GitCommit: gitCommit}

	if info.GitCommit == "unknown" {
		if bi, ok := debug.ReadBuildInfo(); ok {
			for _, s := range bi.Settings {
				switch s.Key {
				case "vcs.revision":
					info.GitCommit = s.Value
				case "vcs.time":
					if info.BuildDate == "unknown" {
						info.BuildDate = s.Value
					}
				}
			}
		}
	}
	return info
}
