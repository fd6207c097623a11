package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"time"
)

var (
	version      = ""                     // Injected with a linker flag
	buildDate    = "1970-01-01T00:00:00Z" // Injected with a linker flag
	gitCommit    = ""                     // Injected with a linker flag
	gitTreeState = ""                     // Injected with a linker flag
)

// Version describes the build of the running binary.
type Version struct {
	Version      string    `json:"version"`
	BuildDate    time.Time `json:"buildDate"`
	GitCommit    string    `json:"gitCommit"`
	GitTreeDirty bool      `json:"gitTreeDirty"`
	GoVersion    string    `json:"goVersion"`
	Platform     string    `json:"platform"`
}

var ver = newVersion(version, buildDate, gitCommit, gitTreeState)

func newVersion(v, date, commit, treeState string) Version {
	built, err := time.Parse(time.RFC3339, date)
	if err != nil {
		built = time.Time{}
	}
	if commit == "" {
		// Fall back to what the Go toolchain stamped into the binary.
		if info, ok := debug.ReadBuildInfo(); ok {
			for _, s := range info.Settings {
				switch s.Key {
				case "vcs.revision":
					commit = s.Value
				case "vcs.modified":
					if s.Value == "false" {
						treeState = "clean"
					}
				}
			}
		}
	}
	res := Version{
		Version:      v,
		BuildDate:    built,
		GitCommit:    commit,
		GitTreeDirty: treeState != "clean",
		GoVersion:    runtime.Version(),
		Platform:     fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
	if res.Version == "" || res.GitCommit == "" || res.GitTreeDirty {
		res.Version = "devel"
		if len(res.GitCommit) >= 7 {
			res.Version = fmt.Sprintf("%s+%s", res.Version, res.GitCommit[0:7])
		} else {
			res.Version += "+unknown"
		}
		if res.GitTreeDirty {
			res.Version += ".dirty"
		}
	}
	return res
}

// GetVersion returns information about the running binary.
func GetVersion() Version {
	return ver
}
