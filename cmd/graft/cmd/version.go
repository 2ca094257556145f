// Copyright © 2020 Skyline Tools

package cmd

import (
	"runtime"

	"github.com/spf13/cobra"
)

// build-time variables, set with -ldflags
var (
	// Version is the semver release name of this build
	Version string

	// BuildDate is the date this build was produced
	BuildDate string

	// GitCommit is the commit hash this build was produced from
	GitCommit string

	// GitState is "clean" or "dirty" depending on the state of the tree the
	// build was produced from
	GitState string
)

// VersionInfo describes this binary
type VersionInfo struct {
	Version   string `json:"version" yaml:"version"`
	BuildDate string `json:"buildDate" yaml:"buildDate"`
	GitCommit string `json:"gitCommit" yaml:"gitCommit"`
	GitState  string `json:"gitState" yaml:"gitState"`
	GoVersion string `json:"goVersion" yaml:"goVersion"`
	OS        string `json:"os" yaml:"os"`
	Arch      string `json:"arch" yaml:"arch"`
}

// NewVersionInfo yields the version of this binary, with defaults for
// non-release builds.
func NewVersionInfo() VersionInfo {
	info := VersionInfo{
		Version:   Version,
		BuildDate: BuildDate,
		GitCommit: GitCommit,
		GitState:  GitState,
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
	if info.Version == "" {
		info.Version = "dev"
	}
	if info.GitState == "" {
		info.GitState = "unknown"
	}
	return info
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Prints the version of this binary",
	Run: func(cmd *cobra.Command, args []string) {
		info := NewVersionInfo()
		infoLogger.Printf("Version: %s", info.Version)
		infoLogger.Printf("Build date: %s", info.BuildDate)
		infoLogger.Printf("Commit: %s (%s)", info.GitCommit, info.GitState)
		infoLogger.Printf("Go: %s %s/%s", info.GoVersion, info.OS, info.Arch)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
