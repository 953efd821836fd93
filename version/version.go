package version

import (
	"fmt"
	"runtime/debug"
	"sync"
)

// Program is the name written into exported documents.
const Program = "sdfsched"

// DocumentFormat is the graph and schedule document layout version.
const DocumentFormat = "3.0.0"

// Set at build time with -ldflags "-X".
var (
	Version   = "dev"
	Commit    = ""
	BuildTime = ""
)

// Info describes the running binary.
type Info struct {
	Version        string `json:"version"`
	Commit         string `json:"commit,omitempty"`
	BuildTime      string `json:"build_time,omitempty"`
	GoVersion      string `json:"go_version"`
	Dirty          bool   `json:"dirty"`
	DocumentFormat string `json:"document_format"`
}

var (
	once sync.Once
	info Info
)

// Get returns the build information. Values missing from -ldflags are
// filled from the VCS stamp of the module build when one exists.
func Get() Info {
	once.Do(func() {
		info = read(Version, Commit, BuildTime, debug.ReadBuildInfo)
	})
	return info
}

func read(version, commit, built string, buildInfo func() (*debug.BuildInfo, bool)) Info {
	i := Info{
		Version:        version,
		Commit:         commit,
		BuildTime:      built,
		DocumentFormat: DocumentFormat,
	}
	bi, ok := buildInfo()
	if !ok {
		return i
	}
	i.GoVersion = bi.GoVersion
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if i.Commit == "" {
				i.Commit = s.Value
			}
		case "vcs.time":
			if i.BuildTime == "" {
				i.BuildTime = s.Value
			}
		case "vcs.modified":
			i.Dirty = s.Value == "true"
		}
	}
	if len(i.Commit) > 7 {
		i.Commit = i.Commit[:7]
	}
	return i
}

// Short is the version with the commit appended, e.g. "1.2.0-3f9c2ab".
func (i Info) Short() string {
	v := i.Version
	if i.Commit != "" {
		v += "-" + i.Commit
	}
	if i.Dirty {
		v += "-dirty"
	}
	return v
}

// String is the version line printed by the CLI.
func (i Info) String() string {
	s := fmt.Sprintf("%s (documents %s", i.Short(), i.DocumentFormat)
	if i.BuildTime != "" {
		s += ", built " + i.BuildTime
	}
	return s + ")"
}

// Generator identifies this binary in exported documents.
func Generator() string {
	return Program + " " + Version
}
