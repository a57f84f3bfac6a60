package main

import (
	"runtime/debug"
)

// version can be set via ldflags: -ldflags "-X main.version=v1.0.0"
var version = ""

// getVersion returns the ldflags version, then the module version recorded
// by "go install @version", then "dev". A VCS revision is appended when known.
func getVersion() string {
	info, ok := debug.ReadBuildInfo()

	v := version
	if v == "" && ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		v = info.Main.Version
	}
	if v == "" {
		v = "dev"
	}

	if ok {
		if rev := revision(info.Settings); rev != "" {
			return v + " (" + rev + ")"
		}
	}
	return v
}

// revision returns the short VCS revision, with a "+dirty" suffix for modified trees.
func revision(settings []debug.BuildSetting) string {
	var rev string
	var dirty bool
	for _, s := range settings {
		switch s.Key {
		case "vcs.revision":
			rev = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if len(rev) > 12 {
		rev = rev[:12]
	}
	if rev != "" && dirty {
		rev += "+dirty"
	}
	return rev
}
