package buildinfo

import "runtime/debug"

// BinaryVersion is set at build time via -ldflags "-X .../buildinfo.BinaryVersion=v1.2.3".
var BinaryVersion = "dev"

// ModuleVersion returns the module version embedded by the Go toolchain (when available).
func ModuleVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return ""
}

// Version prefers the ldflags value and falls back to the module version for `go install` builds.
func Version() string {
	if BinaryVersion != "" && BinaryVersion != "dev" {
		return BinaryVersion
	}
	if mv := ModuleVersion(); mv != "" {
		return mv
	}
	return "dev"
}
