package main

import "runtime/debug"

// version is injected at build time via -ldflags "-X main.version=...".
var version = "dev"

// resolveVersion prefers the ldflags version and falls back to the module
// version recorded by `go install`.
func resolveVersion(ldflags string, info *debug.BuildInfo) string {
	if ldflags != "" && ldflags != "dev" {
		return ldflags
	}
	if info == nil {
		return "dev"
	}
	if v := info.Main.Version; v != "" && v != "(devel)" {
		return v
	}
	return "dev"
}

func currentVersion() string {
	info, _ := debug.ReadBuildInfo()
	return resolveVersion(version, info)
}
