//go:build integration

package main

import (
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// TestBinaryVersion_MatchesGitTag verifies that a binary built the way the
// release does reports the git tag as its version.
// Run with: go test -tags=integration ./cmd/reelfeed -v
func TestBinaryVersion_MatchesGitTag(t *testing.T) {
	output, err := exec.Command("git", "describe", "--tags", "--always", "--dirty").Output()
	if err != nil {
		t.Skipf("Skipping test: git not available or not a git repo: %v", err)
	}
	gitVersion := strings.TrimSpace(string(output))

	binary := filepath.Join(t.TempDir(), "reelfeed")
	build := exec.Command("go", "build", "-ldflags", "-X main.version="+gitVersion, "-o", binary, ".")
	if out, err := build.CombinedOutput(); err != nil {
		t.Fatalf("failed to build binary: %v\n%s", err, out)
	}

	versionOutput, err := exec.Command(binary, "--version").Output()
	if err != nil {
		t.Fatalf("failed to run binary: %v", err)
	}
	parts := strings.Fields(strings.TrimSpace(string(versionOutput)))
	if len(parts) < 3 {
		t.Fatalf("unexpected version output format: %s", versionOutput)
	}
	binaryVersion := parts[2] // "reelfeed version v0.2.0" -> "v0.2.0"

	if binaryVersion != gitVersion {
		t.Errorf("Binary version %q does not match git tag %q.\n\nVersion must be injected at build time via:\n  go build -ldflags=\"-X main.version=$(git describe --tags --always --dirty)\" ./cmd/reelfeed", binaryVersion, gitVersion)
	}
}
