// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"strings"
	"testing"

	"modkit-cli/internal/config"
	"modkit-cli/internal/issue"
)

func TestGetVersionString(t *testing.T) {
	orig := Version
	t.Cleanup(func() { Version = orig })

	Version = "dev"
	if got := getVersionString(); got != "dev (built from source)" {
		t.Errorf("getVersionString() = %q", got)
	}

	Version = "1.2.3"
	if got := getVersionString(); !strings.HasPrefix(got, "1.2.3") {
		t.Errorf("getVersionString() = %q, want version prefix", got)
	}
}

func TestSearchRoots(t *testing.T) {
	cfg := &config.Config{
		ModsRoot:   "/srv/mods",
		ExtraRoots: []config.SearchRootPath{"/mnt/sd/mods"},
	}
	roots, err := searchRoots(cfg)
	if err != nil {
		t.Fatalf("searchRoots: %v", err)
	}
	if len(roots) != 2 || roots[0] != "/srv/mods" || roots[1] != "/mnt/sd/mods" {
		t.Errorf("searchRoots = %v", roots)
	}
}

func TestExitError(t *testing.T) {
	wrapped := errors.New("boom")
	err := &ExitError{Code: 3, Err: wrapped}
	if err.Error() != "boom" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, wrapped) {
		t.Error("ExitError should unwrap to its cause")
	}

	bare := &ExitError{Code: 3}
	if !strings.Contains(bare.Error(), "3") {
		t.Errorf("Error() = %q, want exit code mentioned", bare.Error())
	}
}

func TestFormatErrorForDisplay(t *testing.T) {
	plain := errors.New("plain failure")
	if got := formatErrorForDisplay(plain, false); got != "plain failure" {
		t.Errorf("plain error = %q", got)
	}

	actionable := issue.NewErrorContext().
		WithOperation("scan mods root").
		WithSuggestion("Run 'modkit init' first").
		Wrap(plain).
		BuildError()
	got := formatErrorForDisplay(actionable, false)
	if !strings.Contains(got, "scan mods root") {
		t.Errorf("actionable error = %q, want operation mentioned", got)
	}
}
