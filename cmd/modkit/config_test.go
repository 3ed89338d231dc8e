// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"modkit-cli/internal/config"
)

func TestInitConfigFile(t *testing.T) {
	t.Cleanup(config.Reset)
	dir := filepath.Join(t.TempDir(), "modkit")
	config.SetConfigDirOverride(dir)

	path, err := initConfigFile()
	if err != nil {
		t.Fatalf("initConfigFile: %v", err)
	}
	if path != filepath.Join(dir, "config.cue") {
		t.Errorf("path = %q, want config.cue under the config dir", path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not written: %v", err)
	}

	if _, err := initConfigFile(); err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Errorf("second init error = %v, want refusal to overwrite", err)
	}
}
