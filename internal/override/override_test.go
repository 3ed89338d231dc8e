// SPDX-License-Identifier: MPL-2.0

package override

import (
	"bytes"
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"

	"modkit-cli/internal/discovery"
	"modkit-cli/internal/issue"
	"modkit-cli/internal/testutil"
	"modkit-cli/pkg/executable"
	"modkit-cli/pkg/types"
)

const testTitle = types.TitleID(0x0100000000010000)

func newTestEngine() (*Engine, *discovery.Registry) {
	reg := discovery.NewRegistry()
	return NewEngine(reg, log.New(io.Discard)), reg
}

func makeModules(t *testing.T, names ...string) []executable.Executable {
	t.Helper()
	modules := make([]executable.Executable, 0, len(names))
	for i, name := range names {
		raw := testutil.InstalledRaw([]byte{byte(i + 1)}, []byte("image of "+name))
		m, err := executable.NewInstalled(name, raw)
		if err != nil {
			t.Fatalf("NewInstalled(%s): %v", name, err)
		}
		modules = append(modules, m)
	}
	return modules
}

func addModuleDir(t *testing.T, reg *discovery.Registry, name string, files map[string][]byte) string {
	t.Helper()
	dir := t.TempDir()
	testutil.WriteTree(t, dir, files)
	cache := reg.Title(testTitle)
	cache.ModuleDirs = append(cache.ModuleDirs, discovery.OverlayRef{Name: name, Path: dir})
	return dir
}

func TestOverridePartitionNoOverlay(t *testing.T) {
	e, _ := newTestEngine()
	part, ok, warnings, err := e.OverridePartition(testTitle)
	if err != nil {
		t.Fatalf("OverridePartition: %v", err)
	}
	if ok || part != nil || len(warnings) != 0 {
		t.Errorf("got (%v, %v, %v), want no replacement", part, ok, warnings)
	}
}

func TestOverridePartitionFirstWins(t *testing.T) {
	e, reg := newTestEngine()
	cache := reg.Title(testTitle)
	for i, payload := range []string{"first", "second"} {
		path := filepath.Join(t.TempDir(), "exefs.nsp")
		raw := testutil.PartitionRaw(t, []string{"main"}, map[string][]byte{"main": []byte(payload)})
		testutil.WriteFile(t, path, raw)
		cache.PartitionContainers = append(cache.PartitionContainers,
			discovery.OverlayRef{Name: []string{"P1", "P2"}[i], Path: path})
	}

	part, ok, warnings, err := e.OverridePartition(testTitle)
	if err != nil {
		t.Fatalf("OverridePartition: %v", err)
	}
	if !ok {
		t.Fatal("expected a replacement partition")
	}
	data, err := part.ReadFile("main")
	if err != nil {
		t.Fatalf("ReadFile(main): %v", err)
	}
	if !bytes.Equal(data, []byte("first")) {
		t.Errorf("main = %q, want first candidate to win", data)
	}
	if len(warnings) != 1 || warnings[0].Issue != issue.PartitionAmbiguityId || warnings[0].Source != "P2" {
		t.Errorf("warnings = %v, want one ambiguity warning naming P2", warnings)
	}
}

func TestOverrideModulesNoOverlay(t *testing.T) {
	e, _ := newTestEngine()
	modules := makeModules(t, "main")
	got, mutated, warnings, err := e.OverrideModules(testTitle, modules)
	if err != nil {
		t.Fatalf("OverrideModules: %v", err)
	}
	if mutated || len(warnings) != 0 || len(got) != 1 {
		t.Errorf("got (%d modules, mutated=%v, warnings=%v), want untouched input", len(got), mutated, warnings)
	}
}

func TestOverrideModulesReplaces(t *testing.T) {
	e, reg := newTestEngine()
	replacement := testutil.InstalledRaw([]byte{0xAA}, []byte("replaced image"))
	addModuleDir(t, reg, "M1", map[string][]byte{"main": replacement})

	got, mutated, warnings, err := e.OverrideModules(testTitle, makeModules(t, "main", "subsdk0"))
	if err != nil {
		t.Fatalf("OverrideModules: %v", err)
	}
	if !mutated {
		t.Error("expected mutation")
	}
	if len(warnings) != 0 {
		t.Errorf("warnings = %v, want none", warnings)
	}
	if len(got) != 2 {
		t.Fatalf("len(modules) = %d, want 2", len(got))
	}
	if !bytes.Equal(got[0].Image(), []byte("replaced image")) {
		t.Errorf("main image = %q, want replacement content", got[0].Image())
	}
	if got[0].BuildID()[0] != 0xAA {
		t.Error("replacement should carry the overlay file's build id")
	}
	if !bytes.Equal(got[0].(*executable.Installed).Raw(), replacement) {
		t.Error("replacement must serialize back with its own header")
	}
	if !bytes.Equal(got[1].Image(), []byte("image of subsdk0")) {
		t.Error("untouched module must keep its original image")
	}
}

func TestOverrideModulesDuplicateReplacementWarns(t *testing.T) {
	e, reg := newTestEngine()
	addModuleDir(t, reg, "M1", map[string][]byte{
		"main": testutil.InstalledRaw([]byte{0x01}, []byte("from M1")),
	})
	addModuleDir(t, reg, "M2", map[string][]byte{
		"main": testutil.InstalledRaw([]byte{0x02}, []byte("from M2")),
	})

	got, _, warnings, err := e.OverrideModules(testTitle, makeModules(t, "main"))
	if err != nil {
		t.Fatalf("OverrideModules: %v", err)
	}
	if !bytes.Equal(got[0].Image(), []byte("from M1")) {
		t.Errorf("main image = %q, want first overlay to win", got[0].Image())
	}
	if len(warnings) != 1 {
		t.Fatalf("warnings = %v, want exactly one", warnings)
	}
	w := warnings[0]
	if w.Issue != issue.DuplicateModuleReplacementId || w.Source != "M2" || w.Module != "main" {
		t.Errorf("warning = %+v, want duplicate replacement naming M2/main", w)
	}
}

func TestOverrideModulesStubRemoves(t *testing.T) {
	e, reg := newTestEngine()
	addModuleDir(t, reg, "M1", map[string][]byte{"subsdk0.stub": nil})

	got, mutated, _, err := e.OverrideModules(testTitle, makeModules(t, "main", "subsdk0", "sdk"))
	if err != nil {
		t.Fatalf("OverrideModules: %v", err)
	}
	if !mutated {
		t.Error("expected mutation")
	}
	if len(got) != 2 {
		t.Fatalf("len(modules) = %d, want 2 after stub removal", len(got))
	}
	if got[0].Name() != "main" || got[1].Name() != "sdk" {
		t.Errorf("modules = [%s, %s], want [main, sdk]", got[0].Name(), got[1].Name())
	}
}

func TestOverrideModulesReplacementPreemptsStub(t *testing.T) {
	e, reg := newTestEngine()
	addModuleDir(t, reg, "M1", map[string][]byte{
		"main":      testutil.InstalledRaw([]byte{0x01}, []byte("kept")),
		"main.stub": nil,
	})

	got, _, _, err := e.OverrideModules(testTitle, makeModules(t, "main"))
	if err != nil {
		t.Fatalf("OverrideModules: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len(modules) = %d, want replaced module kept", len(got))
	}
	if !bytes.Equal(got[0].Image(), []byte("kept")) {
		t.Errorf("main image = %q, want replacement content", got[0].Image())
	}
}

func TestOverrideModulesStubInOneOverlayReplacedInAnother(t *testing.T) {
	e, reg := newTestEngine()
	addModuleDir(t, reg, "M1", map[string][]byte{"main.stub": nil})
	addModuleDir(t, reg, "M2", map[string][]byte{
		"main": testutil.InstalledRaw([]byte{0x02}, []byte("from M2")),
	})

	got, _, _, err := e.OverrideModules(testTitle, makeModules(t, "main"))
	if err != nil {
		t.Fatalf("OverrideModules: %v", err)
	}
	if len(got) != 1 || !bytes.Equal(got[0].Image(), []byte("from M2")) {
		t.Error("replacement in any overlay must pre-empt a stub from another")
	}
}

func TestOverrideModulesTooMany(t *testing.T) {
	e, _ := newTestEngine()
	names := make([]string, MaxModules+1)
	for i := range names {
		names[i] = "mod" + string(rune('a'+i%26)) + string(rune('0'+i/26))
	}
	_, _, _, err := e.OverrideModules(testTitle, makeModules(t, names...))
	if err == nil {
		t.Fatal("expected a fatal error for 33 modules")
	}
	if !errors.Is(err, ErrTooManyModules) {
		t.Errorf("error = %v, want ErrTooManyModules in the chain", err)
	}
}
