// Copyright 2018-2020 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

package discovery

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/leaf-ai/testme-runner/internal/model"
	"github.com/leaf-ai/testme-runner/internal/platform"
)

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestWalkSkipsArtifactAndHiddenDirs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "add.tst.c"), "")
	writeFile(t, filepath.Join(root, ".testme", "stray.tst.c"), "")
	writeFile(t, filepath.Join(root, ".git", "hooks.tst.sh"), "")
	writeFile(t, filepath.Join(root, "node_modules", "pkg", "x.tst.js"), "")
	writeFile(t, filepath.Join(root, ".hidden", "y.tst.sh"), "")

	files, err := Walk([]string{root})
	if err != nil {
		t.Fatal(err.Error())
	}
	if len(files) != 1 || files[0].Base != "add.tst.c" {
		t.Fatalf("expected only add.tst.c to be discovered, got %+v", files)
	}
}

func TestDiscoverFiltersByEnableManual(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "testme.json5"), `{ enable: 'manual' }`)
	writeFile(t, filepath.Join(root, "hidden.tst.sh"), "")

	p := platform.NewPlatformContext()

	none, err := Discover(p, []string{root}, Options{CWD: root}, nil, nil)
	if err != nil {
		t.Fatal(err.Error())
	}
	if len(none) != 0 {
		t.Fatalf("expected manual-enabled test to be dropped with no matching CLI pattern, got %+v", none)
	}

	named, err := Discover(p, []string{root}, Options{NamePatterns: []string{"hidden"}, CWD: root}, nil, nil)
	if err != nil {
		t.Fatal(err.Error())
	}
	if len(named) != 1 {
		t.Fatalf("expected explicitly-named manual test to survive, got %+v", named)
	}
}

// CLI patterns are matched literally, so a pattern with glob
// metacharacters names nothing -- which is what keeps wildcards from ever
// selecting a manual test.
func TestDiscoverWildcardNeverReachesManual(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "testme.json5"), `{ enable: 'manual' }`)
	writeFile(t, filepath.Join(root, "hidden.tst.sh"), "")

	p := platform.NewPlatformContext()
	out, err := Discover(p, []string{root}, Options{NamePatterns: []string{"hid*"}, CWD: root}, nil, nil)
	if err != nil {
		t.Fatal(err.Error())
	}
	if len(out) != 0 {
		t.Fatalf("expected a wildcard CLI pattern to never reach a manual test, got %+v", out)
	}
}

func TestWalkSkipsUnreadableDirectory(t *testing.T) {
	if runtime.GOOS == "windows" || os.Getuid() == 0 {
		t.Skip("directory permissions are not enforced here")
	}
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "ok.tst.sh"), "")
	locked := filepath.Join(root, "locked")
	writeFile(t, filepath.Join(locked, "hidden.tst.sh"), "")
	if err := os.Chmod(locked, 0000); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chmod(locked, 0755) })

	files, err := Walk([]string{root})
	if err != nil {
		t.Fatal(err.Error())
	}
	if len(files) != 1 || files[0].Base != "ok.tst.sh" {
		t.Fatalf("expected the unreadable directory to be skipped, not fatal, got %+v", files)
	}
}

func TestDiscoverConfigErrorSkipsOnlyItsSubtree(t *testing.T) {
	root := t.TempDir()
	goodDir := filepath.Join(root, "good")
	badDir := filepath.Join(root, "bad")
	writeFile(t, filepath.Join(goodDir, "a.tst.sh"), "")
	writeFile(t, filepath.Join(badDir, "testme.json5"), "{ not valid")
	writeFile(t, filepath.Join(badDir, "b.tst.sh"), "")

	p := platform.NewPlatformContext()
	out, err := Discover(p, []string{root}, Options{CWD: root}, nil, nil)
	if err != nil {
		t.Fatal(err.Error())
	}
	if len(out) != 1 || out[0].File.Base != "a.tst.sh" {
		t.Fatalf("expected only the good subtree to survive a config error, got %+v", out)
	}
}

func TestDiscoverDepthGating(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "testme.json5"), `{ depth: 2 }`)
	writeFile(t, filepath.Join(root, "deep.tst.sh"), "")

	p := platform.NewPlatformContext()
	shallow, err := Discover(p, []string{root}, Options{Depth: 1, CWD: root}, nil, nil)
	if err != nil {
		t.Fatal(err.Error())
	}
	if len(shallow) != 0 {
		t.Fatal("expected depth=1 caller to be rejected by a depth=2 config")
	}

	deep, err := Discover(p, []string{root}, Options{Depth: 2, CWD: root}, nil, nil)
	if err != nil {
		t.Fatal(err.Error())
	}
	if len(deep) != 1 {
		t.Fatal("expected depth=2 caller to satisfy a depth=2 config")
	}
}

func TestGroupByConfigDir(t *testing.T) {
	a := &Filtered{File: &model.TestFile{Base: "a.tst.c"}, Config: &model.TestConfig{ConfigDir: "/x"}}
	b := &Filtered{File: &model.TestFile{Base: "b.tst.c"}, Config: &model.TestConfig{ConfigDir: "/x"}}
	c := &Filtered{File: &model.TestFile{Base: "c.tst.c"}, Config: &model.TestConfig{ConfigDir: "/y"}}

	groups := Group([]*Filtered{a, b, c})
	if len(groups["/x"]) != 2 || len(groups["/y"]) != 1 {
		t.Fatalf("expected 2 groups with sizes 2 and 1, got %+v", groups)
	}
}

func TestDiscoverSkipsPlatformIncompatibleTypes(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "win.tst.bat"), "")
	writeFile(t, filepath.Join(root, "any.tst.sh"), "")

	p := platform.NewPlatformContext()
	out, err := Discover(p, []string{root}, Options{CWD: root}, nil, nil)
	if err != nil {
		t.Fatal(err.Error())
	}
	for _, f := range out {
		if f.File.Type == model.TestBatch && !p.IsWindows() {
			t.Fatal("expected batch tests to be skipped off Windows")
		}
	}
	if !p.IsWindows() && len(out) != 1 {
		t.Fatalf("expected only the shell test to survive, got %d", len(out))
	}
}
