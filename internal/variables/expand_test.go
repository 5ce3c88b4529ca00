// Copyright 2018-2020 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

package variables

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/go-test/deep"
)

func TestExpandSpecialVariable(t *testing.T) {
	vars := map[string]string{"OS": "linux", "PROFILE": "default"}
	got, err := Expand("build-${OS}-${PROFILE}", "/tmp", vars)
	if err != nil {
		t.Fatal(err.Error())
	}
	if diff := deep.Equal(got, []string{"build-linux-default"}); diff != nil {
		t.Fatal(diff)
	}
}

func TestExpandGlobFanOut(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.a", "b.a"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	got, err := Expand("${*.a}", dir, map[string]string{})
	if err != nil {
		t.Fatal(err.Error())
	}
	sort.Strings(got)
	want := []string{filepath.Join(dir, "a.a"), filepath.Join(dir, "b.a")}
	sort.Strings(want)
	if diff := deep.Equal(got, want); diff != nil {
		t.Fatal(diff)
	}
}

func TestExpandGlobNoMatchFallsBackToLiteral(t *testing.T) {
	dir := t.TempDir()
	got, err := Expand("${nope/*.missing}", dir, map[string]string{})
	if err != nil {
		t.Fatal(err.Error())
	}
	if diff := deep.Equal(got, []string{"nope/*.missing"}); diff != nil {
		t.Fatal(diff)
	}
}

func TestExpandIsReferentiallyTransparent(t *testing.T) {
	// expand(expand(v)) == expand(v) once no tokens remain.
	vars := map[string]string{"OS": "linux"}
	once, err := Expand("plain-${OS}-text", "/tmp", vars)
	if err != nil {
		t.Fatal(err.Error())
	}
	twice, err := Expand(once[0], "/tmp", vars)
	if err != nil {
		t.Fatal(err.Error())
	}
	if diff := deep.Equal(once, twice); diff != nil {
		t.Fatal(diff)
	}
}

func TestExpandScalarTakesFirstResult(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.a", "b.a"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	got, err := ExpandScalar("${*.a}", dir, map[string]string{})
	if err != nil {
		t.Fatal(err.Error())
	}
	if got == "" {
		t.Fatal("expected a non-empty scalar result")
	}
}

func TestNormalizeRpathInvolutive(t *testing.T) {
	cases := []struct {
		os   string
		flag string
	}{
		{"linux", "-Wl,-rpath,$ORIGIN/../lib"},
		{"macosx", "-Wl,-rpath,@executable_path/../lib"},
	}
	for _, c := range cases {
		once := NormalizeRpath(c.flag, c.os)
		twice := NormalizeRpath(once, c.os)
		if once != twice {
			t.Fatalf("normalize not involutive for %s: %q -> %q", c.os, once, twice)
		}
	}
}

func TestTestDirConfigDirDefaultsToTestDir(t *testing.T) {
	exec := filepath.Join("root", "tests", ".testme")
	testDir := filepath.Join("root", "tests")
	testRel, configRel, err := TestDirConfigDir(exec, testDir, "")
	if err != nil {
		t.Fatal(err.Error())
	}
	if testRel != configRel {
		t.Fatalf("expected CONFIGDIR to default to TESTDIR, got %q vs %q", configRel, testRel)
	}
}
