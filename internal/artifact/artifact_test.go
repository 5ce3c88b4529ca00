// Copyright 2018-2020 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

package artifact

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/leaf-ai/testme-runner/internal/model"
)

func TestEnsureCreatesDir(t *testing.T) {
	root := t.TempDir()
	dir, err := Ensure(root)
	if err != nil {
		t.Fatal(err.Error())
	}
	if filepath.Base(dir) != dirName {
		t.Fatalf("expected artifact dir named %q, got %q", dirName, dir)
	}
	if info, statErr := os.Stat(dir); statErr != nil || !info.IsDir() {
		t.Fatalf("expected %q to exist as a directory", dir)
	}
}

func TestCleanupRemovesOnPassWithoutKeep(t *testing.T) {
	root := t.TempDir()
	dir, _ := Ensure(root)
	if err := Cleanup(root, model.StatusPass, false); err != nil {
		t.Fatal(err.Error())
	}
	if _, statErr := os.Stat(dir); !os.IsNotExist(statErr) {
		t.Fatal("expected artifact dir removed after a passing test without --keep")
	}
}

func TestCleanupRetainsOnFail(t *testing.T) {
	root := t.TempDir()
	dir, _ := Ensure(root)
	if err := Cleanup(root, model.StatusFail, false); err != nil {
		t.Fatal(err.Error())
	}
	if _, statErr := os.Stat(dir); statErr != nil {
		t.Fatal("expected artifact dir retained after a failing test")
	}
}

func TestCleanupRetainsWhenKeepSet(t *testing.T) {
	root := t.TempDir()
	dir, _ := Ensure(root)
	if err := Cleanup(root, model.StatusPass, true); err != nil {
		t.Fatal(err.Error())
	}
	if _, statErr := os.Stat(dir); statErr != nil {
		t.Fatal("expected artifact dir retained when --keep is set")
	}
}

func TestIsArtifactDir(t *testing.T) {
	if !IsArtifactDir(".testme") {
		t.Fatal("expected .testme to be recognized as the artifact dir name")
	}
	if IsArtifactDir("src") {
		t.Fatal("did not expect an unrelated directory name to match")
	}
}
