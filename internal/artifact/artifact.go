// Copyright 2018-2020 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

// Package artifact implements the Artifact manager: the per-test
// ".testme" scratch directory protocol, binary naming, and post-run
// cleanup.
package artifact

import (
	"os"
	"path/filepath"

	"github.com/go-stack/stack"
	"github.com/jjeffery/kv" // MIT License

	"github.com/leaf-ai/testme-runner/internal/model"
)

const dirName = ".testme"

// DirFor returns the "<test-dir>/.testme" artifact directory for a test
// file, the single path both the Compiler abstraction and the test binary
// itself agree on.
func DirFor(testDir string) string {
	return filepath.Join(testDir, dirName)
}

// Ensure creates the artifact directory if it doesn't already exist. Concurrent tests in
// the same directory race here harmlessly: MkdirAll is idempotent and each
// test's binary name is unique per source stem, so co-location never
// collides.
func Ensure(testDir string) (dir string, err kv.Error) {
	dir = DirFor(testDir)
	if errGo := os.MkdirAll(dir, 0755); errGo != nil {
		return "", kv.Wrap(errGo).With("dir", dir, "stack", stack.Trace().TrimRuntime())
	}
	return dir, nil
}

// BinaryPath returns the compiled artifact's path for tf, named after the
// test's stem with a platform-appropriate extension appended by the
// Compiler abstraction (".exe" on Windows; none elsewhere).
func BinaryPath(tf *model.TestFile) string {
	return filepath.Join(DirFor(tf.Dir), tf.Stem)
}

// Cleanup applies the pass/fail/--keep retention rule: a Pass result
// with keep unset removes the artifact directory; any other terminal
// status, or keep set, retains it for post-mortem inspection.
func Cleanup(testDir string, status model.TestStatus, keep bool) kv.Error {
	if keep || status != model.StatusPass {
		return nil
	}
	dir := DirFor(testDir)
	if errGo := os.RemoveAll(dir); errGo != nil {
		return kv.Wrap(errGo).With("dir", dir, "stack", stack.Trace().TrimRuntime())
	}
	return nil
}

// IsArtifactDir reports whether name is the artifact directory's base name,
// used by Discovery's walk to skip it.
func IsArtifactDir(name string) bool {
	return name == dirName
}
