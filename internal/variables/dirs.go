// Copyright 2018-2020 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

package variables

import (
	"path/filepath"

	"github.com/go-stack/stack"
	"github.com/jjeffery/kv" // MIT License
)

// RelativeTo computes the path from execDir to target as a relative path.
// TESTDIR and CONFIGDIR are both paths FROM the executable's directory TO
// the test/config source directory, so that a
// linker rpath entry (e.g. "$ORIGIN/${TESTDIR}/lib") resolves correctly no
// matter where the artifact directory sits relative to the source tree.
func RelativeTo(execDir, target string) (rel string, err kv.Error) {
	rel, errGo := filepath.Rel(execDir, target)
	if errGo != nil {
		return "", kv.Wrap(errGo).With("execDir", execDir, "target", target, "stack", stack.Trace().TrimRuntime())
	}
	return filepath.ToSlash(rel), nil
}

// TestDirConfigDir resolves both special variables for one test: TESTDIR is
// always relative to testDir; CONFIGDIR defaults to TESTDIR when no config
// file governs the test.
func TestDirConfigDir(execDir, testDir, configDir string) (testRel, configRel string, err kv.Error) {
	testRel, err = RelativeTo(execDir, testDir)
	if err != nil {
		return "", "", err
	}
	if configDir == "" {
		return testRel, testRel, nil
	}
	configRel, err = RelativeTo(execDir, configDir)
	if err != nil {
		return "", "", err
	}
	return testRel, configRel, nil
}
