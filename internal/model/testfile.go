// Copyright 2018-2020 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

package model

import (
	"path/filepath"
	"strings"

	"github.com/go-stack/stack"
	"github.com/jjeffery/kv" // MIT License
)

// testSuffix is the double-suffix marker that identifies a test file:
// <stem>.tst.<ext>.
const testSuffix = ".tst."

// TestFile is an immutable record describing one discovered test. It is
// created once by Discovery and never mutated afterwards.
type TestFile struct {
	Path      string   // absolute path
	Base      string   // basename, e.g. "add.tst.c"
	Dir       string   // containing directory, absolute
	Stem      string   // "add" for "add.tst.c"
	Ext       string   // "c" for "add.tst.c"
	Type      TestType // resolved type tag
	ArtifactD string   // always <Dir>/.testme, owned by the artifact manager
}

// StemAndExt splits a candidate basename into its stem and extension if, and
// only if, it matches the <stem>.tst.<ext> grammar. ok is false otherwise.
func StemAndExt(base string) (stem, ext string, ok bool) {
	idx := strings.LastIndex(base, testSuffix)
	if idx <= 0 {
		return "", "", false
	}
	rest := base[idx+len(testSuffix):]
	if rest == "" {
		return "", "", false
	}
	return base[:idx], rest, true
}

// NewTestFile validates a path against the test-file naming grammar and, if
// it matches a recognized extension, returns a populated TestFile.
func NewTestFile(path string) (tf *TestFile, ok bool, err kv.Error) {
	abs, errGo := filepath.Abs(path)
	if errGo != nil {
		return nil, false, kv.Wrap(errGo).With("path", path, "stack", stack.Trace().TrimRuntime())
	}
	base := filepath.Base(abs)
	stem, ext, matched := StemAndExt(base)
	if !matched {
		return nil, false, nil
	}
	typ, known := TypeForExtension(ext)
	if !known {
		return nil, false, nil
	}
	dir := filepath.Dir(abs)
	return &TestFile{
		Path:      abs,
		Base:      base,
		Dir:       dir,
		Stem:      stem,
		Ext:       ext,
		Type:      typ,
		ArtifactD: filepath.Join(dir, ".testme"),
	}, true, nil
}
