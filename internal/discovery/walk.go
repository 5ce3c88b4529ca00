// Copyright 2018-2020 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

// Package discovery implements Discovery: the recursive test-file
// walk, the include/exclude/CLI-pattern/enable/depth filter pipeline, and
// grouping survivors by their governing config directory.
package discovery

import (
	"os"
	"path/filepath"

	"github.com/jjeffery/kv" // MIT License

	"github.com/leaf-ai/testme-runner/internal/artifact"
	"github.com/leaf-ai/testme-runner/internal/model"
	"github.com/leaf-ai/testme-runner/internal/testmelog"
)

var log = testmelog.New("discovery")

// skipDirs are directory basenames never descended into.
var skipDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
}

func skipDir(name string) bool {
	if artifact.IsArtifactDir(name) {
		return true
	}
	if skipDirs[name] {
		return true
	}
	return len(name) > 1 && name[0] == '.'
}

// Walk recursively visits every root, constructing a TestFile for each
// filename matching the <stem>.tst.<ext> grammar.
func Walk(roots []string) (files []*model.TestFile, err kv.Error) {
	for _, root := range roots {
		if werr := walkOne(root, &files); werr != nil {
			return nil, werr
		}
	}
	return files, nil
}

func walkOne(root string, files *[]*model.TestFile) kv.Error {
	return walkDir(root, files)
}

func walkDir(dir string, files *[]*model.TestFile) kv.Error {
	entries, errGo := os.ReadDir(dir)
	if errGo != nil {
		// An unreadable directory is skipped, not fatal: siblings and
		// other roots still get walked.
		log.Warn("skipping unreadable directory", "dir", dir, "error", errGo)
		return nil
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() {
			if skipDir(name) {
				continue
			}
			if err := walkDir(filepath.Join(dir, name), files); err != nil {
				return err
			}
			continue
		}
		tf, ok, err := model.NewTestFile(filepath.Join(dir, name))
		if err != nil {
			return err
		}
		if ok {
			*files = append(*files, tf)
		}
	}
	return nil
}
