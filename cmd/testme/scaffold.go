// Copyright 2018-2020 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

package main

import (
	"os"

	"github.com/leaf-ai/testme-runner/internal/model"
	"github.com/leaf-ai/testme-runner/internal/platform"
)

// defaultConfig is the -init scaffold. JSON5 permits the comments, so the
// file documents itself.
const defaultConfig = `// testme.json5
{
    // true runs every test, false disables this tree, 'manual' runs a test
    // only when it is named exactly on the command line
    enable: true,

    // minimum caller -depth needed before tests in this tree run
    depth: 0,

    compiler: {
        c: {
            compiler: 'default',
            flags: [],
            libraries: [],
        },
    },

    execution: {
        timeout: 30000,     // per test, in milliseconds
        parallel: true,
        iterations: 1,
        keep: false,        // retain .testme artifact directories
    },

    output: {
        format: 'simple',   // simple, detailed or json
        colors: true,
    },

    patterns: {
        include: [],
        exclude: [],
    },

    services: {
        // skip: 'sh ./skip-check.sh',
        // prep: 'make deps',
        // setup: './listener.sh',
        // cleanup: 'make clean',
        // delay: 100,
    },

    env: {},
}
`

// newTestScript is the -new scaffold, a minimal shell test that passes.
const newTestScript = `#!/bin/sh
#
# Exits zero on success, non zero on failure.

expected="ok"
actual="ok"

if [ "$actual" != "$expected" ]; then
    echo "expected $expected got $actual" >&2
    exit 1
fi
exit 0
`

// initConfig writes the default testme.json5 into the working directory,
// refusing to overwrite one that already exists.
func initConfig() int {
	const name = "testme.json5"
	if _, errGo := os.Stat(name); errGo == nil {
		logger.Error("refusing to overwrite an existing config", "file", name)
		return 2
	}
	if errGo := os.WriteFile(name, []byte(defaultConfig), 0644); errGo != nil {
		logger.Error("unable to write config", "file", name, "error", errGo)
		return 2
	}
	logger.Info("wrote default config", "file", name)
	return 0
}

// newTest scaffolds <name>.tst.sh in the working directory and marks it
// executable.
func newTest(name string) int {
	if _, _, ok := model.StemAndExt(name); !ok {
		name += ".tst.sh"
	}
	if _, errGo := os.Stat(name); errGo == nil {
		logger.Error("refusing to overwrite an existing test", "file", name)
		return 2
	}
	if errGo := os.WriteFile(name, []byte(newTestScript), 0644); errGo != nil {
		logger.Error("unable to write test", "file", name, "error", errGo)
		return 2
	}
	p := platform.NewPlatformContext()
	if err := p.MakeExecutable(name); err != nil {
		logger.Error("unable to mark test executable", "file", name, "error", err)
		return 2
	}
	logger.Info("wrote test scaffold", "file", name)
	return 0
}
