// Copyright 2018-2020 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

package config

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/leaf-ai/testme-runner/internal/platform"
)

func writeConfig(t *testing.T, dir string, body string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
}

// TestInheritanceScenario checks env and compiler flags concatenate down
// the config chain while non-inherited sections replace.
func TestInheritanceScenario(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, `{
		env: { PARENT: '1' },
		compiler: { c: { flags: ['-DP'] } },
		inherit: ['env', 'compiler'],
	}`)

	childDir := filepath.Join(root, "child")
	writeConfig(t, childDir, `{
		env: { CHILD: '2' },
		compiler: { c: { flags: ['-DC'] } },
	}`)

	p := platform.NewPlatformContext()
	cfg, err := Resolve(p, childDir, nil, nil)
	if err != nil {
		t.Fatal(err.Error())
	}

	if cfg.Env["PARENT"] != "1" || cfg.Env["CHILD"] != "2" {
		t.Fatalf("expected merged env with both keys, got %+v", cfg.Env)
	}

	flags := append([]string{}, cfg.CCompile.Flags...)
	sort.Strings(flags)
	hasP, hasC := false, false
	for _, f := range flags {
		if f == "-DP" {
			hasP = true
		}
		if f == "-DC" {
			hasC = true
		}
	}
	if !hasP || !hasC {
		t.Fatalf("expected compiler flags to contain both -DP and -DC, got %v", flags)
	}

	if cfg.Execution.Workers <= 0 {
		t.Fatalf("expected execution.workers to default to a positive value, got %d", cfg.Execution.Workers)
	}
}

func TestDefaultInheritCombinesPatterns(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, `{ patterns: { include: ['a.*'] } }`)
	childDir := filepath.Join(root, "child")
	writeConfig(t, childDir, `{ patterns: { include: ['b.*'] } }`)

	p := platform.NewPlatformContext()
	cfg, err := Resolve(p, childDir, nil, nil)
	if err != nil {
		t.Fatal(err.Error())
	}
	// patterns is in the DEFAULT inherit set, so it should combine.
	if len(cfg.Patterns.Include) != 2 {
		t.Fatalf("expected patterns.include to combine under default inherit, got %v", cfg.Patterns.Include)
	}
}

func TestWorkersZeroIsConfigError(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `{ execution: { workers: 0 } }`)

	p := platform.NewPlatformContext()
	_, err := Resolve(p, dir, nil, nil)
	if err == nil {
		t.Fatal("expected workers=0 to be rejected as a configuration error")
	}
}

func TestMalformedJSON5IsConfigError(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ConfigFileName), []byte("{ not valid"), 0644); err != nil {
		t.Fatal(err)
	}
	p := platform.NewPlatformContext()
	_, err := Resolve(p, dir, nil, nil)
	if err == nil {
		t.Fatal("expected malformed JSON5 to be a ConfigError")
	}
}

func TestManualEnableSurvivesMerge(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `{ enable: 'manual' }`)
	p := platform.NewPlatformContext()
	cfg, err := Resolve(p, dir, nil, nil)
	if err != nil {
		t.Fatal(err.Error())
	}
	if cfg.Enable != "manual" {
		t.Fatalf("expected enable=manual, got %q", cfg.Enable)
	}
}
