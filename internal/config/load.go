// Copyright 2018-2020 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

package config

import (
	"os"
	"path/filepath"

	"github.com/go-stack/stack"
	"github.com/jjeffery/kv" // MIT License
	"github.com/titanous/json5"

	"github.com/leaf-ai/testme-runner/internal/testmelog"
)

// ConfigFileName is the well-known config file name walked for by
// Find.
const ConfigFileName = "testme.json5"

var log = testmelog.New("config")

// loadedConfig pairs a parsed rawConfig with the directory that owns it,
// needed both for the path-resolution rule (relative flags resolve
// against the contributing config file's directory) and for the
// ConfigSource provenance tracking used in --debug mode.
type loadedConfig struct {
	dir string
	raw *rawConfig
}

// loadFile parses one testme.json5, normalizing relative compiler include/
// library paths against its own directory before the merge algebra ever
// sees them -- inherited paths must stay anchored to the config file that
// contributed them, and doing it once at load time avoids threading
// provenance through the merge.
//
// A malformed or unreadable file is a ConfigError: fatal for the
// directory subtree rooted there.
func loadFile(path string) (lc *loadedConfig, err kv.Error) {
	data, errGo := os.ReadFile(path)
	if errGo != nil {
		return nil, kv.Wrap(errGo).With("path", path, "stack", stack.Trace().TrimRuntime())
	}

	// First pass: generic map, used only to flag unknown top-level keys.
	// A second pass unmarshals into the typed rawConfig, which
	// silently ignores unknown keys via the json tag matching rules.
	generic := map[string]interface{}{}
	if errGo = json5.Unmarshal(data, &generic); errGo != nil {
		return nil, kv.NewError("malformed testme.json5").With(
			"path", path, "cause", errGo.Error(), "stack", stack.Trace().TrimRuntime())
	}
	for key := range generic {
		if !knownTopLevelKeys[key] {
			log.Warn("unrecognized config key", "path", path, "key", key)
		}
	}

	raw := &rawConfig{}
	if errGo = json5.Unmarshal(data, raw); errGo != nil {
		return nil, kv.NewError("malformed testme.json5").With(
			"path", path, "cause", errGo.Error(), "stack", stack.Trace().TrimRuntime())
	}

	dir := filepath.Dir(path)
	normalizeCompilerPaths(raw, dir)

	return &loadedConfig{dir: dir, raw: raw}, nil
}

// normalizeCompilerPaths resolves -I/-L/"/I"/"/LIBPATH:" flag arguments
// that are relative paths to absolute paths rooted at dir. Flags that are
// not path-bearing, or are already absolute, pass through unchanged.
func normalizeCompilerPaths(raw *rawConfig, dir string) {
	if raw.Compiler == nil || raw.Compiler.C == nil {
		return
	}
	c := raw.Compiler.C
	c.Flags = absolutizeFlags(c.Flags, dir)
	for _, sub := range []*rawCFlags{c.GCC, c.Clang, c.MSVC, c.MinGW} {
		if sub != nil {
			sub.Flags = absolutizeFlags(sub.Flags, dir)
		}
	}
}

var pathFlagPrefixes = []string{"-I", "-L", "/I", "/LIBPATH:"}

func absolutizeFlags(flags []string, dir string) []string {
	out := make([]string, len(flags))
	for i, f := range flags {
		out[i] = absolutizeFlag(f, dir)
	}
	return out
}

func absolutizeFlag(flag string, dir string) string {
	for _, prefix := range pathFlagPrefixes {
		if len(flag) > len(prefix) && flag[:len(prefix)] == prefix {
			p := flag[len(prefix):]
			if filepath.IsAbs(p) {
				return flag
			}
			return prefix + filepath.Join(dir, p)
		}
	}
	return flag
}
