// Copyright 2018-2020 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

package discovery

import (
	"path/filepath"
	"strings"

	"github.com/jjeffery/kv" // MIT License

	"github.com/leaf-ai/testme-runner/internal/config"
	"github.com/leaf-ai/testme-runner/internal/model"
	"github.com/leaf-ai/testme-runner/internal/platform"
)

// Options governs the filter pipeline's CLI-facing inputs.
type Options struct {
	NamePatterns []string
	Depth        int
	CWD          string
}

// Filtered pairs a surviving TestFile with the resolved TestConfig that
// governs it, used downstream by the Scheduler to group tests by config
// directory.
type Filtered struct {
	File   *model.TestFile
	Config *model.TestConfig
}

// Discover runs the discovery pipeline end to end: walk, resolve each
// file's governing config, and run the four-stage filter pipeline.
func Discover(p *platform.PlatformContext, roots []string, opts Options, cliOverrides *model.TestConfig, overrideSet map[string]bool) (out []*Filtered, err kv.Error) {
	files, err := Walk(roots)
	if err != nil {
		return nil, err
	}

	configCache := map[string]*resolved{}
	globs := newGlobCache()

	for _, tf := range files {
		// Platform-incompatible types (e.g. .bat on Linux) are silently
		// skipped before any config work is spent on them.
		if !model.CompatibleWithPlatform(tf.Type, p.OS()) {
			continue
		}

		cfg, cerr := resolveCached(p, configCache, tf.Dir, cliOverrides, overrideSet)
		if cerr != nil {
			// A config error is fatal only for the directory tree the bad
			// file governs; tests elsewhere still discover and run. The
			// resolve failure is logged once per directory by
			// resolveCached.
			continue
		}

		if !passesPatterns(globs, cfg, tf) {
			continue
		}
		if !passesCLIPatterns(opts.NamePatterns, opts.CWD, tf) {
			continue
		}
		if !passesEnable(cfg, opts.NamePatterns, tf) {
			continue
		}
		if !passesDepth(cfg, opts.Depth) {
			continue
		}

		out = append(out, &Filtered{File: tf, Config: cfg})
	}
	return out, nil
}

// resolved caches one directory's config resolution outcome, errors
// included, so a directory full of tests under a malformed testme.json5 is
// resolved (and its failure logged) exactly once.
type resolved struct {
	cfg *model.TestConfig
	err kv.Error
}

func resolveCached(p *platform.PlatformContext, cache map[string]*resolved, dir string, cliOverrides *model.TestConfig, overrideSet map[string]bool) (*model.TestConfig, kv.Error) {
	if r, ok := cache[dir]; ok {
		return r.cfg, r.err
	}
	cfg, err := config.Resolve(p, dir, cliOverrides, overrideSet)
	if err != nil {
		log.Warn("skipping tests under directory with unusable config",
			"dir", dir, "error", err,
			"hint", "fix or remove the offending testme.json5")
	}
	cache[dir] = &resolved{cfg: cfg, err: err}
	return cfg, err
}

// passesPatterns is filter stage 1: the governing config's
// patterns.include/exclude glob lists, matched against the test's
// basename.
func passesPatterns(globs *globCache, cfg *model.TestConfig, tf *model.TestFile) bool {
	if len(cfg.Patterns.Include) > 0 && !globs.matchesAny(cfg.Patterns.Include, tf.Base) {
		return false
	}
	if globs.matchesAny(cfg.Patterns.Exclude, tf.Base) {
		return false
	}
	return true
}

// passesCLIPatterns is filter stage 2: an empty pattern list always
// passes; otherwise a pattern matches the stem, the full basename, or, if
// it contains a path separator, the CWD-relative path ending in the file.
func passesCLIPatterns(patterns []string, cwd string, tf *model.TestFile) bool {
	if len(patterns) == 0 {
		return true
	}
	for _, pattern := range patterns {
		if matchesCLIPattern(pattern, cwd, tf) {
			return true
		}
	}
	return false
}

func matchesCLIPattern(pattern, cwd string, tf *model.TestFile) bool {
	if pattern == tf.Stem || pattern == tf.Base {
		return true
	}
	if strings.ContainsRune(pattern, filepath.Separator) || strings.ContainsRune(pattern, '/') {
		rel, errGo := filepath.Rel(cwd, tf.Path)
		if errGo != nil {
			return false
		}
		rel = filepath.ToSlash(rel)
		pattern = filepath.ToSlash(pattern)
		return strings.HasSuffix(rel, pattern)
	}
	return false
}

// passesEnable is filter stage 3: enable=false drops unconditionally;
// enable='manual' requires a CLI pattern naming this exact file by stem or
// basename. CLI patterns are matched literally (stage 2), so a pattern
// carrying glob metacharacters can never equal a stem here -- wildcards
// never reach manual tests.
func passesEnable(cfg *model.TestConfig, patterns []string, tf *model.TestFile) bool {
	switch cfg.Enable {
	case model.EnableFalse:
		return false
	case model.EnableManual:
		for _, pattern := range patterns {
			if pattern == tf.Stem || pattern == tf.Base {
				return true
			}
		}
		return false
	default:
		return true
	}
}

// passesDepth is filter stage 4: the caller's depth must be >= the
// config's depth requirement.
func passesDepth(cfg *model.TestConfig, callerDepth int) bool {
	return callerDepth >= cfg.Depth
}

// Group partitions survivors by their governing config directory, the
// unit the Service manager schedules lifecycles against.
func Group(filtered []*Filtered) map[string][]*Filtered {
	groups := map[string][]*Filtered{}
	for _, f := range filtered {
		groups[f.Config.ConfigDir] = append(groups[f.Config.ConfigDir], f)
	}
	return groups
}
