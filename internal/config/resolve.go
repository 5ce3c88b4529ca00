// Copyright 2018-2020 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

package config

import (
	"os"
	"path/filepath"

	"github.com/jjeffery/kv" // MIT License

	"github.com/leaf-ai/testme-runner/internal/model"
	"github.com/leaf-ai/testme-runner/internal/platform"
	"github.com/leaf-ai/testme-runner/internal/variables"
)

// chain walks upward from startDir collecting every testme.json5 found,
// nearest first, until the filesystem root. Directories without a config
// file are simply skipped.
func chain(startDir string) (configs []*loadedConfig, err kv.Error) {
	dir, errGo := filepath.Abs(startDir)
	if errGo != nil {
		return nil, kv.Wrap(errGo).With("dir", startDir)
	}

	for {
		candidate := filepath.Join(dir, ConfigFileName)
		if _, statErr := os.Stat(candidate); statErr == nil {
			lc, loadErr := loadFile(candidate)
			if loadErr != nil {
				return nil, loadErr
			}
			configs = append(configs, lc)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return configs, nil
}

// Resolve implements find_config(start_dir) -> TestConfig: the full
// precedence chain is built-in defaults, then each ancestor in descending
// distance (farthest first), then the nearest config, then cliOverrides
// (the synthetic top-most layer that always wins). Variable expansion runs
// once, after the full merge, so child values may reference variables
// whose resolution depends on the test location.
//
// TESTDIR/CONFIGDIR are deliberately left as unresolved "${...}" tokens at
// this stage (mapped to themselves) since their value depends on a
// specific test's artifact directory, known only at compile time; a second
// expansion pass over just the compiler flags happens there (internal/
// compiler), consuming the same Expand function with the real values.
func Resolve(p *platform.PlatformContext, startDir string, cliOverrides *model.TestConfig, overrideSet map[string]bool) (cfg *model.TestConfig, err kv.Error) {
	configs, err := chain(startDir)
	if err != nil {
		return nil, err
	}

	cfg = model.Defaults()
	// Merge farthest ancestor first so nearer configs win per precedence.
	for i := len(configs) - 1; i >= 0; i-- {
		cfg = mergeInto(cfg, configs[i].raw, configs[i].dir)
	}

	if cliOverrides != nil {
		cfg = applyCLI(cfg, cliOverrides, overrideSet)
		if overrideSet["workers"] && cliOverrides.Execution.Workers == 0 {
			cfg.Execution.Workers = -1
		}
	}

	if cfg.Execution.Workers == -1 {
		return nil, kv.NewError("workers must be greater than zero").With(
			"dir", startDir)
	}
	if cfg.Execution.Workers == 0 {
		cfg.Execution.Workers = p.DefaultWorkers()
	}

	return expandConfig(p, cfg, startDir)
}

// applyCLI layers the CLI's synthetic top-most config over cfg;
// every field in overrideSet always wins regardless of inherit rules,
// matching "CLI options act as a synthetic top-most layer and always win".
func applyCLI(cfg *model.TestConfig, cli *model.TestConfig, overrideSet map[string]bool) *model.TestConfig {
	out := *cfg
	if overrideSet["depth"] {
		out.Depth = cli.Depth
	}
	if overrideSet["profile"] {
		out.Profile = cli.Profile
	}
	if overrideSet["workers"] {
		out.Execution.Workers = cli.Execution.Workers
	}
	if overrideSet["timeout"] {
		out.Execution.TimeoutMS = cli.Execution.TimeoutMS
	}
	if overrideSet["iterations"] {
		out.Execution.Iterations = cli.Execution.Iterations
	}
	if overrideSet["keep"] {
		out.Execution.Keep = cli.Execution.Keep
	}
	if overrideSet["verbose"] {
		out.Output.Verbose = cli.Output.Verbose
	}
	if overrideSet["quiet"] {
		out.Output.Quiet = cli.Output.Quiet
	}
	return &out
}

// expandConfig runs the Variable expander over every field of cfg that may
// carry "${...}" tokens: env values, compiler flags/libraries, pattern
// globs, and service commands.
func expandConfig(p *platform.PlatformContext, cfg *model.TestConfig, baseDir string) (out *model.TestConfig, err kv.Error) {
	vars := specialVars(p, cfg)

	copyCfg := *cfg

	if copyCfg.Env, err = variables.ExpandMap(cfg.Env, baseDir, vars); err != nil {
		return nil, err
	}
	if copyCfg.CCompile, err = expandCCompile(cfg.CCompile, baseDir, vars); err != nil {
		return nil, err
	}
	if copyCfg.ESCompile.Preload, err = variables.ExpandAll(cfg.ESCompile.Preload, baseDir, vars); err != nil {
		return nil, err
	}
	if copyCfg.Patterns.Include, err = variables.ExpandAll(cfg.Patterns.Include, baseDir, vars); err != nil {
		return nil, err
	}
	if copyCfg.Patterns.Exclude, err = variables.ExpandAll(cfg.Patterns.Exclude, baseDir, vars); err != nil {
		return nil, err
	}
	if copyCfg.Services, err = expandServices(cfg.Services, baseDir, vars); err != nil {
		return nil, err
	}
	return &copyCfg, nil
}

func expandCCompile(c model.CCompilerConfig, baseDir string, vars map[string]string) (out model.CCompilerConfig, err kv.Error) {
	out = c
	if out.Flags, err = variables.ExpandAll(c.Flags, baseDir, vars); err != nil {
		return out, err
	}
	if out.Libraries, err = variables.ExpandAll(c.Libraries, baseDir, vars); err != nil {
		return out, err
	}
	for _, pair := range []struct {
		src *model.CCompilerFlags
		dst *model.CCompilerFlags
	}{
		{&c.GCC, &out.GCC}, {&c.Clang, &out.Clang}, {&c.MSVC, &out.MSVC}, {&c.MinGW, &out.MinGW},
	} {
		if pair.dst.Flags, err = variables.ExpandAll(pair.src.Flags, baseDir, vars); err != nil {
			return out, err
		}
		if pair.dst.Libraries, err = variables.ExpandAll(pair.src.Libraries, baseDir, vars); err != nil {
			return out, err
		}
	}
	return out, nil
}

func expandServices(s model.ServicesConfig, baseDir string, vars map[string]string) (out model.ServicesConfig, err kv.Error) {
	out = s
	if out.Skip, err = variables.ExpandScalar(s.Skip, baseDir, vars); err != nil {
		return out, err
	}
	if out.Prep, err = variables.ExpandScalar(s.Prep, baseDir, vars); err != nil {
		return out, err
	}
	if out.Setup, err = variables.ExpandScalar(s.Setup, baseDir, vars); err != nil {
		return out, err
	}
	if out.Cleanup, err = variables.ExpandScalar(s.Cleanup, baseDir, vars); err != nil {
		return out, err
	}
	return out, nil
}

// specialVars builds the resolve-time variable table: OS/ARCH/PLATFORM/CC/
// PROFILE resolve for real; TESTDIR/CONFIGDIR map to themselves so they
// survive this pass unresolved (see Resolve's doc comment).
func specialVars(p *platform.PlatformContext, cfg *model.TestConfig) map[string]string {
	cc := cfg.CCompile.Selected
	if cc == "" {
		cc = "default"
	}
	return map[string]string{
		"OS":        p.OS(),
		"ARCH":      p.Arch(),
		"PLATFORM":  p.Platform(),
		"CC":        cc,
		"PROFILE":   cfg.Profile,
		"TESTDIR":   "${TESTDIR}",
		"CONFIGDIR": "${CONFIGDIR}",
	}
}
