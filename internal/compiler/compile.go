// Copyright 2018-2020 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

package compiler

import (
	"context"
	"os"
	"path/filepath"

	"github.com/jjeffery/kv" // MIT License

	"github.com/leaf-ai/testme-runner/internal/model"
	"github.com/leaf-ai/testme-runner/internal/platform"
	"github.com/leaf-ai/testme-runner/internal/variables"
)

// Result is compile()'s return shape.
type Result struct {
	Success    bool
	OutputPath string
	Stdout     string
	Stderr     string
	ExitCode   int
}

// flagsFor selects the per-compiler subsection matching cc out of a
// CCompilerConfig.
func flagsFor(cfg model.CCompilerConfig, cc platform.CC) model.CCompilerFlags {
	switch cc {
	case platform.CCGCC:
		return cfg.GCC
	case platform.CCClang:
		return cfg.Clang
	case platform.CCMSVC:
		return cfg.MSVC
	case platform.CCMinGW:
		return cfg.MinGW
	default:
		return model.CCompilerFlags{}
	}
}

// composeFlags layers the flag set: toolchain defaults,
// then common compiler.c.flags, then the per-compiler subsection, with
// rpath normalization and cross-dialect translation applied last.
func composeFlags(p *platform.PlatformContext, cc platform.CC, cfg model.CCompilerConfig) (flags []string, libs []string) {
	flags = append(flags, Defaults(cc, p.IsMacOS())...)
	flags = append(flags, cfg.Flags...)
	libs = append(libs, cfg.Libraries...)

	per := flagsFor(cfg, cc)
	flags = append(flags, per.Flags...)
	libs = append(libs, per.Libraries...)

	flags = variables.NormalizeRpaths(flags, p.OS())
	if NeedsTranslation(flags, cc) {
		flags = TranslateFlags(flags, cc)
	}

	msvc := cc == platform.CCMSVC
	libs = NormalizeLibraries(libs, msvc)
	return flags, libs
}

// Compile builds source into outputBase's binary: resolve the toolchain,
// compose its flags against cfg, re-expand
// any "${TESTDIR}"/"${CONFIGDIR}" tokens left unresolved by the Config
// manager (see internal/config.Resolve's doc comment) now that the real
// per-test artifact directory is known, build the invocation line for the
// chosen dialect, and run it to completion via platform.Spawn.
func Compile(ctx context.Context, p *platform.PlatformContext, source, outputBase, workDir, configDir string, cfg model.CCompilerConfig) (res *Result, err kv.Error) {
	cc, cErr := p.CompilerNamed(cfg.Selected)
	if cErr != nil {
		return nil, cErr
	}

	flags, libs := composeFlags(p, cc.Name, cfg)

	// TESTDIR/CONFIGDIR are relative paths from the binary's directory so
	// rpath entries like "$ORIGIN/${TESTDIR}/lib" survive the binary being
	// run in place under .testme.
	testRel, configRel, dErr := variables.TestDirConfigDir(filepath.Dir(outputBase), workDir, configDir)
	if dErr != nil {
		return nil, dErr
	}
	lateVars := map[string]string{
		"TESTDIR":   testRel,
		"CONFIGDIR": configRel,
	}
	if flags, err = variables.ExpandAll(flags, workDir, lateVars); err != nil {
		return nil, err
	}
	if libs, err = variables.ExpandAll(libs, workDir, lateVars); err != nil {
		return nil, err
	}

	outputPath := outputBase
	if p.IsWindows() {
		outputPath += ".exe"
	}

	args, env, buildErr := buildInvocation(cc, flags, libs, source, outputPath, p)
	if buildErr != nil {
		return nil, buildErr
	}

	proc, spawnErr := platform.Spawn(ctx, args[0], args[1:], platform.SpawnOpts{Cwd: workDir, Env: env})
	if spawnErr != nil {
		return nil, spawnErr
	}

	var stdout, stderr string
	done := make(chan struct{})
	go func() {
		defer close(done)
		for line := range proc.Stdout {
			stdout += line + "\n"
		}
	}()
	for line := range proc.Stderr {
		stderr += line + "\n"
	}
	<-done

	exitCode, waitErr := proc.Wait()
	if waitErr != nil {
		return nil, waitErr
	}

	return &Result{
		Success:    exitCode == 0,
		OutputPath: outputPath,
		Stdout:     stdout,
		Stderr:     stderr,
		ExitCode:   exitCode,
	}, nil
}

// buildInvocation renders the compiler command line: GCC/Clang/MinGW use
// "cc <flags> -o <out> <src> <-l libs>"; MSVC uses
// "cl <flags> /Fe:<out> <src> /link /LIBPATH:<home>\.local\lib <libs.lib>",
// with the subprocess environment augmented by the PATH/INCLUDE/LIB that
// toolchain detection recorded on the Compiler (MSVC only).
func buildInvocation(cc platform.Compiler, flags, libs []string, source, outputPath string, p *platform.PlatformContext) (args []string, env []string, err kv.Error) {
	env = os.Environ()
	for k, v := range cc.Env {
		env = append(env, k+"="+v)
	}

	if cc.Name == platform.CCMSVC {
		home, _ := os.UserHomeDir()
		args = append([]string{cc.Path}, flags...)
		args = append(args, "/Fe:"+outputPath, source, "/link",
			"/LIBPATH:"+filepath.Join(home, ".local", "lib"))
		args = append(args, libs...)
		return args, env, nil
	}

	args = append([]string{cc.Path}, flags...)
	args = append(args, "-o", outputPath, source)
	args = append(args, libs...)
	return args, env, nil
}
