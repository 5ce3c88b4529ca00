// Copyright 2018-2020 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

package handler

import (
	"context"
	"time"

	"github.com/jjeffery/kv" // MIT License

	"github.com/leaf-ai/testme-runner/internal/artifact"
	"github.com/leaf-ai/testme-runner/internal/compiler"
	"github.com/leaf-ai/testme-runner/internal/model"
	"github.com/leaf-ai/testme-runner/internal/platform"
)

// CHandler compiles a C test via the Compiler abstraction, placing
// intermediates under the artifact directory, then runs the resulting
// binary from the test's own directory.
type CHandler struct{}

func (h *CHandler) Prepare(ctx context.Context, p *platform.PlatformContext, tf *model.TestFile, cfg *model.TestConfig) kv.Error {
	_, err := artifact.Ensure(tf.Dir)
	return err
}

func (h *CHandler) Execute(ctx context.Context, p *platform.PlatformContext, tf *model.TestFile, cfg *model.TestConfig, env Env) (*model.TestResult, kv.Error) {
	outputBase := artifact.BinaryPath(tf)

	compileRes, err := compiler.Compile(ctx, p, tf.Path, outputBase, tf.Dir, cfg.ConfigDir, cfg.CCompile)
	if err != nil {
		return nil, err
	}
	if !compileRes.Success {
		return &model.TestResult{
			TestFile:     tf,
			Status:       model.StatusError,
			ExitCode:     compileRes.ExitCode,
			Stdout:       compileRes.Stdout,
			Stderr:       compileRes.Stderr,
			ErrorMessage: "compile failed",
		}, nil
	}
	start := time.Now()
	proc, err := platform.Spawn(ctx, compileRes.OutputPath, nil, platform.SpawnOpts{Cwd: tf.Dir, Env: env})
	if err != nil {
		return nil, err
	}
	stdout, stderr := drainProc(proc)
	exitCode, waitErr := proc.Wait()
	duration := time.Since(start)

	status := statusForExit(exitCode)
	if ctx.Err() != nil {
		status = model.StatusTimeout
	}

	res := &model.TestResult{
		TestFile:        tf,
		Status:          status,
		ExitCode:        exitCode,
		Duration:        duration,
		Stdout:          stdout,
		Stderr:          stderr,
		AssertionCounts: scanAssertions(stdout),
	}
	if waitErr != nil && ctx.Err() == nil {
		res.Status = model.StatusError
		res.ErrorMessage = waitErr.Error()
	}
	return res, nil
}

// Cleanup is a no-op: binary removal is the Artifact manager's
// responsibility, driven by the Scheduler after the result is
// known, not by the handler itself.
func (h *CHandler) Cleanup(tf *model.TestFile, cfg *model.TestConfig) {}
