// Copyright 2018-2020 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

package handler

import (
	"context"
	"time"

	"github.com/jjeffery/kv" // MIT License

	"github.com/leaf-ai/testme-runner/internal/model"
	"github.com/leaf-ai/testme-runner/internal/platform"
)

// ShellHandler runs Shell, PowerShell, and Batch tests by resolving the
// interpreter through PlatformContext.ShellFor and spawning it.
type ShellHandler struct{}

func (h *ShellHandler) Prepare(ctx context.Context, p *platform.PlatformContext, tf *model.TestFile, cfg *model.TestConfig) kv.Error {
	if p.IsWindows() {
		return nil
	}
	return p.MakeExecutable(tf.Path)
}

func (h *ShellHandler) Execute(ctx context.Context, p *platform.PlatformContext, tf *model.TestFile, cfg *model.TestConfig, env Env) (*model.TestResult, kv.Error) {
	inv, err := p.ShellFor(tf.Path)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	proc, err := platform.Spawn(ctx, inv.Path, inv.Args, platform.SpawnOpts{Cwd: tf.Dir, Env: env})
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

func (h *ShellHandler) Cleanup(tf *model.TestFile, cfg *model.TestConfig) {}

func drainProc(proc *platform.Proc) (stdout, stderr string) {
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
	return stdout, stderr
}
