// Copyright 2018-2020 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

package handler

import (
	"context"
	"os/exec"
	"time"

	"github.com/go-stack/stack"
	"github.com/jjeffery/kv" // MIT License

	"github.com/leaf-ai/testme-runner/internal/model"
	"github.com/leaf-ai/testme-runner/internal/platform"
)

// ArgsBuilder composes the argv passed to an interpreter for a given test
// file path.
type ArgsBuilder func(path string) []string

func passthroughArgs(path string) []string { return []string{path} }
func goRunArgs(path string) []string       { return []string{"run", path} }

// InterpreterHandler is the contract-only stub set for JavaScript,
// TypeScript, Python, Go, and Ejscript: locate the conventional
// interpreter/toolchain on PATH, run the file, surface exit code and
// streamed output. No test-framework or assertion-library semantics are
// implemented here; those stay with the language's own tooling.
type InterpreterHandler struct {
	Interpreter string
	BuildArgs   ArgsBuilder
}

func (h *InterpreterHandler) Prepare(ctx context.Context, p *platform.PlatformContext, tf *model.TestFile, cfg *model.TestConfig) kv.Error {
	if _, errGo := exec.LookPath(h.Interpreter); errGo != nil {
		return kv.NewError("interpreter not found").With(
			"interpreter", h.Interpreter,
			"hint", "install "+h.Interpreter+" and ensure it is on PATH",
			"stack", stack.Trace().TrimRuntime())
	}
	return nil
}

func (h *InterpreterHandler) Execute(ctx context.Context, p *platform.PlatformContext, tf *model.TestFile, cfg *model.TestConfig, env Env) (*model.TestResult, kv.Error) {
	start := time.Now()
	proc, err := platform.Spawn(ctx, h.Interpreter, h.BuildArgs(tf.Path), platform.SpawnOpts{Cwd: tf.Dir, Env: env})
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

func (h *InterpreterHandler) Cleanup(tf *model.TestFile, cfg *model.TestConfig) {}
