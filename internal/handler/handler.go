// Copyright 2018-2020 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

// Package handler implements the Handler contract: a single
// TestHandler trait selected by TestType, with built-in handlers for the
// shell family and C, and interpreter-shelling-out stubs for the remaining
// languages.
package handler

import (
	"context"

	"github.com/jjeffery/kv" // MIT License

	"github.com/leaf-ai/testme-runner/internal/model"
	"github.com/leaf-ai/testme-runner/internal/platform"
)

// Env is the subprocess environment the Scheduler builds for a test run:
// the host environment, user `env` entries and the TESTME_* special variables, already flattened to "KEY=VALUE" form.
type Env []string

// TestHandler is the single interface every supported language
// implements: one closed TestType enum dispatching to one interface
// rather than a per-language handler class hierarchy.
type TestHandler interface {
	// Prepare runs optional pre-execution setup (chmod, etc.). Most
	// handlers no-op here.
	Prepare(ctx context.Context, p *platform.PlatformContext, tf *model.TestFile, cfg *model.TestConfig) kv.Error

	// Execute runs the test to completion under cwd = tf.Dir and returns a
	// populated TestResult. Timeout enforcement is the Scheduler's
	// responsibility; Execute is handed an already-deadlined ctx.
	Execute(ctx context.Context, p *platform.PlatformContext, tf *model.TestFile, cfg *model.TestConfig, env Env) (*model.TestResult, kv.Error)

	// Cleanup runs optional post-execution teardown (e.g. removing a
	// compiled binary when the handler built one itself rather than
	// through the Artifact manager).
	Cleanup(tf *model.TestFile, cfg *model.TestConfig)
}

// Factory constructs a fresh TestHandler instance. Handlers are never
// reused across tests: the registry hands the Scheduler a
// constructor, not a shared value.
type Factory func() TestHandler

// Registry maps TestType to the Factory that builds its handler.
type Registry struct {
	factories map[model.TestType]Factory
}

// NewRegistry builds a Registry pre-populated with every built-in
// handler.
func NewRegistry() *Registry {
	r := &Registry{factories: map[model.TestType]Factory{}}
	r.Register(model.TestShell, func() TestHandler { return &ShellHandler{} })
	r.Register(model.TestPowerShell, func() TestHandler { return &ShellHandler{} })
	r.Register(model.TestBatch, func() TestHandler { return &ShellHandler{} })
	r.Register(model.TestC, func() TestHandler { return &CHandler{} })
	r.Register(model.TestJavaScript, func() TestHandler { return &InterpreterHandler{Interpreter: "node", BuildArgs: passthroughArgs} })
	r.Register(model.TestTypeScript, func() TestHandler { return &InterpreterHandler{Interpreter: "ts-node", BuildArgs: passthroughArgs} })
	r.Register(model.TestPython, func() TestHandler { return &InterpreterHandler{Interpreter: "python3", BuildArgs: passthroughArgs} })
	r.Register(model.TestGo, func() TestHandler { return &InterpreterHandler{Interpreter: "go", BuildArgs: goRunArgs} })
	r.Register(model.TestEjscript, func() TestHandler { return &InterpreterHandler{Interpreter: "ejs", BuildArgs: passthroughArgs} })
	return r
}

// Register installs or overrides the Factory for typ.
func (r *Registry) Register(typ model.TestType, f Factory) {
	r.factories[typ] = f
}

// New constructs a fresh handler for typ, or a DependencyMissing-flavored
// error if no handler is registered for it.
func (r *Registry) New(typ model.TestType) (TestHandler, kv.Error) {
	f, ok := r.factories[typ]
	if !ok {
		return nil, kv.NewError("no handler registered for test type").With("type", string(typ))
	}
	return f(), nil
}
