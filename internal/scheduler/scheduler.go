// Copyright 2018-2020 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

// Package scheduler drives the whole pipeline: discovery, grouping by
// governing config directory, per-group service lifecycles, bounded
// parallel execution, and result aggregation.
package scheduler

import (
	"context"
	"sort"
	"time"

	"github.com/jjeffery/kv" // MIT License

	"github.com/leaf-ai/testme-runner/internal/artifact"
	"github.com/leaf-ai/testme-runner/internal/discovery"
	"github.com/leaf-ai/testme-runner/internal/handler"
	"github.com/leaf-ai/testme-runner/internal/model"
	"github.com/leaf-ai/testme-runner/internal/platform"
	"github.com/leaf-ai/testme-runner/internal/reporter"
	"github.com/leaf-ai/testme-runner/internal/service"
	"github.com/leaf-ai/testme-runner/internal/testmelog"
)

var log = testmelog.New("scheduler")

// Scheduler owns a run end to end. Handlers and services are created
// fresh per test and per group respectively; the Scheduler itself holds
// no per-test mutable state outside Run's own stack.
type Scheduler struct {
	platform    *platform.PlatformContext
	registry    *handler.Registry
	services    *service.Manager
	reporter    reporter.Reporter
	opts        *model.Options
	overrideSet map[string]bool
}

// New binds a Scheduler to the host platform, a result sink, and the
// CLI's canonical options record. overrideSet names the option fields the
// user actually set on the command line, so only those act as the
// top-most config layer.
func New(p *platform.PlatformContext, rep reporter.Reporter, opts *model.Options, overrideSet map[string]bool) *Scheduler {
	return &Scheduler{
		platform:    p,
		registry:    handler.NewRegistry(),
		services:    service.New(p),
		reporter:    rep,
		opts:        opts,
		overrideSet: overrideSet,
	}
}

// Run executes the top-level algorithm: discover, group, then for each
// group run the service lifecycle around bounded-parallel batches. A
// cancelled ctx stops new work from starting; in-flight tests and group
// cleanup still complete before Run returns.
func (s *Scheduler) Run(ctx context.Context, cwd string) (summary *model.RunSummary, err kv.Error) {
	start := time.Now()

	filtered, err := discovery.Discover(s.platform, s.opts.Roots, discovery.Options{
		NamePatterns: s.opts.NamePatterns,
		Depth:        s.opts.Depth,
		CWD:          cwd,
	}, s.opts.AsOverrides(s.overrideSet), s.overrideSet)
	if err != nil {
		return nil, err
	}

	groups := discovery.Group(filtered)
	dirs := make([]string, 0, len(groups))
	for dir := range groups {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)

	s.reporter.OnStart(len(filtered))
	summary = &model.RunSummary{}

	for _, dir := range dirs {
		if ctx.Err() != nil {
			break
		}
		s.runGroup(ctx, dir, groups[dir], summary)
	}

	summary.Duration = time.Since(start)
	s.reporter.OnSummary(summary)
	return summary, nil
}

// runGroup runs one config-group: skip/prep/setup, the group's tests in
// batches of execution.workers, then cleanup. Cleanup always runs on a
// background context so a cancelled run still tears its services down.
func (s *Scheduler) runGroup(ctx context.Context, dir string, tests []*discovery.Filtered, summary *model.RunSummary) {
	cfg := tests[0].Config
	serviceDir := cfg.ConfigDir
	if serviceDir == "" {
		serviceDir = tests[0].File.Dir
	}

	env := buildEnv(cfg, s.keepFor(cfg))
	g := service.NewGroup(serviceDir, cfg.Services, env)

	out, serr := s.services.Start(ctx, g)
	if serr != nil {
		s.errorGroup(tests, summary, serr.Error())
		s.services.Cleanup(context.Background(), g, nil)
		return
	}
	defer s.services.Cleanup(context.Background(), g, out.SetupProc)

	switch {
	case out.Skipped:
		s.reporter.OnGroupSkipped(dir, firstLine(out.SkipStdout))
		for _, f := range tests {
			s.emit(summary, &model.TestResult{TestFile: f.File, Status: model.StatusSkip})
		}
		return
	case out.PrepFailed:
		s.errorGroup(tests, summary, "prep failed\n"+out.PrepStdout+out.PrepStderr)
		return
	case out.SetupFailed:
		s.errorGroup(tests, summary, "setup failed\n"+out.SetupStdout+out.SetupStderr)
		return
	}

	workers := cfg.Execution.Workers
	if workers <= 0 {
		workers = s.platform.DefaultWorkers()
	}

	for batchStart := 0; batchStart < len(tests); batchStart += workers {
		if ctx.Err() != nil {
			return
		}
		batch := tests[batchStart:minInt(batchStart+workers, len(tests))]

		results := make(chan *model.TestResult, len(batch))
		for _, f := range batch {
			go func(f *discovery.Filtered) {
				results <- s.runTest(ctx, f)
			}(f)
		}
		// Results stream to the reporter in completion order, not
		// submission order.
		collected := make([]*model.TestResult, 0, len(batch))
		for range batch {
			res := <-results
			collected = append(collected, res)
			s.emit(summary, res)
		}

		// Artifact retention is applied once the batch has drained, so a
		// passing test's removal can never race a co-located test still
		// compiling into the same .testme directory.
		for _, res := range collected {
			if cerr := artifact.Cleanup(res.TestFile.Dir, res.Status, s.keepFor(cfg)); cerr != nil {
				log.Warn("artifact cleanup failed", "test", res.TestFile.Base, "error", cerr)
			}
		}
	}
}

// runTest executes one test under its own deadline with a fresh handler.
// The artifact retention rule is applied by runGroup after each batch.
func (s *Scheduler) runTest(ctx context.Context, f *discovery.Filtered) *model.TestResult {
	tf, cfg := f.File, f.Config

	h, err := s.registry.New(tf.Type)
	if err != nil {
		return errorResult(tf, err)
	}

	if _, err = artifact.Ensure(tf.Dir); err != nil {
		return errorResult(tf, err)
	}

	keep := s.keepFor(cfg)
	env := buildEnv(cfg, keep)
	timeout := time.Duration(cfg.Execution.TimeoutMS) * time.Millisecond
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	iterations := maxInt(cfg.Execution.Iterations, 1)

	var res *model.TestResult
	for i := 0; i < iterations; i++ {
		res = s.runOnce(ctx, h, tf, cfg, env, timeout)
		if res.Status != model.StatusPass {
			break
		}
	}

	h.Cleanup(tf, cfg)
	return res
}

func (s *Scheduler) runOnce(ctx context.Context, h handler.TestHandler, tf *model.TestFile, cfg *model.TestConfig, env handler.Env, timeout time.Duration) *model.TestResult {
	tctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if perr := h.Prepare(tctx, s.platform, tf, cfg); perr != nil {
		return errorResult(tf, perr)
	}
	res, eerr := h.Execute(tctx, s.platform, tf, cfg, env)
	if eerr != nil {
		return errorResult(tf, eerr)
	}
	return res
}

// emit folds one result into the summary and streams it to the reporter.
// Both calls happen on the group's scheduling goroutine, so the summary
// needs no lock; reporters serialize internally for their own writers.
func (s *Scheduler) emit(summary *model.RunSummary, res *model.TestResult) {
	summary.Record(res)
	s.reporter.OnResult(res)
}

// errorGroup reports every test of a group as Error with the same
// message, used when a group-scope failure (prep, setup, spawn) cascades.
func (s *Scheduler) errorGroup(tests []*discovery.Filtered, summary *model.RunSummary, msg string) {
	for _, f := range tests {
		s.emit(summary, &model.TestResult{
			TestFile:     f.File,
			Status:       model.StatusError,
			ExitCode:     -1,
			ErrorMessage: msg,
		})
	}
}

// keepFor merges the CLI --keep flag with the config's execution.keep.
func (s *Scheduler) keepFor(cfg *model.TestConfig) bool {
	return s.opts.Keep || cfg.Execution.Keep
}

func errorResult(tf *model.TestFile, err kv.Error) *model.TestResult {
	return &model.TestResult{
		TestFile:     tf,
		Status:       model.StatusError,
		ExitCode:     -1,
		ErrorMessage: err.Error(),
	}
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
