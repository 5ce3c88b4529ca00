// Copyright 2018-2020 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

package scheduler

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/leaf-ai/testme-runner/internal/model"
	"github.com/leaf-ai/testme-runner/internal/platform"
)

// recordingReporter captures the stream a run produces so tests can assert
// on ordering and totals.
type recordingReporter struct {
	mu      sync.Mutex
	started int
	results []*model.TestResult
	skipped []string
	summary *model.RunSummary
}

func (r *recordingReporter) OnStart(total int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = total
}

func (r *recordingReporter) OnResult(res *model.TestResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, res)
}

func (r *recordingReporter) OnGroupSkipped(dir string, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.skipped = append(r.skipped, dir)
}

func (r *recordingReporter) OnSummary(summary *model.RunSummary) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.summary = summary
}

func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if errGo := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0755); errGo != nil {
		t.Fatal(errGo)
	}
	return path
}

func runScheduler(t *testing.T, dir string, opts *model.Options, set map[string]bool) (*recordingReporter, *model.RunSummary) {
	t.Helper()
	if opts.Roots == nil {
		opts.Roots = []string{dir}
	}
	rep := &recordingReporter{}
	summary, err := New(platform.NewPlatformContext(), rep, opts, set).Run(context.Background(), dir)
	if err != nil {
		t.Fatal(err.Error())
	}
	return rep, summary
}

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fixtures need a POSIX shell")
	}
}

func TestRunPassAndFail(t *testing.T) {
	skipOnWindows(t)
	dir := t.TempDir()
	writeScript(t, dir, "ok.tst.sh", "exit 0\n")
	writeScript(t, dir, "bad.tst.sh", "echo \"expected 5 got 6\" 1>&2\nexit 1\n")

	rep, summary := runScheduler(t, dir, &model.Options{}, map[string]bool{})

	if rep.started != 2 {
		t.Fatalf("expected 2 discovered tests, got %d", rep.started)
	}
	if summary.Total != 2 || summary.Passed != 1 || summary.Failed != 1 {
		t.Fatalf("unexpected totals: %+v", summary)
	}
	if summary.ExitCode() != 1 {
		t.Fatalf("expected exit code 1, got %d", summary.ExitCode())
	}
	for _, res := range rep.results {
		if res.TestFile.Stem == "bad" && res.Stderr == "" {
			t.Fatal("expected the failing test's stderr to be captured")
		}
	}
}

func TestRunWorkersOneIsSequentialInDiscoveryOrder(t *testing.T) {
	skipOnWindows(t)
	dir := t.TempDir()
	for _, name := range []string{"a.tst.sh", "b.tst.sh", "c.tst.sh"} {
		writeScript(t, dir, name, "exit 0\n")
	}

	opts := &model.Options{Workers: 1}
	rep, summary := runScheduler(t, dir, opts, map[string]bool{"workers": true})

	if summary.Passed != 3 {
		t.Fatalf("expected 3 passes, got %+v", summary)
	}
	want := []string{"a", "b", "c"}
	for i, res := range rep.results {
		if res.TestFile.Stem != want[i] {
			t.Fatalf("expected sequential discovery order %v, got %q at %d", want, res.TestFile.Stem, i)
		}
	}
}

func TestRunTimeoutKillsAndReports(t *testing.T) {
	skipOnWindows(t)
	dir := t.TempDir()
	writeScript(t, dir, "slow.tst.sh", "sleep 10\n")

	opts := &model.Options{TimeoutMS: 500}
	rep, summary := runScheduler(t, dir, opts, map[string]bool{"timeout": true})

	if summary.TimedOut != 1 {
		t.Fatalf("expected one timeout, got %+v", summary)
	}
	if summary.ExitCode() != 1 {
		t.Fatalf("expected exit code 1, got %d", summary.ExitCode())
	}
	res := rep.results[0]
	if res.Status != model.StatusTimeout {
		t.Fatalf("expected Timeout, got %v", res.Status)
	}
	if res.Duration < 500*time.Millisecond || res.Duration >= 2*time.Second {
		t.Fatalf("expected duration in [500ms, 2s), got %v", res.Duration)
	}
}

func TestRunGroupPrepFailureCascades(t *testing.T) {
	skipOnWindows(t)
	dir := t.TempDir()
	writeScript(t, dir, "a.tst.sh", "exit 0\n")
	writeScript(t, dir, "b.tst.sh", "exit 0\n")
	if errGo := os.WriteFile(filepath.Join(dir, "testme.json5"),
		[]byte("{services: {prep: 'exit 3'}}\n"), 0644); errGo != nil {
		t.Fatal(errGo)
	}

	rep, summary := runScheduler(t, dir, &model.Options{}, map[string]bool{})

	if summary.Errored != 2 {
		t.Fatalf("expected both tests reported as Error, got %+v", summary)
	}
	for _, res := range rep.results {
		if res.Status != model.StatusError {
			t.Fatalf("expected Error, got %v", res.Status)
		}
	}
}

func TestRunGroupSkipIsAuthoritative(t *testing.T) {
	skipOnWindows(t)
	dir := t.TempDir()
	writeScript(t, dir, "a.tst.sh", "exit 0\n")
	if errGo := os.WriteFile(filepath.Join(dir, "testme.json5"),
		[]byte("{services: {skip: 'exit 1'}}\n"), 0644); errGo != nil {
		t.Fatal(errGo)
	}

	rep, summary := runScheduler(t, dir, &model.Options{}, map[string]bool{})

	if summary.Skipped != 1 || summary.ExitCode() != 0 {
		t.Fatalf("expected a clean skipped run, got %+v", summary)
	}
	if len(rep.skipped) != 1 {
		t.Fatalf("expected the group skip to be reported, got %v", rep.skipped)
	}
}

func TestRunRemovesArtifactDirOnPass(t *testing.T) {
	skipOnWindows(t)
	dir := t.TempDir()
	writeScript(t, dir, "ok.tst.sh", "exit 0\n")

	_, summary := runScheduler(t, dir, &model.Options{}, map[string]bool{})
	if summary.Passed != 1 {
		t.Fatalf("expected a pass, got %+v", summary)
	}
	if _, errGo := os.Stat(filepath.Join(dir, ".testme")); !os.IsNotExist(errGo) {
		t.Fatal("expected the .testme directory to be removed after a pass")
	}
}

func TestRunKeepRetainsArtifactDir(t *testing.T) {
	skipOnWindows(t)
	dir := t.TempDir()
	writeScript(t, dir, "ok.tst.sh", "exit 0\n")

	opts := &model.Options{Keep: true}
	_, summary := runScheduler(t, dir, opts, map[string]bool{"keep": true})
	if summary.Passed != 1 {
		t.Fatalf("expected a pass, got %+v", summary)
	}
	if _, errGo := os.Stat(filepath.Join(dir, ".testme")); errGo != nil {
		t.Fatal("expected the .testme directory to be retained with keep set")
	}
}

func TestRunExportsSpecialEnvironment(t *testing.T) {
	skipOnWindows(t)
	dir := t.TempDir()
	writeScript(t, dir, "env.tst.sh",
		"[ \"$TESTME_ITERATIONS\" = \"1\" ] || exit 1\n"+
			"[ \"$TESTME_KEEP\" = \"0\" ] || exit 2\n"+
			"[ -n \"$TESTME_PROFILE\" ] || exit 3\n"+
			"exit 0\n")

	_, summary := runScheduler(t, dir, &model.Options{}, map[string]bool{})
	if summary.Passed != 1 {
		t.Fatalf("expected the environment probe to pass, got %+v", summary)
	}
}

func TestRunCancelledContextRunsNothing(t *testing.T) {
	skipOnWindows(t)
	dir := t.TempDir()
	writeScript(t, dir, "a.tst.sh", "exit 0\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rep := &recordingReporter{}
	opts := &model.Options{Roots: []string{dir}}
	summary, err := New(platform.NewPlatformContext(), rep, opts, map[string]bool{}).Run(ctx, dir)
	if err != nil {
		t.Fatal(err.Error())
	}
	if summary.Total != 0 {
		t.Fatalf("expected no tests to start under a cancelled context, got %+v", summary)
	}
}
