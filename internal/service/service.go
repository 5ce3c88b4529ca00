// Copyright 2018-2020 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

// Package service implements the Service manager: the
// skip/prep/setup/cleanup lifecycle that runs once per config-group ahead
// of the tests that share it.
package service

import (
	"context"
	"time"

	"github.com/go-stack/stack"
	"github.com/google/uuid" // BSD-3-Clause
	"github.com/jjeffery/kv" // MIT License

	"github.com/leaf-ai/testme-runner/internal/model"
	"github.com/leaf-ai/testme-runner/internal/platform"
	"github.com/leaf-ai/testme-runner/internal/testmelog"
)

var log = testmelog.New("service")

// Group is one config-group's worth of lifecycle commands:
// every test sharing the same resolved services section and config
// directory is scheduled against the same Group.
type Group struct {
	ID        string // correlation id, google/uuid, for log correlation across lifecycle steps
	ConfigDir string
	Config    model.ServicesConfig
	Env       []string // subprocess environment, already expanded by the Config manager
}

// NewGroup stamps a fresh correlation id onto a resolved services section
// so the lifecycle steps of one group can be traced together.
func NewGroup(configDir string, cfg model.ServicesConfig, env []string) *Group {
	return &Group{ID: uuid.NewString(), ConfigDir: configDir, Config: cfg, Env: env}
}

// Outcome is a config-group's Skip verdict plus whatever Prep/Setup
// produced, consumed by the Scheduler to decide whether the group's tests
// run at all.
type Outcome struct {
	Skipped      bool
	SkipStdout   string
	SkipStderr   string
	PrepFailed   bool
	PrepStdout   string
	PrepStderr   string
	SetupFailed  bool
	SetupStdout  string
	SetupStderr  string
	SetupProc    *platform.Proc
}

// Manager runs the lifecycle for one or more Groups, owning the live Setup
// process handles on the Scheduler's behalf.
type Manager struct {
	platform *platform.PlatformContext
	killTTL  *killBackoff
}

// New constructs a Manager bound to p.
func New(p *platform.PlatformContext) *Manager {
	return &Manager{platform: p, killTTL: newKillBackoff()}
}

// Start runs Skip, then (if not skipped) Prep, then Setup. Skip is
// authoritative;
// prep failure or setup failure both fail the whole group without running
// any test in it.
func (m *Manager) Start(ctx context.Context, g *Group) (out *Outcome, err kv.Error) {
	out = &Outcome{}

	if g.Config.Skip != "" {
		code, stdout, stderr, rerr := m.run(ctx, g, g.Config.Skip, millis(g.Config.SkipTimeoutMS, 30_000))
		out.SkipStdout, out.SkipStderr = stdout, stderr
		if rerr != nil {
			return nil, rerr
		}
		if code != 0 {
			out.Skipped = true
			log.Debug("group skipped", "id", g.ID, "dir", g.ConfigDir, "exit", code)
			return out, nil
		}
	}

	if g.Config.Prep != "" {
		code, stdout, stderr, rerr := m.run(ctx, g, g.Config.Prep, millis(g.Config.PrepTimeoutMS, 30_000))
		out.PrepStdout, out.PrepStderr = stdout, stderr
		if rerr != nil {
			return nil, rerr
		}
		if code != 0 {
			out.PrepFailed = true
			log.Warn("group prep failed", "id", g.ID, "dir", g.ConfigDir, "exit", code)
			return out, nil
		}
	}

	if g.Config.Setup != "" {
		proc, stdout, stderr, failed, rerr := m.startSetup(ctx, g)
		out.SetupProc, out.SetupStdout, out.SetupStderr, out.SetupFailed = proc, stdout, stderr, failed
		if rerr != nil {
			return nil, rerr
		}
		if failed {
			log.Warn("group setup failed", "id", g.ID, "dir", g.ConfigDir)
			return out, nil
		}
		if g.Config.DelayMS > 0 {
			time.Sleep(time.Duration(g.Config.DelayMS) * time.Millisecond)
		}
	}

	return out, nil
}

// startSetup launches the long-lived setup command, waits 1s, then
// verifies it's still running.
func (m *Manager) startSetup(ctx context.Context, g *Group) (proc *platform.Proc, stdout, stderr string, failed bool, err kv.Error) {
	exe, args := shellCommand(m.platform, g.Config.Setup)
	proc, err = platform.Spawn(ctx, exe, args, platform.SpawnOpts{Cwd: g.ConfigDir, Env: g.Env})
	if err != nil {
		return nil, "", "", true, err
	}

	time.Sleep(1 * time.Second)
	if !platform.IsProcessRunning(proc.Pid()) {
		stdout, stderr = drain(proc)
		return proc, stdout, stderr, true, nil
	}
	return proc, "", "", false, nil
}

// Cleanup terminates a live Setup process (idempotent, safe to call from a
// signal handler) and then runs the Cleanup command if configured. Errors from the cleanup command itself are logged, not
// returned, since cleanup must always run to completion.
func (m *Manager) Cleanup(ctx context.Context, g *Group, proc *platform.Proc) {
	if proc != nil {
		pid := proc.Pid()
		if !m.killTTL.shouldSkip(pid) {
			if kerr := platform.KillProcess(pid, true, millis(g.Config.ShutdownMS, 5_000)); kerr != nil {
				log.Warn("setup kill failed", "id", g.ID, "pid", pid, "error", kerr)
			}
			m.killTTL.mark(pid)
		}
	}

	if g.Config.Cleanup == "" {
		return
	}
	if _, _, _, rerr := m.run(ctx, g, g.Config.Cleanup, millis(g.Config.CleanupTimeoutMS, 30_000)); rerr != nil {
		log.Warn("group cleanup command failed", "id", g.ID, "dir", g.ConfigDir, "error", rerr)
	}
}

// run executes a one-shot lifecycle command to completion under timeout,
// returning its exit code and captured output.
func (m *Manager) run(ctx context.Context, g *Group, command string, timeout time.Duration) (exitCode int, stdout, stderr string, err kv.Error) {
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	exe, args := shellCommand(m.platform, command)
	proc, err := platform.Spawn(cctx, exe, args, platform.SpawnOpts{Cwd: g.ConfigDir, Env: g.Env})
	if err != nil {
		return -1, "", "", err
	}
	stdout, stderr = drain(proc)
	exitCode, waitErr := proc.Wait()
	if waitErr != nil {
		return exitCode, stdout, stderr, waitErr
	}
	if cctx.Err() != nil {
		return -1, stdout, stderr, kv.NewError("lifecycle command timed out").With(
			"command", command, "stack", stack.Trace().TrimRuntime())
	}
	return exitCode, stdout, stderr, nil
}

func drain(proc *platform.Proc) (stdout, stderr string) {
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

// shellCommand wraps an arbitrary shell-invocation string the way a terminal would: cmd /c on
// Windows, sh -c elsewhere.
func shellCommand(p *platform.PlatformContext, command string) (exe string, args []string) {
	if p.IsWindows() {
		return "cmd", []string{"/c", command}
	}
	return "/bin/sh", []string{"-c", command}
}

func millis(v int, def int) time.Duration {
	if v <= 0 {
		v = def
	}
	return time.Duration(v) * time.Millisecond
}
