// Copyright 2018-2020 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

package service

import (
	"context"
	"testing"

	"github.com/leaf-ai/testme-runner/internal/model"
	"github.com/leaf-ai/testme-runner/internal/platform"
)

// TestServiceLifecycle: a setup
// command that stays alive is detected as running and yields a live process
// handle; Cleanup is then called twice on it, the second call being a no-op.
func TestServiceLifecycle(t *testing.T) {
	dir := t.TempDir()
	p := platform.NewPlatformContext()
	m := New(p)

	g := NewGroup(dir, model.ServicesConfig{
		Setup:      sleepCommand(p),
		ShutdownMS: 500,
	}, nil)

	out, err := m.Start(context.Background(), g)
	if err != nil {
		t.Fatal(err.Error())
	}
	if out.SetupFailed {
		t.Fatalf("expected setup to still be running after 1s, stdout=%q stderr=%q", out.SetupStdout, out.SetupStderr)
	}
	if out.SetupProc == nil {
		t.Fatal("expected a live setup process handle")
	}

	m.Cleanup(context.Background(), g, out.SetupProc)
	m.Cleanup(context.Background(), g, out.SetupProc) // idempotent
}

func TestServiceSkipIsAuthoritative(t *testing.T) {
	dir := t.TempDir()
	p := platform.NewPlatformContext()
	m := New(p)

	g := NewGroup(dir, model.ServicesConfig{Skip: falseCommand(p)}, nil)
	out, err := m.Start(context.Background(), g)
	if err != nil {
		t.Fatal(err.Error())
	}
	if !out.Skipped {
		t.Fatal("expected a non-zero skip command to mark the group skipped")
	}
}

func TestServicePrepFailureFailsGroup(t *testing.T) {
	dir := t.TempDir()
	p := platform.NewPlatformContext()
	m := New(p)

	g := NewGroup(dir, model.ServicesConfig{Prep: falseCommand(p)}, nil)
	out, err := m.Start(context.Background(), g)
	if err != nil {
		t.Fatal(err.Error())
	}
	if !out.PrepFailed {
		t.Fatal("expected a non-zero prep command to fail the group")
	}
}

func sleepCommand(p *platform.PlatformContext) string {
	if p.IsWindows() {
		return "ping -n 5 127.0.0.1 >NUL"
	}
	return "sleep 5"
}

func falseCommand(p *platform.PlatformContext) string {
	if p.IsWindows() {
		return "exit 1"
	}
	return "false"
}
