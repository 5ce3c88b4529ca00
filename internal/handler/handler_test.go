// Copyright 2018-2020 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

package handler

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/leaf-ai/testme-runner/internal/model"
	"github.com/leaf-ai/testme-runner/internal/platform"
)

// TestShellHandlerBasicPass uses a shell test rather than a C one since no
// C toolchain is guaranteed available in every build environment; the
// compiler package tests cover the flag translation, library naming and
// default flags that CHandler's compile step uses, not CHandler itself.
func TestShellHandlerBasicPass(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "ok.tst.sh")
	if err := os.WriteFile(script, []byte("#!/bin/sh\necho ok\nexit 0\n"), 0644); err != nil {
		t.Fatal(err)
	}

	p := platform.NewPlatformContext()
	tf, ok, ferr := model.NewTestFile(script)
	if ferr != nil || !ok {
		t.Fatalf("expected a valid TestFile, ok=%v err=%v", ok, ferr)
	}

	h := &ShellHandler{}
	if err := h.Prepare(context.Background(), p, tf, nil); err != nil {
		t.Fatal(err.Error())
	}
	res, err := h.Execute(context.Background(), p, tf, nil, nil)
	if err != nil {
		t.Fatal(err.Error())
	}
	if res.Status != model.StatusPass {
		t.Fatalf("expected Pass, got %v (stderr=%q)", res.Status, res.Stderr)
	}
}

func TestShellHandlerCapturesStderrOnFailure(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "bad.tst.sh")
	if err := os.WriteFile(script, []byte("#!/bin/sh\necho boom 1>&2\nexit 1\n"), 0644); err != nil {
		t.Fatal(err)
	}

	p := platform.NewPlatformContext()
	tf, ok, ferr := model.NewTestFile(script)
	if ferr != nil || !ok {
		t.Fatalf("expected a valid TestFile, ok=%v err=%v", ok, ferr)
	}

	h := &ShellHandler{}
	_ = h.Prepare(context.Background(), p, tf, nil)
	res, err := h.Execute(context.Background(), p, tf, nil, nil)
	if err != nil {
		t.Fatal(err.Error())
	}
	if res.Status != model.StatusFail {
		t.Fatalf("expected Fail, got %v", res.Status)
	}
	if res.Stderr == "" {
		t.Fatal("expected stderr to be captured")
	}
}

func TestRegistryCoversEveryTestType(t *testing.T) {
	r := NewRegistry()
	types := []model.TestType{
		model.TestShell, model.TestPowerShell, model.TestBatch, model.TestC,
		model.TestJavaScript, model.TestTypeScript, model.TestPython,
		model.TestGo, model.TestEjscript,
	}
	for _, typ := range types {
		if _, err := r.New(typ); err != nil {
			t.Fatalf("expected a handler for %v, got error: %v", typ, err.Error())
		}
	}
}
