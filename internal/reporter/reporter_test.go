// Copyright 2018-2020 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

package reporter

import (
	"bufio"
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/leaf-ai/testme-runner/internal/model"
)

func sampleResult(status model.TestStatus) *model.TestResult {
	return &model.TestResult{
		TestFile: &model.TestFile{
			Path: "/work/add.tst.c",
			Base: "add.tst.c",
			Dir:  "/work",
			Stem: "add",
			Ext:  "c",
			Type: model.TestC,
		},
		Status:   status,
		ExitCode: 0,
		Duration: 12 * time.Millisecond,
		Stdout:   "ok\n",
	}
}

func TestSimpleReporterStreamsResults(t *testing.T) {
	buf := &bytes.Buffer{}
	r := NewSimple(buf, model.OutputConfig{Format: model.FormatSimple})

	r.OnStart(1)
	r.OnResult(sampleResult(model.StatusPass))
	summary := &model.RunSummary{}
	summary.Record(sampleResult(model.StatusPass))
	summary.Duration = 40 * time.Millisecond
	r.OnSummary(summary)

	out := buf.String()
	for _, want := range []string{"running 1 test", "PASS", "add.tst.c", "1 passed"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestSimpleReporterQuietSuppressesPasses(t *testing.T) {
	buf := &bytes.Buffer{}
	r := NewSimple(buf, model.OutputConfig{Format: model.FormatSimple, Quiet: true})

	r.OnStart(2)
	r.OnResult(sampleResult(model.StatusPass))
	r.OnResult(sampleResult(model.StatusFail))

	out := buf.String()
	if strings.Contains(out, "PASS") {
		t.Fatalf("expected quiet mode to suppress passes, got:\n%s", out)
	}
	if !strings.Contains(out, "FAIL") {
		t.Fatalf("expected quiet mode to keep failures, got:\n%s", out)
	}
}

func TestSimpleReporterDetailedDumpsFailureOutput(t *testing.T) {
	buf := &bytes.Buffer{}
	r := NewSimple(buf, model.OutputConfig{Format: model.FormatDetailed})

	res := sampleResult(model.StatusFail)
	res.Stderr = "expected 5 got 6\n"
	r.OnResult(res)

	if !strings.Contains(buf.String(), "expected 5 got 6") {
		t.Fatalf("expected detailed output to include stderr, got:\n%s", buf.String())
	}
}

func TestJSONReporterEmitsOneObjectPerResult(t *testing.T) {
	buf := &bytes.Buffer{}
	r := NewJSON(buf)

	res := sampleResult(model.StatusPass)
	res.AssertionCounts = &model.AssertionCounts{Passed: 3}
	r.OnResult(res)
	r.OnResult(sampleResult(model.StatusFail))

	summary := &model.RunSummary{}
	summary.Record(res)
	r.OnSummary(summary)

	scanner := bufio.NewScanner(buf)
	lines := 0
	for scanner.Scan() {
		lines++
		decoded := map[string]interface{}{}
		if errGo := json.Unmarshal(scanner.Bytes(), &decoded); errGo != nil {
			t.Fatalf("line %d is not valid JSON: %v", lines, errGo)
		}
	}
	if lines != 3 {
		t.Fatalf("expected 2 result objects and 1 summary object, got %d lines", lines)
	}
}

func TestJSONReporterSummaryShape(t *testing.T) {
	buf := &bytes.Buffer{}
	r := NewJSON(buf)

	summary := &model.RunSummary{}
	summary.Record(sampleResult(model.StatusFail))
	r.OnSummary(summary)

	decoded := struct {
		Summary struct {
			Total    int `json:"total"`
			Failed   int `json:"failed"`
			ExitCode int `json:"exit_code"`
		} `json:"summary"`
	}{}
	if errGo := json.Unmarshal(buf.Bytes(), &decoded); errGo != nil {
		t.Fatal(errGo)
	}
	if decoded.Summary.Total != 1 || decoded.Summary.Failed != 1 || decoded.Summary.ExitCode != 1 {
		t.Fatalf("unexpected summary: %+v", decoded.Summary)
	}
}

func TestForConfigSelectsByFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	if _, ok := ForConfig(buf, model.OutputConfig{Format: model.FormatJSON}).(*JSONReporter); !ok {
		t.Fatal("expected the json format to select the JSON reporter")
	}
	if _, ok := ForConfig(buf, model.OutputConfig{Format: model.FormatSimple}).(*SimpleReporter); !ok {
		t.Fatal("expected the simple format to select the simple reporter")
	}
}
