// Copyright 2018-2020 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

package reporter

import (
	"encoding/json"
	"io"
	"sync"

	"github.com/leaf-ai/testme-runner/internal/model"
)

// jsonResult is the wire shape for one test result, emitted as a single
// JSON object per line so downstream tooling can stream-parse a run.
type jsonResult struct {
	Test       string          `json:"test"`
	Path       string          `json:"path"`
	Status     string          `json:"status"`
	ExitCode   int             `json:"exit_code"`
	DurationMS int64           `json:"duration_ms"`
	Stdout     string          `json:"stdout,omitempty"`
	Stderr     string          `json:"stderr,omitempty"`
	Assertions *jsonAssertions `json:"assertions,omitempty"`
	Error      string          `json:"error,omitempty"`
}

type jsonAssertions struct {
	Passed int `json:"passed"`
	Failed int `json:"failed"`
}

type jsonSkip struct {
	SkippedGroup string `json:"skipped_group"`
	Reason       string `json:"reason,omitempty"`
}

type jsonSummary struct {
	Summary struct {
		Total      int   `json:"total"`
		Passed     int   `json:"passed"`
		Failed     int   `json:"failed"`
		Skipped    int   `json:"skipped"`
		Errors     int   `json:"errors"`
		Timeouts   int   `json:"timeouts"`
		DurationMS int64 `json:"duration_ms"`
		ExitCode   int   `json:"exit_code"`
	} `json:"summary"`
}

// JSONReporter emits one JSON object per result plus a trailing summary
// object. Selected by output.format: json.
type JSONReporter struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewJSON builds a JSONReporter writing to w.
func NewJSON(w io.Writer) *JSONReporter {
	return &JSONReporter{enc: json.NewEncoder(w)}
}

// OnStart is a no-op: a streamed JSON run has no preamble, only result
// objects and the trailing summary.
func (r *JSONReporter) OnStart(total int) {}

func (r *JSONReporter) OnResult(res *model.TestResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := jsonResult{
		Test:       res.TestFile.Base,
		Path:       res.TestFile.Path,
		Status:     string(res.Status),
		ExitCode:   res.ExitCode,
		DurationMS: res.Duration.Milliseconds(),
		Stdout:     res.Stdout,
		Stderr:     res.Stderr,
		Error:      res.ErrorMessage,
	}
	if res.AssertionCounts != nil {
		out.Assertions = &jsonAssertions{
			Passed: res.AssertionCounts.Passed,
			Failed: res.AssertionCounts.Failed,
		}
	}
	_ = r.enc.Encode(&out)
}

func (r *JSONReporter) OnGroupSkipped(dir string, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_ = r.enc.Encode(&jsonSkip{SkippedGroup: dir, Reason: reason})
}

func (r *JSONReporter) OnSummary(summary *model.RunSummary) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := jsonSummary{}
	out.Summary.Total = summary.Total
	out.Summary.Passed = summary.Passed
	out.Summary.Failed = summary.Failed
	out.Summary.Skipped = summary.Skipped
	out.Summary.Errors = summary.Errored
	out.Summary.Timeouts = summary.TimedOut
	out.Summary.DurationMS = summary.Duration.Milliseconds()
	out.Summary.ExitCode = summary.ExitCode()
	_ = r.enc.Encode(&out)
}

// ForConfig selects the reporter implementation the resolved output
// section asks for.
func ForConfig(w io.Writer, out model.OutputConfig) Reporter {
	if out.Format == model.FormatJSON {
		return NewJSON(w)
	}
	return NewSimple(w, out)
}
