// Copyright 2018-2020 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

package handler

import (
	"github.com/leaf-ai/testme-runner/internal/model"
)

// scanAssertions counts the ✓/✗ assertion markers a test's stdout may
// carry; nil when none were found.
func scanAssertions(stdout string) *model.AssertionCounts {
	counts := &model.AssertionCounts{}
	found := false
	for _, r := range stdout {
		switch r {
		case '✓':
			counts.Passed++
			found = true
		case '✗':
			counts.Failed++
			found = true
		}
	}
	if !found {
		return nil
	}
	return counts
}

// statusForExit maps a process exit code to a terminal TestStatus for
// handlers whose only signal is exit-code-or-not (shell family,
// interpreter stubs): 0 is Pass, a negative code means the process was
// signal-terminated rather than exiting, anything else is Fail.
func statusForExit(exitCode int) model.TestStatus {
	switch {
	case exitCode == 0:
		return model.StatusPass
	case exitCode < 0:
		return model.StatusCrash
	default:
		return model.StatusFail
	}
}
