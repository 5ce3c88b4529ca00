// Copyright 2018-2020 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

// Package reporter implements the Reporter: a streaming sink for
// test results, with a line-oriented SimpleReporter and a structured JSON
// reporter, both serialized for concurrent use by the Scheduler's
// in-flight batches.
package reporter

import "github.com/leaf-ai/testme-runner/internal/model"

// Reporter is the Scheduler's only write path to the outside world.
type Reporter interface {
	OnStart(total int)
	OnResult(res *model.TestResult)
	OnGroupSkipped(dir string, reason string)
	OnSummary(summary *model.RunSummary)
}
