// Copyright 2018-2020 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

package scheduler

import (
	"fmt"
	"os"

	"github.com/leaf-ai/testme-runner/internal/handler"
	"github.com/leaf-ai/testme-runner/internal/model"
)

// buildEnv composes the subprocess environment every handler receives: the
// host process's own environment, the config's user `env`
// (already variable-expanded by the Config manager), and the TESTME_*
// special variables.
func buildEnv(cfg *model.TestConfig, keep bool) handler.Env {
	env := os.Environ()
	for k, v := range cfg.Env {
		env = append(env, k+"="+v)
	}
	env = append(env,
		"TESTME_VERBOSE="+boolFlag(cfg.Output.Verbose),
		"TESTME_QUIET="+boolFlag(cfg.Output.Quiet),
		"TESTME_KEEP="+boolFlag(keep),
		fmt.Sprintf("TESTME_DEPTH=%d", cfg.Depth),
		fmt.Sprintf("TESTME_ITERATIONS=%d", maxInt(cfg.Execution.Iterations, 1)),
		"TESTME_PROFILE="+cfg.Profile,
	)
	return env
}

func boolFlag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
