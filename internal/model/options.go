// Copyright 2018-2020 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

package model

// Options is the canonical, validated record the CLI front end produces. cmd/testme builds one of
// these from flag/envflag and hands it to the Scheduler; nothing downstream
// of this struct parses argv directly.
type Options struct {
	Roots        []string
	NamePatterns []string
	Depth        int
	Iterations   int
	Workers      int
	TimeoutMS    int
	Verbose      bool
	Quiet        bool
	Keep         bool
	ListOnly     bool
	Init         bool
	New          string
	Profile      string
	Debug        bool
	Chdir        string
}

// AsOverrides converts the CLI options into the synthetic top-most config
// layer, the one that always wins over any testme.json5. Only fields the user actually set
// participate; the caller is expected to track "was this flag set"
// separately (cmd/testme uses flag.Visit for that), so this helper takes
// an explicit set of field names to apply.
func (o *Options) AsOverrides(set map[string]bool) *TestConfig {
	cfg := &TestConfig{Env: map[string]string{}}
	if set["depth"] {
		cfg.Depth = o.Depth
	}
	if set["profile"] {
		cfg.Profile = o.Profile
	}
	if set["workers"] {
		cfg.Execution.Workers = o.Workers
	}
	if set["timeout"] {
		cfg.Execution.TimeoutMS = o.TimeoutMS
	}
	if set["iterations"] {
		cfg.Execution.Iterations = o.Iterations
	}
	if set["keep"] {
		cfg.Execution.Keep = o.Keep
	}
	if set["verbose"] {
		cfg.Output.Verbose = o.Verbose
	}
	if set["quiet"] {
		cfg.Output.Quiet = o.Quiet
	}
	return cfg
}
