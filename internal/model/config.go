// Copyright 2018-2020 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

package model

// This file defines the merged-configuration shape. Values here represent
// a config that
// has already been through the inheritance/merge algebra -- they are
// considered resolved and are treated as immutable once handed to
// Discovery/Scheduler.

// EnableMode is the three-state "enable" section: always on, always off, or
// manual (only runs when named explicitly).
type EnableMode string

const (
	EnableTrue   EnableMode = "true"
	EnableFalse  EnableMode = "false"
	EnableManual EnableMode = "manual"
)

// OutputFormat selects the Reporter implementation driving a run.
type OutputFormat string

const (
	FormatSimple   OutputFormat = "simple"
	FormatDetailed OutputFormat = "detailed"
	FormatJSON     OutputFormat = "json"
)

// CCompilerFlags holds the flags/libraries contributed to a single named C
// toolchain (gcc, clang, msvc, mingw).
type CCompilerFlags struct {
	Flags     []string
	Libraries []string
}

// CCompilerConfig is the "compiler.c" section: a per-compiler flag table
// plus a common set applied regardless of the chosen toolchain.
type CCompilerConfig struct {
	Selected  string // "" means auto-select, see internal/platform
	Flags     []string
	Libraries []string
	GCC       CCompilerFlags
	Clang     CCompilerFlags
	MSVC      CCompilerFlags
	MinGW     CCompilerFlags
}

// ESCompilerConfig is the "compiler.es" section: ejscript preload modules.
type ESCompilerConfig struct {
	Preload []string
}

// ExecutionConfig is the "execution" section.
type ExecutionConfig struct {
	TimeoutMS  int  // default 30_000
	Parallel   bool // default true
	Workers    int  // default min(4, cores); 0 means auto-select, -1 marks an explicit 0 that Resolve rejects
	Depth      int
	Iterations int // default 1
	Keep       bool
}

// OutputConfig is the "output" section.
type OutputConfig struct {
	Verbose bool
	Quiet   bool
	Format  OutputFormat
	Colors  bool
}

// PatternsConfig is the "patterns" section.
type PatternsConfig struct {
	Include []string
	Exclude []string
}

// ServicesConfig is the "services" section: skip/prep/setup/cleanup
// shell-invocations plus their timeouts.
type ServicesConfig struct {
	Skip             string
	Prep             string
	Setup            string
	Cleanup          string
	SkipTimeoutMS    int // default 30_000
	PrepTimeoutMS    int // default 30_000
	SetupTimeoutMS   int // default 30_000
	CleanupTimeoutMS int // default 30_000
	DelayMS          int // default 0
	ShutdownMS       int // default 5_000
}

// InheritSet is the "inherit" section: names of sections that concatenate
// with the parent instead of replacing it. It is a
// set, represented as a map for O(1) membership tests.
type InheritSet map[string]bool

// DefaultInherit is applied when a config file omits "inherit" entirely.
func DefaultInherit() InheritSet {
	return InheritSet{"env": true, "compiler": true, "patterns": true, "services": true}
}

// TestConfig is the fully merged configuration active at a given
// directory. Once produced by the Config manager it is never mutated.
type TestConfig struct {
	Enable   EnableMode
	Depth    int
	Profile  string
	Inherit  InheritSet
	CCompile  CCompilerConfig
	ESCompile ESCompilerConfig
	Execution ExecutionConfig
	Output    OutputConfig
	Patterns  PatternsConfig
	Services  ServicesConfig
	Env       map[string]string

	// ConfigDir is the directory of the nearest testme.json5 that
	// contributed to this merged config, or "" if none was found (built-in
	// defaults only). Used by the Service manager for the prep/setup/
	// cleanup subprocess cwd.
	ConfigDir string

	// Sources maps each top-level section to the directory of the last
	// testme.json5 that set it; the merge fills it on every resolve.
	Sources map[string]string
}

// Defaults returns the built-in bottom layer of the merge stack.
func Defaults() *TestConfig {
	return &TestConfig{
		Enable:  EnableTrue,
		Depth:   0,
		Profile: "default",
		Inherit: DefaultInherit(),
		Execution: ExecutionConfig{
			TimeoutMS:  30_000,
			Parallel:   true,
			Workers:    0, // resolved against PlatformContext.CPUCount at merge time
			Iterations: 1,
		},
		Output: OutputConfig{
			Format: FormatSimple,
			Colors: true,
		},
		Services: ServicesConfig{
			SkipTimeoutMS:    30_000,
			PrepTimeoutMS:    30_000,
			SetupTimeoutMS:   30_000,
			CleanupTimeoutMS: 30_000,
			ShutdownMS:       5_000,
		},
		Env:     map[string]string{},
		Sources: map[string]string{},
	}
}
