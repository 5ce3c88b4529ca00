// Copyright 2018-2020 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

// Package config implements the Config manager: JSON5 loading,
// upward directory-tree walking, and the merge algebra that produces a
// model.TestConfig from a chain of testme.json5 files plus CLI overrides.
package config

// rawConfig is the on-disk shape of testme.json5, parsed by
// github.com/titanous/json5 (the pack's only JSON5 library, sourced from
// the vanducng-goclaw example per DESIGN.md). It deliberately uses
// pointers/omitted-zero-value fields so the merge algebra can tell
// "not specified" apart from "explicitly set to the zero value".
type rawConfig struct {
	Enable  *string  `json:"enable"`
	Depth   *int     `json:"depth"`
	Profile *string  `json:"profile"`
	Inherit []string `json:"inherit"`

	Compiler *rawCompilerSection `json:"compiler"`
	Execution *rawExecution      `json:"execution"`
	Output    *rawOutput         `json:"output"`
	Patterns  *rawPatterns       `json:"patterns"`
	Services  *rawServices       `json:"services"`
	Env       map[string]string  `json:"env"`
}

type rawCFlags struct {
	Flags     []string `json:"flags"`
	Libraries []string `json:"libraries"`
}

type rawCompilerSection struct {
	// Selected is the top-level "compiler" string naming a default
	// toolchain ("gcc", "clang", "msvc", "mingw", "default").
	Selected *string `json:"compiler"`

	C  *rawCSection  `json:"c"`
	ES *rawESSection `json:"es"`
}

type rawCSection struct {
	Flags     []string   `json:"flags"`
	Libraries []string   `json:"libraries"`
	GCC       *rawCFlags `json:"gcc"`
	Clang     *rawCFlags `json:"clang"`
	MSVC      *rawCFlags `json:"msvc"`
	MinGW     *rawCFlags `json:"mingw"`
}

type rawESSection struct {
	Preload []string `json:"preload"`
}

type rawExecution struct {
	Timeout    *int  `json:"timeout"`
	Parallel   *bool `json:"parallel"`
	Workers    *int  `json:"workers"`
	Depth      *int  `json:"depth"`
	Iterations *int  `json:"iterations"`
	Keep       *bool `json:"keep"`
}

type rawOutput struct {
	Verbose *bool   `json:"verbose"`
	Quiet   *bool   `json:"quiet"`
	Format  *string `json:"format"`
	Colors  *bool   `json:"colors"`
}

type rawPatterns struct {
	Include []string `json:"include"`
	Exclude []string `json:"exclude"`
}

type rawServices struct {
	Skip             *string `json:"skip"`
	Prep             *string `json:"prep"`
	Setup            *string `json:"setup"`
	Cleanup          *string `json:"cleanup"`
	SkipTimeout      *int    `json:"skipTimeout"`
	PrepTimeout      *int    `json:"prepTimeout"`
	SetupTimeout     *int    `json:"setupTimeout"`
	CleanupTimeout   *int    `json:"cleanupTimeout"`
	Delay            *int    `json:"delay"`
	ShutdownTimeout  *int    `json:"shutdownTimeout"`
}

// knownTopLevelKeys is used by the unknown-key detector; a key
// present in the generic parse but absent here is warned, not fatal.
var knownTopLevelKeys = map[string]bool{
	"enable": true, "depth": true, "profile": true, "inherit": true,
	"compiler": true, "execution": true, "output": true, "patterns": true,
	"services": true, "env": true,
}
