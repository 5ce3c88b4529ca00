// Copyright 2018-2020 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

package config

import (
	"github.com/leaf-ai/testme-runner/internal/model"
)

// mergeInto applies one child testme.json5 (already loaded from childDir) on
// top of an already-resolved parent TestConfig:
//   - scalars: child wins when specified, parent otherwise. The execution,
//     output and services sections hold only scalars, so they override
//     field by field whatever the inherit set says.
//   - arrays and maps in sections named in the child's "inherit" set
//     (default {env, compiler, patterns, services}) COMBINE with the parent
//     (maps: key union with child winning conflicts; arrays:
//     parent-then-child, de-duplicated); in sections NOT in the inherit
//     set, each array or map the child specifies REPLACES the parent's,
//     and each one the child leaves unset keeps the parent's value.
func mergeInto(parent *model.TestConfig, c *rawConfig, childDir string) *model.TestConfig {
	out := *parent // shallow copy; slices/maps rebuilt below

	inherit := resolveInherit(c.Inherit)
	out.Inherit = inherit
	out.ConfigDir = childDir

	if c.Enable != nil {
		out.Enable = model.EnableMode(*c.Enable)
	}
	if c.Depth != nil {
		out.Depth = *c.Depth
	}
	if c.Profile != nil {
		out.Profile = *c.Profile
	}

	out.Env = mergeEnv(parent.Env, c.Env, inherit["env"])
	out.CCompile = mergeCCompiler(parent.CCompile, c.Compiler, inherit["compiler"])
	out.ESCompile = mergeESCompiler(parent.ESCompile, c.Compiler, inherit["compiler"])
	out.Patterns = mergePatterns(parent.Patterns, c.Patterns, inherit["patterns"])
	out.Services = mergeServices(parent.Services, c.Services, inherit["services"])
	out.Execution = mergeExecution(parent.Execution, c.Execution)
	out.Output = mergeOutput(parent.Output, c.Output)

	if out.Sources == nil {
		out.Sources = map[string]string{}
	} else {
		cp := make(map[string]string, len(out.Sources))
		for k, v := range out.Sources {
			cp[k] = v
		}
		out.Sources = cp
	}
	for _, section := range touchedSections(c) {
		out.Sources[section] = childDir
	}

	return &out
}

func touchedSections(c *rawConfig) []string {
	sections := []string{}
	if c.Enable != nil || c.Depth != nil || c.Profile != nil {
		sections = append(sections, "core")
	}
	if c.Compiler != nil {
		sections = append(sections, "compiler")
	}
	if c.Execution != nil {
		sections = append(sections, "execution")
	}
	if c.Output != nil {
		sections = append(sections, "output")
	}
	if c.Patterns != nil {
		sections = append(sections, "patterns")
	}
	if c.Services != nil {
		sections = append(sections, "services")
	}
	if c.Env != nil {
		sections = append(sections, "env")
	}
	return sections
}

func resolveInherit(list []string) model.InheritSet {
	if list == nil {
		return model.DefaultInherit()
	}
	set := model.InheritSet{}
	for _, name := range list {
		set[name] = true
	}
	return set
}

func mergeEnv(parent map[string]string, child map[string]string, inherited bool) map[string]string {
	if child == nil {
		return cloneStringMap(parent)
	}
	if !inherited {
		return cloneStringMap(child)
	}
	out := cloneStringMap(parent)
	for k, v := range child {
		out[k] = v
	}
	return out
}

func cloneStringMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func mergeStringSlice(parent []string, child []string, inherited bool) []string {
	if child == nil {
		return append([]string{}, parent...)
	}
	if !inherited {
		return append([]string{}, child...)
	}
	return dedupeConcat(parent, child)
}

func dedupeConcat(parent []string, child []string) []string {
	seen := make(map[string]bool, len(parent)+len(child))
	out := make([]string, 0, len(parent)+len(child))
	for _, v := range parent {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	for _, v := range child {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

func mergeCFlags(parent model.CCompilerFlags, child *rawCFlags, inherited bool) model.CCompilerFlags {
	if child == nil {
		return model.CCompilerFlags{
			Flags:     append([]string{}, parent.Flags...),
			Libraries: append([]string{}, parent.Libraries...),
		}
	}
	return model.CCompilerFlags{
		Flags:     mergeStringSlice(parent.Flags, child.Flags, inherited),
		Libraries: mergeStringSlice(parent.Libraries, child.Libraries, inherited),
	}
}

func mergeCCompiler(parent model.CCompilerConfig, child *rawCompilerSection, inherited bool) model.CCompilerConfig {
	out := parent
	if child != nil && child.Selected != nil {
		out.Selected = *child.Selected
	}
	var c *rawCSection
	if child != nil {
		c = child.C
	}
	if c == nil {
		out.Flags = append([]string{}, parent.Flags...)
		out.Libraries = append([]string{}, parent.Libraries...)
		out.GCC = mergeCFlags(parent.GCC, nil, inherited)
		out.Clang = mergeCFlags(parent.Clang, nil, inherited)
		out.MSVC = mergeCFlags(parent.MSVC, nil, inherited)
		out.MinGW = mergeCFlags(parent.MinGW, nil, inherited)
		return out
	}
	out.Flags = mergeStringSlice(parent.Flags, c.Flags, inherited)
	out.Libraries = mergeStringSlice(parent.Libraries, c.Libraries, inherited)
	out.GCC = mergeCFlags(parent.GCC, c.GCC, inherited)
	out.Clang = mergeCFlags(parent.Clang, c.Clang, inherited)
	out.MSVC = mergeCFlags(parent.MSVC, c.MSVC, inherited)
	out.MinGW = mergeCFlags(parent.MinGW, c.MinGW, inherited)
	return out
}

func mergeESCompiler(parent model.ESCompilerConfig, child *rawCompilerSection, inherited bool) model.ESCompilerConfig {
	var es *rawESSection
	if child != nil {
		es = child.ES
	}
	if es == nil {
		return model.ESCompilerConfig{Preload: append([]string{}, parent.Preload...)}
	}
	return model.ESCompilerConfig{Preload: mergeStringSlice(parent.Preload, es.Preload, inherited)}
}

func mergePatterns(parent model.PatternsConfig, child *rawPatterns, inherited bool) model.PatternsConfig {
	if child == nil {
		return model.PatternsConfig{
			Include: append([]string{}, parent.Include...),
			Exclude: append([]string{}, parent.Exclude...),
		}
	}
	return model.PatternsConfig{
		Include: mergeStringSlice(parent.Include, child.Include, inherited),
		Exclude: mergeStringSlice(parent.Exclude, child.Exclude, inherited),
	}
}

// mergeServices has no array fields; every field is a scalar so "inherited"
// only decides whether an entirely-unspecified child section keeps parent
// wholesale (always true, scalars always keep parent when unset) vs every
// field overriding independently -- which is what recursive map-merge means
// for an all-scalar map, so the rule collapses to per-field override
// regardless of the inherit flag.
func mergeServices(parent model.ServicesConfig, child *rawServices, inherited bool) model.ServicesConfig {
	_ = inherited
	out := parent
	if child == nil {
		return out
	}
	if child.Skip != nil {
		out.Skip = *child.Skip
	}
	if child.Prep != nil {
		out.Prep = *child.Prep
	}
	if child.Setup != nil {
		out.Setup = *child.Setup
	}
	if child.Cleanup != nil {
		out.Cleanup = *child.Cleanup
	}
	if child.SkipTimeout != nil {
		out.SkipTimeoutMS = *child.SkipTimeout
	}
	if child.PrepTimeout != nil {
		out.PrepTimeoutMS = *child.PrepTimeout
	}
	if child.SetupTimeout != nil {
		out.SetupTimeoutMS = *child.SetupTimeout
	}
	if child.CleanupTimeout != nil {
		out.CleanupTimeoutMS = *child.CleanupTimeout
	}
	if child.Delay != nil {
		out.DelayMS = *child.Delay
	}
	if child.ShutdownTimeout != nil {
		out.ShutdownMS = *child.ShutdownTimeout
	}
	return out
}

func mergeExecution(parent model.ExecutionConfig, child *rawExecution) model.ExecutionConfig {
	out := parent
	if child == nil {
		return out
	}
	if child.Timeout != nil {
		out.TimeoutMS = *child.Timeout
	}
	if child.Parallel != nil {
		out.Parallel = *child.Parallel
	}
	if child.Workers != nil {
		if *child.Workers == 0 {
			// workers: 0 in a config file is rejected later -- -1 is the
			// sentinel Resolve checks for, distinct
			// from the model.Defaults() "0 means auto-select" sentinel.
			out.Workers = -1
		} else {
			out.Workers = *child.Workers
		}
	}
	if child.Depth != nil {
		out.Depth = *child.Depth
	}
	if child.Iterations != nil {
		out.Iterations = *child.Iterations
	}
	if child.Keep != nil {
		out.Keep = *child.Keep
	}
	return out
}

func mergeOutput(parent model.OutputConfig, child *rawOutput) model.OutputConfig {
	out := parent
	if child == nil {
		return out
	}
	if child.Verbose != nil {
		out.Verbose = *child.Verbose
	}
	if child.Quiet != nil {
		out.Quiet = *child.Quiet
	}
	if child.Format != nil {
		out.Format = model.OutputFormat(*child.Format)
	}
	if child.Colors != nil {
		out.Colors = *child.Colors
	}
	return out
}
