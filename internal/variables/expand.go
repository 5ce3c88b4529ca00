// Copyright 2018-2020 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

// Package variables implements the Variable expander: resolution of
// "${NAME}" and "${glob-pattern}" tokens against a flat symbol table and,
// for unrecognized tokens, the filesystem. This is a closed set of special
// names plus one generic "glob pattern" fallback -- no reflection, no
// dynamic dispatch.
package variables

import (
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-stack/stack"
	"github.com/jjeffery/kv" // MIT License
)

// tokenPattern matches a single "${...}" token, non-greedy so adjacent
// tokens in the same string are split correctly.
var tokenPattern = regexp.MustCompile(`\$\{([^}]*)\}`)

// Expand resolves every "${...}" token in value against vars first (known
// special-variable names, substituted literally) and, for anything left
// unresolved, against the filesystem rooted at baseDir as a glob
// pattern. A pattern with multiple matches fans the single
// input string out into one output string per match; a token with no
// matches falls back to the literal pattern text (stripped of "${}") so a
// library search path is never silently dropped. Multiple tokens in one
// string combine as a cross product.
func Expand(value string, baseDir string, vars map[string]string) (results []string, err kv.Error) {
	if !strings.Contains(value, "${") {
		return []string{value}, nil
	}

	candidates := []string{value}
	matches := tokenPattern.FindAllStringSubmatchIndex(value, -1)
	if len(matches) == 0 {
		return []string{value}, nil
	}

	// Resolve tokens left-to-right against the ORIGINAL string's token
	// list, substituting into every candidate produced so far. Because
	// candidates can grow (glob fan-out), token offsets into the original
	// string remain valid -- we replace by token TEXT, not by index, which
	// is safe as long as the same "${...}" text does not recur with
	// different resolutions (it doesn't: the token grammar is positional,
	// not templated).
	for _, m := range matches {
		token := value[m[0]:m[1]]  // "${...}"
		name := value[m[2]:m[3]]   // inner text

		replacements, rerr := resolveToken(name, baseDir, vars)
		if rerr != nil {
			return nil, rerr
		}

		next := make([]string, 0, len(candidates)*len(replacements))
		for _, c := range candidates {
			if !strings.Contains(c, token) {
				next = append(next, c)
				continue
			}
			for _, r := range replacements {
				next = append(next, strings.Replace(c, token, r, 1))
			}
		}
		candidates = next
	}
	return candidates, nil
}

// resolveToken implements the two-pass rule for one "${name}" token: known
// special-variable names resolve literally; anything else is treated as a
// glob pattern rooted at baseDir.
func resolveToken(name string, baseDir string, vars map[string]string) (replacements []string, err kv.Error) {
	if v, ok := vars[name]; ok {
		return []string{v}, nil
	}

	matches, errGo := doublestar.FilepathGlob(joinPattern(baseDir, name))
	if errGo != nil {
		return nil, kv.Wrap(errGo).With("pattern", name, "baseDir", baseDir, "stack", stack.Trace().TrimRuntime())
	}
	if len(matches) == 0 {
		// No matches: fall back to the literal pattern text so a flag like
		// "-L${libs/*}" doesn't silently vanish from the compile line.
		return []string{name}, nil
	}
	return matches, nil
}

func joinPattern(baseDir, pattern string) string {
	if pattern == "" {
		return baseDir
	}
	if strings.HasPrefix(pattern, "/") || hasDriveLetter(pattern) {
		return pattern
	}
	return baseDir + "/" + pattern
}

func hasDriveLetter(p string) bool {
	return len(p) >= 2 && p[1] == ':' && ((p[0] >= 'a' && p[0] <= 'z') || (p[0] >= 'A' && p[0] <= 'Z'))
}

// ExpandScalar expands value and returns only the first result, the rule
// for environment values and other single-scalar fields.
func ExpandScalar(value string, baseDir string, vars map[string]string) (result string, err kv.Error) {
	all, err := Expand(value, baseDir, vars)
	if err != nil {
		return "", err
	}
	if len(all) == 0 {
		return value, nil
	}
	return all[0], nil
}

// ExpandAll expands every element of values and flattens the results.
func ExpandAll(values []string, baseDir string, vars map[string]string) (out []string, err kv.Error) {
	out = make([]string, 0, len(values))
	for _, v := range values {
		expanded, eerr := Expand(v, baseDir, vars)
		if eerr != nil {
			return nil, eerr
		}
		out = append(out, expanded...)
	}
	return out, nil
}

// ExpandMap expands every value of a string->string map (used for the
// "env" section) using ExpandScalar semantics.
func ExpandMap(values map[string]string, baseDir string, vars map[string]string) (out map[string]string, err kv.Error) {
	out = make(map[string]string, len(values))
	for k, v := range values {
		scalar, eerr := ExpandScalar(v, baseDir, vars)
		if eerr != nil {
			return nil, eerr
		}
		out[k] = scalar
	}
	return out, nil
}
