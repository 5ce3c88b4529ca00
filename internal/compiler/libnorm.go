// Copyright 2018-2020 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

package compiler

import "strings"

// NormalizeLibrary maps library names between toolchain conventions: a bare
// or "lib"-prefixed name gets the toolchain's native decoration, a name
// already in the toolchain's own convention passes through unchanged, and a
// name decorated for the other convention ("-lfoo" vs "foo.lib") is
// converted.
func NormalizeLibrary(name string, msvc bool) string {
	switch {
	case strings.HasPrefix(name, "-l"):
		if msvc {
			return name[2:] + ".lib"
		}
		return name
	case strings.HasSuffix(name, ".lib"):
		if msvc {
			return name
		}
		return "-l" + strings.TrimSuffix(name, ".lib")
	case strings.HasPrefix(name, "lib"):
		bare := strings.TrimPrefix(name, "lib")
		if msvc {
			return bare + ".lib"
		}
		return "-l" + bare
	default:
		if msvc {
			return name + ".lib"
		}
		return "-l" + name
	}
}

// NormalizeLibraries maps NormalizeLibrary over a set of library names.
func NormalizeLibraries(names []string, msvc bool) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = NormalizeLibrary(n, msvc)
	}
	return out
}
