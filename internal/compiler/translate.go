// Copyright 2018-2020 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

package compiler

import (
	"strings"

	"github.com/leaf-ai/testme-runner/internal/platform"
)

// dialect identifies which flag spelling convention a flag string belongs
// to, used to decide whether TranslateFlags needs to act at all.
type dialect int

const (
	dialectUnknown dialect = iota
	dialectGCC
	dialectMSVC
)

func detectDialect(flag string) dialect {
	switch {
	case strings.HasPrefix(flag, "/"):
		return dialectMSVC
	case strings.HasPrefix(flag, "-"):
		return dialectGCC
	default:
		return dialectUnknown
	}
}

// gccToMSVC is the forward half of the cross-dialect translation table.
// Entries map exactly (no prefix args); prefixed forms (-I, -L, -D) are
// handled separately in translateOne.
var gccToMSVC = map[string]string{
	"-Wall": "/W4", "-Wextra": "/W4",
	"-Werror": "/WX",
	"-std=c99": "/std:c11", "-std=c11": "/std:c11", "-std=c17": "/std:c17",
	"-O0": "/Od", "-O1": "/O2", "-O2": "/O2", "-O3": "/Ox",
	"-g": "/Zi",
}

// msvcToGCC is the reverse half, used when a flag set authored for MSVC is
// applied against a GCC/Clang/MinGW target. Only canonical, round-trip-safe
// entries are included (see TestFlagTranslationRoundTrip for which pairs
// round-trip exactly -- "/W4" and "/O2" are
// intentionally many-to-one from the forward direction and are not
// expected to reproduce the original GCC flag bit-for-bit).
var msvcToGCC = map[string]string{
	"/W4": "-Wall", "/WX": "-Werror",
	"/std:c11": "-std=c11", "/std:c17": "-std=c17",
	"/Od": "-O0", "/O2": "-O2", "/Ox": "-O3",
	"/Zi": "-g",
}

// TranslateFlags converts flags written for fromDialect-like tools into the
// target toolchain's dialect, leaving flags already in that target's
// dialect (or unrecognized entirely) unchanged. It is applied only when at
// least one flag doesn't already match target.
func TranslateFlags(flags []string, target platform.CC) []string {
	out := make([]string, len(flags))
	for i, f := range flags {
		out[i] = translateOne(f, target)
	}
	return out
}

func translateOne(flag string, target platform.CC) string {
	wantMSVC := target == platform.CCMSVC

	if wantMSVC {
		if v, ok := gccToMSVC[flag]; ok {
			return v
		}
		if v, ok := translatePrefixed(flag, "-I", "/I"); ok {
			return v
		}
		if v, ok := translatePrefixed(flag, "-L", "/LIBPATH:"); ok {
			return v
		}
		if v, ok := translatePrefixed(flag, "-D", "/D"); ok {
			return v
		}
		return flag
	}

	if v, ok := msvcToGCC[flag]; ok {
		return v
	}
	if v, ok := translatePrefixed(flag, "/I", "-I"); ok {
		return v
	}
	if v, ok := translatePrefixed(flag, "/LIBPATH:", "-L"); ok {
		return v
	}
	if v, ok := translatePrefixed(flag, "/D", "-D"); ok {
		return v
	}
	return flag
}

func translatePrefixed(flag, from, to string) (string, bool) {
	if !strings.HasPrefix(flag, from) {
		return "", false
	}
	return to + flag[len(from):], true
}

// NeedsTranslation reports whether any flag in the set does not already
// match target's dialect; translation only runs when the user-provided
// set's dialect differs from the target's.
func NeedsTranslation(flags []string, target platform.CC) bool {
	wantMSVC := target == platform.CCMSVC
	for _, f := range flags {
		d := detectDialect(f)
		if d == dialectUnknown {
			continue
		}
		if wantMSVC && d == dialectGCC {
			return true
		}
		if !wantMSVC && d == dialectMSVC {
			return true
		}
	}
	return false
}
