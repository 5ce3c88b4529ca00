// Copyright 2018-2020 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

package model

// SpecialVariables is the flat symbol table consumed by the variable
// expander. The set of special names is closed -- there is no
// reflection-based variable resolution, just this struct and the plain
// name->value map lookup internal/variables performs (see AsMap).
type SpecialVariables struct {
	TESTDIR   string // relative path from executable dir to test source dir
	CONFIGDIR string // relative path from executable dir to config dir
	OS        string // macosx|linux|windows
	ARCH      string // arm64|x64|x86
	PLATFORM  string // OS-ARCH
	CC        string // gcc|clang|msvc|mingw
	PROFILE   string
}

// AsMap renders the table in the shape internal/variables' expander
// consumes: a plain name->value lookup.
func (s SpecialVariables) AsMap() map[string]string {
	return map[string]string{
		"TESTDIR":   s.TESTDIR,
		"CONFIGDIR": s.CONFIGDIR,
		"OS":        s.OS,
		"ARCH":      s.ARCH,
		"PLATFORM":  s.PLATFORM,
		"CC":        s.CC,
		"PROFILE":   s.PROFILE,
	}
}
