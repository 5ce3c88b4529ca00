// Copyright 2018-2020 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

// Package compiler implements the Compiler abstraction: toolchain
// default flags, flag composition, cross-dialect translation, library name
// normalization, and compiler invocation, layered on top of the toolchain
// discovery in internal/platform.
package compiler

import (
	"os"
	"path/filepath"

	"github.com/leaf-ai/testme-runner/internal/platform"
)

// Defaults returns the baseline flags for a toolchain before any
// user-configured flags are merged in.
func Defaults(cc platform.CC, isMacOS bool) []string {
	home, _ := os.UserHomeDir()

	switch cc {
	case platform.CCMSVC:
		return []string{
			"/std:c11", "/W4", "/Od", "/Zi", "/FS", "/nologo",
			"/I" + filepath.Join(home, ".local", "include"),
		}
	case platform.CCClang:
		flags := []string{
			"-std=c99", "-Wall", "-Wextra", "-Wno-unused-parameter",
			"-O0", "-g", "-I.",
			"-I" + filepath.Join(home, ".local", "include"),
			"-L" + filepath.Join(home, ".local", "lib"),
		}
		if isMacOS {
			flags = append(flags, "-I/opt/homebrew/include", "-L/opt/homebrew/lib")
		}
		return flags
	default: // GCC, MinGW
		flags := []string{
			"-std=c99", "-Wall", "-Wextra", "-Wno-unused-parameter",
			"-Wno-strict-prototypes", "-O0", "-g", "-I.",
			"-I" + filepath.Join(home, ".local", "include"),
			"-L" + filepath.Join(home, ".local", "lib"),
		}
		if isMacOS {
			flags = append(flags, "-I/opt/homebrew/include", "-L/opt/homebrew/lib")
		}
		return flags
	}
}
