// Copyright 2018-2020 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

package compiler

import (
	"testing"

	"github.com/leaf-ai/testme-runner/internal/platform"
)

// TestFlagTranslationRoundTrip: only the canonical, unambiguous entries of
// the translation table are expected to survive a GCC -> MSVC -> GCC round
// trip unchanged.
func TestFlagTranslationRoundTrip(t *testing.T) {
	canonical := []string{"-Werror", "-std=c11", "-std=c17", "-O0", "-O2", "-g", "-Ifoo", "-Lbar", "-Dbaz"}

	toMSVC := TranslateFlags(canonical, platform.CCMSVC)
	back := TranslateFlags(toMSVC, platform.CCGCC)

	for i, want := range canonical {
		if back[i] != want {
			t.Errorf("round trip failed for %q: got %q via %q", want, back[i], toMSVC[i])
		}
	}
}

func TestFlagTranslationLossyForwardOnly(t *testing.T) {
	out := TranslateFlags([]string{"-Wall", "-Wextra", "-std=c99", "-O1", "-O3"}, platform.CCMSVC)
	want := []string{"/W4", "/W4", "/std:c11", "/O2", "/Ox"}
	for i := range want {
		if out[i] != want[i] {
			t.Fatalf("flag %d: got %q want %q", i, out[i], want[i])
		}
	}
}

func TestNeedsTranslation(t *testing.T) {
	if !NeedsTranslation([]string{"-Wall"}, platform.CCMSVC) {
		t.Fatal("expected GCC flags against an MSVC target to need translation")
	}
	if NeedsTranslation([]string{"/W4"}, platform.CCMSVC) {
		t.Fatal("expected MSVC flags against an MSVC target to not need translation")
	}
	if NeedsTranslation([]string{"-DFOO"}, platform.CCGCC) {
		t.Fatal("expected GCC flags against a GCC target to not need translation")
	}
}

func TestNormalizeLibrary(t *testing.T) {
	cases := []struct {
		in, unix, msvc string
	}{
		{"foo", "-lfoo", "foo.lib"},
		{"libfoo", "-lfoo", "foo.lib"},
		{"-lfoo", "-lfoo", "foo.lib"},
		{"foo.lib", "-lfoo", "foo.lib"},
	}
	for _, c := range cases {
		if got := NormalizeLibrary(c.in, false); got != c.unix {
			t.Errorf("NormalizeLibrary(%q, false) = %q, want %q", c.in, got, c.unix)
		}
		if got := NormalizeLibrary(c.in, true); got != c.msvc {
			t.Errorf("NormalizeLibrary(%q, true) = %q, want %q", c.in, got, c.msvc)
		}
	}
}

func TestDefaultsIncludeMacOSExtras(t *testing.T) {
	gccFlags := Defaults(platform.CCGCC, false)
	for _, f := range gccFlags {
		if f == "-I/opt/homebrew/include" {
			t.Fatal("expected non-macOS defaults to omit homebrew include path")
		}
	}
	macFlags := Defaults(platform.CCGCC, true)
	found := false
	for _, f := range macFlags {
		if f == "-I/opt/homebrew/include" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected macOS defaults to include homebrew include path")
	}
}

func TestMSVCDefaultsOmitStrictPrototypes(t *testing.T) {
	for _, f := range Defaults(platform.CCMSVC, false) {
		if f == "-Wno-strict-prototypes" {
			t.Fatal("MSVC defaults should not carry a GCC-only flag")
		}
	}
}
