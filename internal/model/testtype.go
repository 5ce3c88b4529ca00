// Copyright 2018-2020 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

package model

// TestType is the resolved language tag for a discovered test file. A
// single TestHandler interface is selected by this tag rather than
// subclassing a base handler per language.
type TestType string

const (
	TestShell      TestType = "Shell"
	TestPowerShell TestType = "PowerShell"
	TestBatch      TestType = "Batch"
	TestC          TestType = "C"
	TestJavaScript TestType = "JavaScript"
	TestTypeScript TestType = "TypeScript"
	TestPython     TestType = "Python"
	TestGo         TestType = "Go"
	TestEjscript   TestType = "Ejscript"
)

// extensionTypes maps a recognized test-file extension key to its resolved
// type tag. The extension is the text between the "tst." marker and the end
// of the filename, e.g. "add.tst.c" -> "c".
var extensionTypes = map[string]TestType{
	"sh":  TestShell,
	"ps1": TestPowerShell,
	"bat": TestBatch,
	"cmd": TestBatch,
	"c":   TestC,
	"js":  TestJavaScript,
	"ts":  TestTypeScript,
	"py":  TestPython,
	"go":  TestGo,
	"es":  TestEjscript,
}

// TypeForExtension resolves the extension key found in a <stem>.tst.<ext>
// filename to its TestType. ok is false for extensions outside the
// recognized grammar.
func TypeForExtension(ext string) (t TestType, ok bool) {
	t, ok = extensionTypes[ext]
	return t, ok
}

// CompatibleWithPlatform reports whether a test of this type can run on the
// named platform OS key (one of "windows", "macosx", "linux").
func CompatibleWithPlatform(t TestType, os string) bool {
	if t == TestBatch {
		return os == "windows"
	}
	return true
}
