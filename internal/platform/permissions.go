// Copyright 2018-2020 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

package platform

import (
	"os"
	"strings"

	"github.com/go-stack/stack"
	"github.com/jjeffery/kv" // MIT License
)

// windowsExecutableExts is the extension set that carries executability on
// Windows; MakeExecutable is a no-op
// there since the filesystem has no execute bit.
var windowsExecutableExts = map[string]bool{
	".exe": true, ".bat": true, ".cmd": true, ".ps1": true,
	".com": true, ".vbs": true, ".wsf": true, ".msi": true,
}

// MakeExecutable sets mode 0755 on Unix; on Windows executability is
// carried by extension, so this is a no-op there.
func (p *PlatformContext) MakeExecutable(path string) (err kv.Error) {
	if p.IsWindows() {
		return nil
	}
	if errGo := os.Chmod(path, 0755); errGo != nil {
		return kv.Wrap(errGo).With("path", path, "stack", stack.Trace().TrimRuntime())
	}
	return nil
}

// IsExecutableName reports whether path carries executability purely by
// its extension, relevant only on Windows where the filesystem has no
// execute bit to inspect.
func (p *PlatformContext) IsExecutableName(path string) bool {
	if !p.IsWindows() {
		return true
	}
	for ext := range windowsExecutableExts {
		if strings.HasSuffix(strings.ToLower(path), ext) {
			return true
		}
	}
	return false
}

// BinaryExtension returns ".exe" on Windows, "" elsewhere.
func (p *PlatformContext) BinaryExtension() string {
	if p.IsWindows() {
		return ".exe"
	}
	return ""
}

// AddBinaryExtension appends BinaryExtension to name, only when it is not
// already present.
func (p *PlatformContext) AddBinaryExtension(name string) string {
	ext := p.BinaryExtension()
	if ext == "" {
		return name
	}
	if strings.HasSuffix(strings.ToLower(name), ext) {
		return name
	}
	return name + ext
}
