// Copyright 2018-2020 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

package platform

import (
	"bufio"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/go-stack/stack"
	"github.com/jjeffery/kv" // MIT License
)

// ShellInvocation is the resolved {executable, args} pair for running a
// script file through its shell.
type ShellInvocation struct {
	Path string
	Args []string
}

// ShellFor resolves the shell invocation for a script by its extension
// and, for .sh files, its shebang line. Shell probe results are cached on
// the context for process lifetime; shebang lines are read on every call.
func (p *PlatformContext) ShellFor(scriptPath string) (inv ShellInvocation, err kv.Error) {
	ext := strings.ToLower(filepath.Ext(scriptPath))

	switch ext {
	case ".ps1":
		exe, cacheErr := p.cachedShell("ps1", p.findPowerShell)
		if cacheErr != nil {
			return inv, cacheErr
		}
		return ShellInvocation{Path: exe, Args: []string{"-ExecutionPolicy", "Bypass", "-File", scriptPath}}, nil

	case ".bat", ".cmd":
		exe, cacheErr := p.cachedShell("cmd", p.findCmdExe)
		if cacheErr != nil {
			return inv, cacheErr
		}
		return ShellInvocation{Path: exe, Args: []string{"/c", "call", scriptPath}}, nil

	case ".sh":
		shebang := readShebang(scriptPath)
		if shebang != "" {
			return ShellInvocation{Path: shebang, Args: []string{scriptPath}}, nil
		}
		if p.IsWindows() {
			exe, cacheErr := p.cachedShell("gitbash", p.findGitBash)
			if cacheErr != nil {
				return inv, cacheErr
			}
			return ShellInvocation{Path: exe, Args: []string{scriptPath}}, nil
		}
		exe, cacheErr := p.cachedShell("unixsh", p.findDefaultUnixShell)
		if cacheErr != nil {
			return inv, cacheErr
		}
		return ShellInvocation{Path: exe, Args: []string{scriptPath}}, nil

	default:
		return inv, kv.NewError("no shell mapping for extension").With(
			"ext", ext, "script", scriptPath, "stack", stack.Trace().TrimRuntime())
	}
}

func (p *PlatformContext) cachedShell(key string, probe func() (string, kv.Error)) (string, kv.Error) {
	p.mu.RLock()
	if v, ok := p.shellCache[key]; ok {
		p.mu.RUnlock()
		return v, nil
	}
	p.mu.RUnlock()

	v, err := probe()
	if err != nil {
		return "", err
	}
	p.mu.Lock()
	p.shellCache[key] = v
	p.mu.Unlock()
	return v, nil
}

func (p *PlatformContext) findPowerShell() (string, kv.Error) {
	if full, errGo := exec.LookPath("pwsh"); errGo == nil {
		return full, nil
	}
	if full, errGo := exec.LookPath("pwsh.exe"); errGo == nil {
		return full, nil
	}
	if full, errGo := exec.LookPath("powershell.exe"); errGo == nil {
		return full, nil
	}
	return "", kv.NewError("no PowerShell found").With(
		"hint", "install PowerShell 7 (pwsh) or use Windows PowerShell",
		"stack", stack.Trace().TrimRuntime())
}

func (p *PlatformContext) findCmdExe() (string, kv.Error) {
	if full, errGo := exec.LookPath("cmd.exe"); errGo == nil {
		return full, nil
	}
	if v := os.Getenv("COMSPEC"); v != "" {
		return v, nil
	}
	return "", kv.NewError("no cmd.exe found").With("stack", stack.Trace().TrimRuntime())
}

// gitBashRoots are common install locations checked in order; this also
// filters out the WSL bash shim that Windows places under WindowsApps and
// System32, which is not a usable Git Bash.
var gitBashRoots = []string{
	`C:\Program Files\Git\bin\bash.exe`,
	`C:\Program Files (x86)\Git\bin\bash.exe`,
}

func (p *PlatformContext) findGitBash() (string, kv.Error) {
	for _, root := range gitBashRoots {
		if _, errGo := os.Stat(root); errGo == nil {
			return root, nil
		}
	}
	if full, errGo := exec.LookPath("bash.exe"); errGo == nil {
		lower := strings.ToLower(full)
		if strings.Contains(lower, "windowsapps") || strings.Contains(lower, "system32") {
			return "", kv.NewError("only WSL bash found on PATH, Git Bash required").With(
				"found", full, "stack", stack.Trace().TrimRuntime())
		}
		return full, nil
	}
	return "", kv.NewError("no Git Bash found").With(
		"hint", "install Git for Windows", "stack", stack.Trace().TrimRuntime())
}

func (p *PlatformContext) findDefaultUnixShell() (string, kv.Error) {
	if v := os.Getenv("SHELL"); v != "" {
		return v, nil
	}
	if full, errGo := exec.LookPath("sh"); errGo == nil {
		return full, nil
	}
	return "/bin/sh", nil
}

// readShebang returns the interpreter named by a script's #! line, resolved
// through PATH if it is a bare name (e.g. "#!/usr/bin/env bash"). Returns
// "" if there is no shebang.
func readShebang(path string) string {
	f, errGo := os.Open(path)
	if errGo != nil {
		return ""
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		return ""
	}
	line := scanner.Text()
	if !strings.HasPrefix(line, "#!") {
		return ""
	}
	fields := strings.Fields(strings.TrimPrefix(line, "#!"))
	if len(fields) == 0 {
		return ""
	}
	interp := fields[0]
	if filepath.Base(interp) == "env" && len(fields) > 1 {
		interp = fields[1]
	}
	for _, known := range []string{"bash", "zsh", "fish", "sh"} {
		if strings.Contains(interp, known) {
			if full, errGo := exec.LookPath(filepath.Base(interp)); errGo == nil {
				return full
			}
			return interp
		}
	}
	return interp
}
