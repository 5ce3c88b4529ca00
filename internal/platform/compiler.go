// Copyright 2018-2020 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

package platform

import (
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-stack/stack"
	"github.com/jjeffery/kv" // MIT License
)

// Compilers lazily probes and returns every C toolchain found on the host,
// best compiler first: Windows = MSVC, MinGW, Clang; Unix = GCC, Clang;
// fallback to first found.
func (p *PlatformContext) Compilers() (compilers []Compiler, err kv.Error) {
	p.mu.Lock()
	if p.probedOnce {
		compilers, err = p.compilers, p.compilerErr
		p.mu.Unlock()
		return compilers, err
	}
	p.mu.Unlock()

	found := []Compiler{}
	if p.IsWindows() {
		found = append(found, probeMSVC()...)
		found = append(found, probePath("gcc.exe", CCMinGW)...)
		found = append(found, probePath("clang.exe", CCClang)...)
	} else {
		found = append(found, probePath("gcc", CCGCC)...)
		found = append(found, probePath("clang", CCClang)...)
	}
	found = orderByPriority(found, p.IsWindows())

	p.mu.Lock()
	p.compilers = found
	p.probedOnce = true
	p.mu.Unlock()

	return found, nil
}

// BestCompiler returns the highest-priority toolchain found, or a
// DependencyMissing-flavored error if none is present.
func (p *PlatformContext) BestCompiler() (c Compiler, err kv.Error) {
	all, err := p.Compilers()
	if err != nil {
		return Compiler{}, err
	}
	if len(all) == 0 {
		return Compiler{}, kv.NewError("no C compiler found").With(
			"platform", p.Platform(),
			"hint", installHint(p.Platform()),
			"stack", stack.Trace().TrimRuntime())
	}
	return all[0], nil
}

// CompilerNamed returns the toolchain matching the requested name, falling
// back to BestCompiler when name is "" or "default".
func (p *PlatformContext) CompilerNamed(name string) (c Compiler, err kv.Error) {
	if name == "" || name == "default" {
		return p.BestCompiler()
	}
	all, err := p.Compilers()
	if err != nil {
		return Compiler{}, err
	}
	for _, cc := range all {
		if string(cc.Name) == name {
			return cc, nil
		}
	}
	return Compiler{}, kv.NewError("requested compiler not found").With(
		"compiler", name, "hint", installHint(p.Platform()), "stack", stack.Trace().TrimRuntime())
}

func installHint(platformKey string) string {
	switch {
	case strings.HasPrefix(platformKey, "windows"):
		return "install Visual Studio Build Tools, or MinGW-w64, or LLVM/clang"
	case strings.HasPrefix(platformKey, "macosx"):
		return "install Xcode Command Line Tools (xcode-select --install)"
	default:
		return "install gcc or clang via your package manager"
	}
}

func probePath(exe string, name CC) []Compiler {
	full, err := exec.LookPath(exe)
	if err != nil {
		return nil
	}
	return []Compiler{{Name: name, Path: full}}
}

// probeMSVC follows the Windows detection order: cl.exe on PATH first,
// then the newest Visual Studio install under the documented root layout,
// trying host/target pairs Hostx64/x64 -> Hostx86/x86 -> Hostx64/x86 ->
// Hostx86/x64. The official VS locator (vswhere.exe) is tried first when
// present, since it is how the real toolchain discovers itself without
// guessing install roots.
func probeMSVC() []Compiler {
	if full, err := exec.LookPath("cl.exe"); err == nil {
		return []Compiler{{Name: CCMSVC, Path: full, Env: msvcEnvFromClPath(full)}}
	}

	if vswhere := findVSWhere(); vswhere != "" {
		if root := queryVSWhere(vswhere); root != "" {
			if c, ok := findClInRoot(root); ok {
				return []Compiler{c}
			}
		}
	}

	roots := []string{
		`C:\Program Files\Microsoft Visual Studio`,
		`C:\Program Files (x86)\Microsoft Visual Studio`,
	}
	editions := []string{"Enterprise", "Professional", "Community", "BuildTools"}
	years := []string{"2022", "2019", "2017"}

	type candidate struct {
		version string
		path    string
	}
	var best *candidate
	for _, root := range roots {
		for _, year := range years {
			for _, edition := range editions {
				toolsRoot := filepath.Join(root, year, edition, "VC", "Tools", "MSVC")
				entries, errGo := os.ReadDir(toolsRoot)
				if errGo != nil {
					continue
				}
				for _, e := range entries {
					if !e.IsDir() {
						continue
					}
					version := e.Name()
					if best != nil && version <= best.version {
						continue
					}
					binRoot := filepath.Join(toolsRoot, version, "bin")
					if cl, ok := findClUnderBin(binRoot); ok {
						best = &candidate{version: version, path: cl}
					}
				}
			}
		}
	}
	if best == nil {
		return nil
	}
	return []Compiler{{Name: CCMSVC, Path: best.path, Env: msvcEnvFromClPath(best.path)}}
}

// hostTargetPairs is the fallback order when looking for cl.exe
// under a MSVC Tools\MSVC\<version>\bin directory.
var hostTargetPairs = [][2]string{
	{"Hostx64", "x64"},
	{"Hostx86", "x86"},
	{"Hostx64", "x86"},
	{"Hostx86", "x64"},
}

func findClUnderBin(binRoot string) (path string, ok bool) {
	for _, pair := range hostTargetPairs {
		candidate := filepath.Join(binRoot, pair[0], pair[1], "cl.exe")
		if info, errGo := os.Stat(candidate); errGo == nil && !info.IsDir() {
			return candidate, true
		}
	}
	return "", false
}

func findClInRoot(root string) (Compiler, bool) {
	toolsRoot := filepath.Join(root, "VC", "Tools", "MSVC")
	entries, errGo := os.ReadDir(toolsRoot)
	if errGo != nil {
		return Compiler{}, false
	}
	versions := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			versions = append(versions, e.Name())
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(versions)))
	for _, version := range versions {
		binRoot := filepath.Join(toolsRoot, version, "bin")
		if cl, ok := findClUnderBin(binRoot); ok {
			return Compiler{Name: CCMSVC, Path: cl, Env: msvcEnvFromClPath(cl)}, true
		}
	}
	return Compiler{}, false
}

func findVSWhere() string {
	candidates := []string{
		`C:\Program Files (x86)\Microsoft Visual Studio\Installer\vswhere.exe`,
		`C:\Program Files\Microsoft Visual Studio\Installer\vswhere.exe`,
	}
	for _, c := range candidates {
		if _, errGo := os.Stat(c); errGo == nil {
			return c
		}
	}
	if full, err := exec.LookPath("vswhere.exe"); err == nil {
		return full
	}
	return ""
}

func queryVSWhere(vswhere string) string {
	out, errGo := exec.Command(vswhere, "-latest", "-products", "*",
		"-requires", "Microsoft.VisualStudio.Component.VC.Tools.x86.x64",
		"-property", "installationPath").Output()
	if errGo != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

// msvcEnvFromClPath derives the {PATH, INCLUDE, LIB} environment MSVC needs
// by composing the toolchain's include/lib directories with the latest
// Windows SDK's Include/<sdk>/{ucrt,um,shared} and Lib/<sdk>/{ucrt,um}/<arch>
// directories. Best-effort: a missing SDK yields a smaller but still
// usable env (the toolchain's own headers still resolve).
func msvcEnvFromClPath(clPath string) map[string]string {
	// clPath looks like .../VC/Tools/MSVC/<ver>/bin/Hostx64/x64/cl.exe
	bin := filepath.Dir(clPath)           // .../Hostx64/x64
	hostDir := filepath.Dir(bin)          // .../Hostx64
	toolsVerBin := filepath.Dir(hostDir)  // .../MSVC/<ver>/bin
	toolsVer := filepath.Dir(toolsVerBin) // .../MSVC/<ver>
	arch := filepath.Base(bin)

	include := filepath.Join(toolsVer, "include")
	lib := filepath.Join(toolsVer, "lib", arch)

	env := map[string]string{
		"PATH":    bin,
		"INCLUDE": include,
		"LIB":     lib,
	}

	sdkRoot := `C:\Program Files (x86)\Windows Kits\10`
	sdkInc := filepath.Join(sdkRoot, "Include")
	versions, errGo := os.ReadDir(sdkInc)
	if errGo != nil || len(versions) == 0 {
		return env
	}
	names := make([]string, 0, len(versions))
	for _, v := range versions {
		if v.IsDir() {
			names = append(names, v.Name())
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	sdk := names[0]

	env["INCLUDE"] = strings.Join([]string{
		include,
		filepath.Join(sdkRoot, "Include", sdk, "ucrt"),
		filepath.Join(sdkRoot, "Include", sdk, "um"),
		filepath.Join(sdkRoot, "Include", sdk, "shared"),
	}, ";")
	env["LIB"] = strings.Join([]string{
		lib,
		filepath.Join(sdkRoot, "Lib", sdk, "ucrt", arch),
		filepath.Join(sdkRoot, "Lib", sdk, "um", arch),
	}, ";")
	return env
}

// orderByPriority reorders found compilers by platform preference.
func orderByPriority(found []Compiler, windows bool) []Compiler {
	var priority []CC
	if windows {
		priority = []CC{CCMSVC, CCMinGW, CCClang}
	} else {
		priority = []CC{CCGCC, CCClang}
	}
	byName := map[CC]Compiler{}
	for _, c := range found {
		if _, exists := byName[c.Name]; !exists {
			byName[c.Name] = c
		}
	}
	ordered := make([]Compiler, 0, len(found))
	seen := map[CC]bool{}
	for _, name := range priority {
		if c, ok := byName[name]; ok {
			ordered = append(ordered, c)
			seen[name] = true
		}
	}
	for _, c := range found {
		if !seen[c.Name] {
			ordered = append(ordered, c)
			seen[c.Name] = true
		}
	}
	return ordered
}
