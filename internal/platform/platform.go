// Copyright 2018-2020 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

// Package platform is the cross-platform abstraction layer: OS/arch
// queries, compiler enumeration, shell selection, process spawn/kill, and
// file-permission semantics.
//
// None of this is exposed as package-level singletons. Everything lives on
// a PlatformContext constructed once by the
// caller (typically cmd/testme/main.go) and threaded explicitly into every
// other component. Lazy, cached fields are guarded by a RWMutex on the
// context and are probed on first use; there is no re-probe entry point.
package platform

import (
	"runtime"
	"sync"

	"github.com/go-stack/stack"
	"github.com/jjeffery/kv" // MIT License
	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/mem"
)

// CC identifies a C toolchain.
type CC string

const (
	CCGCC   CC = "gcc"
	CCClang CC = "clang"
	CCMSVC  CC = "msvc"
	CCMinGW CC = "mingw"
)

// Compiler describes one located C toolchain executable.
type Compiler struct {
	Name CC
	Path string
	// Env carries additional environment variables (PATH/INCLUDE/LIB)
	// that must be layered onto a subprocess's environment to use this
	// compiler -- populated for MSVC only.
	Env map[string]string
}

// PlatformContext is the single instance threaded through Discovery, the
// Config manager, the Compiler abstraction, the Service manager and the
// Scheduler.
type PlatformContext struct {
	mu sync.RWMutex

	compilers   []Compiler
	compilerErr kv.Error
	probedOnce  bool

	shellCache map[string]string // probe key ("ps1", "cmd", ...) -> resolved shell path

	cpuCount    int
	availMemory uint64
	resourceErr kv.Error
	resourceOK  bool
}

// NewPlatformContext constructs a context with no caches populated yet;
// probing is lazy and happens on first use of the relevant accessor.
func NewPlatformContext() *PlatformContext {
	return &PlatformContext{
		shellCache: map[string]string{},
	}
}

// OS returns one of "macosx", "linux", "windows", the vocabulary the
// ${OS} special variable exposes.
func (p *PlatformContext) OS() string {
	switch runtime.GOOS {
	case "windows":
		return "windows"
	case "darwin":
		return "macosx"
	default:
		return "linux"
	}
}

// Arch returns one of "arm64", "x64", "x86" matching SpecialVariables.ARCH.
func (p *PlatformContext) Arch() string {
	switch runtime.GOARCH {
	case "arm64":
		return "arm64"
	case "386":
		return "x86"
	default:
		return "x64"
	}
}

// Platform returns "OS-ARCH", matching SpecialVariables.PLATFORM.
func (p *PlatformContext) Platform() string {
	return p.OS() + "-" + p.Arch()
}

func (p *PlatformContext) IsWindows() bool { return p.OS() == "windows" }
func (p *PlatformContext) IsMacOS() bool   { return p.OS() == "macosx" }
func (p *PlatformContext) IsLinux() bool   { return p.OS() == "linux" }

// ensureResources lazily probes CPU/memory via gopsutil exactly once.
func (p *PlatformContext) ensureResources() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.resourceOK || p.resourceErr != nil {
		return
	}
	infos, errGo := cpu.Info()
	if errGo != nil {
		p.resourceErr = kv.Wrap(errGo).With("stack", stack.Trace().TrimRuntime())
		return
	}
	counts, errGo := cpu.Counts(true)
	if errGo != nil {
		p.resourceErr = kv.Wrap(errGo).With("stack", stack.Trace().TrimRuntime())
		return
	}
	if counts == 0 {
		counts = len(infos)
	}
	if counts == 0 {
		counts = 1
	}
	p.cpuCount = counts

	vm, errGo := mem.VirtualMemory()
	if errGo != nil {
		p.resourceErr = kv.Wrap(errGo).With("stack", stack.Trace().TrimRuntime())
		return
	}
	p.availMemory = vm.Available
	p.resourceOK = true
}

// CPUCount returns the logical core count, used to default
// execution.workers to min(4, cores).
func (p *PlatformContext) CPUCount() int {
	p.ensureResources()
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.resourceOK {
		return 1
	}
	return p.cpuCount
}

// AvailableMemory reports available RAM in bytes.
func (p *PlatformContext) AvailableMemory() uint64 {
	p.ensureResources()
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.availMemory
}

// DefaultWorkers returns min(4, cores).
func (p *PlatformContext) DefaultWorkers() int {
	c := p.CPUCount()
	if c > 4 {
		return 4
	}
	return c
}
