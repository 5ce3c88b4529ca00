// Copyright 2018-2020 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

package platform

import (
	"bufio"
	"context"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/go-stack/stack"
	"github.com/jjeffery/kv" // MIT License
	gopsProcess "github.com/shirou/gopsutil/process"
)

// SpawnOpts configures a subprocess launch.
type SpawnOpts struct {
	Cwd string
	Env []string // full environment, already composed by the caller
}

// Proc is a handle over a launched subprocess plus its streamed output.
type Proc struct {
	cmd    *exec.Cmd
	Stdout chan string
	Stderr chan string
	done   chan struct{}

	mu       sync.Mutex
	exitCode int
	waitErr  error
	waited   bool
}

// Spawn launches command with args per SpawnOpts, prepending "." to PATH so
// scripts in the CWD resolve, and streams stdout/stderr line-by-line on the
// returned channels, which are closed when the process's output pipes are
// drained. Stdout and stderr stay on separate channels so handlers can
// report them separately.
func Spawn(ctx context.Context, command string, args []string, opts SpawnOpts) (proc *Proc, err kv.Error) {
	if errGo := ctx.Err(); errGo != nil {
		return nil, kv.Wrap(errGo).With("command", command, "stack", stack.Trace().TrimRuntime())
	}

	cmd := exec.Command(command, args...)
	cmd.Dir = opts.Cwd
	cmd.Env = prependPathDot(opts.Env)

	stdout, errGo := cmd.StdoutPipe()
	if errGo != nil {
		return nil, kv.Wrap(errGo).With("stack", stack.Trace().TrimRuntime())
	}
	stderr, errGo := cmd.StderrPipe()
	if errGo != nil {
		return nil, kv.Wrap(errGo).With("stack", stack.Trace().TrimRuntime())
	}

	if errGo = cmd.Start(); errGo != nil {
		return nil, kv.Wrap(errGo).With("command", command, "stack", stack.Trace().TrimRuntime())
	}

	p := &Proc{
		cmd:    cmd,
		Stdout: make(chan string, 64),
		Stderr: make(chan string, 64),
		done:   make(chan struct{}),
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go streamLines(stdout, p.Stdout, &wg)
	go streamLines(stderr, p.Stderr, &wg)

	go func() {
		wg.Wait()
		close(p.Stdout)
		close(p.Stderr)
		close(p.done)
	}()

	// ctx expiry is handled here rather than by exec.CommandContext so the
	// whole tree can be snapshotted while the root is still alive, then
	// killed leaves-first. Killing only the root would orphan children
	// holding the output pipes open, wedging the drain.
	go func() {
		select {
		case <-ctx.Done():
			tree := ProcessTree(p.Pid())
			for i := len(tree) - 1; i >= 0; i-- {
				force(tree[i])
			}
		case <-p.done:
		}
	}()

	return p, nil
}

func streamLines(r io.Reader, out chan<- string, wg *sync.WaitGroup) {
	defer wg.Done()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		out <- scanner.Text()
	}
}

// Wait blocks until the process exits and its output pipes are drained,
// returning the process exit code.
func (p *Proc) Wait() (exitCode int, err kv.Error) {
	<-p.done
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.waited {
		p.waitErr = p.cmd.Wait()
		p.waited = true
		if p.waitErr != nil {
			if exitErr, ok := p.waitErr.(*exec.ExitError); ok {
				p.exitCode = exitErr.ExitCode()
			} else {
				p.exitCode = -1
			}
		} else {
			p.exitCode = 0
		}
	}
	if p.exitCode == -1 && p.waitErr != nil {
		if _, ok := p.waitErr.(*exec.ExitError); !ok {
			return p.exitCode, kv.Wrap(p.waitErr).With("stack", stack.Trace().TrimRuntime())
		}
	}
	return p.exitCode, nil
}

// Pid returns the subprocess's OS process id.
func (p *Proc) Pid() int {
	if p.cmd.Process == nil {
		return 0
	}
	return p.cmd.Process.Pid
}

func prependPathDot(env []string) []string {
	out := make([]string, 0, len(env)+1)
	found := false
	for _, kv := range env {
		if len(kv) > 5 && kv[:5] == "PATH=" {
			out = append(out, "PATH=."+string(os.PathListSeparator)+kv[5:])
			found = true
			continue
		}
		out = append(out, kv)
	}
	if !found {
		out = append(out, "PATH=."+string(os.PathListSeparator)+os.Getenv("PATH"))
	}
	return out
}

// IsProcessRunning reports pid liveness using gopsutil/process, which
// covers tasklist (Windows) and kill -0 (Unix) through one cross-platform
// call.
func IsProcessRunning(pid int) bool {
	if pid <= 0 {
		return false
	}
	exists, errGo := gopsProcess.PidExists(int32(pid))
	if errGo != nil {
		return false
	}
	return exists
}

// ProcessTree returns pid plus every descendant pid, used by Spawn to
// tree-kill a process whose context expires.
func ProcessTree(pid int) []int {
	tree := []int{pid}
	proc, errGo := gopsProcess.NewProcess(int32(pid))
	if errGo != nil {
		return tree
	}
	children, errGo := proc.Children()
	if errGo != nil {
		return tree
	}
	for _, c := range children {
		tree = append(tree, ProcessTree(int(c.Pid))...)
	}
	return tree
}

// KillProcess terminates pid: signal, poll liveness at 100ms intervals up
// to shutdownTimeout (checked at least once even when 0), then force.
func KillProcess(pid int, graceful bool, shutdownTimeout time.Duration) (err kv.Error) {
	if !IsProcessRunning(pid) {
		return nil
	}

	if graceful {
		terminate(pid)

		deadline := time.Now().Add(shutdownTimeout)
		for {
			if !IsProcessRunning(pid) {
				return nil
			}
			if time.Now().After(deadline) {
				break
			}
			time.Sleep(100 * time.Millisecond)
		}
	}

	force(pid)
	return nil
}
