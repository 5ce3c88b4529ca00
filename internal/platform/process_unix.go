// Copyright 2018-2020 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

//go:build !windows

package platform

import (
	"golang.org/x/sys/unix"
)

func isWindows() bool { return false }

// terminate issues SIGTERM.
func terminate(pid int) {
	_ = unix.Kill(pid, unix.SIGTERM)
}

// force issues SIGKILL.
func force(pid int) {
	_ = unix.Kill(pid, unix.SIGKILL)
}
