// Copyright 2018-2020 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

//go:build windows

package platform

import (
	"os/exec"
	"strconv"
)

func isWindows() bool { return true }

// terminate issues "taskkill /PID <pid> /T".
func terminate(pid int) {
	_ = exec.Command("taskkill", "/PID", strconv.Itoa(pid), "/T").Run()
}

// force issues "taskkill /PID <pid> /T /F".
func force(pid int) {
	_ = exec.Command("taskkill", "/PID", strconv.Itoa(pid), "/T", "/F").Run()
}
