// Copyright 2018-2020 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

package service

import (
	"strconv"
	"time"

	ttlCache "github.com/karlmutch/go-cache"
)

// killBackoff memoizes recently-issued kill signals per pid: a
// TTL cache avoids re-issuing taskkill/SIGTERM against a pid faster than
// the OS can reap the zombie, which on a noisy Cleanup-from-signal-handler
// path would otherwise spam the process table.
type killBackoff struct {
	seen *ttlCache.Cache
}

func newKillBackoff() *killBackoff {
	return &killBackoff{seen: ttlCache.New(2*time.Second, 10*time.Second)}
}

func (b *killBackoff) shouldSkip(pid int) bool {
	_, present := b.seen.Get(strconv.Itoa(pid))
	return present
}

func (b *killBackoff) mark(pid int) {
	b.seen.Set(strconv.Itoa(pid), true, 2*time.Second)
}
