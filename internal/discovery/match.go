// Copyright 2018-2020 (c) Cognizant Digital Business, Evolutionary AI. All rights reserved. Issued under the Apache 2.0 License.

package discovery

import (
	"time"

	"github.com/bmatcuk/doublestar/v4"
	ttlCache "github.com/karlmutch/go-cache"
)

// globCache memoizes pattern-vs-name match results in a TTL cache.
// Discovery's include/exclude lists are
// evaluated once per (pattern, candidate) pair per file, and most patterns
// miss most files in a tree -- caching the (typically negative) result
// avoids re-running doublestar's matcher against the same pair across the
// many files a single pattern is checked against during one run.
type globCache struct {
	results *ttlCache.Cache
}

func newGlobCache() *globCache {
	return &globCache{results: ttlCache.New(5*time.Minute, 10*time.Minute)}
}

func (g *globCache) match(pattern, name string) bool {
	key := pattern + "\x00" + name
	if v, ok := g.results.Get(key); ok {
		return v.(bool)
	}
	matched, errGo := doublestar.Match(pattern, name)
	if errGo != nil {
		matched = false
	}
	g.results.Set(key, matched, 0)
	return matched
}

// matchesAny reports whether name matches any pattern in a list, via the
// shared glob cache.
func (g *globCache) matchesAny(patterns []string, name string) bool {
	for _, p := range patterns {
		if g.match(p, name) {
			return true
		}
	}
	return false
}
