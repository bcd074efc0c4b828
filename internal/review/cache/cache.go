// Package cache memoizes risk assessments. Keys are derived from the scoring
// inputs, so an entry can never go stale; the TTL only bounds memory.
package cache

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"vetting/internal/risk"
)

// Key builds a cache key from a policy version and its bound signals.
func Key(policyVersion string, signals map[string]bool) string {
	names := make([]string, 0, len(signals))
	for name := range signals {
		names = append(names, name)
	}
	slices.Sort(names)

	var b strings.Builder
	b.WriteString("risk:")
	b.WriteString(policyVersion)
	for _, name := range names {
		b.WriteByte(':')
		b.WriteString(name)
		if signals[name] {
			b.WriteString("=1")
		} else {
			b.WriteString("=0")
		}
	}
	return b.String()
}

type entry struct {
	assessment risk.Assessment
	expiresAt  time.Time
}

// InMemory is a process-local TTL cache.
type InMemory struct {
	mu      sync.Mutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time
}

func NewInMemory(ttl time.Duration) *InMemory {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &InMemory{entries: make(map[string]entry), ttl: ttl, now: time.Now}
}

func (c *InMemory) Get(_ context.Context, key string) (risk.Assessment, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return risk.Assessment{}, false, nil
	}
	if !c.now().Before(e.expiresAt) {
		delete(c.entries, key)
		return risk.Assessment{}, false, nil
	}
	return e.assessment, true, nil
}

func (c *InMemory) Set(_ context.Context, key string, a risk.Assessment) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	// opportunistic sweep keeps the map bounded without a janitor goroutine
	if len(c.entries) > 1024 {
		for k, e := range c.entries {
			if !now.Before(e.expiresAt) {
				delete(c.entries, k)
			}
		}
	}
	c.entries[key] = entry{assessment: a, expiresAt: now.Add(c.ttl)}
	return nil
}
