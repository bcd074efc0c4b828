package tx

import (
	"context"
	"sync"
	"time"
)

// numShards spreads keys across independent mutexes so unrelated drivers do
// not contend on a single lock.
const numShards = 128

// Sharded serializes callers per key using in-process mutexes. It backs the
// in-memory stores.
type Sharded struct {
	shards  [numShards]sync.Mutex
	timeout time.Duration
}

func NewSharded(timeout time.Duration) *Sharded {
	return &Sharded{timeout: timeout}
}

func (t *Sharded) RunInTx(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return aborted(err)
	}
	ctx, cancel := withDeadline(ctx, t.timeout)
	defer cancel()

	shard := &t.shards[hashKey(key)%numShards]
	shard.Lock()
	defer shard.Unlock()

	// the deadline may have passed while waiting for the lock
	if err := ctx.Err(); err != nil {
		return aborted(err)
	}
	return fn(ctx)
}

// hashKey is FNV-1a.
func hashKey(s string) uint32 {
	const (
		fnvOffset = 2166136261
		fnvPrime  = 16777619
	)
	h := uint32(fnvOffset)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= fnvPrime
	}
	return h
}
