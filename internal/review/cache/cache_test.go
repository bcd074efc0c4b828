package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vetting/internal/risk"
)

func TestKeyIsOrderIndependent(t *testing.T) {
	a := map[string]bool{"license_valid": true, "experienced": false}
	b := map[string]bool{"experienced": false, "license_valid": true}
	assert.Equal(t, Key("2024-01", a), Key("2024-01", b))
	assert.Equal(t, "risk:2024-01:experienced=0:license_valid=1", Key("2024-01", a))
	assert.NotEqual(t, Key("2024-01", a), Key("2025-01", a))
}

func TestInMemoryExpires(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewInMemory(time.Minute)
	c.now = func() time.Time { return now }

	want := risk.Assessment{Score: 20, Level: risk.LevelLow, PolicyVersion: "2024-01"}
	require.NoError(t, c.Set(ctx, "k", want))

	got, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, got)

	now = now.Add(time.Minute)
	_, ok, err = c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}
