package ratelimit

import (
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
)

func TestLimiter_BurstThenDeny(t *testing.T) {
    l := New(0.001, 3, time.Minute)
    for i := 0; i < 3; i++ {
        assert.True(t, l.Allow("10.0.0.1"), "request %d", i)
    }
    assert.False(t, l.Allow("10.0.0.1"))
    // separate key has its own bucket
    assert.True(t, l.Allow("10.0.0.2"))
}

func TestLimiter_Sweep(t *testing.T) {
    l := New(1, 1, time.Minute)
    l.Allow("a")
    l.Allow("b")
    assert.Equal(t, 2, l.Len())
    assert.Equal(t, 0, l.Sweep(time.Now()))
    assert.Equal(t, 2, l.Sweep(time.Now().Add(2*time.Minute)))
    assert.Equal(t, 0, l.Len())
}

func TestLimiter_AllowSweepsIdleKeys(t *testing.T) {
    l := New(1, 1, time.Minute)
    start := time.Now()
    l.get("a", start)
    l.get("b", start)
    l.get("c", start.Add(90*time.Second))
    assert.Equal(t, 1, l.Len())
}
