package httpapi

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLimiterPool_BurstThenRefill(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	p := newLimiterPool(1, 2)
	p.now = func() time.Time { return now }

	assert.True(t, p.Allow("10.0.0.1"))
	assert.True(t, p.Allow("10.0.0.1"))
	assert.False(t, p.Allow("10.0.0.1"))

	// another client has its own bucket
	assert.True(t, p.Allow("10.0.0.2"))

	now = now.Add(time.Second)
	assert.True(t, p.Allow("10.0.0.1"))
	assert.False(t, p.Allow("10.0.0.1"))
}

func TestLimiterPool_EvictsIdle(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	p := newLimiterPool(1, 1)
	p.now = func() time.Time { return now }
	p.lastSweep = now

	p.Allow("a")
	p.Allow("b")
	assert.Equal(t, 2, p.size())

	now = now.Add(limiterIdleTTL / 2)
	p.Allow("b")

	now = now.Add(limiterIdleTTL/2 + time.Second)
	p.Allow("c")

	// a idle past the TTL, b seen recently
	assert.Equal(t, 2, p.size())
	_, hasA := p.m["a"]
	assert.False(t, hasA)
}

func TestLimiterPool_Defaults(t *testing.T) {
	p := newLimiterPool(0, 0)
	assert.Equal(t, float64(defaultAuthRPS), p.rps)
	assert.Equal(t, defaultAuthBurst, p.burst)
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "203.0.113.7:51234"
	r.Header.Set("X-Forwarded-For", "1.2.3.4")
	assert.Equal(t, "203.0.113.7", clientIP(r))

	r.RemoteAddr = "pipe"
	assert.Equal(t, "pipe", clientIP(r))
}
