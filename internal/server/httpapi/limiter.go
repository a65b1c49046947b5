package httpapi

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultAuthRPS   = 1
	defaultAuthBurst = 5
	limiterIdleTTL   = 10 * time.Minute
)

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// limiterPool holds one token bucket per client address. Buckets idle for
// longer than limiterIdleTTL are dropped on the next sweep.
type limiterPool struct {
	mu        sync.Mutex
	m         map[string]*limiterEntry
	rps       float64
	burst     int
	now       func() time.Time
	lastSweep time.Time
}

func newLimiterPool(rps float64, burst int) *limiterPool {
	if rps <= 0 {
		rps = defaultAuthRPS
	}
	if burst <= 0 {
		burst = defaultAuthBurst
	}
	return &limiterPool{
		m:     make(map[string]*limiterEntry),
		rps:   rps,
		burst: burst,
		now:   time.Now,
	}
}

func (p *limiterPool) get(key string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	if now.Sub(p.lastSweep) > limiterIdleTTL {
		p.sweep(now)
	}

	if e, ok := p.m[key]; ok {
		e.lastSeen = now
		return e.limiter
	}
	l := rate.NewLimiter(rate.Limit(p.rps), p.burst)
	p.m[key] = &limiterEntry{limiter: l, lastSeen: now}
	return l
}

// sweep must be called with p.mu held.
func (p *limiterPool) sweep(now time.Time) {
	for k, e := range p.m {
		if now.Sub(e.lastSeen) > limiterIdleTTL {
			delete(p.m, k)
		}
	}
	p.lastSweep = now
}

func (p *limiterPool) Allow(key string) bool {
	return p.get(key).AllowN(p.now(), 1)
}

func (p *limiterPool) size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.m)
}

// clientIP uses the direct peer address; forwarded headers are not trusted.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
