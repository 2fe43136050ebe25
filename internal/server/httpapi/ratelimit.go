package httpapi

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/dmitrijs2005/taskflow/internal/common"
	"golang.org/x/time/rate"
)

const (
	limiterIdleTTL    = 30 * time.Minute
	limiterSweepEvery = 5 * time.Minute
)

type visitor struct {
	limiter *rate.Limiter
	last    time.Time
}

// ipRateLimiter keeps one token bucket per client IP. Idle buckets are
// swept lazily while serving requests.
type ipRateLimiter struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	rps       rate.Limit
	burst     int
	lastSweep time.Time
	now       func() time.Time
}

func newIPRateLimiter(rps float64, burst int) *ipRateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &ipRateLimiter{
		visitors:  make(map[string]*visitor),
		rps:       rate.Limit(rps),
		burst:     burst,
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

func (l *ipRateLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) > limiterSweepEvery {
		for k, v := range l.visitors {
			if now.Sub(v.last) > limiterIdleTTL {
				delete(l.visitors, k)
			}
		}
		l.lastSweep = now
	}

	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.visitors[ip] = v
	}
	v.last = now

	return v.limiter.AllowN(now, 1)
}

func (l *ipRateLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.visitors)
}

// clientIP keys the limiter on the peer address. Forwarding headers only
// count when the router trusts its proxy and runs middleware.RealIP.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (h *Handler) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.limiter.allow(clientIP(r)) {
			h.writeError(w, r, common.ErrorRateLimited)
			return
		}
		next.ServeHTTP(w, r)
	})
}
