package httpapi

import (
	"net/http"
	"sync"

	"golang.org/x/time/rate"
)

// PerRemoteLimiter throttles incoming requests per client address,
// grounded on generichttp/motion's LimitMiddleware "check, then pass
// through" shape, applied here to request rate rather than axis
// position, the way nkt's AddressScan already uses rate.Limiter to
// pace a different kind of repeated operation.
type PerRemoteLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

// NewPerRemoteLimiter returns a limiter allowing limit requests/sec
// (with the given burst) per distinct remote address.
func NewPerRemoteLimiter(limit rate.Limit, burst int) *PerRemoteLimiter {
	return &PerRemoteLimiter{
		limiters: map[string]*rate.Limiter{},
		limit:    limit,
		burst:    burst,
	}
}

func (p *PerRemoteLimiter) limiterFor(remote string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()
	l, ok := p.limiters[remote]
	if !ok {
		l = rate.NewLimiter(p.limit, p.burst)
		p.limiters[remote] = l
	}
	return l
}

// Check implements the middleware: it rejects with 429 if the calling
// remote has exceeded its allotted polling rate, otherwise passes the
// request through unchanged.
func (p *PerRemoteLimiter) Check(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !p.limiterFor(r.RemoteAddr).Allow() {
			http.Error(w, "too many requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
