package server

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/programme-lv/grader/internal/metrics"
	"github.com/puzpuzpuz/xsync/v3"
	"golang.org/x/time/rate"
)

// Limiter throttles submissions per client IP and caps how many are graded
// at the same time.
type Limiter struct {
	perIP         *xsync.MapOf[string, *ipLimiter]
	ipRate        rate.Limit
	ipBurst       int
	maxConcurrent int64
	inFlight      atomic.Int64
}

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64
}

func NewLimiter(rps float64, burst int, maxConcurrent int) *Limiter {
	return &Limiter{
		perIP:         xsync.NewMapOf[string, *ipLimiter](),
		ipRate:        rate.Limit(rps),
		ipBurst:       burst,
		maxConcurrent: int64(maxConcurrent),
	}
}

// Acquire reports whether a submission from ip may proceed. Every successful
// Acquire must be paired with Release.
func (l *Limiter) Acquire(ip string) bool {
	entry, _ := l.perIP.LoadOrCompute(ip, func() *ipLimiter {
		return &ipLimiter{limiter: rate.NewLimiter(l.ipRate, l.ipBurst)}
	})
	entry.lastSeen.Store(time.Now().UnixNano())

	if !entry.limiter.Allow() {
		metrics.RateLimitHits.Inc()
		return false
	}

	if l.inFlight.Add(1) > l.maxConcurrent {
		l.inFlight.Add(-1)
		metrics.RateLimitHits.Inc()
		return false
	}
	return true
}

func (l *Limiter) Release() {
	l.inFlight.Add(-1)
}

func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Acquire(clientIP(r)) {
			http.Error(w, "Too many requests", http.StatusTooManyRequests)
			return
		}
		defer l.Release()
		next.ServeHTTP(w, r)
	})
}

// Cleanup forgets clients idle for longer than idle, checking every interval
// until ctx is done.
func (l *Limiter) Cleanup(ctx context.Context, interval time.Duration, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			l.prune(now, idle)
		}
	}
}

func (l *Limiter) prune(now time.Time, idle time.Duration) {
	cutoff := now.Add(-idle).UnixNano()
	l.perIP.Range(func(ip string, entry *ipLimiter) bool {
		if entry.lastSeen.Load() < cutoff {
			l.perIP.Delete(ip)
		}
		return true
	})
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
