package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/baharkarakas/copywriter-backend/internal/api/httpx"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// limiters hands out one token bucket per key; idle buckets expire.
type limiters struct {
	mu    sync.Mutex
	rps   rate.Limit
	burst int
	c     *cache.Cache
}

func (l *limiters) get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	if v, ok := l.c.Get(key); ok {
		l.c.SetDefault(key, v)
		return v.(*rate.Limiter)
	}
	lim := rate.NewLimiter(l.rps, l.burst)
	l.c.SetDefault(key, lim)
	return lim
}

// RateLimit throttles each principal (or client IP before auth) to rps with
// the given burst. rps <= 0 disables it.
func RateLimit(rps float64, burst int) func(http.Handler) http.Handler {
	if rps <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	if burst < 1 {
		burst = 1
	}
	l := &limiters{rps: rate.Limit(rps), burst: burst, c: cache.New(10*time.Minute, 10*time.Minute)}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.get(clientKey(r)).Allow() {
				w.Header().Set("Retry-After", "1")
				httpx.WriteFail(w, http.StatusTooManyRequests, "rate_limited", "too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientKey(r *http.Request) string {
	if uid, ok := UserID(r.Context()); ok {
		return "u:" + uid
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}
