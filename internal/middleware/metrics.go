package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/baharkarakas/copywriter-backend/internal/metrics"
)

// responseMeter captures the status and body size a handler produced.
type responseMeter struct {
	http.ResponseWriter
	code  int
	bytes int
}

func (m *responseMeter) WriteHeader(code int) {
	if m.code == 0 {
		m.code = code
	}
	m.ResponseWriter.WriteHeader(code)
}

func (m *responseMeter) Write(b []byte) (int, error) {
	if m.code == 0 {
		m.code = http.StatusOK
	}
	n, err := m.ResponseWriter.Write(b)
	m.bytes += n
	return n, err
}

// HTTPMetrics counts and times requests per chi route pattern. Each generation
// content type has its own route, so its traffic is labelled separately.
// Requests that match no route share the "unmatched" label.
func HTTPMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		m := &responseMeter{ResponseWriter: w}

		next.ServeHTTP(m, r)

		if m.code == 0 {
			m.code = http.StatusOK
		}
		route := routeLabel(r)
		metrics.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(m.code)).Inc()
		metrics.HTTPDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
		metrics.HTTPResponseBytes.WithLabelValues(route).Add(float64(m.bytes))
	})
}

// routeLabel is read after routing, once chi has filled in the pattern.
func routeLabel(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}
