package middleware

import (
	"encoding/json"
	"net"
	"net/http"

	"github.com/energydash/internal/logger"
	"github.com/energydash/internal/metrics"
	"github.com/energydash/internal/storage"
)

// RateLimit ограничивает запросы по IP клиента (после chimw.RealIP). 429 при превышении.
// Если хранилище недоступно, запрос пропускается. m может быть nil.
func RateLimit(store storage.RateLimitStore, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			allowed, err := store.CheckRateLimit(r.Context(), ip)
			if err != nil {
				logger.Warnf("rate limit %s: %v", ip, err)
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				m.RateLimited()
				w.Header().Set("Content-Type", "application/json; charset=utf-8")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]string{"message": "Too many requests. Try again later."})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
