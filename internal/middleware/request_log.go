package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/energydash/internal/logger"
)

// RequestLog логирует method, path, код ответа и длительность (асинхронно, не блокирует).
// Пишется при уровне debug либо если запрос медленнее порога logger.
func RequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := wrap(w)
		next.ServeHTTP(sw, r)
		logger.LogDuration("http "+r.Method+" "+r.URL.Path+" "+strconv.Itoa(sw.status), start)
	})
}
