package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/energydash/internal/logger"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// Health — liveness: процесс жив и обслуживает запросы.
func Health(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ready — readiness: БД отвечает на ping за 2 секунды.
func Ready(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := db.Ping(ctx); err != nil {
			logger.Warnf("ready: db ping: %v", err)
			writeMessage(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
		writeMessage(w, http.StatusOK, "ready")
	}
}
