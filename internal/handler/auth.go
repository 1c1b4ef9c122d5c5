package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/energydash/internal/config"
	"github.com/energydash/internal/credential"
	"github.com/energydash/internal/logger"
	"github.com/energydash/internal/metrics"
	"github.com/energydash/internal/service"
)

const (
	msgNoCookie        = "Access Denied. No cookie provided."
	msgNotAuthentic    = "Invalid authentication token."
	msgInvalidToken    = "Invalid token or authentication failed."
	msgDatabaseError   = "Database error"
	msgSessionUpdated  = "Session updated"
	msgSessionCreated  = "New session created"
	msgNoSessionCookie = "Session ID not found in cookies."
	msgSessionNotFound = "Session not found."
	msgHeartbeatDBErr  = "Database error."
	msgHeartbeatOK     = "Heartbeat received. Session updated."
)

// Sessions — то, что нужно обработчикам от service.SessionService.
type Sessions interface {
	Authenticate(ctx context.Context, token string) (service.AuthResult, error)
	Heartbeat(ctx context.Context, sessionID string) error
}

type AuthHandler struct {
	sessions Sessions
	cfg      config.SessionConfig
	metrics  *metrics.Metrics
}

// NewAuthHandler: m может быть nil.
func NewAuthHandler(sessions Sessions, cfg config.SessionConfig, m *metrics.Metrics) *AuthHandler {
	return &AuthHandler{sessions: sessions, cfg: cfg, metrics: m}
}

type authResponse struct {
	Message       string `json:"message"`
	Authenticated bool   `json:"authenticated"`
	Username      string `json:"username"`
	DeviceName    string `json:"deviceName"`
	IPAddress     string `json:"ipAddress"`
}

// Auth: cookie authData -> продолжение или создание сессии, в ответ cookie sessionId.
func (h *AuthHandler) Auth(w http.ResponseWriter, r *http.Request) {
	res, err := h.sessions.Authenticate(r.Context(), cookieValue(r, h.cfg.AuthCookieName))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingCredential):
			h.metrics.Auth("missing")
			writeMessage(w, http.StatusUnauthorized, msgNoCookie)
		case errors.Is(err, credential.ErrNotAuthenticated):
			h.metrics.Auth("unauthenticated")
			writeMessage(w, http.StatusUnauthorized, msgNotAuthentic)
		case errors.Is(err, credential.ErrInvalidCredential):
			h.metrics.Auth("invalid")
			writeMessage(w, http.StatusUnauthorized, msgInvalidToken)
		default:
			h.metrics.Auth("error")
			logger.Errorf("auth: %v", err)
			writeMessage(w, http.StatusInternalServerError, msgDatabaseError)
		}
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cfg.SessionCookieName,
		Value:    res.SessionID,
		Path:     "/",
		MaxAge:   int(h.cfg.CookieMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
	h.metrics.Auth(res.Outcome.String())
	msg := msgSessionCreated
	if res.Outcome == service.Resumed {
		msg = msgSessionUpdated
	}
	writeJSON(w, http.StatusOK, authResponse{
		Message:       msg,
		Authenticated: true,
		Username:      res.Claim.Username,
		DeviceName:    res.Claim.DeviceName,
		IPAddress:     res.Claim.IPAddress,
	})
}

// Heartbeat продлевает сессию из cookie sessionId.
func (h *AuthHandler) Heartbeat(w http.ResponseWriter, r *http.Request) {
	id := cookieValue(r, h.cfg.SessionCookieName)
	err := h.sessions.Heartbeat(r.Context(), id)
	switch {
	case err == nil:
		h.metrics.Heartbeat("ok")
		writeMessage(w, http.StatusOK, msgHeartbeatOK)
	case errors.Is(err, service.ErrMissingReference):
		h.metrics.Heartbeat("missing")
		writeMessage(w, http.StatusUnauthorized, msgNoSessionCookie)
	case errors.Is(err, service.ErrUnknownReference):
		h.metrics.Heartbeat("unknown")
		logger.Debugf("heartbeat: unknown session %s", logger.MaskSessionID(id))
		writeMessage(w, http.StatusNotFound, msgSessionNotFound)
	default:
		h.metrics.Heartbeat("error")
		logger.Errorf("heartbeat session=%s: %v", logger.MaskSessionID(id), err)
		writeMessage(w, http.StatusInternalServerError, msgHeartbeatDBErr)
	}
}
