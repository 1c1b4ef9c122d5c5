package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/energydash/internal/clock"
	"github.com/energydash/internal/credential"
	"github.com/energydash/internal/logger"
	"github.com/energydash/internal/model"
	"github.com/energydash/internal/repository"
)

var (
	ErrMissingCredential = errors.New("credential cookie is missing")
	ErrMissingReference  = errors.New("session reference is missing")
	ErrUnknownReference  = errors.New("session reference does not match any session")
)

type Outcome int

const (
	Created Outcome = iota + 1
	Resumed
)

func (o Outcome) String() string {
	switch o {
	case Created:
		return "created"
	case Resumed:
		return "resumed"
	}
	return "unknown"
}

// AuthResult — итог входа: какую сессию выдать клиенту и по какому Claim.
type AuthResult struct {
	Outcome   Outcome
	SessionID string
	Claim     credential.Claim
}

type SessionService struct {
	store     SessionStore
	cipher    *credential.Cipher
	clock     clock.Clock
	serialize bool
}

func NewSessionService(store SessionStore, cipher *credential.Cipher, clk clock.Clock, serialize bool) *SessionService {
	return &SessionService{store: store, cipher: cipher, clock: clk, serialize: serialize}
}

// Authenticate расшифровывает токен и продолжает активную сессию тройки или открывает новую.
// Ошибки: ErrMissingCredential, credential.ErrInvalidCredential, credential.ErrNotAuthenticated
// (хранилище не трогается) либо обёрнутый repository.ErrUnavailable.
func (s *SessionService) Authenticate(ctx context.Context, token string) (AuthResult, error) {
	if token == "" {
		return AuthResult{}, ErrMissingCredential
	}
	claim, err := s.cipher.Open(token)
	if err != nil {
		return AuthResult{}, err
	}
	triple := model.Triple{Username: claim.Username, DeviceName: claim.DeviceName, IPAddress: claim.IPAddress}

	var res AuthResult
	reconcile := func(store SessionStore) error {
		var err error
		res, err = s.reconcile(ctx, store, triple)
		return err
	}
	if s.serialize {
		err = s.store.InTripleLock(ctx, triple, reconcile)
	} else {
		err = reconcile(s.store)
	}
	if err != nil {
		return AuthResult{}, err
	}
	res.Claim = claim
	logger.Infof("auth: session %s user=%s device=%s id=%s", res.Outcome, claim.Username, claim.DeviceName, logger.MaskSessionID(res.SessionID))
	return res, nil
}

func (s *SessionService) reconcile(ctx context.Context, store SessionStore, t model.Triple) (AuthResult, error) {
	now := s.clock.Now()
	active, err := store.FindActive(ctx, t)
	switch {
	case err == nil:
		n, err := store.Touch(ctx, active.ID, now)
		if err != nil {
			return AuthResult{}, err
		}
		if n == 0 {
			// строка исчезла между FindActive и Touch
			return AuthResult{}, fmt.Errorf("sessionService.reconcile: touch %s: %w", logger.MaskSessionID(active.ID), repository.ErrUnavailable)
		}
		return AuthResult{Outcome: Resumed, SessionID: active.ID}, nil
	case errors.Is(err, repository.ErrNotFound):
		id, err := store.Create(ctx, t, now)
		if err != nil {
			return AuthResult{}, err
		}
		return AuthResult{Outcome: Created, SessionID: id}, nil
	default:
		return AuthResult{}, err
	}
}

// Heartbeat продлевает last_active сессии по ссылке из cookie.
// Закрытая сессия тоже продлевается: Touch не смотрит на logout_time.
func (s *SessionService) Heartbeat(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return ErrMissingReference
	}
	n, err := s.store.Touch(ctx, sessionID, s.clock.Now())
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrUnknownReference
	}
	return nil
}
