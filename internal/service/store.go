package service

import (
	"context"
	"time"

	"github.com/energydash/internal/model"
	"github.com/energydash/internal/repository"
)

//go:generate mockgen -destination=mocks/mock_store.go -package=mocks github.com/energydash/internal/service SessionStore

// SessionStore — хранилище сессий. Нет строки: FindActive отдаёт repository.ErrNotFound,
// Touch отдаёт 0. Сбой хранилища оборачивает repository.ErrUnavailable.
type SessionStore interface {
	FindActive(ctx context.Context, t model.Triple) (*model.Session, error)
	Create(ctx context.Context, t model.Triple, now time.Time) (string, error)
	Touch(ctx context.Context, sessionID string, now time.Time) (int64, error)
	// InTripleLock выполняет fn с хранилищем, в котором тройка заблокирована до конца fn.
	InTripleLock(ctx context.Context, t model.Triple, fn func(SessionStore) error) error
}

type pgStore struct {
	*repository.SessionRepository
}

// NewPostgresStore адаптирует SessionRepository к SessionStore.
func NewPostgresStore(repo *repository.SessionRepository) SessionStore {
	return pgStore{repo}
}

func (s pgStore) InTripleLock(ctx context.Context, t model.Triple, fn func(SessionStore) error) error {
	return s.WithTripleLock(ctx, t, func(tx *repository.SessionRepository) error {
		return fn(pgStore{tx})
	})
}
