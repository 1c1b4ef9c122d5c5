package storage

import "context"

// RateLimitStore считает попытки входа по ключу (IP клиента).
// Реализации: redis.Client (общий счётчик для всех реплик), memory.Client (один процесс).
type RateLimitStore interface {
	CheckRateLimit(ctx context.Context, key string) (allowed bool, err error)
	Close() error
}
