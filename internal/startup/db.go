package startup

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/energydash/internal/config"
	"github.com/energydash/internal/logger"
)

// ConnectDBWithRetry создаёт пул pgx с ограничением MaxConns и ждёт, пока БД ответит на ping.
// Повторяет попытки с экспоненциальной паузой до maxWait или отмены ctx.
func ConnectDBWithRetry(ctx context.Context, db config.DatabaseConfig, maxWait time.Duration) (*pgxpool.Pool, error) {
	poolCfg, err := poolConfig(db)
	if err != nil {
		return nil, err
	}

	deadline := time.Now().Add(maxWait)
	backoff := 2 * time.Second
	for {
		pool, err := connectOnce(ctx, poolCfg)
		if err == nil {
			return pool, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("connect to db (gave up after %v): %w", maxWait, err)
		}
		logger.Errorf("db connect failed, retry in %v: %v", backoff, err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
}

func poolConfig(db config.DatabaseConfig) (*pgxpool.Config, error) {
	poolCfg, err := pgxpool.ParseConfig(db.URL)
	if err != nil {
		return nil, fmt.Errorf("parse db config: %w", err)
	}
	poolCfg.MaxConns = int32(db.PoolSize())
	return poolCfg, nil
}

func connectOnce(ctx context.Context, poolCfg *pgxpool.Config) (*pgxpool.Pool, error) {
	connCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	pool, err := pgxpool.NewWithConfig(connCtx, poolCfg)
	if err != nil {
		return nil, err
	}
	if err := PingDB(ctx, pool, 5*time.Second); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// PingDB проверяет доступность БД за timeout.
func PingDB(ctx context.Context, pool *pgxpool.Pool, timeout time.Duration) error {
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return pool.Ping(pingCtx)
}
