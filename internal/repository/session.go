package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/energydash/internal/clock"
	"github.com/energydash/internal/logger"
	"github.com/energydash/internal/model"
)

// querier — общее у pgxpool.Pool и pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// SessionRepository работает с таблицей user_sessions.
// Каждая операция — один SQL-оператор; между операциями блокировок нет.
type SessionRepository struct {
	pool *pgxpool.Pool
	q    querier
	loc  *time.Location
}

// NewSessionRepository: loc — пояс, в котором хранятся метки времени.
func NewSessionRepository(pool *pgxpool.Pool, loc *time.Location) *SessionRepository {
	if loc == nil {
		loc = time.UTC
	}
	return &SessionRepository{pool: pool, q: pool, loc: loc}
}

const sessionColumns = `session_id, username, device_name, ip_address, login_time, last_active, logout_time`

func (r *SessionRepository) scan(row pgx.Row) (*model.Session, error) {
	var (
		s      model.Session
		id     uuid.UUID
		logout *time.Time
	)
	if err := row.Scan(&id, &s.Username, &s.DeviceName, &s.IPAddress, &s.LoginTime, &s.LastActive, &logout); err != nil {
		return nil, err
	}
	s.ID = id.String()
	s.LoginTime = clock.FromCivil(s.LoginTime, r.loc)
	s.LastActive = clock.FromCivil(s.LastActive, r.loc)
	if logout != nil {
		t := clock.FromCivil(*logout, r.loc)
		s.LogoutTime = &t
	}
	return &s, nil
}

// FindActive возвращает самую новую строку тройки с logout_time IS NULL.
// Более старые активные строки той же тройки игнорируются. Нет строки — ErrNotFound.
func (r *SessionRepository) FindActive(ctx context.Context, t model.Triple) (*model.Session, error) {
	defer logger.DeferLogDuration("session.FindActive", time.Now())()
	row := r.q.QueryRow(ctx,
		`SELECT `+sessionColumns+`
		 FROM user_sessions
		 WHERE username = $1 AND device_name = $2 AND ip_address = $3 AND logout_time IS NULL
		 ORDER BY login_time DESC, session_id DESC
		 LIMIT 1`,
		t.Username, t.DeviceName, t.IPAddress)
	s, err := r.scan(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, unavailable("sessionRepo.FindActive", err)
	}
	return s, nil
}

// Create вставляет новую активную строку с login_time = last_active = now и возвращает её id.
// UUIDv7 упорядочен по времени, поэтому при равном login_time новее та, у которой id больше.
func (r *SessionRepository) Create(ctx context.Context, t model.Triple, now time.Time) (string, error) {
	defer logger.DeferLogDuration("session.Create", time.Now())()
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("sessionRepo.Create: new id: %w", err)
	}
	civil := clock.ToCivil(now, r.loc)
	_, err = r.q.Exec(ctx,
		`INSERT INTO user_sessions (session_id, username, device_name, ip_address, login_time, last_active, logout_time)
		 VALUES ($1, $2, $3, $4, $5, $5, NULL)`,
		id, t.Username, t.DeviceName, t.IPAddress, civil)
	if err != nil {
		return "", unavailable("sessionRepo.Create", err)
	}
	return id.String(), nil
}

// Touch ставит last_active = now строке с данным id независимо от logout_time.
// Возвращает число затронутых строк: 0 — такой сессии нет (в том числе id не UUID).
func (r *SessionRepository) Touch(ctx context.Context, sessionID string, now time.Time) (int64, error) {
	defer logger.DeferLogDuration("session.Touch", time.Now())()
	id, err := uuid.Parse(sessionID)
	if err != nil {
		return 0, nil
	}
	tag, err := r.q.Exec(ctx,
		`UPDATE user_sessions SET last_active = $1 WHERE session_id = $2`,
		clock.ToCivil(now, r.loc), id)
	if err != nil {
		return 0, unavailable("sessionRepo.Touch", err)
	}
	return tag.RowsAffected(), nil
}

// WithTripleLock выполняет fn в транзакции, удерживая advisory-lock по тройке.
// Параллельные входы одного устройства выполняются по очереди, и find-then-create
// не порождает дублей. fn получает репозиторий, привязанный к транзакции.
func (r *SessionRepository) WithTripleLock(ctx context.Context, t model.Triple, fn func(tx *SessionRepository) error) error {
	defer logger.DeferLogDuration("session.WithTripleLock", time.Now())()
	if r.pool == nil {
		return fmt.Errorf("sessionRepo.WithTripleLock: repository is already bound to a transaction")
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return unavailable("sessionRepo.WithTripleLock: begin", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, lockKey(t)); err != nil {
		return unavailable("sessionRepo.WithTripleLock: lock", err)
	}
	if err := fn(&SessionRepository{q: tx, loc: r.loc}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return unavailable("sessionRepo.WithTripleLock: commit", err)
	}
	return nil
}

func lockKey(t model.Triple) string {
	return "user_sessions\x1f" + t.Username + "\x1f" + t.DeviceName + "\x1f" + t.IPAddress
}
