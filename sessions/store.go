package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/wanderlust-go/apperror"
	"github.com/user/wanderlust-go/config"
)

// Store is the session persistence contract. Middleware and handlers depend
// on this interface rather than the pgx implementation so tests can run
// against the in-memory store.
type Store interface {
	// Create starts a fresh anonymous session.
	Create(ctx context.Context) (*Session, error)
	// Get resolves a token to its live session; ErrNoSession when the token
	// is unknown or the session has expired.
	Get(ctx context.Context, token string) (*Session, error)
	// BindUser logs a user into the session identified by token. It issues
	// a brand-new token and removes the old row, so a pre-login token can
	// never be replayed into an authenticated session.
	BindUser(ctx context.Context, token string, userID int) (*Session, error)
	// ClearUser logs the user out of the session, keeping the session row
	// (and any queued flash messages) alive.
	ClearUser(ctx context.Context, token string) error
	// Delete removes a session outright.
	Delete(ctx context.Context, token string) error
	// Touch pushes the session expiry out to expiresAt.
	Touch(ctx context.Context, token string, expiresAt time.Time) error
	// AddFlash queues a one-shot message on the session.
	AddFlash(ctx context.Context, token string, flash Flash) error
	// PopFlashes returns the queued messages and clears them atomically, so
	// each flash is delivered at most once.
	PopFlashes(ctx context.Context, token string) ([]Flash, error)
	// DeleteExpired garbage-collects expired rows, returning how many were
	// removed.
	DeleteExpired(ctx context.Context) (int64, error)
}

// PGStore is the production Store backed by the shared pgx pool.
type PGStore struct {
	db       *pgxpool.Pool
	lifetime time.Duration
}

// NewPGStore creates a PGStore with the configured session lifetime.
func NewPGStore(db *pgxpool.Pool, cfg *config.SessionConfig) *PGStore {
	return &PGStore{db: db, lifetime: cfg.Lifetime}
}

func (s *PGStore) Create(ctx context.Context) (*Session, error) {
	session := &Session{
		Token:     uuid.NewString(),
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(s.lifetime),
	}
	_, err := s.db.Exec(ctx,
		`INSERT INTO sessions (token, user_id, created_at, expires_at) VALUES ($1, NULL, $2, $3)`,
		session.Token, session.CreatedAt, session.ExpiresAt,
	)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to create session", err)
	}
	return session, nil
}

func (s *PGStore) Get(ctx context.Context, token string) (*Session, error) {
	session := &Session{}
	err := s.db.QueryRow(ctx,
		`SELECT token, user_id, created_at, expires_at FROM sessions WHERE token = $1`,
		token,
	).Scan(&session.Token, &session.UserID, &session.CreatedAt, &session.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoSession
		}
		return nil, apperror.NewDatabaseError("failed to load session", err)
	}
	// An expired row that the garbage collector has not reached yet is
	// still a dead session.
	if session.ExpiredAt(time.Now()) {
		return nil, ErrNoSession
	}
	return session, nil
}

func (s *PGStore) BindUser(ctx context.Context, token string, userID int) (*Session, error) {
	fresh := &Session{
		Token:     uuid.NewString(),
		UserID:    &userID,
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(s.lifetime),
	}

	// New row and old-row removal happen in one transaction: a crash between
	// the two must not leave the client with two live sessions.
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to begin session transaction", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Flash messages queued before login (e.g. "Welcome back!") move to the
	// fresh session so they still render after the redirect.
	_, err = tx.Exec(ctx,
		`INSERT INTO sessions (token, user_id, flash, created_at, expires_at)
		 VALUES ($1, $2, COALESCE((SELECT flash FROM sessions WHERE token = $3), '[]'::jsonb), $4, $5)`,
		fresh.Token, userID, token, fresh.CreatedAt, fresh.ExpiresAt,
	)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to create authenticated session", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM sessions WHERE token = $1`, token); err != nil {
		return nil, apperror.NewDatabaseError("failed to drop pre-login session", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, apperror.NewDatabaseError("failed to commit session swap", err)
	}
	return fresh, nil
}

func (s *PGStore) ClearUser(ctx context.Context, token string) error {
	_, err := s.db.Exec(ctx, `UPDATE sessions SET user_id = NULL WHERE token = $1`, token)
	if err != nil {
		return apperror.NewDatabaseError("failed to clear session user", err)
	}
	return nil
}

func (s *PGStore) Delete(ctx context.Context, token string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM sessions WHERE token = $1`, token)
	if err != nil {
		return apperror.NewDatabaseError("failed to delete session", err)
	}
	return nil
}

func (s *PGStore) Touch(ctx context.Context, token string, expiresAt time.Time) error {
	_, err := s.db.Exec(ctx, `UPDATE sessions SET expires_at = $2 WHERE token = $1`, token, expiresAt)
	if err != nil {
		return apperror.NewDatabaseError("failed to touch session", err)
	}
	return nil
}

func (s *PGStore) AddFlash(ctx context.Context, token string, flash Flash) error {
	payload, err := json.Marshal([]Flash{flash})
	if err != nil {
		return apperror.NewInternalError("failed to encode flash message", err)
	}
	_, err = s.db.Exec(ctx,
		`UPDATE sessions SET flash = flash || $2::jsonb WHERE token = $1`,
		token, string(payload),
	)
	if err != nil {
		return apperror.NewDatabaseError("failed to queue flash message", err)
	}
	return nil
}

func (s *PGStore) PopFlashes(ctx context.Context, token string) ([]Flash, error) {
	// Read-and-clear in one statement. UPDATE ... RETURNING yields the new
	// column value, so the pre-update flash list is captured through a
	// locked self-join instead.
	var raw []byte
	err := s.db.QueryRow(ctx,
		`UPDATE sessions SET flash = '[]'::jsonb
		 FROM (SELECT token, flash FROM sessions WHERE token = $1 FOR UPDATE) old
		 WHERE sessions.token = old.token
		 RETURNING old.flash`,
		token,
	).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, apperror.NewDatabaseError("failed to pop flash messages", err)
	}

	var flashes []Flash
	if err := json.Unmarshal(raw, &flashes); err != nil {
		return nil, apperror.NewInternalError(fmt.Sprintf("corrupt flash payload for session %s", token), err)
	}
	return flashes, nil
}

func (s *PGStore) DeleteExpired(ctx context.Context) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= now()`)
	if err != nil {
		return 0, apperror.NewDatabaseError("failed to delete expired sessions", err)
	}
	return tag.RowsAffected(), nil
}
