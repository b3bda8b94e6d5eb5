package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/user/wanderlust-go/apperror"
)

// pgUniqueViolation is the PostgreSQL error code for unique constraint
// violations, used to translate duplicate usernames/emails into conflict
// errors instead of opaque database errors.
const pgUniqueViolation = "23505"

// Service implements registration and credential verification against the
// users table. Passwords are stored as bcrypt hashes; the plaintext never
// leaves the request that carried it.
type Service struct {
	db       *pgxpool.Pool
	validate *validator.Validate
}

// NewService creates a Service over the shared connection pool.
func NewService(db *pgxpool.Pool) *Service {
	return &Service{db: db, validate: validator.New()}
}

// Register creates a new user account. Validation failures surface as
// ValidationError (400); duplicate usernames or emails as ConflictError (409)
// naming the offending field.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, apperror.NewValidationError("username, email and password are required (password at least 6 characters)", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperror.NewInternalError("failed to hash password", err)
	}

	user := &User{
		Username:       strings.TrimSpace(req.Username),
		Email:          strings.ToLower(strings.TrimSpace(req.Email)),
		HashedPassword: string(hashed),
	}

	err = s.db.QueryRow(ctx,
		`INSERT INTO users (username, email, hashed_password)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		user.Username, user.Email, user.HashedPassword,
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			if strings.Contains(pgErr.ConstraintName, "username") {
				return nil, apperror.NewConflictError("username already taken", nil)
			}
			if strings.Contains(pgErr.ConstraintName, "email") {
				return nil, apperror.NewConflictError("email already registered", nil)
			}
		}
		return nil, apperror.NewDatabaseError("failed to create user", err)
	}
	return user, nil
}

// Authenticate verifies a username/password pair. Unknown username and wrong
// password produce the identical AuthError so a caller cannot probe which
// usernames exist.
func (s *Service) Authenticate(ctx context.Context, req LoginRequest) (*User, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, apperror.NewValidationError("username and password are required", err)
	}

	user := &User{}
	err := s.db.QueryRow(ctx,
		`SELECT id, username, email, hashed_password, created_at
		 FROM users WHERE username = $1`,
		strings.TrimSpace(req.Username),
	).Scan(&user.ID, &user.Username, &user.Email, &user.HashedPassword, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewAuthError("invalid username or password", nil)
		}
		return nil, apperror.NewDatabaseError("failed to look up user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(req.Password)); err != nil {
		return nil, apperror.NewAuthError("invalid username or password", nil)
	}
	return user, nil
}

// GetUser loads a user by id. The session middleware calls this on every
// authenticated request to turn the stored user id back into a User.
func (s *Service) GetUser(ctx context.Context, id int) (*User, error) {
	user := &User{}
	err := s.db.QueryRow(ctx,
		`SELECT id, username, email, hashed_password, created_at
		 FROM users WHERE id = $1`,
		id,
	).Scan(&user.ID, &user.Username, &user.Email, &user.HashedPassword, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFoundError(fmt.Sprintf("user %d not found", id), nil)
		}
		return nil, apperror.NewDatabaseError("failed to load user", err)
	}
	return user, nil
}
