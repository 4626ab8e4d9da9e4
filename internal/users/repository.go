package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jamiyah-app/jamiyah/internal/platform/db"
	"github.com/jamiyah-app/jamiyah/internal/shared"
)

// ErrUsernameTaken indicates a creation with a username that already exists.
var ErrUsernameTaken = errors.New("users: username taken")

// Repository provides PostgreSQL backed persistence for user accounts.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListUsers returns all users ordered by username.
func (r *Repository) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, username, active, member_id, created_at, updated_at FROM users ORDER BY username`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var users []User
	for rows.Next() {
		var user User
		if err := rows.Scan(&user.ID, &user.Username, &user.Active, &user.MemberID, &user.CreatedAt, &user.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// GetUser fetches a user by id.
func (r *Repository) GetUser(ctx context.Context, userID string) (User, error) {
	const query = `SELECT id, username, active, member_id, created_at, updated_at FROM users WHERE id = $1`
	var user User
	err := r.pool.QueryRow(ctx, query, userID).
		Scan(&user.ID, &user.Username, &user.Active, &user.MemberID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, shared.ErrNotFound
		}
		return User{}, err
	}
	return user, nil
}

// CreateUser inserts a new account with the given (already hashed) password.
func (r *Repository) CreateUser(ctx context.Context, id, username, passwordHash string, memberID *int64) error {
	const query = `INSERT INTO users (id, username, password_hash, active, member_id, created_at, updated_at)
		VALUES ($1, $2, $3, TRUE, $4, now(), now())`
	if _, err := r.pool.Exec(ctx, query, id, username, passwordHash, memberID); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: %s", ErrUsernameTaken, username)
		}
		return err
	}
	return nil
}

// UpdateUser updates activation, member link, and optionally the password hash.
func (r *Repository) UpdateUser(ctx context.Context, userID string, active bool, memberID *int64, passwordHash *string) error {
	const query = `UPDATE users
		SET active = $2,
		    member_id = $3,
		    password_hash = COALESCE($4, password_hash),
		    updated_at = now()
		WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, userID, active, memberID, passwordHash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DeleteUser removes the account together with its role assignments.
func (r *Repository) DeleteUser(ctx context.Context, userID string) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM user_roles WHERE user_id = $1`, userID); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, userID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}
