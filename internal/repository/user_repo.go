package repository

import (
	"context"
	"errors"
	"strings"

	"scamfeed/internal/domain"

	"github.com/jackc/pgx/v5"
)

const userColumns = `id, username, email, password_hash, avatar, level, is_verified, is_admin, created_at`

type UserRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts u. A taken username or email yields ErrDuplicate.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	if u.Level == 0 {
		u.Level = 1
	}
	err := r.db.QueryRow(ctx,
		`INSERT INTO users (id, username, email, password_hash, avatar, level, is_verified, is_admin)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING created_at`,
		u.ID, u.Username, strings.ToLower(u.Email), u.PasswordHash, u.Avatar, u.Level, u.IsVerified, u.IsAdmin,
	).Scan(&u.CreatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, strings.ToLower(email))
}

// Count returns total number of users
func (r *UserRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}

func (r *UserRepository) getOne(ctx context.Context, sql string, arg any) (*domain.User, error) {
	var u domain.User
	err := r.db.QueryRow(ctx, sql, arg).Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.Avatar,
		&u.Level,
		&u.IsVerified,
		&u.IsAdmin,
		&u.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
