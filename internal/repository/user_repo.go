package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"commoni-api/internal/model"
)

const uniqueViolation = "23505"

// dbtx is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// UserRepository stores accounts in the users table. Soft-deleted rows are
// invisible to every read and write except ExistsByLoginID, which guards
// login id reuse.
type UserRepository struct {
	db dbtx
}

func NewUserRepository(db dbtx) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) ExistsByLoginID(ctx context.Context, loginID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, loginID).Scan(&exists)
	if err != nil {
		return false, storageError("check user exists", err)
	}
	return exists, nil
}

func (r *UserRepository) FindByLoginID(ctx context.Context, loginID string) (model.User, error) {
	var u model.User
	err := r.db.QueryRow(ctx,
		`SELECT no, id, pw, deleted, created_at, updated_at
		 FROM users WHERE id = $1 AND deleted = FALSE`, loginID).
		Scan(&u.NumericID, &u.LoginID, &u.PasswordDigest, &u.Deleted, &u.CreatedAt, &u.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, model.ErrUserNotFound
	}
	if err != nil {
		return model.User{}, storageError("find user by login id", err)
	}
	return u, nil
}

// Create inserts u and fills in the store-assigned fields. The unique
// constraint on id is the real guard against concurrent duplicates.
func (r *UserRepository) Create(ctx context.Context, u *model.User) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO users (id, pw) VALUES ($1, $2)
		 RETURNING no, deleted, created_at, updated_at`,
		u.LoginID, u.PasswordDigest).
		Scan(&u.NumericID, &u.Deleted, &u.CreatedAt, &u.UpdatedAt)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return model.ErrUserAlreadyExists
	}
	if err != nil {
		return storageError("create user", err)
	}
	return nil
}

// Update writes only the non-empty fields of upd. An empty update is a no-op.
func (r *UserRepository) Update(ctx context.Context, loginID string, upd model.UserUpdate) error {
	sets := make([]string, 0, 2)
	args := []any{loginID}

	if upd.PasswordDigest != nil && *upd.PasswordDigest != "" {
		args = append(args, *upd.PasswordDigest)
		sets = append(sets, fmt.Sprintf("pw = $%d", len(args)))
	}
	if len(sets) == 0 {
		return nil
	}
	sets = append(sets, "updated_at = now()")

	tag, err := r.db.Exec(ctx,
		`UPDATE users SET `+strings.Join(sets, ", ")+` WHERE id = $1 AND deleted = FALSE`, args...)
	if err != nil {
		return storageError("update user", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) SoftDelete(ctx context.Context, loginID string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE users SET deleted = TRUE, updated_at = now() WHERE id = $1 AND deleted = FALSE`, loginID)
	if err != nil {
		return storageError("delete user", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrUserNotFound
	}
	return nil
}

func storageError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", model.ErrStorage, op, err)
}
