package repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-directory/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-directory/pkg/database"
)

// UserRepo provides data access for users table using sqlx.
type UserRepo struct {
	db *sqlx.DB
}

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{db: db} }

const userColumns = `user_id, first_name, last_name, email, password, mobile, user_type_id,
	position, company, user_image, status, created_at, updated_at`

// Create inserts a new user row; u.Password must already be hashed.
func (r *UserRepo) Create(ctx context.Context, u *entity.User) (*entity.User, error) {
	q := `INSERT INTO users (first_name, last_name, email, password, mobile, user_type_id, position, company, user_image, status)
		  VALUES (:first_name, :last_name, :email, :password, :mobile, :user_type_id, :position, :company, :user_image, :status)
		  RETURNING ` + userColumns
	rows, err := r.db.NamedQueryContext(ctx, q, u)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	defer rows.Close()
	var out entity.User
	if rows.Next() {
		if err := rows.StructScan(&out); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		return &out, nil
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return nil, fmt.Errorf("insert user: no row returned")
}

// List returns every user ordered by id.
func (r *UserRepo) List(ctx context.Context) (database.ReadResult[entity.User], error) {
	var out []entity.User
	if err := r.db.SelectContext(ctx, &out, `SELECT `+userColumns+` FROM users ORDER BY user_id`); err != nil {
		return database.ReadResult[entity.User]{}, fmt.Errorf("list users: %w", err)
	}
	return database.Rows(out), nil
}

// GetByID fetches a full user row.
func (r *UserRepo) GetByID(ctx context.Context, id int64) (database.ReadResult[entity.User], error) {
	var out []entity.User
	if err := r.db.SelectContext(ctx, &out, `SELECT `+userColumns+` FROM users WHERE user_id = $1`, id); err != nil {
		return database.ReadResult[entity.User]{}, fmt.Errorf("get user by id: %w", err)
	}
	return database.Rows(out), nil
}

// GetByEmail returns the user with the given email, compared case-insensitively.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (database.ReadResult[entity.User], error) {
	var out []entity.User
	q := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = $1`
	if err := r.db.SelectContext(ctx, &out, q, strings.ToLower(strings.TrimSpace(email))); err != nil {
		return database.ReadResult[entity.User]{}, fmt.Errorf("get user by email: %w", err)
	}
	return database.Rows(out), nil
}

// Update overwrites every column of the row u.UserID with u.
func (r *UserRepo) Update(ctx context.Context, u *entity.User) (database.MutationResult, error) {
	const q = `UPDATE users SET first_name=:first_name, last_name=:last_name, email=:email, password=:password,
		mobile=:mobile, user_type_id=:user_type_id, position=:position, company=:company,
		user_image=:user_image, status=:status, updated_at=NOW()
		WHERE user_id=:user_id`
	res, err := r.db.NamedExecContext(ctx, q, u)
	if err != nil {
		return database.MutationResult{}, fmt.Errorf("update user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return database.MutationResult{}, fmt.Errorf("update user rows affected: %w", err)
	}
	return database.MutationResult{Affected: n, Changed: n}, nil
}

// DeleteByID removes a user.
func (r *UserRepo) DeleteByID(ctx context.Context, id int64) (database.MutationResult, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE user_id = $1`, id)
	if err != nil {
		return database.MutationResult{}, fmt.Errorf("delete user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return database.MutationResult{}, fmt.Errorf("delete user rows affected: %w", err)
	}
	return database.Deleted(n), nil
}
