package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kbrakke/illustrated-primer/internal/database"
)

// ErrUserNotFound is returned when a user row does not exist.
var ErrUserNotFound = errors.New("user not found")

// UserRepo handles users.
type UserRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

func (r *UserRepo) Create(ctx context.Context, u User) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO users(id, name, email, email_verified, image, created_at, updated_at)
	VALUES(?, ?, ?, ?, ?, ?, ?);
	`, u.ID, u.Name, u.Email, u.EmailVerified, u.Image, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepo) Get(ctx context.Context, id string) (User, error) {
	row := r.db.QueryRowContext(ctx, `
	SELECT id, name, email, email_verified, image, created_at, updated_at
	FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (User, error) {
	row := r.db.QueryRowContext(ctx, `
	SELECT id, name, email, email_verified, image, created_at, updated_at
	FROM users WHERE email = ?`, email)
	return scanUser(row)
}

func (r *UserRepo) List(ctx context.Context) ([]User, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT id, name, email, email_verified, image, created_at, updated_at
	FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.EmailVerified, &u.Image, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *UserRepo) Update(ctx context.Context, u User) error {
	res, err := r.db.ExecContext(ctx, `
	UPDATE users SET name = ?, email = ?, email_verified = ?, image = ?, updated_at = ?
	WHERE id = ?`, u.Name, u.Email, u.EmailVerified, u.Image, database.Now(), u.ID)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return checkAffected(res, ErrUserNotFound)
}

func (r *UserRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return checkAffected(res, ErrUserNotFound)
}

func scanUser(row *sql.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.EmailVerified, &u.Image, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("scan user: %w", err)
	}
	return u, nil
}

func checkAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
