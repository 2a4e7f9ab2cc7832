package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/wadjakorntonsri/shortlink/pkg/core/domain"
)

const userColumns = `id, username, email, password_hash, created_at`

func scanUser(row rowScanner) (*domain.User, error) {
	var (
		user  domain.User
		email sql.NullString
	)
	if err := row.Scan(&user.ID, &user.Username, &email, &user.PasswordHash, &user.CreatedAt); err != nil {
		return nil, err
	}
	user.Email = email.String
	return &user, nil
}

func (r *SQLiteRepository) CreateUser(ctx context.Context, user *domain.User) error {
	query := `INSERT INTO users (id, username, email, password_hash, created_at) VALUES (?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query, user.ID, user.Username, nullString(user.Email), user.PasswordHash, user.CreatedAt.UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", domain.ErrUserExists, user.Username)
		}
		return err
	}
	return nil
}

func (r *SQLiteRepository) getUser(ctx context.Context, column, value string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + column + ` = ?`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, value))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return user, err
}

func (r *SQLiteRepository) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	return r.getUser(ctx, "id", id)
}

func (r *SQLiteRepository) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.getUser(ctx, "username", username)
}

func (r *SQLiteRepository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	if email == "" {
		return nil, nil
	}
	return r.getUser(ctx, "email", email)
}
