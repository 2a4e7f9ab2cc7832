package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/wadjakorntonsri/shortlink/pkg/core/domain"
)

const userColumns = `id, username, email, password_hash, created_at`

func (r *PostgresRepository) CreateUser(ctx context.Context, user *domain.User) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO users (id, username, email, password_hash, created_at) VALUES ($1, $2, $3, $4, $5)`,
		user.ID, user.Username, nullable(user.Email), user.PasswordHash, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", domain.ErrUserExists, user.Username)
		}
		return err
	}
	return nil
}

func (r *PostgresRepository) getUser(ctx context.Context, column, value string) (*domain.User, error) {
	var (
		user  domain.User
		email *string
	)

	err := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE `+column+` = $1`, value).
		Scan(&user.ID, &user.Username, &email, &user.PasswordHash, &user.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if email != nil {
		user.Email = *email
	}
	return &user, nil
}

func (r *PostgresRepository) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	return r.getUser(ctx, "id", id)
}

func (r *PostgresRepository) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.getUser(ctx, "username", username)
}

func (r *PostgresRepository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	if email == "" {
		return nil, nil
	}
	return r.getUser(ctx, "email", email)
}
