package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/expensetracker/expense-api/internal/core/domain"
)

const uniqueViolation = "23505"

type UserRepository struct {
	db PGXDB
}

func NewUserRepository(db PGXDB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	u := *user
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO users (username, email, first_name, last_name, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, u.Username, u.Email, u.FirstName, u.LastName, u.PasswordHash, u.CreatedAt, u.UpdatedAt).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	u.ID = strconv.FormatInt(id, 10)
	return &u, nil
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	var (
		u  domain.User
		id int64
	)
	err := r.db.QueryRow(ctx, `
		SELECT id, username, email, first_name, last_name, password_hash, created_at, updated_at
		FROM users WHERE username = $1
	`, username).Scan(&id, &u.Username, &u.Email, &u.FirstName, &u.LastName, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	u.ID = strconv.FormatInt(id, 10)
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
	return &u, nil
}
