package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/vasiliy-maslov/educore/internal/db"
)

var (
	ErrNotFound    = errors.New("user not found")
	ErrEmailExists = errors.New("email already exists")
)

type Repository interface {
	Create(ctx context.Context, user *User) (uuid.UUID, error)
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
}

type repository struct {
	db db.DBTX
}

func NewRepository(conn db.DBTX) Repository {
	return &repository{db: conn}
}

const selectUser = `
	SELECT id, first_name, last_name, email, password_hash, role, created_at, updated_at
	FROM users
`

func (r *repository) Create(ctx context.Context, user *User) (uuid.UUID, error) {
	if user.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return uuid.Nil, fmt.Errorf("repository: failed to generate user id: %w", err)
		}
		user.ID = id
	}
	if user.Role == "" {
		user.Role = RoleStudent
	}

	now := time.Now().UTC()
	query := `
		INSERT INTO users (id, first_name, last_name, email, password_hash, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.Exec(ctx, query,
		user.ID,
		user.FirstName,
		user.LastName,
		user.Email,
		user.PasswordHash,
		string(user.Role),
		now,
		now,
	)
	if err != nil {
		if db.IsUniqueViolation(err, "users_email_key") {
			return uuid.Nil, ErrEmailExists
		}
		return uuid.Nil, fmt.Errorf("repository: failed to insert user: %w", err)
	}

	user.CreatedAt = now
	user.UpdatedAt = now
	return user.ID, nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return r.getOne(ctx, selectUser+"WHERE id = $1", id)
}

func (r *repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.getOne(ctx, selectUser+"WHERE lower(email) = lower($1)", email)
}

func (r *repository) getOne(ctx context.Context, query string, arg any) (*User, error) {
	var u User
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&u.ID,
		&u.FirstName,
		&u.LastName,
		&u.Email,
		&u.PasswordHash,
		&u.Role,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("repository: failed to select user: %w", err)
	}
	return &u, nil
}
