package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"voxchat/internal/domain"
)

type UserRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

var _ domain.UserRepository = (*UserRepo)(nil)

const userColumns = `id, email, phone_number, hashed_password, full_name, profile_picture, is_active, is_verified, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*domain.User, error) {
	u := &domain.User{}
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.PhoneNumber,
		&u.HashedPassword,
		&u.FullName,
		&u.ProfilePicture,
		&u.IsActive,
		&u.IsVerified,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return u, nil
}

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	query := `
		INSERT INTO users (id, email, phone_number, hashed_password, full_name, profile_picture, is_active, is_verified)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	if _, err := r.db.ExecContext(ctx, query,
		u.ID,
		u.Email,
		u.PhoneNumber,
		u.HashedPassword,
		u.FullName,
		u.ProfilePicture,
		u.IsActive,
		u.IsVerified,
	); err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

func (r *UserRepo) GetByPhone(ctx context.Context, phone string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE phone_number = $1`, phone)
	return scanUser(row)
}

func (r *UserRepo) ListActive(ctx context.Context, offset, limit int) ([]*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE is_active = TRUE ORDER BY created_at LIMIT $1 OFFSET $2`
	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var res []*domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, u)
	}
	return res, rows.Err()
}

func (r *UserRepo) Update(ctx context.Context, u *domain.User) error {
	query := `
		UPDATE users
		SET email = $1, phone_number = $2, full_name = $3, profile_picture = $4, is_active = $5, updated_at = NOW()
		WHERE id = $6
	`
	if _, err := r.db.ExecContext(ctx, query,
		u.Email, u.PhoneNumber, u.FullName, u.ProfilePicture, u.IsActive, u.ID,
	); err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

func (r *UserRepo) SetVerified(ctx context.Context, id string, verified bool) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE users SET is_verified = $1, updated_at = NOW() WHERE id = $2`,
		verified, id,
	); err != nil {
		return fmt.Errorf("set verified: %w", err)
	}
	return nil
}

func (r *UserRepo) UpdatePassword(ctx context.Context, id, hashed string) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE users SET hashed_password = $1, updated_at = NOW() WHERE id = $2`,
		hashed, id,
	); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

func (r *UserRepo) SoftDelete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE users SET is_active = FALSE, updated_at = NOW() WHERE id = $1`,
		id,
	); err != nil {
		return fmt.Errorf("soft delete user: %w", err)
	}
	return nil
}
