package pg

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/accountd/internal/domain/repository"
)

type userRepo struct{ pool *pgxpool.Pool }

const userColumns = `id, username, email, mobile, password_hash, is_active, is_staff, last_login, created_at`

func scanUser(row pgx.Row) (*repository.User, error) {
	var u repository.User
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.Mobile, &u.PasswordHash,
		&u.IsActive, &u.IsStaff, &u.LastLogin, &u.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("pg: scan user: %w", err)
	}
	return &u, nil
}

// identifierColumn mapea el campo lógico a su columna. Whitelist, nunca
// interpolar input del cliente en SQL.
func identifierColumn(field string) (string, error) {
	switch field {
	case repository.LoginFieldUsername:
		return "username", nil
	case repository.LoginFieldEmail:
		return "email", nil
	case "mobile":
		return "mobile", nil
	}
	return "", fmt.Errorf("pg: unknown identifier field %q", field)
}

func (r *userRepo) GetByPK(ctx context.Context, id string) (*repository.User, error) {
	query := `SELECT ` + userColumns + ` FROM account_user WHERE id = $1`
	return scanUser(r.pool.QueryRow(ctx, query, id))
}

func (r *userRepo) GetByLogin(ctx context.Context, field, value string) (*repository.User, error) {
	return r.GetByIdentifier(ctx, field, value)
}

func (r *userRepo) GetByIdentifier(ctx context.Context, field, value string) (*repository.User, error) {
	col, err := identifierColumn(field)
	if err != nil {
		return nil, err
	}
	query := `SELECT ` + userColumns + ` FROM account_user WHERE LOWER(` + col + `) = LOWER($1) AND ` + col + ` <> '' LIMIT 1`
	return scanUser(r.pool.QueryRow(ctx, query, value))
}

func (r *userRepo) GetActiveByEmail(ctx context.Context, email string) ([]repository.User, error) {
	query := `SELECT ` + userColumns + ` FROM account_user
		WHERE is_active AND LOWER(email) = LOWER($1) AND email <> ''
		ORDER BY created_at`
	rows, err := r.pool.Query(ctx, query, email)
	if err != nil {
		return nil, fmt.Errorf("pg: get active by email: %w", err)
	}
	defer rows.Close()

	var users []repository.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (r *userRepo) GetInactiveByEmail(ctx context.Context, email string) (*repository.User, error) {
	query := `SELECT ` + userColumns + ` FROM account_user
		WHERE NOT is_active AND LOWER(email) = LOWER($1) AND email <> ''
		LIMIT 1`
	return scanUser(r.pool.QueryRow(ctx, query, email))
}

func (r *userRepo) List(ctx context.Context, filter repository.ListUsersFilter) ([]repository.User, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	var query string
	var args []any
	if filter.OnlyID != "" {
		query = `SELECT ` + userColumns + ` FROM account_user WHERE id = $1 ORDER BY created_at LIMIT $2 OFFSET $3`
		args = []any{filter.OnlyID, limit, offset}
	} else {
		query = `SELECT ` + userColumns + ` FROM account_user ORDER BY created_at LIMIT $1 OFFSET $2`
		args = []any{limit, offset}
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("pg: list users: %w", err)
	}
	defer rows.Close()

	users := []repository.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (r *userRepo) Create(ctx context.Context, input repository.CreateUserInput) (*repository.User, error) {
	const query = `
		INSERT INTO account_user (username, email, mobile, password_hash, is_active, is_staff)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + userColumns
	u, err := scanUser(r.pool.QueryRow(ctx, query,
		input.Username, input.Email, input.Mobile, input.PasswordHash,
		input.IsActive, input.IsStaff,
	))
	if isUniqueViolation(err) {
		return nil, repository.ErrConflict
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *userRepo) Update(ctx context.Context, userID string, input repository.UpdateUserInput) (*repository.User, error) {
	const query = `
		UPDATE account_user SET
			email  = COALESCE($2, email),
			mobile = COALESCE($3, mobile)
		WHERE id = $1
		RETURNING ` + userColumns
	u, err := scanUser(r.pool.QueryRow(ctx, query, userID, input.Email, input.Mobile))
	if isUniqueViolation(err) {
		return nil, repository.ErrConflict
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *userRepo) Delete(ctx context.Context, userID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM account_user WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("pg: delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *userRepo) SetPassword(ctx context.Context, userID string, hash *string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE account_user SET password_hash = $2 WHERE id = $1`, userID, hash)
	if err != nil {
		return fmt.Errorf("pg: set password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *userRepo) SetActive(ctx context.Context, userID string, active bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE account_user SET is_active = $2 WHERE id = $1`, userID, active)
	if err != nil {
		return fmt.Errorf("pg: set active: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *userRepo) SetLastLogin(ctx context.Context, userID string, t time.Time) error {
	tag, err := r.pool.Exec(ctx, `UPDATE account_user SET last_login = $2 WHERE id = $1`, userID, t)
	if err != nil {
		return fmt.Errorf("pg: set last login: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *userRepo) UpdateLogin(ctx context.Context, userID, field, value string) error {
	col, err := identifierColumn(field)
	if err != nil {
		return err
	}
	query := `UPDATE account_user SET ` + col + ` = $2 WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, userID, value)
	if isUniqueViolation(err) {
		return repository.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("pg: update login: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}
