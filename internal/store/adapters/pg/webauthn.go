package pg

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/accountd/internal/domain/repository"
)

type webauthnRepo struct{ pool *pgxpool.Pool }

const webauthnColumns = `id, ukey, username, display_name, challenge, credential_id, public_key, sign_count, user_id, created_at`

func scanWebauthn(row pgx.Row) (*repository.WebauthnCredential, error) {
	var c repository.WebauthnCredential
	err := row.Scan(
		&c.ID, &c.Ukey, &c.Username, &c.DisplayName, &c.Challenge, &c.CredentialID,
		&c.PublicKey, &c.SignCount, &c.UserID, &c.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("pg: scan webauthn credential: %w", err)
	}
	return &c, nil
}

func (r *webauthnRepo) Create(ctx context.Context, cred *repository.WebauthnCredential) error {
	const query = `
		INSERT INTO webauthn_credential (ukey, username, display_name, challenge, credential_id, public_key, sign_count, user_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`
	err := r.pool.QueryRow(ctx, query,
		cred.Ukey, cred.Username, cred.DisplayName, cred.Challenge,
		cred.CredentialID, cred.PublicKey, cred.SignCount, cred.UserID,
	).Scan(&cred.ID, &cred.CreatedAt)
	if isUniqueViolation(err) {
		return repository.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("pg: insert webauthn credential: %w", err)
	}
	return nil
}

func (r *webauthnRepo) GetByUkey(ctx context.Context, ukey string) (*repository.WebauthnCredential, error) {
	query := `SELECT ` + webauthnColumns + ` FROM webauthn_credential WHERE ukey = $1`
	return scanWebauthn(r.pool.QueryRow(ctx, query, ukey))
}

func (r *webauthnRepo) GetByUsername(ctx context.Context, username string) (*repository.WebauthnCredential, error) {
	query := `SELECT ` + webauthnColumns + ` FROM webauthn_credential WHERE LOWER(username) = LOWER($1) LIMIT 1`
	return scanWebauthn(r.pool.QueryRow(ctx, query, username))
}

func (r *webauthnRepo) Update(ctx context.Context, cred *repository.WebauthnCredential) error {
	const query = `
		UPDATE webauthn_credential SET
			challenge = $2, credential_id = $3, public_key = $4, sign_count = $5, user_id = $6
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query,
		cred.ID, cred.Challenge, cred.CredentialID, cred.PublicKey, cred.SignCount, cred.UserID,
	)
	if err != nil {
		return fmt.Errorf("pg: update webauthn credential: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *webauthnRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM webauthn_credential WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("pg: delete webauthn credential: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}
