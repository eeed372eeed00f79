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

type challengeRepo struct{ pool *pgxpool.Pool }

const challengeColumns = `id, long_token, short_token, user_id, identifier_kind, uses, created_at`

func scanChallenge(row pgx.Row) (*repository.Challenge, error) {
	var c repository.Challenge
	err := row.Scan(
		&c.ID, &c.LongToken, &c.ShortToken, &c.UserID,
		&c.IdentifierKind, &c.Uses, &c.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("pg: scan challenge: %w", err)
	}
	return &c, nil
}

func (r *challengeRepo) PurgeStale(ctx context.Context, lifetime time.Duration, maxUses int) (int, error) {
	const query = `DELETE FROM passwordless_challenge WHERE created_at <= $1 OR uses >= $2`
	cutoff := time.Now().UTC().Add(-lifetime)
	tag, err := r.pool.Exec(ctx, query, cutoff, maxUses)
	if err != nil {
		return 0, fmt.Errorf("pg: purge challenges: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (r *challengeRepo) DeleteForUser(ctx context.Context, userID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM passwordless_challenge WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("pg: delete challenges: %w", err)
	}
	return nil
}

func (r *challengeRepo) Create(ctx context.Context, input repository.CreateChallengeInput) (*repository.Challenge, error) {
	const query = `
		INSERT INTO passwordless_challenge (long_token, short_token, user_id, identifier_kind)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + challengeColumns
	c, err := scanChallenge(r.pool.QueryRow(ctx, query,
		input.LongToken, input.ShortToken, input.UserID, input.IdentifierKind,
	))
	if isUniqueViolation(err) {
		return nil, repository.ErrConflict
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Find resuelve el canje en una sola consulta: match por long token, o por
// short token con el identificador del usuario dueño del challenge.
func (r *challengeRepo) Find(ctx context.Context, value, kind, identifierValue string) (*repository.Challenge, error) {
	const query = `
		SELECT c.id, c.long_token, c.short_token, c.user_id, c.identifier_kind, c.uses, c.created_at
		FROM passwordless_challenge c
		JOIN account_user u ON u.id = c.user_id
		WHERE c.long_token = $1
		   OR (c.short_token = $1 AND c.identifier_kind = $2 AND $3 <> ''
		       AND LOWER(CASE WHEN $2 = 'email' THEN u.email ELSE u.mobile END) = LOWER($3))
		LIMIT 1
	`
	return scanChallenge(r.pool.QueryRow(ctx, query, value, kind, identifierValue))
}

func (r *challengeRepo) Redeem(ctx context.Context, challengeID string, maxUses int) (bool, error) {
	const query = `UPDATE passwordless_challenge SET uses = uses + 1 WHERE id = $1 AND uses < $2`
	tag, err := r.pool.Exec(ctx, query, challengeID, maxUses)
	if err != nil {
		return false, fmt.Errorf("pg: redeem challenge: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
