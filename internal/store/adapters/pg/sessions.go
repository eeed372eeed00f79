package pg

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/accountd/internal/domain/repository"
)

type sessionRepo struct{ pool *pgxpool.Pool }

// GetOrCreate se apoya en el índice único de user_id: el INSERT con
// ON CONFLICT DO NOTHING no retorna fila si otro login ganó la carrera,
// y en ese caso se lee la fila existente.
func (r *sessionRepo) GetOrCreate(ctx context.Context, userID, candidateKey string) (*repository.SessionToken, bool, error) {
	const insert = `
		INSERT INTO session_token (key, user_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO NOTHING
		RETURNING key, user_id, created_at
	`
	var tok repository.SessionToken
	err := r.pool.QueryRow(ctx, insert, candidateKey, userID).Scan(&tok.Key, &tok.UserID, &tok.CreatedAt)
	if err == nil {
		return &tok, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, fmt.Errorf("pg: insert session token: %w", err)
	}

	const query = `SELECT key, user_id, created_at FROM session_token WHERE user_id = $1`
	err = r.pool.QueryRow(ctx, query, userID).Scan(&tok.Key, &tok.UserID, &tok.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, repository.ErrNotFound
	}
	if err != nil {
		return nil, false, fmt.Errorf("pg: get session token: %w", err)
	}
	return &tok, false, nil
}

func (r *sessionRepo) DeleteForUser(ctx context.Context, userID string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM session_token WHERE user_id = $1`, userID)
	if err != nil {
		return false, fmt.Errorf("pg: delete session token: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *sessionRepo) Lookup(ctx context.Context, key string) (*repository.SessionToken, error) {
	const query = `SELECT key, user_id, created_at FROM session_token WHERE key = $1`
	var tok repository.SessionToken
	err := r.pool.QueryRow(ctx, query, key).Scan(&tok.Key, &tok.UserID, &tok.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("pg: lookup session token: %w", err)
	}
	return &tok, nil
}
