package repository

import (
	"context"
	"time"
)

// SessionToken es la credencial opaca de sesión.
// Invariante: a lo sumo un token por usuario (user_id único).
type SessionToken struct {
	Key       string // 40 hex chars, primary key
	UserID    string
	CreatedAt time.Time
}

// SessionTokenRepository define el store de tokens de sesión.
type SessionTokenRepository interface {
	// GetOrCreate retorna el token existente del usuario o inserta uno nuevo
	// con candidateKey. Logins concurrentes convergen a la misma fila.
	GetOrCreate(ctx context.Context, userID, candidateKey string) (token *SessionToken, created bool, err error)

	// DeleteForUser borra el token del usuario. deleted=false si no había.
	DeleteForUser(ctx context.Context, userID string) (deleted bool, err error)

	// Lookup resuelve un key a su token. Retorna ErrNotFound si no existe.
	Lookup(ctx context.Context, key string) (*SessionToken, error)
}
