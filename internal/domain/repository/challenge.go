package repository

import (
	"context"
	"time"
)

// Challenge es el token de desafío passwordless. Se emiten dos valores: el
// largo se canjea solo; el corto exige además el identificador (email/mobile)
// al que fue enviado, como mitigación de fuerza bruta.
type Challenge struct {
	ID         string
	LongToken  string // único global
	ShortToken string // único global
	UserID     string
	// IdentifierKind indica con qué identificador puede canjearse el short
	// token: "email" o "mobile".
	IdentifierKind string
	Uses           int
	CreatedAt      time.Time
}

// Valid reporta si el challenge sigue canjeable.
func (c *Challenge) Valid(lifetime time.Duration, maxUses int, now time.Time) bool {
	if now.Sub(c.CreatedAt) >= lifetime {
		return false
	}
	return c.Uses < maxUses
}

// CreateChallengeInput contiene los datos para insertar un challenge.
type CreateChallengeInput struct {
	LongToken      string
	ShortToken     string
	UserID         string
	IdentifierKind string
}

// ChallengeRepository define el store de challenges passwordless.
type ChallengeRepository interface {
	// PurgeStale elimina challenges expirados o agotados en todo el store.
	PurgeStale(ctx context.Context, lifetime time.Duration, maxUses int) (int, error)

	// DeleteForUser elimina todos los challenges del usuario.
	DeleteForUser(ctx context.Context, userID string) error

	// Create inserta un challenge con uses=0.
	// Retorna ErrConflict si long_token o short_token colisionan.
	Create(ctx context.Context, input CreateChallengeInput) (*Challenge, error)

	// Find ejecuta la consulta única de canje: long_token == value, O BIEN
	// short_token == value Y identifier_kind == kind Y el identificador del
	// usuario asociado coincide (case-insensitive) con identifierValue.
	// Retorna ErrNotFound si no hay fila.
	Find(ctx context.Context, value, kind, identifierValue string) (*Challenge, error)

	// Redeem incrementa uses con guarda uses < maxUses; redeemed=false si la
	// guarda falla. Canjes concurrentes del último uso serializan acá.
	Redeem(ctx context.Context, challengeID string, maxUses int) (redeemed bool, err error)
}
