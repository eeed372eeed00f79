package repository

import (
	"context"
	"time"
)

// WebauthnCredential almacena el material de una credencial WebAuthn.
// La verificación criptográfica queda en manos de un verificador externo;
// acá solo se persiste. Invariante: challenge se limpia a "" después de
// cualquier verificación exitosa.
type WebauthnCredential struct {
	ID           string
	Ukey         string // único, correlaciona signup_request con signup
	Username     string
	DisplayName  string
	Challenge    string
	CredentialID string
	PublicKey    string
	SignCount    int
	UserID       *string // nil hasta que el signup completa
	CreatedAt    time.Time
}

// WebauthnCredentialRepository define el store de credenciales WebAuthn.
type WebauthnCredentialRepository interface {
	// Create inserta una credencial pendiente (challenge + ukey).
	Create(ctx context.Context, cred *WebauthnCredential) error

	// GetByUkey busca por ukey. Retorna ErrNotFound si no existe.
	GetByUkey(ctx context.Context, ukey string) (*WebauthnCredential, error)

	// GetByUsername busca la credencial de un username.
	// Retorna ErrNotFound si no existe.
	GetByUsername(ctx context.Context, username string) (*WebauthnCredential, error)

	// Update persiste la fila completa (challenge, credential_id, public_key,
	// sign_count, user_id).
	Update(ctx context.Context, cred *WebauthnCredential) error

	// Delete elimina una credencial.
	Delete(ctx context.Context, id string) error
}
