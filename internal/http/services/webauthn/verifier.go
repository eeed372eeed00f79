package webauthn

import (
	"errors"

	"github.com/dropDatabas3/accountd/internal/domain/repository"
	dto "github.com/dropDatabas3/accountd/internal/http/dto/webauthn"
)

var errVerification = errors.New("webauthn: verification failed")

// Verifier valida respuestas del autenticador contra el challenge pendiente.
// La verificación criptográfica completa (attestation, firma COSE) depende
// del autenticador desplegado; StructuralVerifier cubre el contrato mínimo.
type Verifier interface {
	VerifyRegistration(cred *repository.WebauthnCredential, body dto.SignupBody) error
	VerifyAssertion(cred *repository.WebauthnCredential, body dto.LoginBody) error
}

// StructuralVerifier valida forma y consistencia de la respuesta: credencial
// presente, match de credential_id y sign_count que avanza.
type StructuralVerifier struct{}

func (StructuralVerifier) VerifyRegistration(cred *repository.WebauthnCredential, body dto.SignupBody) error {
	if cred.Challenge == "" {
		return errVerification
	}
	if body.CredentialID == "" || body.PublicKey == "" {
		return errVerification
	}
	return nil
}

func (StructuralVerifier) VerifyAssertion(cred *repository.WebauthnCredential, body dto.LoginBody) error {
	if cred.Challenge == "" {
		return errVerification
	}
	if body.CredentialID == "" || body.CredentialID != cred.CredentialID {
		return errVerification
	}
	// replay: el contador del autenticador tiene que avanzar
	if cred.SignCount > 0 && body.SignCount <= cred.SignCount {
		return errVerification
	}
	return nil
}
