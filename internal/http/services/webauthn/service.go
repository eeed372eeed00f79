// Package webauthn implementa el registro y login con credenciales FIDO2.
package webauthn

import (
	"context"
	"net/http"
	"strings"

	"github.com/dropDatabas3/accountd/internal/config"
	"github.com/dropDatabas3/accountd/internal/domain/repository"
	"github.com/dropDatabas3/accountd/internal/email"
	"github.com/dropDatabas3/accountd/internal/events"
	"github.com/dropDatabas3/accountd/internal/http/apierr"
	dto "github.com/dropDatabas3/accountd/internal/http/dto/webauthn"
	tokensvc "github.com/dropDatabas3/accountd/internal/http/services/token"
	"github.com/dropDatabas3/accountd/internal/observability/logger"
	tokens "github.com/dropDatabas3/accountd/internal/security/token"
	"github.com/dropDatabas3/accountd/internal/store"
	"github.com/dropDatabas3/accountd/internal/validation"
)

const (
	alphanumeric = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	// defaultTimeout es el timeout en ms que se sugiere al navegador.
	defaultTimeout = 60000
)

// Service define el flujo webauthn en dos pasos por operación: primero el
// challenge, después la verificación de la respuesta del autenticador.
type Service interface {
	SignupRequest(ctx context.Context, in dto.SignupRequestBody) (*dto.CredentialCreationOptions, string, error)
	Signup(ctx context.Context, ukey string, in dto.SignupBody) (*repository.User, error)
	LoginRequest(ctx context.Context, in dto.LoginRequestBody) (*dto.AssertionOptions, error)
	Login(ctx context.Context, in dto.LoginBody) (string, error)
}

// Deps contiene las dependencias del service webauthn.
type Deps struct {
	Store    store.Store
	Cfg      *config.Config
	Bus      *events.Bus
	Mailer   *email.Dispatcher
	Verifier Verifier
}

type service struct {
	deps Deps
}

// NewService crea el service webauthn.
func NewService(deps Deps) Service {
	if deps.Verifier == nil {
		deps.Verifier = StructuralVerifier{}
	}
	return &service{deps: deps}
}

var errWebauthnVerification = apierr.NonField(http.StatusBadRequest,
	"webauthn_verification_failed", "WebAuthn verification failed.")

func (s *service) SignupRequest(ctx context.Context, in dto.SignupRequestBody) (*dto.CredentialCreationOptions, string, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("webauthn"), logger.Op("SignupRequest"))
	cfg := s.deps.Cfg.WebAuthn

	username := strings.TrimSpace(in.Username)
	if msg := validation.Username(username); msg != "" {
		return nil, "", apierr.Field(http.StatusBadRequest, "validation_error", "username", msg)
	}
	display := strings.TrimSpace(in.DisplayName)
	if display == "" {
		display = username
	}

	// El username no puede estar tomado por una cuenta existente.
	if _, err := s.deps.Store.Users().GetByIdentifier(ctx, repository.LoginFieldUsername, username); err == nil {
		return nil, "", apierr.Field(http.StatusBadRequest, "validation_error", "username",
			"User "+username+" already exists.")
	} else if !repository.IsNotFound(err) {
		return nil, "", apierr.ErrInternal
	}

	challenge, err := tokens.Challenge(cfg.ChallengeLength, alphanumeric)
	if err != nil {
		return nil, "", apierr.ErrInternal
	}
	ukey, err := tokens.Challenge(cfg.UkeyLength, alphanumeric)
	if err != nil {
		return nil, "", apierr.ErrInternal
	}

	cred := &repository.WebauthnCredential{
		Ukey:        ukey,
		Username:    username,
		DisplayName: display,
		Challenge:   challenge,
	}
	if err := s.deps.Store.WebauthnCredentials().Create(ctx, cred); err != nil {
		return nil, "", apierr.ErrInternal
	}

	log.Info("signup challenge issued", logger.String("username", username))
	return &dto.CredentialCreationOptions{
		Challenge: cred.Challenge,
		RP:        dto.RelyingParty{Name: cfg.RPName, ID: cfg.RPID},
		User:      dto.PublicKeyUser{ID: cred.Ukey, Name: username, DisplayName: display},
		PubKeyCP:  []dto.PubKeyParam{{Type: "public-key", Alg: -7}, {Type: "public-key", Alg: -257}},
		Timeout:   defaultTimeout,
	}, cred.Ukey, nil
}

func (s *service) Signup(ctx context.Context, ukey string, in dto.SignupBody) (*repository.User, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("webauthn"), logger.Op("Signup"))
	cfg := s.deps.Cfg

	cred, err := s.deps.Store.WebauthnCredentials().GetByUkey(ctx, ukey)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apierr.ErrNotFound
		}
		return nil, apierr.ErrInternal
	}
	if cred.UserID != nil {
		// la credencial ya fue consumida por un registro previo
		return nil, errWebauthnVerification
	}

	if err := s.deps.Verifier.VerifyRegistration(cred, in); err != nil {
		log.Info("registration verification failed", logger.String("username", cred.Username))
		return nil, errWebauthnVerification
	}

	emailAddr := strings.TrimSpace(strings.ToLower(in.Email))
	if emailAddr != "" {
		if msg := validation.Email(emailAddr); msg != "" {
			return nil, apierr.Field(http.StatusBadRequest, "validation_error", "email", msg)
		}
	}

	u, err := s.deps.Store.Users().Create(ctx, repository.CreateUserInput{
		Username: cred.Username,
		Email:    emailAddr,
		IsActive: !cfg.Auth.SendActivationEmail,
	})
	if err != nil {
		if repository.IsConflict(err) {
			return nil, apierr.ErrCannotCreateUser
		}
		return nil, apierr.ErrInternal
	}

	// challenge consumido: se limpia y la credencial queda ligada a la cuenta
	cred.Challenge = ""
	cred.CredentialID = in.CredentialID
	cred.PublicKey = in.PublicKey
	cred.SignCount = in.SignCount
	cred.UserID = &u.ID
	if err := s.deps.Store.WebauthnCredentials().Update(ctx, cred); err != nil {
		return nil, apierr.ErrInternal
	}

	if err := s.deps.Bus.Emit(ctx, events.Event{Name: events.UserRegistered, User: u}); err != nil {
		return nil, apierr.ErrInternal
	}
	if cfg.Auth.SendActivationEmail && u.Email != "" {
		if err := s.deps.Mailer.SendActivation(ctx, u); err != nil {
			log.Error("activation email failed", logger.Err(err), logger.UserID(u.ID))
		}
	}

	log.Info("webauthn account created", logger.UserID(u.ID))
	return u, nil
}

func (s *service) LoginRequest(ctx context.Context, in dto.LoginRequestBody) (*dto.AssertionOptions, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("webauthn"), logger.Op("LoginRequest"))
	cfg := s.deps.Cfg.WebAuthn

	username := strings.TrimSpace(in.Username)
	if username == "" {
		return nil, apierr.Field(http.StatusBadRequest, "validation_error", "username", validation.Required())
	}

	cred, err := s.deps.Store.WebauthnCredentials().GetByUsername(ctx, username)
	if err != nil {
		if repository.IsNotFound(err) {
			log.Debug("login challenge for unknown credential")
			return nil, apierr.ErrInvalidCredentials
		}
		return nil, apierr.ErrInternal
	}
	if cred.UserID == nil {
		// registro nunca completado
		return nil, apierr.ErrInvalidCredentials
	}

	challenge, err := tokens.Challenge(cfg.ChallengeLength, alphanumeric)
	if err != nil {
		return nil, apierr.ErrInternal
	}
	cred.Challenge = challenge
	if err := s.deps.Store.WebauthnCredentials().Update(ctx, cred); err != nil {
		return nil, apierr.ErrInternal
	}

	return &dto.AssertionOptions{
		Challenge:        challenge,
		AllowCredentials: []string{cred.CredentialID},
		RPID:             cfg.RPID,
		Timeout:          defaultTimeout,
	}, nil
}

func (s *service) Login(ctx context.Context, in dto.LoginBody) (string, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("webauthn"), logger.Op("Login"))

	username := strings.TrimSpace(in.Username)
	if username == "" {
		return "", apierr.Field(http.StatusBadRequest, "validation_error", "username", validation.Required())
	}

	cred, err := s.deps.Store.WebauthnCredentials().GetByUsername(ctx, username)
	if err != nil {
		if repository.IsNotFound(err) {
			return "", apierr.ErrInvalidCredentials
		}
		return "", apierr.ErrInternal
	}
	if cred.UserID == nil {
		return "", apierr.ErrInvalidCredentials
	}

	if err := s.deps.Verifier.VerifyAssertion(cred, in); err != nil {
		log.Info("assertion verification failed", logger.String("username", username))
		return "", errWebauthnVerification
	}

	u, err := s.deps.Store.Users().GetByPK(ctx, *cred.UserID)
	if err != nil {
		return "", apierr.ErrInvalidCredentials
	}
	if !u.IsActive {
		return "", apierr.ErrInvalidCredentials
	}

	// challenge consumido; el sign_count avanza para detectar replay
	cred.Challenge = ""
	cred.SignCount = in.SignCount
	if err := s.deps.Store.WebauthnCredentials().Update(ctx, cred); err != nil {
		return "", apierr.ErrInternal
	}

	key, err := tokensvc.EstablishSession(ctx, s.deps.Store, s.deps.Cfg, s.deps.Bus, u)
	if err != nil {
		return "", err
	}
	log.Info("webauthn login successful", logger.UserID(u.ID))
	return key, nil
}
