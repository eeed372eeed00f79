// Package token implementa login y logout con tokens de sesión opacos.
package token

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/dropDatabas3/accountd/internal/config"
	"github.com/dropDatabas3/accountd/internal/domain/repository"
	"github.com/dropDatabas3/accountd/internal/events"
	"github.com/dropDatabas3/accountd/internal/http/apierr"
	dto "github.com/dropDatabas3/accountd/internal/http/dto/token"
	"github.com/dropDatabas3/accountd/internal/metrics"
	"github.com/dropDatabas3/accountd/internal/observability/logger"
	"github.com/dropDatabas3/accountd/internal/security/password"
	tokens "github.com/dropDatabas3/accountd/internal/security/token"
	"github.com/dropDatabas3/accountd/internal/store"
	"github.com/dropDatabas3/accountd/internal/validation"
)

// Service define las operaciones de sesión.
type Service interface {
	// Login autentica y retorna la key del token de sesión.
	Login(ctx context.Context, in dto.CreateRequest) (string, error)
	// Logout destruye el token del caller. No-op si las sesiones están
	// deshabilitadas.
	Logout(ctx context.Context, caller *repository.User) error
}

// Deps contiene las dependencias del service de sesión.
type Deps struct {
	Store store.Store
	Cfg   *config.Config
	Bus   *events.Bus
}

type service struct {
	deps Deps
}

// NewService crea el service de sesión.
func NewService(deps Deps) Service {
	return &service{deps: deps}
}

// EstablishSession crea (o reusa) el token de sesión del usuario y registra
// el login. Lo comparten el login por password, el passwordless y webauthn.
func EstablishSession(ctx context.Context, st store.Store, cfg *config.Config, bus *events.Bus, u *repository.User) (string, error) {
	if !cfg.Auth.Session.Enabled {
		return "", apierr.ErrTokenModelNone
	}

	candidate, err := tokens.SessionKey()
	if err != nil {
		return "", apierr.ErrInternal
	}
	tok, created, err := st.Sessions().GetOrCreate(ctx, u.ID, candidate)
	if err != nil {
		return "", apierr.ErrInternal
	}

	if err := st.Users().SetLastLogin(ctx, u.ID, time.Now().UTC()); err != nil {
		return "", apierr.ErrInternal
	}

	if created {
		if err := bus.Emit(ctx, events.Event{Name: events.TokenCreated, User: u}); err != nil {
			return "", apierr.ErrInternal
		}
	}
	if err := bus.Emit(ctx, events.Event{Name: events.UserLoggedIn, User: u}); err != nil {
		return "", apierr.ErrInternal
	}

	metrics.LoginsTotal.Inc()
	return tok.Key, nil
}

func (s *service) Login(ctx context.Context, in dto.CreateRequest) (string, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("token"), logger.Op("Login"))
	cfg := s.deps.Cfg

	if !cfg.Auth.Session.Enabled {
		return "", apierr.ErrTokenModelNone
	}

	loginValue := strings.TrimSpace(in.Username)
	field := cfg.Auth.LoginField
	if field == repository.LoginFieldEmail {
		loginValue = strings.TrimSpace(strings.ToLower(in.Email))
		if loginValue == "" {
			// clientes que mandan el email en "username"
			loginValue = strings.TrimSpace(strings.ToLower(in.Username))
		}
	}

	fields := map[string][]string{}
	if loginValue == "" {
		fields[field] = append(fields[field], validation.Required())
	}
	if in.Password == "" {
		fields["password"] = append(fields["password"], validation.Required())
	}
	if len(fields) > 0 {
		return "", &apierr.Error{Status: http.StatusBadRequest, Code: "validation_error", Fields: fields}
	}

	u, err := s.deps.Store.Users().GetByLogin(ctx, field, loginValue)
	if err != nil {
		if !repository.IsNotFound(err) {
			return "", apierr.ErrInternal
		}
		// Verificación dummy para igualar el timing con el caso existente.
		password.DummyVerify(in.Password)
		log.Debug("login failed: unknown account")
		return "", s.loginFailed(ctx, nil)
	}

	if !u.HasUsablePassword() {
		password.DummyVerify(in.Password)
		log.Debug("login failed: unusable password", logger.UserID(u.ID))
		return "", s.loginFailed(ctx, u)
	}
	if !password.Verify(in.Password, *u.PasswordHash) {
		log.Debug("login failed: password check", logger.UserID(u.ID))
		return "", s.loginFailed(ctx, u)
	}
	if !u.IsActive {
		log.Info("login rejected for inactive account", logger.UserID(u.ID))
		return "", apierr.ErrInactiveAccount
	}

	key, err := EstablishSession(ctx, s.deps.Store, cfg, s.deps.Bus, u)
	if err != nil {
		return "", err
	}
	log.Info("login successful", logger.UserID(u.ID))
	return key, nil
}

func (s *service) loginFailed(ctx context.Context, u *repository.User) error {
	metrics.LoginFailuresTotal.Inc()
	_ = s.deps.Bus.Emit(ctx, events.Event{Name: events.UserLoginFailed, User: u})
	return apierr.ErrInvalidCredentials
}

func (s *service) Logout(ctx context.Context, caller *repository.User) error {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("token"), logger.Op("Logout"))

	if !s.deps.Cfg.Auth.Session.Enabled {
		return nil
	}

	deleted, err := s.deps.Store.Sessions().DeleteForUser(ctx, caller.ID)
	if err != nil {
		return apierr.ErrInternal
	}
	if deleted {
		if err := s.deps.Bus.Emit(ctx, events.Event{Name: events.TokenDestroyed, User: caller}); err != nil {
			return apierr.ErrInternal
		}
	}
	if err := s.deps.Bus.Emit(ctx, events.Event{Name: events.UserLoggedOut, User: caller}); err != nil {
		return apierr.ErrInternal
	}

	log.Info("logout", logger.UserID(caller.ID))
	return nil
}
