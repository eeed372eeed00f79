// Package passwordless implementa el motor de challenges: emisión del par
// long/short token y el canje por un token de sesión.
package passwordless

import (
	"context"
	"strings"
	"time"

	"github.com/dropDatabas3/accountd/internal/config"
	"github.com/dropDatabas3/accountd/internal/domain/repository"
	"github.com/dropDatabas3/accountd/internal/email"
	"github.com/dropDatabas3/accountd/internal/events"
	"github.com/dropDatabas3/accountd/internal/http/apierr"
	dto "github.com/dropDatabas3/accountd/internal/http/dto/passwordless"
	tokensvc "github.com/dropDatabas3/accountd/internal/http/services/token"
	"github.com/dropDatabas3/accountd/internal/metrics"
	"github.com/dropDatabas3/accountd/internal/observability/logger"
	tokens "github.com/dropDatabas3/accountd/internal/security/token"
	"github.com/dropDatabas3/accountd/internal/store"
	"github.com/dropDatabas3/accountd/internal/validation"
)

// createRetries acota los reintentos ante colisión de token aleatorio.
const createRetries = 5

// SMSSender envía el challenge por SMS. El transporte concreto depende del
// despliegue; LogSMSSender sirve para dev.
type SMSSender interface {
	Send(ctx context.Context, mobile, longToken, shortToken string) error
}

// LogSMSSender loguea el challenge en vez de enviarlo.
type LogSMSSender struct{}

func (LogSMSSender) Send(ctx context.Context, mobile, longToken, shortToken string) error {
	logger.From(ctx).Info("sms challenge (log transport)",
		logger.String("mobile", mobile),
		logger.String("short_token", shortToken),
	)
	return nil
}

// Service define las operaciones passwordless.
type Service interface {
	// Request emite un challenge y lo envía al identificador.
	Request(ctx context.Context, method, identifier string) error
	// Exchange canjea un challenge por un token de sesión.
	Exchange(ctx context.Context, in dto.ExchangeRequest) (string, error)
}

// Deps contiene las dependencias del service passwordless.
type Deps struct {
	Store  store.Store
	Cfg    *config.Config
	Bus    *events.Bus
	Mailer *email.Dispatcher
	SMS    SMSSender
}

type service struct {
	deps Deps
}

// NewService crea el service passwordless.
func NewService(deps Deps) Service {
	if deps.SMS == nil {
		deps.SMS = LogSMSSender{}
	}
	return &service{deps: deps}
}

func (s *service) Request(ctx context.Context, method, identifier string) error {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("passwordless"), logger.Op("Request"))
	cfg := s.deps.Cfg

	identifier = strings.TrimSpace(identifier)
	var msg string
	if method == config.MethodEmail {
		identifier = strings.ToLower(identifier)
		msg = validation.Email(identifier)
	} else {
		msg = validation.Mobile(identifier)
	}
	if msg != "" {
		return apierr.Field(400, "validation_error", method, msg)
	}

	u, err := s.deps.Store.Users().GetByIdentifier(ctx, method, identifier)
	if err != nil {
		if !repository.IsNotFound(err) {
			return apierr.ErrInternal
		}
		if !cfg.Passwordless.RegisterNonexistentUsers {
			log.Debug("no account for identifier and registration disabled")
			return apierr.ErrCannotSendToken
		}
		u, err = s.registerForIdentifier(ctx, method, identifier)
		if err != nil {
			return err
		}
	}

	ch, err := s.issueChallenge(ctx, u, method)
	if err != nil {
		return err
	}

	if method == config.MethodEmail {
		err = s.deps.Mailer.SendPasswordlessRequest(ctx, u, ch.LongToken, ch.ShortToken)
	} else {
		err = s.deps.SMS.Send(ctx, u.Mobile, ch.LongToken, ch.ShortToken)
	}
	if err != nil {
		log.Error("challenge delivery failed", logger.Err(err), logger.UserID(u.ID))
		return apierr.ErrCannotSendToken
	}

	metrics.ChallengesIssuedTotal.Inc()
	log.Info("challenge issued", logger.UserID(u.ID), logger.String("method", method))
	return nil
}

// registerForIdentifier crea la cuenta implícita del flujo passwordless:
// username aleatorio, sin password utilizable.
func (s *service) registerForIdentifier(ctx context.Context, method, identifier string) (*repository.User, error) {
	log := logger.From(ctx)

	for i := 0; i < createRetries; i++ {
		username, err := tokens.RandomUsername(16)
		if err != nil {
			return nil, apierr.ErrInternal
		}
		input := repository.CreateUserInput{Username: username, IsActive: true}
		if method == config.MethodEmail {
			input.Email = identifier
		} else {
			input.Mobile = identifier
		}

		u, err := s.deps.Store.Users().Create(ctx, input)
		if err == nil {
			log.Info("passwordless account created", logger.UserID(u.ID))
			if err := s.deps.Bus.Emit(ctx, events.Event{Name: events.UserRegistered, User: u}); err != nil {
				return nil, apierr.ErrInternal
			}
			return u, nil
		}
		if !repository.IsConflict(err) {
			return nil, apierr.ErrInternal
		}
	}
	log.Error("passwordless account creation exhausted retries")
	return nil, apierr.ErrInternal
}

// issueChallenge borra los challenges previos del usuario y emite uno nuevo,
// reintentando ante colisión global de tokens.
func (s *service) issueChallenge(ctx context.Context, u *repository.User, method string) (*repository.Challenge, error) {
	log := logger.From(ctx)
	cfg := s.deps.Cfg.Passwordless

	if err := s.deps.Store.Challenges().DeleteForUser(ctx, u.ID); err != nil {
		return nil, apierr.ErrInternal
	}

	for i := 0; i < createRetries; i++ {
		long, err := tokens.Challenge(cfg.LongTokenLength, cfg.LongTokenChars)
		if err != nil {
			return nil, apierr.ErrInternal
		}
		short, err := tokens.Challenge(cfg.ShortTokenLength, cfg.ShortTokenChars)
		if err != nil {
			return nil, apierr.ErrInternal
		}

		ch, err := s.deps.Store.Challenges().Create(ctx, repository.CreateChallengeInput{
			LongToken:      long,
			ShortToken:     short,
			UserID:         u.ID,
			IdentifierKind: method,
		})
		if err == nil {
			return ch, nil
		}
		if !repository.IsConflict(err) {
			return nil, apierr.ErrInternal
		}
	}
	log.Error("challenge creation exhausted retries", logger.UserID(u.ID))
	return nil, apierr.ErrInternal
}

func (s *service) Exchange(ctx context.Context, in dto.ExchangeRequest) (string, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("passwordless"), logger.Op("Exchange"))
	cfg := s.deps.Cfg.Passwordless

	value := strings.TrimSpace(in.Token)
	if value == "" {
		return "", apierr.Field(400, "validation_error", "token", validation.Required())
	}

	// Limpieza oportunista de challenges vencidos.
	if n, err := s.deps.Store.Challenges().PurgeStale(ctx, cfg.TokenLifetime, cfg.MaxTokenUses); err == nil && n > 0 {
		log.Debug("stale challenges purged", logger.Count(n))
	}

	ch, err := s.findChallenge(ctx, value, in)
	if err != nil {
		return "", err
	}

	if !ch.Valid(cfg.TokenLifetime, cfg.MaxTokenUses, time.Now().UTC()) {
		return "", apierr.ErrInvalidCredentials
	}
	redeemed, err := s.deps.Store.Challenges().Redeem(ctx, ch.ID, cfg.MaxTokenUses)
	if err != nil {
		return "", apierr.ErrInternal
	}
	if !redeemed {
		return "", apierr.ErrInvalidCredentials
	}

	u, err := s.deps.Store.Users().GetByPK(ctx, ch.UserID)
	if err != nil {
		return "", apierr.ErrInvalidCredentials
	}

	// El canje activa la cuenta: el identificador quedó verificado.
	if !u.IsActive {
		if err := s.deps.Store.Users().SetActive(ctx, u.ID, true); err != nil {
			return "", apierr.ErrInternal
		}
		u.IsActive = true
	}
	if err := s.deps.Bus.Emit(ctx, events.Event{Name: events.UserActivated, User: u}); err != nil {
		return "", apierr.ErrInternal
	}

	key, err := tokensvc.EstablishSession(ctx, s.deps.Store, s.deps.Cfg, s.deps.Bus, u)
	if err != nil {
		return "", err
	}

	metrics.ChallengesRedeemedTotal.Inc()
	log.Info("challenge redeemed", logger.UserID(u.ID))
	return key, nil
}

// findChallenge resuelve el token contra el store: primero como long token o
// short token por email, después por mobile.
func (s *service) findChallenge(ctx context.Context, value string, in dto.ExchangeRequest) (*repository.Challenge, error) {
	emailID := strings.TrimSpace(strings.ToLower(in.Email))
	mobileID := strings.TrimSpace(in.Mobile)

	ch, err := s.deps.Store.Challenges().Find(ctx, value, config.MethodEmail, emailID)
	if err == nil {
		return ch, nil
	}
	if !repository.IsNotFound(err) {
		return nil, apierr.ErrInternal
	}

	if mobileID != "" {
		ch, err = s.deps.Store.Challenges().Find(ctx, value, config.MethodMobile, mobileID)
		if err == nil {
			return ch, nil
		}
		if !repository.IsNotFound(err) {
			return nil, apierr.ErrInternal
		}
	}
	return nil, apierr.ErrInvalidCredentials
}
