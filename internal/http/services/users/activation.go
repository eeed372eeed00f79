package users

import (
	"context"
	"errors"
	"strings"

	"github.com/dropDatabas3/accountd/internal/domain/repository"
	"github.com/dropDatabas3/accountd/internal/events"
	"github.com/dropDatabas3/accountd/internal/http/apierr"
	dto "github.com/dropDatabas3/accountd/internal/http/dto/users"
	"github.com/dropDatabas3/accountd/internal/metrics"
	"github.com/dropDatabas3/accountd/internal/observability/logger"
	"github.com/dropDatabas3/accountd/internal/security/linktoken"
	"github.com/dropDatabas3/accountd/internal/validation"
)

// resolveUID decodifica el uid y carga el usuario. Cualquier fallo colapsa
// al mismo error para no revelar existencia.
func (s *service) resolveUID(ctx context.Context, uid string) (*repository.User, error) {
	pk, err := linktoken.DecodeUID(uid)
	if err != nil {
		return nil, apierr.ErrInvalidUID
	}
	u, err := s.deps.Store.Users().GetByPK(ctx, pk)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apierr.ErrInvalidUID
		}
		return nil, apierr.ErrInternal
	}
	return u, nil
}

// checkLinkToken traduce los errores del codec al contrato HTTP.
func (s *service) checkLinkToken(u *repository.User, p linktoken.Purpose, token string) error {
	switch err := s.deps.Codec.Check(u, p, token); {
	case err == nil:
		return nil
	case errors.Is(err, linktoken.ErrStaleToken):
		return apierr.ErrStaleToken
	default:
		return apierr.ErrInvalidToken
	}
}

func (s *service) Activate(ctx context.Context, in dto.ActivationRequest) error {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("users"), logger.Op("Activate"))

	u, err := s.resolveUID(ctx, in.UID)
	if err != nil {
		return err
	}
	if err := s.checkLinkToken(u, linktoken.PurposeActivation, in.Token); err != nil {
		return err
	}

	if err := s.deps.Store.Users().SetActive(ctx, u.ID, true); err != nil {
		log.Error("set active failed", logger.Err(err), logger.UserID(u.ID))
		return apierr.ErrInternal
	}
	u.IsActive = true
	metrics.ActivationsTotal.Inc()
	log.Info("user activated", logger.UserID(u.ID))

	if err := s.deps.Bus.Emit(ctx, events.Event{Name: events.UserActivated, User: u}); err != nil {
		return apierr.ErrInternal
	}

	if s.deps.Cfg.Auth.SendConfirmationEmail {
		if err := s.deps.Mailer.SendConfirmation(ctx, u); err != nil {
			log.Error("confirmation email failed", logger.Err(err), logger.UserID(u.ID))
		}
	}
	return nil
}

func (s *service) ResendActivation(ctx context.Context, emailAddr string) error {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("users"), logger.Op("ResendActivation"))

	if !s.deps.Cfg.Auth.SendActivationEmail {
		return apierr.ErrActivationDisabled
	}

	emailAddr = strings.TrimSpace(strings.ToLower(emailAddr))
	if msg := validation.Email(emailAddr); msg != "" {
		return apierr.Field(400, "validation_error", "email", msg)
	}

	u, err := s.deps.Store.Users().GetInactiveByEmail(ctx, emailAddr)
	if err != nil {
		if repository.IsNotFound(err) {
			// Silencioso: no se revela si el email existe.
			log.Debug("no inactive account for email")
			return nil
		}
		return apierr.ErrInternal
	}

	// Las cuentas sin password utilizable (passwordless, webauthn) no activan
	// por este camino; el silencio preserva el ocultamiento.
	if !u.HasUsablePassword() {
		log.Debug("inactive account without usable password")
		return nil
	}

	if err := s.deps.Mailer.SendActivation(ctx, u); err != nil {
		log.Error("activation email failed", logger.Err(err), logger.UserID(u.ID))
	}
	return nil
}
