package users

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/dropDatabas3/accountd/internal/domain/repository"
	"github.com/dropDatabas3/accountd/internal/events"
	"github.com/dropDatabas3/accountd/internal/http/apierr"
	dto "github.com/dropDatabas3/accountd/internal/http/dto/users"
	"github.com/dropDatabas3/accountd/internal/observability/logger"
	"github.com/dropDatabas3/accountd/internal/security/linktoken"
	"github.com/dropDatabas3/accountd/internal/security/password"
	"github.com/dropDatabas3/accountd/internal/validation"
)

// applyNewLogin valida y persiste el nuevo identificador de login.
func (s *service) applyNewLogin(ctx context.Context, u *repository.User, newLogin, retype string, requireRetype bool) error {
	cfg := s.deps.Cfg
	newLogin = strings.TrimSpace(newLogin)

	field := "new_username"
	var msg string
	if cfg.Auth.LoginField == repository.LoginFieldEmail {
		newLogin = strings.ToLower(newLogin)
		msg = validation.Email(newLogin)
	} else {
		msg = validation.Username(newLogin)
	}
	if msg != "" {
		return apierr.Field(http.StatusBadRequest, "validation_error", field, msg)
	}
	if requireRetype && retype != newLogin {
		return apierr.UsernameMismatch(cfg.Auth.LoginField)
	}

	if err := s.deps.Store.Users().UpdateLogin(ctx, u.ID, cfg.Auth.LoginField, newLogin); err != nil {
		if repository.IsConflict(err) {
			return apierr.Field(http.StatusBadRequest, "validation_error", field,
				"A user with that "+cfg.Auth.LoginField+" already exists.")
		}
		return apierr.ErrInternal
	}

	if cfg.Auth.LoginField == repository.LoginFieldEmail {
		u.Email = newLogin
	} else {
		u.Username = newLogin
	}
	return nil
}

// afterUsernameChange corre los efectos comunes a set_username y al confirm.
func (s *service) afterUsernameChange(ctx context.Context, u *repository.User) error {
	log := logger.From(ctx)

	if err := s.deps.Bus.Emit(ctx, events.Event{Name: events.UsernameUpdated, User: u}); err != nil {
		return apierr.ErrInternal
	}
	if s.deps.Cfg.Auth.UsernameChangedEmailConfirmation {
		if err := s.deps.Mailer.SendUsernameChangedConfirmation(ctx, u); err != nil {
			log.Error("username changed email failed", logger.Err(err), logger.UserID(u.ID))
		}
	}
	return nil
}

func (s *service) SetUsername(ctx context.Context, caller *repository.User, in dto.SetUsernameRequest) error {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("users"), logger.Op("SetUsername"))

	if !caller.HasUsablePassword() || !password.Verify(in.CurrentPassword, *caller.PasswordHash) {
		return apierr.ErrInvalidPassword
	}
	if err := s.applyNewLogin(ctx, caller, in.NewUsername, in.ReNewUsername, s.deps.Cfg.Auth.SetUsernameRetype); err != nil {
		return err
	}

	log.Info("username updated", logger.UserID(caller.ID))
	return s.afterUsernameChange(ctx, caller)
}

func (s *service) ResetUsername(ctx context.Context, emailAddr string) error {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("users"), logger.Op("ResetUsername"))

	emailAddr = strings.TrimSpace(strings.ToLower(emailAddr))
	if msg := validation.Email(emailAddr); msg != "" {
		return apierr.Field(http.StatusBadRequest, "validation_error", "email", msg)
	}

	matches, err := s.deps.Store.Users().GetActiveByEmail(ctx, emailAddr)
	if err != nil {
		return apierr.ErrInternal
	}
	recipients := resettableUsers(matches)
	if len(recipients) == 0 {
		if s.deps.Cfg.Auth.UsernameResetShowEmailNotFound {
			return apierr.ErrEmailNotFound
		}
		log.Debug("no resettable account for email")
		return nil
	}

	for _, u := range recipients {
		if err := s.deps.Mailer.SendUsernameReset(ctx, u); err != nil {
			log.Error("username reset email failed", logger.Err(err), logger.UserID(u.ID))
		}
	}
	return nil
}

func (s *service) ResetUsernameConfirm(ctx context.Context, in dto.UsernameResetConfirmRequest) error {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("users"), logger.Op("ResetUsernameConfirm"))

	u, err := s.resolveUID(ctx, in.UID)
	if err != nil {
		return err
	}
	if err := s.checkLinkToken(u, linktoken.PurposeUsernameReset, in.Token); err != nil {
		return err
	}
	if err := s.applyNewLogin(ctx, u, in.NewUsername, in.ReNewUsername, s.deps.Cfg.Auth.UsernameResetConfirmRetype); err != nil {
		return err
	}

	// El canje del link cuenta como login del dueño de la cuenta.
	if err := s.deps.Store.Users().SetLastLogin(ctx, u.ID, time.Now().UTC()); err != nil {
		return apierr.ErrInternal
	}

	log.Info("username reset completed", logger.UserID(u.ID))
	return s.afterUsernameChange(ctx, u)
}
