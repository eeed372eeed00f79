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

func (s *service) ResetPassword(ctx context.Context, emailAddr string) error {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("users"), logger.Op("ResetPassword"))

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
		if s.deps.Cfg.Auth.PasswordResetShowEmailNotFound {
			return apierr.ErrEmailNotFound
		}
		log.Debug("no resettable account for email")
		return nil
	}

	for _, u := range recipients {
		if err := s.deps.Mailer.SendPasswordReset(ctx, u); err != nil {
			log.Error("password reset email failed", logger.Err(err), logger.UserID(u.ID))
		}
	}
	return nil
}

// resettableUsers filtra las cuentas que pueden recibir un link de reset:
// solo las que tienen un password utilizable.
func resettableUsers(matches []repository.User) []*repository.User {
	var out []*repository.User
	for i := range matches {
		if matches[i].HasUsablePassword() {
			out = append(out, &matches[i])
		}
	}
	return out
}

// applyNewPassword valida retype y política, y persiste el hash nuevo.
func (s *service) applyNewPassword(ctx context.Context, u *repository.User, newPassword, retype string, requireRetype bool) error {
	if newPassword == "" {
		return apierr.Field(http.StatusBadRequest, "validation_error", "new_password", validation.Required())
	}
	if requireRetype && retype != newPassword {
		return apierr.ErrPasswordMismatch
	}
	if ok, reasons := s.deps.Policy.Validate(newPassword, u.LoginValue(s.deps.Cfg.Auth.LoginField)); !ok {
		return &apierr.Error{
			Status: http.StatusBadRequest,
			Code:   "password_invalid",
			Fields: map[string][]string{"new_password": reasons},
		}
	}

	hash, err := password.Hash(password.Default, newPassword)
	if err != nil {
		return apierr.ErrInternal
	}
	if err := s.deps.Store.Users().SetPassword(ctx, u.ID, &hash); err != nil {
		return apierr.ErrInternal
	}
	return nil
}

// afterPasswordChange corre los efectos comunes a los dos flujos de cambio.
func (s *service) afterPasswordChange(ctx context.Context, u *repository.User, signal events.Name) error {
	log := logger.From(ctx)

	if s.deps.Cfg.Auth.LogoutOnPasswordChange {
		if _, err := s.deps.Store.Sessions().DeleteForUser(ctx, u.ID); err != nil {
			log.Error("session invalidation failed", logger.Err(err), logger.UserID(u.ID))
			return apierr.ErrInternal
		}
	}

	if err := s.deps.Bus.Emit(ctx, events.Event{Name: signal, User: u}); err != nil {
		return apierr.ErrInternal
	}

	if s.deps.Cfg.Auth.PasswordChangedEmailConfirmation {
		if err := s.deps.Mailer.SendPasswordChangedConfirmation(ctx, u); err != nil {
			log.Error("password changed email failed", logger.Err(err), logger.UserID(u.ID))
		}
	}
	return nil
}

func (s *service) ResetPasswordConfirm(ctx context.Context, in dto.PasswordResetConfirmRequest) error {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("users"), logger.Op("ResetPasswordConfirm"))

	u, err := s.resolveUID(ctx, in.UID)
	if err != nil {
		return err
	}
	if err := s.checkLinkToken(u, linktoken.PurposePasswordReset, in.Token); err != nil {
		return err
	}
	if err := s.applyNewPassword(ctx, u, in.NewPassword, in.ReNewPassword, s.deps.Cfg.Auth.PasswordResetConfirmRetype); err != nil {
		return err
	}

	// El canje del link cuenta como login del dueño de la cuenta.
	if err := s.deps.Store.Users().SetLastLogin(ctx, u.ID, time.Now().UTC()); err != nil {
		return apierr.ErrInternal
	}

	log.Info("password reset completed", logger.UserID(u.ID))
	return s.afterPasswordChange(ctx, u, events.PasswordResetCompleted)
}

func (s *service) SetPassword(ctx context.Context, caller *repository.User, in dto.SetPasswordRequest) error {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("users"), logger.Op("SetPassword"))

	if !caller.HasUsablePassword() || !password.Verify(in.CurrentPassword, *caller.PasswordHash) {
		return apierr.ErrInvalidPassword
	}
	if err := s.applyNewPassword(ctx, caller, in.NewPassword, in.ReNewPassword, s.deps.Cfg.Auth.SetPasswordRetype); err != nil {
		return err
	}

	log.Info("password updated", logger.UserID(caller.ID))
	return s.afterPasswordChange(ctx, caller, events.PasswordUpdated)
}
