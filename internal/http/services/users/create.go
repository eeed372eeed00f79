package users

import (
	"context"
	"net/http"
	"strings"

	"github.com/dropDatabas3/accountd/internal/domain/repository"
	"github.com/dropDatabas3/accountd/internal/events"
	"github.com/dropDatabas3/accountd/internal/http/apierr"
	dto "github.com/dropDatabas3/accountd/internal/http/dto/users"
	"github.com/dropDatabas3/accountd/internal/observability/logger"
	"github.com/dropDatabas3/accountd/internal/security/password"
	"github.com/dropDatabas3/accountd/internal/validation"
)

func (s *service) Create(ctx context.Context, in dto.CreateRequest) (*repository.User, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("users"), logger.Op("Create"))
	cfg := s.deps.Cfg

	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	in.Mobile = strings.TrimSpace(in.Mobile)

	fields := map[string][]string{}
	if cfg.Auth.LoginField == repository.LoginFieldEmail {
		if msg := validation.Email(in.Email); msg != "" {
			fields["email"] = append(fields["email"], msg)
		}
		// username opcional en despliegues con login por email
		if in.Username != "" {
			if msg := validation.Username(in.Username); msg != "" {
				fields["username"] = append(fields["username"], msg)
			}
		}
	} else {
		if msg := validation.Username(in.Username); msg != "" {
			fields["username"] = append(fields["username"], msg)
		}
		if in.Email != "" {
			if msg := validation.Email(in.Email); msg != "" {
				fields["email"] = append(fields["email"], msg)
			}
		}
	}
	if in.Password == "" {
		fields["password"] = append(fields["password"], validation.Required())
	}
	if len(fields) > 0 {
		return nil, apierr.Validation(fields)
	}

	if cfg.Auth.UserCreatePasswordRetype && in.RePassword != in.Password {
		return nil, apierr.ErrPasswordMismatch
	}

	username := in.Username
	if username == "" {
		// login por email sin username explícito: el email hace de username
		username = in.Email
	}

	login := username
	if cfg.Auth.LoginField == repository.LoginFieldEmail {
		login = in.Email
	}
	if ok, reasons := s.deps.Policy.Validate(in.Password, login); !ok {
		return nil, &apierr.Error{
			Status: http.StatusBadRequest,
			Code:   "password_invalid",
			Fields: map[string][]string{"password": reasons},
		}
	}

	hash, err := password.Hash(password.Default, in.Password)
	if err != nil {
		log.Error("password hash failed", logger.Err(err))
		return nil, apierr.ErrInternal
	}

	u, err := s.deps.Store.Users().Create(ctx, repository.CreateUserInput{
		Username:     username,
		Email:        in.Email,
		Mobile:       in.Mobile,
		PasswordHash: &hash,
		IsActive:     !cfg.Auth.SendActivationEmail,
	})
	if err != nil {
		if repository.IsConflict(err) {
			log.Debug("create conflict")
			return nil, apierr.ErrCannotCreateUser
		}
		log.Error("create user failed", logger.Err(err))
		return nil, apierr.ErrInternal
	}

	log.Info("user created", logger.UserID(u.ID))

	if err := s.deps.Bus.Emit(ctx, events.Event{Name: events.UserRegistered, User: u}); err != nil {
		return nil, apierr.ErrInternal
	}

	// Fallos de transporte no revierten el alta: el usuario ya existe.
	switch {
	case cfg.Auth.SendActivationEmail:
		if err := s.deps.Mailer.SendActivation(ctx, u); err != nil {
			log.Error("activation email failed", logger.Err(err), logger.UserID(u.ID))
		}
	case cfg.Auth.SendConfirmationEmail:
		if err := s.deps.Mailer.SendConfirmation(ctx, u); err != nil {
			log.Error("confirmation email failed", logger.Err(err), logger.UserID(u.ID))
		}
	}

	return u, nil
}
