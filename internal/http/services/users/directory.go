package users

import (
	"context"
	"net/http"
	"strings"

	"github.com/dropDatabas3/accountd/internal/config"
	"github.com/dropDatabas3/accountd/internal/domain/repository"
	"github.com/dropDatabas3/accountd/internal/events"
	"github.com/dropDatabas3/accountd/internal/http/apierr"
	dto "github.com/dropDatabas3/accountd/internal/http/dto/users"
	"github.com/dropDatabas3/accountd/internal/observability/logger"
	"github.com/dropDatabas3/accountd/internal/security/password"
	"github.com/dropDatabas3/accountd/internal/validation"
)

// authorizeAccess decide si caller puede ver/tocar la cuenta id.
// Con hide_users la denegación se reporta como 404 para ocultar existencia;
// el modo read-only de admin deja pasar lecturas de no-dueños.
func (s *service) authorizeAccess(caller *repository.User, id string, readOnly bool) error {
	if caller.IsStaff || caller.ID == id {
		return nil
	}
	mode := s.deps.Cfg.Permission("user")
	if readOnly && mode == config.PermCurrentUserOrAdminReadOnly {
		return nil
	}
	if s.deps.Cfg.Auth.HideUsers {
		return apierr.ErrNotFound
	}
	return apierr.ErrPermissionDenied
}

func (s *service) List(ctx context.Context, caller *repository.User, limit, offset int) ([]repository.User, error) {
	filter := repository.ListUsersFilter{Limit: limit, Offset: offset}
	if s.deps.Cfg.Auth.HideUsers && !caller.IsStaff {
		filter.OnlyID = caller.ID
	}
	list, err := s.deps.Store.Users().List(ctx, filter)
	if err != nil {
		return nil, apierr.ErrInternal
	}
	return list, nil
}

func (s *service) Get(ctx context.Context, caller *repository.User, id string) (*repository.User, error) {
	if err := s.authorizeAccess(caller, id, true); err != nil {
		return nil, err
	}
	u, err := s.deps.Store.Users().GetByPK(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apierr.ErrNotFound
		}
		return nil, apierr.ErrInternal
	}
	return u, nil
}

func (s *service) Update(ctx context.Context, caller *repository.User, id string, in dto.UpdateRequest) (*repository.User, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("users"), logger.Op("Update"))

	if err := s.authorizeAccess(caller, id, false); err != nil {
		return nil, err
	}

	prev, err := s.deps.Store.Users().GetByPK(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apierr.ErrNotFound
		}
		return nil, apierr.ErrInternal
	}

	if in.Email != nil {
		norm := strings.TrimSpace(strings.ToLower(*in.Email))
		if norm != "" {
			if msg := validation.Email(norm); msg != "" {
				return nil, apierr.Field(http.StatusBadRequest, "validation_error", "email", msg)
			}
		}
		in.Email = &norm
	}
	if in.Mobile != nil {
		norm := strings.TrimSpace(*in.Mobile)
		if norm != "" {
			if msg := validation.Mobile(norm); msg != "" {
				return nil, apierr.Field(http.StatusBadRequest, "validation_error", "mobile", msg)
			}
		}
		in.Mobile = &norm
	}

	u, err := s.deps.Store.Users().Update(ctx, id, repository.UpdateUserInput{Email: in.Email, Mobile: in.Mobile})
	if err != nil {
		switch {
		case repository.IsNotFound(err):
			return nil, apierr.ErrNotFound
		case repository.IsConflict(err):
			return nil, apierr.Field(http.StatusBadRequest, "validation_error", "email",
				"A user with that email already exists.")
		}
		log.Error("update failed", logger.Err(err))
		return nil, apierr.ErrInternal
	}

	if err := s.deps.Bus.Emit(ctx, events.Event{Name: events.UserUpdated, User: u}); err != nil {
		return nil, apierr.ErrInternal
	}

	// Un email nuevo queda sin verificar: la cuenta vuelve a inactiva y se
	// manda el link de activación otra vez.
	if s.deps.Cfg.Auth.SendActivationEmail && u.Email != "" && u.Email != prev.Email {
		if err := s.deps.Store.Users().SetActive(ctx, u.ID, false); err != nil {
			return nil, apierr.ErrInternal
		}
		u.IsActive = false
		if err := s.deps.Mailer.SendActivation(ctx, u); err != nil {
			log.Error("activation email failed", logger.Err(err), logger.UserID(u.ID))
		}
	}
	return u, nil
}

func (s *service) Delete(ctx context.Context, caller *repository.User, id, currentPassword string) error {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("users"), logger.Op("Delete"))

	if err := s.authorizeAccess(caller, id, false); err != nil {
		return err
	}

	// El borrado siempre exige re-autenticación con el password del caller.
	if !caller.HasUsablePassword() || !password.Verify(currentPassword, *caller.PasswordHash) {
		return apierr.ErrInvalidPassword
	}

	u, err := s.deps.Store.Users().GetByPK(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return apierr.ErrNotFound
		}
		return apierr.ErrInternal
	}

	if _, err := s.deps.Store.Sessions().DeleteForUser(ctx, id); err != nil {
		return apierr.ErrInternal
	}
	if err := s.deps.Store.Challenges().DeleteForUser(ctx, id); err != nil {
		return apierr.ErrInternal
	}
	if err := s.deps.Store.Users().Delete(ctx, id); err != nil {
		return apierr.ErrInternal
	}

	log.Info("user deleted", logger.UserID(id))
	if err := s.deps.Bus.Emit(ctx, events.Event{Name: events.UserDeleted, User: u}); err != nil {
		return apierr.ErrInternal
	}
	return nil
}
