package users

import (
	"net/http"

	"github.com/dropDatabas3/accountd/internal/http/apierr"
	dto "github.com/dropDatabas3/accountd/internal/http/dto/users"
	"github.com/dropDatabas3/accountd/internal/http/helpers"
	"github.com/dropDatabas3/accountd/internal/http/middlewares"
	svc "github.com/dropDatabas3/accountd/internal/http/services/users"
	"github.com/dropDatabas3/accountd/internal/observability/logger"
)

// PasswordController maneja los flujos de cambio y reset de password.
type PasswordController struct {
	service svc.Service
}

// NewPasswordController crea el controller de password.
func NewPasswordController(service svc.Service) *PasswordController {
	return &PasswordController{service: service}
}

// Reset maneja POST /users/reset_password/
func (c *PasswordController) Reset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req dto.EmailRequest
	if err := helpers.ReadJSON(w, r, &req); err != nil {
		apierr.WriteError(w, err)
		return
	}

	if err := c.service.ResetPassword(ctx, req.Email); err != nil {
		apierr.WriteError(w, err)
		return
	}

	helpers.NoContent(w)
}

// ResetConfirm maneja POST /users/reset_password_confirm/
func (c *PasswordController) ResetConfirm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("PasswordController.ResetConfirm"))

	var req dto.PasswordResetConfirmRequest
	if err := helpers.ReadJSON(w, r, &req); err != nil {
		apierr.WriteError(w, err)
		return
	}

	if err := c.service.ResetPasswordConfirm(ctx, req); err != nil {
		log.Debug("reset confirm rejected", logger.Err(err))
		apierr.WriteError(w, err)
		return
	}

	helpers.NoContent(w)
}

// Set maneja POST /users/set_password/
func (c *PasswordController) Set(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caller := middlewares.GetUser(ctx)
	if caller == nil {
		apierr.WriteError(w, apierr.ErrNotAuthenticated)
		return
	}

	var req dto.SetPasswordRequest
	if err := helpers.ReadJSON(w, r, &req); err != nil {
		apierr.WriteError(w, err)
		return
	}

	if err := c.service.SetPassword(ctx, caller, req); err != nil {
		apierr.WriteError(w, err)
		return
	}

	helpers.NoContent(w)
}
