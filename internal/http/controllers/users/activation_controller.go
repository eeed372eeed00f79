package users

import (
	"net/http"

	"github.com/dropDatabas3/accountd/internal/http/apierr"
	dto "github.com/dropDatabas3/accountd/internal/http/dto/users"
	"github.com/dropDatabas3/accountd/internal/http/helpers"
	svc "github.com/dropDatabas3/accountd/internal/http/services/users"
	"github.com/dropDatabas3/accountd/internal/observability/logger"
)

// ActivationController maneja la activación de cuentas por link de email.
type ActivationController struct {
	service svc.Service
}

// NewActivationController crea el controller de activación.
func NewActivationController(service svc.Service) *ActivationController {
	return &ActivationController{service: service}
}

// Activate maneja POST /users/activation/
func (c *ActivationController) Activate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("ActivationController.Activate"))

	var req dto.ActivationRequest
	if err := helpers.ReadJSON(w, r, &req); err != nil {
		apierr.WriteError(w, err)
		return
	}

	if err := c.service.Activate(ctx, req); err != nil {
		log.Debug("activation rejected", logger.Err(err))
		apierr.WriteError(w, err)
		return
	}

	helpers.NoContent(w)
}

// Resend maneja POST /users/resend_activation/
func (c *ActivationController) Resend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req dto.EmailRequest
	if err := helpers.ReadJSON(w, r, &req); err != nil {
		apierr.WriteError(w, err)
		return
	}

	if err := c.service.ResendActivation(ctx, req.Email); err != nil {
		apierr.WriteError(w, err)
		return
	}

	helpers.NoContent(w)
}
