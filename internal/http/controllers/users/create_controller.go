package users

import (
	"net/http"

	"github.com/dropDatabas3/accountd/internal/http/apierr"
	dto "github.com/dropDatabas3/accountd/internal/http/dto/users"
	"github.com/dropDatabas3/accountd/internal/http/helpers"
	svc "github.com/dropDatabas3/accountd/internal/http/services/users"
	"github.com/dropDatabas3/accountd/internal/observability/logger"
)

// CreateController maneja el alta de cuentas.
type CreateController struct {
	service svc.Service
}

// NewCreateController crea el controller de alta.
func NewCreateController(service svc.Service) *CreateController {
	return &CreateController{service: service}
}

// Create maneja POST /users/
func (c *CreateController) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("CreateController.Create"))

	var req dto.CreateRequest
	if err := helpers.ReadJSON(w, r, &req); err != nil {
		apierr.WriteError(w, err)
		return
	}

	u, err := c.service.Create(ctx, req)
	if err != nil {
		log.Debug("create rejected", logger.Err(err))
		apierr.WriteError(w, err)
		return
	}

	helpers.WriteJSON(w, http.StatusCreated, toResponse(u))
}
