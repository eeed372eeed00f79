package users

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/accountd/internal/http/apierr"
	dto "github.com/dropDatabas3/accountd/internal/http/dto/users"
	"github.com/dropDatabas3/accountd/internal/http/helpers"
	"github.com/dropDatabas3/accountd/internal/http/middlewares"
	svc "github.com/dropDatabas3/accountd/internal/http/services/users"
	"github.com/dropDatabas3/accountd/internal/observability/logger"
)

// DirectoryController maneja el listado y el detalle de cuentas, incluido el
// alias /users/me/.
type DirectoryController struct {
	service svc.Service
}

// NewDirectoryController crea el controller de directorio.
func NewDirectoryController(service svc.Service) *DirectoryController {
	return &DirectoryController{service: service}
}

// List maneja GET /users/
func (c *DirectoryController) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	caller := middlewares.GetUser(ctx)
	if caller == nil {
		apierr.WriteError(w, apierr.ErrNotAuthenticated)
		return
	}

	limit := queryInt(r, "limit", 0)
	offset := queryInt(r, "offset", 0)

	list, err := c.service.List(ctx, caller, limit, offset)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	out := make([]dto.UserResponse, 0, len(list))
	for i := range list {
		out = append(out, toResponse(&list[i]))
	}
	helpers.WriteJSON(w, http.StatusOK, out)
}

// Detail maneja GET /users/{id}/
func (c *DirectoryController) Detail(w http.ResponseWriter, r *http.Request) {
	c.detail(w, r, chi.URLParam(r, "id"))
}

// Me maneja GET /users/me/
func (c *DirectoryController) Me(w http.ResponseWriter, r *http.Request) {
	caller := middlewares.GetUser(r.Context())
	if caller == nil {
		apierr.WriteError(w, apierr.ErrNotAuthenticated)
		return
	}
	c.detail(w, r, caller.ID)
}

func (c *DirectoryController) detail(w http.ResponseWriter, r *http.Request, id string) {
	ctx := r.Context()

	caller := middlewares.GetUser(ctx)
	if caller == nil {
		apierr.WriteError(w, apierr.ErrNotAuthenticated)
		return
	}

	u, err := c.service.Get(ctx, caller, id)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, toResponse(u))
}

// Update maneja PUT y PATCH /users/{id}/
func (c *DirectoryController) Update(w http.ResponseWriter, r *http.Request) {
	c.update(w, r, chi.URLParam(r, "id"))
}

// UpdateMe maneja PUT y PATCH /users/me/
func (c *DirectoryController) UpdateMe(w http.ResponseWriter, r *http.Request) {
	caller := middlewares.GetUser(r.Context())
	if caller == nil {
		apierr.WriteError(w, apierr.ErrNotAuthenticated)
		return
	}
	c.update(w, r, caller.ID)
}

func (c *DirectoryController) update(w http.ResponseWriter, r *http.Request, id string) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("DirectoryController.Update"))

	caller := middlewares.GetUser(ctx)
	if caller == nil {
		apierr.WriteError(w, apierr.ErrNotAuthenticated)
		return
	}

	var req dto.UpdateRequest
	if err := helpers.ReadJSON(w, r, &req); err != nil {
		apierr.WriteError(w, err)
		return
	}

	u, err := c.service.Update(ctx, caller, id, req)
	if err != nil {
		log.Debug("update rejected", logger.Err(err))
		apierr.WriteError(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, toResponse(u))
}

// Delete maneja DELETE /users/{id}/
func (c *DirectoryController) Delete(w http.ResponseWriter, r *http.Request) {
	c.remove(w, r, chi.URLParam(r, "id"))
}

// DeleteMe maneja DELETE /users/me/
func (c *DirectoryController) DeleteMe(w http.ResponseWriter, r *http.Request) {
	caller := middlewares.GetUser(r.Context())
	if caller == nil {
		apierr.WriteError(w, apierr.ErrNotAuthenticated)
		return
	}
	c.remove(w, r, caller.ID)
}

func (c *DirectoryController) remove(w http.ResponseWriter, r *http.Request, id string) {
	ctx := r.Context()

	caller := middlewares.GetUser(ctx)
	if caller == nil {
		apierr.WriteError(w, apierr.ErrNotAuthenticated)
		return
	}

	var req dto.DeleteRequest
	if err := helpers.ReadJSON(w, r, &req); err != nil {
		apierr.WriteError(w, err)
		return
	}

	if err := c.service.Delete(ctx, caller, id, req.CurrentPassword); err != nil {
		apierr.WriteError(w, err)
		return
	}
	helpers.NoContent(w)
}

func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return def
	}
	return n
}
