package panel

import (
	"github.com/gin-gonic/gin"

	"github.com/careplus/frontdesk/internal/handler"
	"github.com/careplus/frontdesk/internal/model"
	"github.com/careplus/frontdesk/internal/search"
	"github.com/careplus/frontdesk/internal/workspace"
	"github.com/careplus/frontdesk/pkg/errors"
	"github.com/careplus/frontdesk/pkg/httputil"
)

// Owners maps each panel kind to the role that browses it.
var Owners = map[string]model.Role{
	workspace.Patients:      model.RoleReceptionist,
	workspace.Doctors:       model.RoleAdmin,
	workspace.Receptionists: model.RoleAdmin,
	workspace.Appointments:  model.RoleAdmin,
}

type Handler struct {
	desk handler.Desk
}

func NewHandler(workspaces *workspace.Store) *Handler {
	return &Handler{desk: handler.Desk{Workspaces: workspaces}}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	panels := r.Group("/panels/:panel")
	{
		panels.GET("", h.with(handler.RespondCurrent))
		panels.POST("/input", h.with(handler.PanelInput))
		panels.POST("/submit", h.with(handler.PanelSubmit))
		panels.POST("/select/:key", h.with(handler.PanelSelect))
	}
}

// with resolves the :panel parameter to a panel the caller's role owns.
func (h *Handler) with(fn func(*gin.Context, search.Control)) gin.HandlerFunc {
	return func(c *gin.Context) {
		kind := c.Param("panel")
		role, ok := Owners[kind]
		if !ok {
			httputil.RespondWithError(c, errors.NotFound("panel", nil))
			return
		}
		if !handler.RequireRole(c, role) {
			return
		}
		ws, ok := h.desk.Workspace(c)
		if !ok {
			return
		}
		ctl, err := ws.Panel(kind)
		if err != nil {
			httputil.RespondWithError(c, err)
			return
		}
		fn(c, ctl)
	}
}
