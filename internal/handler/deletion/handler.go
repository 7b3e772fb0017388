package deletion

import (
	"github.com/gin-gonic/gin"

	"github.com/careplus/frontdesk/internal/deletion"
	"github.com/careplus/frontdesk/internal/handler"
	"github.com/careplus/frontdesk/internal/handler/panel"
	"github.com/careplus/frontdesk/internal/search"
	"github.com/careplus/frontdesk/internal/workspace"
	"github.com/careplus/frontdesk/pkg/errors"
	"github.com/careplus/frontdesk/pkg/httputil"
)

type Handler struct {
	desk handler.Desk
}

func NewHandler(workspaces *workspace.Store) *Handler {
	return &Handler{desk: handler.Desk{Workspaces: workspaces}}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	deletions := r.Group("/deletions/:kind")
	{
		deletions.GET("", h.with(h.View))
		deletions.POST("/input", h.withPanel(handler.PanelInput))
		deletions.POST("/submit", h.withPanel(handler.PanelSubmit))
		deletions.POST("/select/:key", h.with(h.Select))
		deletions.POST("/confirm", h.with(h.Confirm))
		deletions.POST("/cancel", h.with(h.Cancel))
		deletions.POST("/dismiss", h.with(h.Dismiss))
	}
}

// with resolves :kind to the caller's delete flow. Each kind is deleted by
// the role that manages it.
func (h *Handler) with(fn func(*gin.Context, deletion.Control)) gin.HandlerFunc {
	return func(c *gin.Context) {
		kind := c.Param("kind")
		role, ok := panel.Owners[kind]
		if !ok {
			httputil.RespondWithError(c, errors.NotFound("delete flow", nil))
			return
		}
		if !handler.RequireRole(c, role) {
			return
		}
		ws, ok := h.desk.Workspace(c)
		if !ok {
			return
		}
		flow, err := ws.Deletion(kind)
		if err != nil {
			httputil.RespondWithError(c, err)
			return
		}
		fn(c, flow)
	}
}

func (h *Handler) withPanel(fn func(*gin.Context, search.Control)) gin.HandlerFunc {
	return h.with(func(c *gin.Context, flow deletion.Control) {
		fn(c, flow.Panel())
	})
}

func (h *Handler) View(c *gin.Context, flow deletion.Control) {
	httputil.RespondWithSuccess(c, flow.View())
}

// Select asks for confirmation of the record with :key.
func (h *Handler) Select(c *gin.Context, flow deletion.Control) {
	handler.RespondView(c, flow.Select(c.Request.Context(), c.Param("key")), flow.View())
}

func (h *Handler) Confirm(c *gin.Context, flow deletion.Control) {
	modal, err := flow.Confirm(c.Request.Context())
	handler.RespondModal(c, modal, err)
}

func (h *Handler) Cancel(c *gin.Context, flow deletion.Control) {
	flow.Cancel()
	httputil.RespondWithSuccess(c, flow.View())
}

func (h *Handler) Dismiss(c *gin.Context, flow deletion.Control) {
	flow.Dismiss()
	httputil.RespondWithSuccess(c, flow.View())
}
