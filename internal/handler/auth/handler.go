package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/careplus/frontdesk/internal/model"
	"github.com/careplus/frontdesk/internal/session"
	"github.com/careplus/frontdesk/internal/workspace"
	"github.com/careplus/frontdesk/pkg/errors"
	"github.com/careplus/frontdesk/pkg/httputil"
)

type Handler struct {
	svc        *session.Service
	workspaces *workspace.Store
}

func NewHandler(svc *session.Service, workspaces *workspace.Store) *Handler {
	return &Handler{svc: svc, workspaces: workspaces}
}

// RegisterRoutes mounts the login endpoints, which take no session.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	auth := r.Group("/auth")
	{
		auth.POST("/receptionist/login", h.login(model.RoleReceptionist))
		auth.POST("/admin/login", h.login(model.RoleAdmin))
	}
}

// RegisterSessionRoutes mounts the endpoints of a signed-in user.
func (h *Handler) RegisterSessionRoutes(r *gin.RouterGroup) {
	auth := r.Group("/auth")
	{
		auth.POST("/logout", h.Logout)
		auth.GET("/session", h.Session)
	}
}

func (h *Handler) login(role model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req model.LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httputil.RespondWithError(c, &errors.AppError{Code: errors.ErrUnauthorized, Message: session.MsgInvalidLogin, Err: err})
			return
		}

		tokens, err := h.svc.Login(c.Request.Context(), role, req)
		if err != nil {
			httputil.RespondWithError(c, err)
			return
		}
		httputil.RespondWithSuccess(c, tokens)
	}
}

func (h *Handler) Logout(c *gin.Context) {
	sess, ok := session.FromContext(c)
	if !ok {
		httputil.RespondWithError(c, errors.Unauthorized(nil))
		return
	}
	if err := h.svc.Logout(c.Request.Context(), sess); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	h.workspaces.Drop(sess.ID)
	httputil.RespondWithMessage(c, http.StatusOK, "Signed out.", session.Redirect{Redirect: sess.Role.LoginPath()})
}

func (h *Handler) Session(c *gin.Context) {
	sess, ok := session.FromContext(c)
	if !ok {
		httputil.RespondWithError(c, errors.Unauthorized(nil))
		return
	}
	httputil.RespondWithSuccess(c, sess)
}
