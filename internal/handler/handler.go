// Package handler holds what every desk handler shares: resolving the
// caller's workspace and answering with the response envelope.
package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/careplus/frontdesk/internal/model"
	"github.com/careplus/frontdesk/internal/session"
	"github.com/careplus/frontdesk/internal/workspace"
	"github.com/careplus/frontdesk/pkg/errors"
	"github.com/careplus/frontdesk/pkg/httputil"
)

// Desk resolves the workspace of the signed-in user.
type Desk struct {
	Workspaces *workspace.Store
}

// Workspace answers the request itself when it returns false.
func (d Desk) Workspace(c *gin.Context) (*workspace.Workspace, bool) {
	sess, ok := session.FromContext(c)
	if !ok {
		httputil.RespondWithError(c, errors.Unauthorized(nil))
		return nil, false
	}
	ws, err := d.Workspaces.For(sess)
	if err != nil {
		httputil.RespondWithError(c, err)
		return nil, false
	}
	return ws, true
}

// RequireRole refuses sessions of other roles with 403. Used where one
// route serves several roles by path parameter.
func RequireRole(c *gin.Context, role model.Role) bool {
	sess, ok := session.FromContext(c)
	if !ok {
		httputil.RespondWithError(c, errors.Unauthorized(nil))
		return false
	}
	if sess.Role != role {
		httputil.RespondWithErrorData(c, errors.Forbidden(session.MsgWrongRole), session.Redirect{Redirect: sess.Role.LoginPath()})
		return false
	}
	return true
}

// Bind decodes the JSON body into req.
func Bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid request body", err))
		return false
	}
	return true
}

// ParseID reads a positive numeric path parameter.
func ParseID(c *gin.Context, param string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(c.Param(param)), 10, 64)
	if err != nil || id <= 0 {
		httputil.RespondWithError(c, errors.BadRequest("invalid "+param, err))
		return 0, false
	}
	return id, true
}

// RespondModal answers a mutating action. A failure that still produced a
// modal carries it so the client can show the server's text.
func RespondModal(c *gin.Context, modal *model.Modal, err error) {
	if err != nil {
		if modal != nil {
			httputil.RespondWithErrorData(c, err, modal)
			return
		}
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, modal)
}

// RespondView answers with the current view, or the error together with
// the view so the client can redraw.
func RespondView(c *gin.Context, err error, view interface{}) {
	if err != nil {
		httputil.RespondWithErrorData(c, err, view)
		return
	}
	httputil.RespondWithSuccess(c, view)
}
