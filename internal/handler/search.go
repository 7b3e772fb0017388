package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/careplus/frontdesk/internal/search"
	"github.com/careplus/frontdesk/pkg/httputil"
)

// SearchInput is one keystroke in a search box.
type SearchInput struct {
	Mode search.Mode `json:"mode" binding:"required"`
	Text string      `json:"text"`
}

// PanelInput feeds a keystroke to ctl and answers with its view.
func PanelInput(c *gin.Context, ctl search.Control) {
	var req SearchInput
	if !Bind(c, &req) {
		return
	}
	RespondView(c, ctl.Input(req.Mode, req.Text), ctl.View())
}

// PanelSubmit runs the search now and answers with the results.
func PanelSubmit(c *gin.Context, ctl search.Control) {
	RespondView(c, ctl.Submit(c.Request.Context()), ctl.View())
}

// PanelSelect picks the record with the :key path parameter.
func PanelSelect(c *gin.Context, ctl search.Control) {
	RespondView(c, ctl.Pick(c.Request.Context(), c.Param("key")), ctl.View())
}

// RespondCurrent answers with the panel as it stands.
func RespondCurrent(c *gin.Context, ctl search.Control) {
	httputil.RespondWithSuccess(c, ctl.View())
}
